package anomaly

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Forest is an isolation forest: an ensemble of randomized binary trees
// that isolate rows by recursive random splits. Anomalous rows isolate in
// few splits, so a short mean path length maps to a score near 1.
type Forest struct {
	trees         int
	sampleSize    int
	contamination float64
	seed          int64

	roots        []*forestNode
	features     int
	fittedSample int
	threshold    float64
	fitted       bool
}

type forestNode struct {
	left, right *forestNode
	splitAttr   int
	splitValue  float64
	size        int
}

// ForestOption configures a Forest
type ForestOption func(*Forest)

// WithTrees sets the ensemble size
func WithTrees(n int) ForestOption {
	return func(f *Forest) { f.trees = n }
}

// WithSampleSize sets the per-tree subsample size
func WithSampleSize(n int) ForestOption {
	return func(f *Forest) { f.sampleSize = n }
}

// WithContamination sets the expected anomaly fraction used to place the
// decision threshold
func WithContamination(c float64) ForestOption {
	return func(f *Forest) { f.contamination = c }
}

// WithSeed fixes the random source so fits are reproducible
func WithSeed(seed int64) ForestOption {
	return func(f *Forest) { f.seed = seed }
}

// NewForest creates a forest with the standard defaults: 100 trees,
// subsample 256, contamination 0.1.
func NewForest(opts ...ForestOption) *Forest {
	f := &Forest{
		trees:         100,
		sampleSize:    256,
		contamination: 0.1,
		seed:          1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit builds the ensemble over the training rows and places the decision
// threshold so the top ceil(n * contamination) training scores sit at or
// above it.
func (f *Forest) Fit(data [][]float64) error {
	if len(data) == 0 {
		return fmt.Errorf("isolation forest needs training data")
	}
	f.features = len(data[0])
	for i, row := range data {
		if len(row) != f.features {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), f.features)
		}
	}
	if f.trees < 1 {
		return fmt.Errorf("tree count must be positive, got %d", f.trees)
	}
	if f.contamination <= 0 || f.contamination >= 0.5 {
		return fmt.Errorf("contamination must be in (0,0.5), got %.3f", f.contamination)
	}

	sample := f.sampleSize
	if sample > len(data) {
		sample = len(data)
	}
	f.fittedSample = sample
	heightLimit := int(math.Ceil(math.Log2(float64(sample))))
	if heightLimit < 1 {
		heightLimit = 1
	}

	rng := rand.New(rand.NewSource(f.seed))
	f.roots = make([]*forestNode, f.trees)
	for t := 0; t < f.trees; t++ {
		subsample := make([][]float64, 0, sample)
		for _, idx := range rng.Perm(len(data))[:sample] {
			subsample = append(subsample, data[idx])
		}
		f.roots[t] = buildTree(subsample, 0, heightLimit, rng)
	}
	f.fitted = true

	scores := make([]float64, len(data))
	for i, row := range data {
		scores[i] = f.Score(row)
	}
	sort.Float64s(scores)
	flagged := int(math.Ceil(float64(len(scores)) * f.contamination))
	if flagged > len(scores) {
		flagged = len(scores)
	}
	f.threshold = scores[len(scores)-flagged]
	return nil
}

// Score returns the anomaly score of a row in [0,1] using the standard
// normalization 2^(-E[h(x)]/c(n)) with n the subsample size.
func (f *Forest) Score(row []float64) float64 {
	if !f.fitted || len(row) != f.features || f.fittedSample <= 1 {
		return 0
	}

	total := 0.0
	for _, root := range f.roots {
		total += pathLength(root, row, 0)
	}
	mean := total / float64(len(f.roots))
	return math.Pow(2, -mean/averagePathLength(f.fittedSample))
}

// Predict returns the anomaly scores for a batch of rows
func (f *Forest) Predict(data [][]float64) ([]float64, error) {
	if !f.fitted {
		return nil, fmt.Errorf("isolation forest is not fitted")
	}
	scores := make([]float64, len(data))
	for i, row := range data {
		if len(row) != f.features {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), f.features)
		}
		scores[i] = f.Score(row)
	}
	return scores, nil
}

// IsAnomaly reports whether a row scores at or above the fitted threshold
func (f *Forest) IsAnomaly(row []float64) bool {
	return f.fitted && f.Score(row) >= f.threshold
}

// Threshold returns the decision threshold fixed at fit time
func (f *Forest) Threshold() float64 { return f.threshold }

func buildTree(data [][]float64, height, limit int, rng *rand.Rand) *forestNode {
	node := &forestNode{size: len(data)}
	if height >= limit || len(data) <= 1 {
		return node
	}

	features := len(data[0])
	attr := rng.Intn(features)

	minVal, maxVal := data[0][attr], data[0][attr]
	for _, row := range data {
		if row[attr] < minVal {
			minVal = row[attr]
		}
		if row[attr] > maxVal {
			maxVal = row[attr]
		}
	}
	if minVal == maxVal {
		return node
	}

	split := minVal + rng.Float64()*(maxVal-minVal)

	var left, right [][]float64
	for _, row := range data {
		if row[attr] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}

	node.splitAttr = attr
	node.splitValue = split
	node.left = buildTree(left, height+1, limit, rng)
	node.right = buildTree(right, height+1, limit, rng)
	return node
}

func pathLength(node *forestNode, row []float64, depth int) float64 {
	if node.left == nil && node.right == nil {
		return float64(depth) + averagePathLength(node.size)
	}
	if row[node.splitAttr] < node.splitValue {
		return pathLength(node.left, row, depth+1)
	}
	return pathLength(node.right, row, depth+1)
}

const eulerMascheroni = 0.5772156649

// averagePathLength is c(n): the expected path length of an unsuccessful
// BST search over n values, used to normalize isolation depths.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	if n == 2 {
		return 1
	}
	h := math.Log(float64(n-1)) + eulerMascheroni
	return 2*h - 2*float64(n-1)/float64(n)
}
