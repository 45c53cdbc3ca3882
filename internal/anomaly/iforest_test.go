package anomaly

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clusterWithOutliers builds a tight 2-d cluster around (10,10) with a
// few far-away rows appended.
func clusterWithOutliers(n, outliers int) [][]float64 {
	rng := rand.New(rand.NewSource(7))
	data := make([][]float64, 0, n+outliers)
	for i := 0; i < n; i++ {
		data = append(data, []float64{
			10 + rng.NormFloat64(),
			10 + rng.NormFloat64(),
		})
	}
	for i := 0; i < outliers; i++ {
		data = append(data, []float64{
			100 + rng.NormFloat64(),
			-80 + rng.NormFloat64(),
		})
	}
	return data
}

func TestForestSeparatesOutliers(t *testing.T) {
	data := clusterWithOutliers(300, 5)

	forest := NewForest(
		WithTrees(100),
		WithSampleSize(128),
		WithContamination(0.05),
		WithSeed(42),
	)
	require.NoError(t, forest.Fit(data))

	inlierScore := forest.Score(data[0])
	outlierScore := forest.Score(data[len(data)-1])
	assert.Greater(t, outlierScore, inlierScore)
	assert.Greater(t, outlierScore, 0.6, "isolated rows score near 1")
	assert.Less(t, inlierScore, 0.6, "clustered rows score low")

	assert.True(t, forest.IsAnomaly([]float64{100, -80}))
	assert.False(t, forest.IsAnomaly([]float64{10, 10}))
}

func TestForestDeterministicUnderSeed(t *testing.T) {
	data := clusterWithOutliers(200, 3)

	fit := func() (*Forest, []float64) {
		f := NewForest(WithTrees(50), WithSampleSize(64), WithContamination(0.1), WithSeed(99))
		require.NoError(t, f.Fit(data))
		scores, err := f.Predict(data)
		require.NoError(t, err)
		return f, scores
	}

	f1, scores1 := fit()
	f2, scores2 := fit()
	assert.Equal(t, f1.Threshold(), f2.Threshold())
	assert.Equal(t, scores1, scores2)
}

func TestForestThresholdTracksContamination(t *testing.T) {
	data := clusterWithOutliers(400, 0)
	forest := NewForest(WithTrees(50), WithSampleSize(128), WithContamination(0.1), WithSeed(1))
	require.NoError(t, forest.Fit(data))

	flagged := 0
	for _, row := range data {
		if forest.IsAnomaly(row) {
			flagged++
		}
	}
	rate := float64(flagged) / float64(len(data))
	assert.InDelta(t, 0.1, rate, 0.05)
}

func TestForestFlagsOutlierInSmallTable(t *testing.T) {
	// ceil(10 * 0.1) = 1: even a ten-row fit must flag its single
	// extreme row
	data := clusterWithOutliers(9, 0)
	data = append(data, []float64{50, 50})

	forest := NewForest(WithSeed(42))
	require.NoError(t, forest.Fit(data))

	assert.True(t, forest.IsAnomaly([]float64{50, 50}))
	assert.LessOrEqual(t, forest.Threshold(), forest.Score([]float64{50, 50}))

	flagged := 0
	for _, row := range data {
		if forest.IsAnomaly(row) {
			flagged++
		}
	}
	assert.GreaterOrEqual(t, flagged, 1)
	assert.LessOrEqual(t, flagged, 2)
}

func TestForestFitErrors(t *testing.T) {
	forest := NewForest()
	assert.Error(t, forest.Fit(nil))
	assert.Error(t, forest.Fit([][]float64{{1, 2}, {1}}))

	bad := NewForest(WithContamination(0.9))
	assert.Error(t, bad.Fit([][]float64{{1}, {2}}))

	noTrees := NewForest(WithTrees(0))
	assert.Error(t, noTrees.Fit([][]float64{{1}, {2}}))
}

func TestForestPredictBeforeFit(t *testing.T) {
	forest := NewForest()
	_, err := forest.Predict([][]float64{{1}})
	assert.Error(t, err)
	assert.Zero(t, forest.Score([]float64{1}))
	assert.False(t, forest.IsAnomaly([]float64{1}))
}
