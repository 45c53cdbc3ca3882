package entity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"loglens/internal/tables"
	"loglens/pkg/contracts/domain"
)

// ScanOptions tune a scan run
type ScanOptions struct {
	// SampleSize caps the rows graded per table; 0 scans everything
	SampleSize int
	// Seed drives the row sample draw
	Seed int64
	// Partial strips pattern anchors and searches for substring matches
	Partial bool
	// Concurrency bounds parallel table scans in ScanDataset
	Concurrency int
}

// DefaultScanOptions mirror the analysis defaults
func DefaultScanOptions() ScanOptions {
	return ScanOptions{SampleSize: 100, Seed: 1, Concurrency: 4}
}

// Scanner grades registry definitions against table columns
type Scanner struct {
	registry *Registry
	logger   *slog.Logger
}

// NewScanner creates a scanner over the given registry
func NewScanner(registry *Registry, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{registry: registry, logger: logger}
}

// ScanTable applies every definition to every text column of a sampled
// table. Only pairs with at least one match are returned: a zero total
// ratio carries no signal worth reporting.
func (s *Scanner) ScanTable(ctx context.Context, table *domain.Table, opts ScanOptions) ([]domain.ColumnMatch, error) {
	sampled := tables.Sample(table, opts.SampleSize, opts.Seed)
	defs := s.registry.List()

	var matches []domain.ColumnMatch
	for _, col := range sampled.Columns {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Typed columns (numeric, time, bool) can't carry entity strings
		if col.Kind != domain.ColumnKindText {
			continue
		}

		values := sampled.ColumnValues(col.Index)
		nonBlank := tables.NonBlankCount(values)

		for _, def := range defs {
			matcher := s.registry.matcher(def.Name, opts.Partial)
			matched := 0
			for _, v := range values {
				if matcher.MatchString(v) {
					matched++
				}
			}
			if matched == 0 {
				continue
			}

			totalRatio := float64(matched) / float64(len(values))
			ratio := totalRatio
			if nonBlank > 0 {
				ratio = float64(matched) / float64(nonBlank)
			}

			matches = append(matches, domain.ColumnMatch{
				Table:           table.Name,
				Column:          col.Name,
				Definition:      def.Name,
				Priority:        def.Priority,
				MatchRatio:      ratio,
				TotalMatchRatio: totalRatio,
				SampledRows:     len(values),
			})
		}
	}

	s.logger.DebugContext(ctx, "scanned table",
		slog.String("table", table.Name),
		slog.Int("columns", sampled.ColumnCount),
		slog.Int("matches", len(matches)))

	return matches, nil
}

// ScanDataset scans tables concurrently with bounded parallelism and
// returns the combined matches ordered by table, column, then definition.
func (s *Scanner) ScanDataset(ctx context.Context, dataset []*domain.Table, opts ScanOptions) ([]domain.ColumnMatch, error) {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	var (
		mu  sync.Mutex
		all []domain.ColumnMatch
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, table := range dataset {
		g.Go(func() error {
			matches, err := s.ScanTable(gctx, table, opts)
			if err != nil {
				return fmt.Errorf("scan %s: %w", table.Name, err)
			}
			mu.Lock()
			all = append(all, matches...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Table != all[j].Table {
			return all[i].Table < all[j].Table
		}
		if all[i].Column != all[j].Column {
			return all[i].Column < all[j].Column
		}
		return all[i].Definition < all[j].Definition
	})
	return all, nil
}
