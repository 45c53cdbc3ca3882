package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"loglens/internal/config"
	"loglens/internal/exporter"
	"loglens/internal/security"
	"loglens/internal/tables"
	"loglens/pkg/contracts/domain"
)

// DataService provides read access to datasets and generated reports
type DataService struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewDataService creates a new data service
func NewDataService(paths *config.Paths, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("DataService initialized",
		slog.String("datasets_dir", paths.DatasetsDir),
		slog.String("reports_dir", paths.ReportsDir))

	return &DataService{paths: paths, logger: logger}
}

// ListDatasets returns every dataset visible under the datasets root.
// A subdirectory is one named dataset; loose table files in the root form
// single-table datasets of their own.
func (ds *DataService) ListDatasets(ctx context.Context) ([]domain.DatasetInfo, error) {
	entries, err := os.ReadDir(ds.paths.DatasetsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDatasetsFound
		}
		return nil, fmt.Errorf("read datasets dir: %w", err)
	}

	var datasets []domain.DatasetInfo
	for _, entry := range entries {
		path := filepath.Join(ds.paths.DatasetsDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			ds.logger.DebugContext(ctx, "skipping unreadable entry",
				slog.String("path", path),
				slog.String("error", err.Error()))
			continue
		}

		if entry.IsDir() {
			count, size, modified := ds.datasetStats(path)
			if count == 0 {
				continue
			}
			datasets = append(datasets, domain.DatasetInfo{
				Name:     entry.Name(),
				Path:     path,
				Format:   "directory",
				Size:     size,
				Tables:   count,
				Modified: modified,
			})
			continue
		}

		if !tables.IsSupported(entry.Name()) {
			continue
		}
		datasets = append(datasets, domain.DatasetInfo{
			Name:     strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Path:     path,
			Format:   strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Name())), "."),
			Size:     info.Size(),
			Tables:   1,
			Modified: info.ModTime(),
		})
	}

	if len(datasets) == 0 {
		return nil, ErrNoDatasetsFound
	}

	sort.Slice(datasets, func(i, j int) bool { return datasets[i].Name < datasets[j].Name })
	return datasets, nil
}

// datasetStats counts the loadable tables in a dataset directory
func (ds *DataService) datasetStats(dir string) (count int, size int64, modified time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, time.Time{}
	}
	for _, entry := range entries {
		if entry.IsDir() || !tables.IsSupported(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
		if info.ModTime().After(modified) {
			modified = info.ModTime()
		}
	}
	return count, size, modified
}

// TablePreview is the first rows of one table for display
type TablePreview struct {
	Table       string          `json:"table"`
	Columns     []domain.Column `json:"columns"`
	Rows        [][]string      `json:"rows"`
	RowCount    int             `json:"row_count"`
	Sampled     bool            `json:"sampled"`
	Fingerprint string          `json:"fingerprint,omitempty"`
}

// PreviewTable loads one table of a dataset and returns up to limit rows
func (ds *DataService) PreviewTable(ctx context.Context, dataset, table string, limit int) (*TablePreview, error) {
	if limit <= 0 {
		limit = 50
	}

	path, err := resolveTablePath(ds.paths, dataset, table)
	if err != nil {
		return nil, err
	}

	loaded, err := tables.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", table, err)
	}

	rows := loaded.Rows
	sampled := false
	if len(rows) > limit {
		rows = rows[:limit]
		sampled = true
	}

	ds.logger.DebugContext(ctx, "table preview served",
		slog.String("dataset", dataset),
		slog.String("table", loaded.Name),
		slog.Int("rows", len(rows)))

	return &TablePreview{
		Table:       loaded.Name,
		Columns:     loaded.Columns,
		Rows:        rows,
		RowCount:    loaded.RowCount,
		Sampled:     sampled,
		Fingerprint: loaded.Fingerprint,
	}, nil
}

// resolveTablePath finds the file backing a table name within a dataset.
// An empty table name resolves single-file datasets directly.
func resolveTablePath(paths *config.Paths, dataset, table string) (string, error) {
	if strings.Contains(dataset, "..") || strings.Contains(table, "..") {
		return "", ErrInvalidInput
	}

	dir := paths.GetDatasetPath(dataset)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		// Loose single-file dataset in the datasets root
		for _, ext := range tables.SupportedExtensions {
			candidate := filepath.Join(paths.DatasetsDir, dataset+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		return "", ErrDatasetNotFound
	}

	if table == "" {
		return "", ErrTableNotFound
	}
	for _, ext := range tables.SupportedExtensions {
		candidate := filepath.Join(dir, table+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrTableNotFound
}

// ImportSheet pulls one spreadsheet range into the datasets directory as
// a CSV table. The API key comes from the config when set, otherwise from
// the encrypted credential store.
func (ds *DataService) ImportSheet(ctx context.Context, cfg config.SheetsConfig, dataset, readRange string) (*domain.DatasetInfo, error) {
	if !cfg.Enabled {
		return nil, ErrSheetsDisabled
	}
	if cfg.SpreadsheetID == "" || dataset == "" || readRange == "" {
		return nil, ErrInvalidInput
	}
	if strings.Contains(dataset, "..") || strings.ContainsAny(dataset, `/\`) {
		return nil, ErrInvalidInput
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		store := security.NewCredentialStore(ds.paths.CredentialsFile, ds.logger)
		loaded, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("sheets credentials: %w", err)
		}
		apiKey = loaded
	}

	source, err := tables.NewSheetsSource(ctx, apiKey, ds.logger)
	if err != nil {
		return nil, err
	}

	table, err := source.Load(ctx, cfg.SpreadsheetID, readRange)
	if err != nil {
		return nil, err
	}

	name := sheetTableName(readRange)
	target := filepath.Join(ds.paths.GetDatasetPath(dataset), name+".csv")

	headers := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		headers[i] = col.Name
	}

	writer := exporter.NewCSVWriter(ds.paths)
	if err := writer.WriteSimpleCSV(target, headers, table.Rows); err != nil {
		return nil, fmt.Errorf("write imported table: %w", err)
	}

	ds.logger.InfoContext(ctx, "spreadsheet range imported",
		slog.String("dataset", dataset),
		slog.String("table", name),
		slog.Int("rows", table.RowCount))

	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("stat imported table: %w", err)
	}
	return &domain.DatasetInfo{
		Name:     dataset,
		Path:     filepath.Dir(target),
		Format:   "directory",
		Size:     info.Size(),
		Tables:   1,
		Modified: info.ModTime(),
	}, nil
}

// sheetTableName derives a table name from a range like "Events!A1:Z"
func sheetTableName(readRange string) string {
	name := readRange
	if i := strings.Index(name, "!"); i >= 0 {
		name = name[:i]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" {
		name = "sheet"
	}
	return name
}

// ListReports returns the generated report files, newest first
func (ds *DataService) ListReports(ctx context.Context) ([]domain.ReportFile, error) {
	writer := exporter.NewReportWriter(ds.paths, ds.logger)
	reports, err := writer.ListReports()
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	if len(reports) == 0 {
		return nil, ErrNoReportsFound
	}
	return reports, nil
}

// ResolveReportPath maps an API-relative report path to a file under the
// reports directory, refusing traversal outside it.
func (ds *DataService) ResolveReportPath(relPath string) (string, error) {
	if relPath == "" {
		return "", ErrInvalidInput
	}

	clean := filepath.Clean(filepath.FromSlash(relPath))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", ErrInvalidInput
	}

	full := filepath.Join(ds.paths.ReportsDir, clean)
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrReportNotFound
		}
		return "", fmt.Errorf("stat report: %w", err)
	}
	if info.IsDir() {
		return "", ErrReportNotFound
	}
	return full, nil
}

// DeleteReport removes one generated report file
func (ds *DataService) DeleteReport(ctx context.Context, relPath string) error {
	full, err := ds.ResolveReportPath(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	ds.logger.InfoContext(ctx, "report deleted", slog.String("path", full))
	return nil
}
