package exporter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"loglens/internal/config"
	"loglens/pkg/contracts/domain"
)

// ReportWriter renders analysis results as dated report files in the
// reports directory. CSV files carry a UTF-8 BOM for Excel compatibility.
type ReportWriter struct {
	paths  *config.Paths
	csv    *CSVWriter
	logger *slog.Logger
}

// NewReportWriter creates a report writer rooted at the configured paths
func NewReportWriter(paths *config.Paths, logger *slog.Logger) *ReportWriter {
	return &ReportWriter{
		paths:  paths,
		csv:    NewCSVWriter(paths),
		logger: logger.With(slog.String("component", "report_writer")),
	}
}

// WriteProfiles writes table profiles to the dated profiles CSV.
// One row per column, grouped by table, so a profile across a whole
// dataset lands in a single file.
func (w *ReportWriter) WriteProfiles(profiles []domain.TableProfile, date time.Time) (string, error) {
	path := w.paths.GetProfilesCSVPath(date)

	headers := []string{
		"table", "rows", "columns", "patterns", "variability", "class",
		"column", "blank_ratio", "always_set", "never_set",
	}

	var records [][]string
	for _, p := range profiles {
		for _, c := range p.Columns {
			records = append(records, []string{
				p.Table,
				formatInt(p.RowCount),
				formatInt(p.ColumnCount),
				formatInt(p.PatternCount),
				formatFloat(p.Variability),
				string(p.Class),
				c.Name,
				formatRatio(c.BlankRatio),
				formatBool(c.AlwaysSet),
				formatBool(c.NeverSet),
			})
		}
	}

	if err := w.csv.WriteSimpleCSV(path, headers, records); err != nil {
		return "", fmt.Errorf("write profiles report: %w", err)
	}

	w.logger.Info("profiles report written",
		slog.String("path", path),
		slog.Int("tables", len(profiles)))
	return path, nil
}

// WriteReduction writes a column-reduction report next to the other
// reports for the same table.
func (w *ReportWriter) WriteReduction(report *domain.ReductionReport, date time.Time) (string, error) {
	name := fmt.Sprintf("loglens_reduction_%s_%s.csv", report.Table, date.Format("20060102"))
	path := w.paths.GetReportPath(name)

	headers := []string{"table", "column", "reason", "detail", "entropy"}

	records := make([][]string, 0, len(report.Dropped))
	for _, d := range report.Dropped {
		records = append(records, []string{
			report.Table,
			d.Name,
			string(d.Reason),
			d.Detail,
			formatScore(d.Entropy),
		})
	}

	if err := w.csv.WriteSimpleCSV(path, headers, records); err != nil {
		return "", fmt.Errorf("write reduction report: %w", err)
	}
	return path, nil
}

// WriteSignatures writes a signature census to the dated per-table CSV.
// Large tables stream row by row rather than accumulating records.
func (w *ReportWriter) WriteSignatures(set *domain.SignatureSet, date time.Time) (string, error) {
	path := w.paths.GetSignaturesCSVPath(set.Table, date)

	headers := []string{"signature", "count", "share", "present_features", "missing_features"}

	sw, err := w.csv.CreateStreamWriter(path, headers)
	if err != nil {
		return "", fmt.Errorf("write signatures report: %w", err)
	}

	for _, s := range set.Summaries {
		share := 0.0
		if set.RowCount > 0 {
			share = float64(s.Count) / float64(set.RowCount)
		}
		record := []string{
			s.Signature,
			formatInt(s.Count),
			formatRatio(share),
			strings.Join(s.PresentFeatures, ";"),
			strings.Join(s.MissingFeatures, ";"),
		}
		if err := sw.WriteRecord(record); err != nil {
			sw.Close()
			return "", fmt.Errorf("write signatures report: %w", err)
		}
	}

	if err := sw.Close(); err != nil {
		return "", fmt.Errorf("write signatures report: %w", err)
	}

	w.logger.Info("signatures report written",
		slog.String("path", path),
		slog.String("table", set.Table),
		slog.Int("signatures", len(set.Summaries)))
	return path, nil
}

// WriteForestAnomalies writes isolation-forest scores to the dated
// anomalies CSV. Only flagged rows are written unless includeNormal is set.
func (w *ReportWriter) WriteForestAnomalies(result *domain.ForestResult, includeNormal bool, date time.Time) (string, error) {
	path := w.paths.GetAnomaliesCSVPath(date)

	headers := []string{"table", "row_index", "score", "is_anomaly", "threshold"}

	var records [][]string
	for _, s := range result.Scores {
		if !includeNormal && !s.IsAnomaly {
			continue
		}
		records = append(records, []string{
			result.Table,
			formatInt(s.RowIndex),
			formatScore(s.Score),
			formatBool(s.IsAnomaly),
			formatScore(result.Threshold),
		})
	}

	if err := w.csv.WriteSimpleCSV(path, headers, records); err != nil {
		return "", fmt.Errorf("write forest anomalies report: %w", err)
	}

	w.logger.Info("forest anomalies report written",
		slog.String("path", path),
		slog.String("table", result.Table),
		slog.Int("anomalies", result.AnomalyCount))
	return path, nil
}

// WriteSeriesDecomposition writes an hourly series decomposition with one
// row per observation, anomalous or not, so the baseline can be charted.
func (w *ReportWriter) WriteSeriesDecomposition(dec *domain.SeriesDecomposition, table string, date time.Time) (string, error) {
	name := fmt.Sprintf("loglens_series_%s_%s.csv", table, date.Format("20060102"))
	path := w.paths.GetReportPath(name)

	headers := []string{"timestamp", "value", "trend", "seasonal", "residual", "baseline", "score", "label"}

	records := make([][]string, 0, len(dec.Points))
	for _, p := range dec.Points {
		records = append(records, []string{
			p.Timestamp.Format(time.RFC3339),
			formatFloat(p.Value),
			formatFloat(p.Trend),
			formatFloat(p.Seasonal),
			formatFloat(p.Residual),
			formatFloat(p.Baseline),
			formatScore(p.Score),
			p.Label.String(),
		})
	}

	if err := w.csv.WriteSimpleCSV(path, headers, records); err != nil {
		return "", fmt.Errorf("write series report: %w", err)
	}
	return path, nil
}

// WriteEntityMapJSON persists the dataset-wide entity map as indented JSON
func (w *ReportWriter) WriteEntityMapJSON(entityMap *domain.EntityMap, date time.Time) (string, error) {
	name := fmt.Sprintf("loglens_entity_map_%s.json", date.Format("20060102"))
	path := w.paths.GetReportPath(name)

	if err := w.writeJSON(path, entityMap); err != nil {
		return "", fmt.Errorf("write entity map: %w", err)
	}

	w.logger.Info("entity map written",
		slog.String("path", path),
		slog.Int("entity_types", len(entityMap.Entities)))
	return path, nil
}

// WriteQueriesJSON persists generated hunting queries as indented JSON
func (w *ReportWriter) WriteQueriesJSON(queries []domain.HuntingQuery, date time.Time) (string, error) {
	name := fmt.Sprintf("loglens_queries_%s.json", date.Format("20060102"))
	path := w.paths.GetReportPath(name)

	if err := w.writeJSON(path, queries); err != nil {
		return "", fmt.Errorf("write hunting queries: %w", err)
	}
	return path, nil
}

func (w *ReportWriter) writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// WorkbookContent gathers every artifact of one analysis run for the
// consolidated workbook. Nil sections are skipped.
type WorkbookContent struct {
	Dataset     string
	Profiles    []domain.TableProfile
	Assignments []domain.EntityAssignment
	Signatures  []*domain.SignatureSet
	Forest      []*domain.ForestResult
	Reductions  []*domain.ReductionReport
}

// WriteWorkbook consolidates an analysis run into one XLSX workbook with a
// sheet per artifact kind.
func (w *ReportWriter) WriteWorkbook(content WorkbookContent, date time.Time) (string, error) {
	path := w.paths.GetWorkbookPath(content.Dataset, date)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if len(content.Profiles) > 0 {
		if err := w.addProfilesSheet(f, content.Profiles); err != nil {
			return "", err
		}
	}
	if len(content.Assignments) > 0 {
		if err := w.addEntitiesSheet(f, content.Assignments); err != nil {
			return "", err
		}
	}
	if len(content.Signatures) > 0 {
		if err := w.addSignaturesSheet(f, content.Signatures); err != nil {
			return "", err
		}
	}
	if len(content.Forest) > 0 {
		if err := w.addAnomaliesSheet(f, content.Forest); err != nil {
			return "", err
		}
	}
	if len(content.Reductions) > 0 {
		if err := w.addReductionSheet(f, content.Reductions); err != nil {
			return "", err
		}
	}

	// The default sheet stays only when nothing else was added
	if len(f.GetSheetList()) > 1 {
		f.DeleteSheet("Sheet1")
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("workbook written",
		slog.String("path", path),
		slog.String("dataset", content.Dataset),
		slog.Int("sheets", len(f.GetSheetList())))
	return path, nil
}

func (w *ReportWriter) addProfilesSheet(f *excelize.File, profiles []domain.TableProfile) error {
	const sheet = "Profiles"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Table", "Rows", "Columns", "Patterns", "Variability", "Class"},
	}
	for _, p := range profiles {
		rows = append(rows, []interface{}{
			p.Table, p.RowCount, p.ColumnCount, p.PatternCount, p.Variability, string(p.Class),
		})
	}
	return w.writeSheetRows(f, sheet, rows)
}

func (w *ReportWriter) addEntitiesSheet(f *excelize.File, assignments []domain.EntityAssignment) error {
	const sheet = "Entities"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Table", "Column", "Entity", "Definition", "Match Ratio"},
	}
	for _, a := range assignments {
		rows = append(rows, []interface{}{
			a.Table, a.Column, string(a.Entity), a.Definition, a.MatchRatio,
		})
	}
	return w.writeSheetRows(f, sheet, rows)
}

func (w *ReportWriter) addSignaturesSheet(f *excelize.File, sets []*domain.SignatureSet) error {
	const sheet = "Signatures"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Table", "Signature", "Count", "Present Features"},
	}
	for _, set := range sets {
		for _, s := range set.Summaries {
			rows = append(rows, []interface{}{
				set.Table, s.Signature, s.Count, strings.Join(s.PresentFeatures, ";"),
			})
		}
	}
	return w.writeSheetRows(f, sheet, rows)
}

func (w *ReportWriter) addAnomaliesSheet(f *excelize.File, results []*domain.ForestResult) error {
	const sheet = "Anomalies"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Table", "Row Index", "Score", "Threshold"},
	}
	for _, r := range results {
		for _, s := range r.Scores {
			if !s.IsAnomaly {
				continue
			}
			rows = append(rows, []interface{}{r.Table, s.RowIndex, s.Score, r.Threshold})
		}
	}
	return w.writeSheetRows(f, sheet, rows)
}

func (w *ReportWriter) addReductionSheet(f *excelize.File, reports []*domain.ReductionReport) error {
	const sheet = "Reduction"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{
		{"Table", "Column", "Reason", "Detail"},
	}
	for _, r := range reports {
		for _, d := range r.Dropped {
			rows = append(rows, []interface{}{r.Table, d.Name, string(d.Reason), d.Detail})
		}
	}
	return w.writeSheetRows(f, sheet, rows)
}

func (w *ReportWriter) writeSheetRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// ListReports enumerates report files in the reports directory, newest first
func (w *ReportWriter) ListReports() ([]domain.ReportFile, error) {
	entries, err := os.ReadDir(w.paths.ReportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.ReportFile{}, nil
		}
		return nil, fmt.Errorf("read reports directory: %w", err)
	}

	reports := make([]domain.ReportFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		kind, format, ok := classifyReport(entry.Name())
		if !ok {
			continue
		}
		reports = append(reports, domain.ReportFile{
			Name:        entry.Name(),
			Path:        w.paths.GetReportPath(entry.Name()),
			Kind:        kind,
			Format:      format,
			Size:        info.Size(),
			GeneratedAt: info.ModTime(),
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})
	return reports, nil
}

// classifyReport infers the report kind and format from a filename
func classifyReport(name string) (domain.ReportKind, domain.ReportFormat, bool) {
	var format domain.ReportFormat
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		format = domain.ReportFormatCSV
	case ".json":
		format = domain.ReportFormatJSON
	case ".xlsx":
		format = domain.ReportFormatExcel
	default:
		return "", "", false
	}

	switch {
	case strings.HasPrefix(name, "loglens_profiles_"):
		return domain.ReportKindProfiles, format, true
	case strings.HasPrefix(name, "loglens_signatures_"):
		return domain.ReportKindSignatures, format, true
	case strings.HasPrefix(name, "loglens_anomalies_"), strings.HasPrefix(name, "loglens_series_"):
		return domain.ReportKindAnomalies, format, true
	case strings.HasPrefix(name, "loglens_reduction_"):
		return domain.ReportKindReduction, format, true
	case strings.HasPrefix(name, "loglens_entity_map_"), strings.HasPrefix(name, "loglens_queries_"):
		return domain.ReportKindEntityMap, format, true
	case format == domain.ReportFormatExcel && strings.HasPrefix(name, "loglens_"):
		return domain.ReportKindWorkbook, format, true
	default:
		return "", "", false
	}
}
