package tables

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"loglens/pkg/contracts/domain"
)

// SupportedExtensions lists the dataset file types the loader accepts
var SupportedExtensions = []string{".csv", ".xlsx"}

// IsSupported reports whether the file extension is a loadable table format
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// LoadFile loads a single table file, dispatching on extension.
// For XLSX files the first sheet is used.
func LoadFile(path string) (*domain.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path, "")
	default:
		return nil, fmt.Errorf("unsupported table format: %s", filepath.Ext(path))
	}
}

// LoadCSV reads a CSV file into a table. The first row is the header;
// short rows are padded with blank cells to the header width.
func LoadCSV(path string) (*domain.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // log exports carry ragged rows

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv file %s is empty", filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	stripBOM(header)

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, padRow(record, len(header)))
	}

	table := buildTable(tableName(path), path, header, rows)
	if table.Fingerprint, err = Fingerprint(path); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadXLSX reads one sheet of an Excel workbook into a table.
// An empty sheet name selects the workbook's first sheet.
func LoadXLSX(path, sheet string) (*domain.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
		}
		sheet = sheets[0]
	}

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	header := raw[0]
	rows := make([][]string, 0, len(raw)-1)
	for _, record := range raw[1:] {
		rows = append(rows, padRow(record, len(header)))
	}

	slog.Debug("loaded workbook sheet",
		slog.String("file", filepath.Base(path)),
		slog.String("sheet", sheet),
		slog.Int("rows", len(rows)))

	table := buildTable(tableName(path), path, header, rows)
	if table.Fingerprint, err = Fingerprint(path); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadDir loads every supported table file directly under dir,
// skipping subdirectories and unsupported extensions.
func LoadDir(dir string) ([]*domain.Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir: %w", err)
	}

	var loaded []*domain.Table
	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		table, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		loaded = append(loaded, table)
	}

	if len(loaded) == 0 {
		return nil, fmt.Errorf("no loadable tables in %s", dir)
	}
	return loaded, nil
}

// buildTable assembles a domain.Table with per-column blank and distinct
// counts and inferred value kinds.
func buildTable(name, source string, header []string, rows [][]string) *domain.Table {
	columns := make([]domain.Column, len(header))
	for i, colName := range header {
		values := make([]string, 0, len(rows))
		for _, row := range rows {
			values = append(values, row[i])
		}
		distinct := make(map[string]struct{})
		blanks := 0
		for _, v := range values {
			if IsBlank(v) {
				blanks++
				continue
			}
			distinct[v] = struct{}{}
		}
		columns[i] = domain.Column{
			Name:          strings.TrimSpace(colName),
			Index:         i,
			Kind:          inferKind(values),
			BlankCount:    blanks,
			DistinctCount: len(distinct),
		}
	}

	return &domain.Table{
		Name:        name,
		Source:      source,
		Columns:     columns,
		Rows:        rows,
		RowCount:    len(rows),
		ColumnCount: len(columns),
		LoadedAt:    time.Now(),
	}
}

func tableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func padRow(record []string, width int) []string {
	if len(record) == width {
		return record
	}
	row := make([]string, width)
	copy(row, record)
	return row
}

// stripBOM removes a UTF-8 byte order mark from the first header cell.
// Excel-produced CSVs carry one.
func stripBOM(header []string) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
}
