package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"loglens/internal/config"
)

// CSVWriter handles CSV file writing with path resolution
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer with the given paths configuration
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	// Headers to write as the first row
	Headers []string
	// Records to write
	Records [][]string
	// Append to existing file instead of overwriting
	Append bool
	// BOMPrefix adds a UTF-8 BOM so Excel opens the file correctly
	BOMPrefix bool
}

// WriteCSV writes records to a CSV file at the specified path
func (w *CSVWriter) WriteCSV(path string, opts WriteOptions) error {
	fullPath := w.resolvePath(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if opts.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if opts.BOMPrefix && !opts.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(opts.Headers) > 0 && !opts.Append {
		if err := writer.Write(opts.Headers); err != nil {
			return fmt.Errorf("write headers: %w", err)
		}
	}

	for i, record := range opts.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush writer: %w", err)
	}

	return nil
}

// WriteSimpleCSV writes headers and records with BOM enabled
func (w *CSVWriter) WriteSimpleCSV(path string, headers []string, records [][]string) error {
	return w.WriteCSV(path, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// AppendToCSV appends records to an existing CSV file
func (w *CSVWriter) AppendToCSV(path string, records [][]string) error {
	return w.WriteCSV(path, WriteOptions{
		Records: records,
		Append:  true,
	})
}

// resolvePath resolves relative paths against the configured directories.
// Absolute paths pass through unchanged; "datasets/" and "cache/" prefixes
// route to their directories, everything else lands in the reports directory.
func (w *CSVWriter) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	if w.paths == nil {
		return path
	}

	switch {
	case strings.HasPrefix(path, "datasets/"):
		return w.paths.GetDatasetPath(strings.TrimPrefix(path, "datasets/"))
	case strings.HasPrefix(path, "cache/"):
		return w.paths.GetCachePath(strings.TrimPrefix(path, "cache/"))
	default:
		return w.paths.GetReportPath(path)
	}
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(path string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		file.Close()
		return nil, fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(file)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("write headers: %w", err)
		}
	}

	return &StreamWriter{
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (sw *StreamWriter) WriteRecord(record []string) error {
	if err := sw.writer.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Close flushes and closes the stream writer
func (sw *StreamWriter) Close() error {
	sw.writer.Flush()
	if err := sw.writer.Error(); err != nil {
		sw.file.Close()
		return fmt.Errorf("flush on close: %w", err)
	}
	return sw.file.Close()
}
