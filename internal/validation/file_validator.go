package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"loglens/internal/tables"
)

// FileValidator checks dataset directories and data files before analysis
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateDatasetDirectory validates that a dataset directory exists and
// reports how many loadable data files it holds. An empty directory is
// not an error, there is just nothing to analyze yet.
func (v *FileValidator) ValidateDatasetDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("dataset directory does not exist",
			slog.String("directory", dir))
		return 0, fmt.Errorf("dataset directory %s does not exist", dir)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	count, err := v.CountDataFiles(dir)
	if err != nil {
		return 0, err
	}

	if count == 0 {
		v.logger.Warn("dataset directory holds no data files",
			slog.String("directory", dir))
		return 0, nil
	}

	v.logger.Info("dataset directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", count))
	return count, nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateDataFile checks that a file exists, is readable and carries a
// loadable table extension. Excel lock files ("~$" prefix) are rejected.
func (v *FileValidator) ValidateDataFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	if !tables.IsSupported(path) {
		ext := strings.ToLower(filepath.Ext(path))
		v.logger.Error("file is not a loadable table",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not a loadable table (extension: %s)", path, ext)
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("skipping temporary spreadsheet file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary spreadsheet file", path)
	}

	return nil
}

// CountDataFiles counts loadable data files directly under a directory
func (v *FileValidator) CountDataFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") {
			continue
		}
		if tables.IsSupported(name) {
			count++
		}
	}

	v.logger.Debug("data files counted",
		slog.String("directory", dir),
		slog.Int("count", count))
	return count, nil
}
