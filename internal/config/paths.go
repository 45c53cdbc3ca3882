package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	WebDir        string
	StaticDir     string
	DataDir       string
	DatasetsDir   string
	ReportsDir    string
	CacheDir      string
	LogsDir       string

	// Config files
	DefinitionsFile string
	CredentialsFile string

	// Well-known report files
	EntityMapJSON  string
	DefinitionsCSV string
}

// GetPaths returns the application paths relative to the executable location.
// All paths are ALWAYS relative to the executable directory, never the
// current working directory, so every command resolves the same layout:
//
//	<exe dir>/
//	  ├── entity-definitions.json
//	  ├── credentials.dat
//	  ├── data/
//	  │   ├── datasets/   (CSV/XLSX log exports to analyze)
//	  │   ├── reports/    (generated analysis reports)
//	  │   └── cache/      (fingerprints, temporary files)
//	  ├── logs/
//	  └── web/
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	exeDir := filepath.Dir(exe)

	dataDir := filepath.Join(exeDir, "data")
	reportsDir := filepath.Join(dataDir, "reports")

	paths := &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		WebDir:        filepath.Join(exeDir, "web"),
		StaticDir:     filepath.Join(exeDir, "web", "static"),
		DatasetsDir:   filepath.Join(dataDir, "datasets"),
		ReportsDir:    reportsDir,
		CacheDir:      filepath.Join(dataDir, "cache"),
		LogsDir:       filepath.Join(exeDir, "logs"),

		DefinitionsFile: filepath.Join(exeDir, "entity-definitions.json"),
		CredentialsFile: filepath.Join(exeDir, "credentials.dat"),

		EntityMapJSON:  filepath.Join(reportsDir, "entity_map.json"),
		DefinitionsCSV: filepath.Join(reportsDir, "entity_definitions.csv"),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.DatasetsDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetWebFilePath returns the path to a web file
func (p *Paths) GetWebFilePath(filename string) string {
	return filepath.Join(p.WebDir, filename)
}

// GetStaticFilePath returns the path to a static file
func (p *Paths) GetStaticFilePath(filename string) string {
	return filepath.Join(p.StaticDir, filename)
}

// GetDatasetPath returns the path for a dataset file
func (p *Paths) GetDatasetPath(filename string) string {
	return filepath.Join(p.DatasetsDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCachePath returns the path for a cache file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// GetDefinitionsPath returns the entity definitions file path
func (p *Paths) GetDefinitionsPath() string {
	path := p.DefinitionsFile
	logger := slog.Default()
	if logger != nil {
		logger.Debug("Definitions path resolved",
			slog.String("path", path),
			slog.Bool("exists", FileExists(path)))
	}
	return path
}

// GetCredentialsPath returns the encrypted credentials file path
func (p *Paths) GetCredentialsPath() string {
	return p.CredentialsFile
}

// GetProfilesCSVPath returns the path for a table-profiles report
func (p *Paths) GetProfilesCSVPath(date time.Time) string {
	filename := fmt.Sprintf("loglens_profiles_%s.csv", date.Format("20060102"))
	return filepath.Join(p.ReportsDir, filename)
}

// GetSignaturesCSVPath returns the path for a per-table signature report
func (p *Paths) GetSignaturesCSVPath(table string, date time.Time) string {
	filename := fmt.Sprintf("loglens_signatures_%s_%s.csv", table, date.Format("20060102"))
	return filepath.Join(p.ReportsDir, filename)
}

// GetAnomaliesCSVPath returns the path for an anomaly report
func (p *Paths) GetAnomaliesCSVPath(date time.Time) string {
	filename := fmt.Sprintf("loglens_anomalies_%s.csv", date.Format("20060102"))
	return filepath.Join(p.ReportsDir, filename)
}

// GetWorkbookPath returns the path for the consolidated XLSX workbook
func (p *Paths) GetWorkbookPath(dataset string, date time.Time) string {
	filename := fmt.Sprintf("loglens_%s_%s.xlsx", dataset, date.Format("20060102"))
	return filepath.Join(p.ReportsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("datasets", p.DatasetsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("cache", p.CacheDir),
			slog.String("logs", p.LogsDir),
			slog.String("web", p.WebDir),
		),
		slog.Group("config_files",
			slog.String("definitions", p.DefinitionsFile),
			slog.String("credentials", p.CredentialsFile),
		))
}

// ValidateRequiredFiles checks if critical files exist
func (p *Paths) ValidateRequiredFiles() error {
	if !FileExists(p.DatasetsDir) {
		return fmt.Errorf("datasets directory missing: %s", p.DatasetsDir)
	}
	return nil
}
