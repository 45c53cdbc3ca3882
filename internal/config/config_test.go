package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envVars used by tests; saved and restored around each run
var testEnvVars = []string{
	"LOGLENS_SERVER_PORT", "LOGLENS_SERVER_HOST", "LOGLENS_SERVER_READ_TIMEOUT",
	"LOGLENS_LOG_LEVEL", "LOGLENS_LOG_FORMAT", "LOGLENS_LOG_OUTPUT",
	"LOGLENS_ANALYSIS_SAMPLE_SIZE", "LOGLENS_ANALYSIS_MATCH_THRESHOLD",
	"LOGLENS_ANALYSIS_FOREST_TREES", "LOGLENS_ANALYSIS_FOREST_CONTAMINATION",
	"LOGLENS_SHEETS_ENABLED", "LOGLENS_SHEETS_SPREADSHEET_ID",
	"LOGLENS_RATE_LIMIT_RPS", "LOGLENS_RATE_LIMIT_BURST",
}

func withCleanEnv(t *testing.T, setup func()) {
	t.Helper()

	original := make(map[string]string)
	for _, key := range testEnvVars {
		original[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for _, key := range testEnvVars {
			if val := original[key]; val != "" {
				os.Setenv(key, val)
			} else {
				os.Unsetenv(key)
			}
		}
	})

	if setup != nil {
		setup()
	}
}

func TestLoadDefaults(t *testing.T) {
	withCleanEnv(t, nil)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)

	assert.Equal(t, 100, cfg.Analysis.SampleSize)
	assert.Equal(t, 0.75, cfg.Analysis.MatchThreshold)
	assert.Equal(t, 1, cfg.Analysis.SignatureThreshold)
	assert.Equal(t, 24, cfg.Analysis.SeriesPeriod)
	assert.Equal(t, 7, cfg.Analysis.SeriesSeasonal)
	assert.Equal(t, 3.0, cfg.Analysis.ScoreThreshold)
	assert.Equal(t, 100, cfg.Analysis.ForestTrees)
	assert.Equal(t, 256, cfg.Analysis.ForestSampleSize)
	assert.Equal(t, 0.1, cfg.Analysis.ForestContamination)

	assert.False(t, cfg.Sheets.Enabled)
	assert.True(t, cfg.RateLimit.Enabled)

	// Paths resolved to absolute locations
	assert.True(t, filepath.IsAbs(cfg.Paths.DatasetsDir))
	assert.True(t, filepath.IsAbs(cfg.Paths.ReportsDir))
	assert.True(t, filepath.IsAbs(cfg.Logging.FilePath))
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	withCleanEnv(t, func() {
		os.Setenv("LOGLENS_SERVER_PORT", "9090")
		os.Setenv("LOGLENS_LOG_LEVEL", "debug")
		os.Setenv("LOGLENS_ANALYSIS_SAMPLE_SIZE", "250")
		os.Setenv("LOGLENS_ANALYSIS_MATCH_THRESHOLD", "0.9")
		os.Setenv("LOGLENS_RATE_LIMIT_RPS", "5")
	})

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 250, cfg.Analysis.SampleSize)
	assert.Equal(t, 0.9, cfg.Analysis.MatchThreshold)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
}

func TestLoadYAMLFile(t *testing.T) {
	withCleanEnv(t, nil)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yamlContent := `
server:
  port: 7070
analysis:
  sample_size: 500
  match_threshold: 0.6
sheets:
  enabled: true
  spreadsheet_id: "sheet-abc-123"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Analysis.SampleSize)
	assert.Equal(t, 0.6, cfg.Analysis.MatchThreshold)
	assert.True(t, cfg.Sheets.Enabled)
	assert.Equal(t, "sheet-abc-123", cfg.Sheets.SpreadsheetID)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	withCleanEnv(t, func() {
		os.Setenv("LOGLENS_SERVER_PORT", "6001")
	})

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 7070\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 6001, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 99999 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "bad log output",
			mutate:  func(c *Config) { c.Logging.Output = "syslog" },
			wantErr: "invalid log output",
		},
		{
			name:    "zero sample size",
			mutate:  func(c *Config) { c.Analysis.SampleSize = 0 },
			wantErr: "sample size",
		},
		{
			name:    "threshold above one",
			mutate:  func(c *Config) { c.Analysis.MatchThreshold = 1.5 },
			wantErr: "match threshold",
		},
		{
			name:    "contamination half",
			mutate:  func(c *Config) { c.Analysis.ForestContamination = 0.5 },
			wantErr: "contamination",
		},
		{
			name:    "sheets without spreadsheet",
			mutate:  func(c *Config) { c.Sheets.Enabled = true; c.Sheets.SpreadsheetID = "" },
			wantErr: "spreadsheet id",
		},
		{
			name:    "rate limit without rps",
			mutate:  func(c *Config) { c.RateLimit.RPS = 0 },
			wantErr: "rps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withCleanEnv(t, nil)
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	withCleanEnv(t, nil)
	cfg := Default()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 9000
	assert.Equal(t, "0.0.0.0:9000", cfg.Address())
}
