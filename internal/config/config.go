package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config holds all application configuration.
// Values load in three layers: struct defaults, optional YAML file,
// then LOGLENS_* environment variables. Later layers win.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Paths     PathsConfig     `yaml:"paths"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"SERVER_HOST" default:"localhost"`
	Port            int           `yaml:"port" envconfig:"SERVER_PORT" default:"8085"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
	Format     string `yaml:"format" envconfig:"LOG_FORMAT" default:"json"`
	Output     string `yaml:"output" envconfig:"LOG_OUTPUT" default:"both"`
	FilePath   string `yaml:"file_path" envconfig:"LOG_FILE_PATH" default:"logs/loglens.log"`
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"LOG_MAX_SIZE" default:"100"`
	MaxAgeDays int    `yaml:"max_age_days" envconfig:"LOG_MAX_AGE" default:"30"`
}

// PathsConfig contains overridable filesystem locations. Empty values
// fall back to the executable-relative layout from GetPaths.
type PathsConfig struct {
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR"`
	DatasetsDir     string `yaml:"datasets_dir" envconfig:"DATASETS_DIR"`
	ReportsDir      string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	DefinitionsFile string `yaml:"definitions_file" envconfig:"DEFINITIONS_FILE"`
}

// AnalysisConfig carries the tunable knobs of the analysis engines
type AnalysisConfig struct {
	SampleSize         int     `yaml:"sample_size" envconfig:"ANALYSIS_SAMPLE_SIZE" default:"100"`
	MatchThreshold     float64 `yaml:"match_threshold" envconfig:"ANALYSIS_MATCH_THRESHOLD" default:"0.75"`
	SignatureThreshold int     `yaml:"signature_threshold" envconfig:"ANALYSIS_SIGNATURE_THRESHOLD" default:"1"`
	EntropyCutoff      float64 `yaml:"entropy_cutoff" envconfig:"ANALYSIS_ENTROPY_CUTOFF" default:"0.5"`
	AggressiveEntropy  bool    `yaml:"aggressive_entropy" envconfig:"ANALYSIS_AGGRESSIVE_ENTROPY" default:"false"`
	SeriesPeriod       int     `yaml:"series_period" envconfig:"ANALYSIS_SERIES_PERIOD" default:"24"`
	SeriesSeasonal     int     `yaml:"series_seasonal" envconfig:"ANALYSIS_SERIES_SEASONAL" default:"7"`
	ScoreThreshold     float64 `yaml:"score_threshold" envconfig:"ANALYSIS_SCORE_THRESHOLD" default:"3.0"`
	ForestTrees        int     `yaml:"forest_trees" envconfig:"ANALYSIS_FOREST_TREES" default:"100"`
	ForestSampleSize   int     `yaml:"forest_sample_size" envconfig:"ANALYSIS_FOREST_SAMPLE_SIZE" default:"256"`
	ForestContamination float64 `yaml:"forest_contamination" envconfig:"ANALYSIS_FOREST_CONTAMINATION" default:"0.1"`
	ScanConcurrency    int     `yaml:"scan_concurrency" envconfig:"ANALYSIS_SCAN_CONCURRENCY" default:"4"`
}

// SheetsConfig configures the optional Google Sheets dataset source
type SheetsConfig struct {
	Enabled       bool   `yaml:"enabled" envconfig:"SHEETS_ENABLED" default:"false"`
	SpreadsheetID string `yaml:"spreadsheet_id" envconfig:"SHEETS_SPREADSHEET_ID"`
	APIKey        string `yaml:"api_key" envconfig:"SHEETS_API_KEY"`
}

// WebSocketConfig contains WebSocket hub settings
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"WS_READ_BUFFER" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WS_WRITE_BUFFER" default:"1024"`
	WriteWait       time.Duration `yaml:"write_wait" envconfig:"WS_WRITE_WAIT" default:"10s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"WS_PONG_WAIT" default:"60s"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"WS_PING_PERIOD" default:"54s"`
	MaxMessageSize  int64         `yaml:"max_message_size" envconfig:"WS_MAX_MESSAGE" default:"524288"`
}

// RateLimitConfig throttles the HTTP API per client address
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"RATE_LIMIT_BURST" default:"40"`
}

// Load reads configuration from defaults, an optional YAML file, and
// environment variables with the LOGLENS prefix.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			data, err := os.ReadFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := envconfig.Process("LOGLENS", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration populated from struct defaults
func Default() *Config {
	cfg := &Config{}
	// envconfig with an unset prefix fills in the default tags
	_ = envconfig.Process("LOGLENS", cfg)
	return cfg
}

// resolvePaths makes relative path overrides absolute against the
// executable directory so behavior does not depend on the working dir.
func (c *Config) resolvePaths() error {
	paths, err := GetPaths()
	if err != nil {
		return err
	}

	resolve := func(override, fallback string) string {
		if override == "" {
			return fallback
		}
		if filepath.IsAbs(override) {
			return override
		}
		return filepath.Join(paths.ExecutableDir, override)
	}

	c.Paths.DataDir = resolve(c.Paths.DataDir, paths.DataDir)
	c.Paths.DatasetsDir = resolve(c.Paths.DatasetsDir, paths.DatasetsDir)
	c.Paths.ReportsDir = resolve(c.Paths.ReportsDir, paths.ReportsDir)
	c.Paths.DefinitionsFile = resolve(c.Paths.DefinitionsFile, paths.DefinitionsFile)

	if !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(paths.ExecutableDir, c.Logging.FilePath)
	}

	return nil
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		return fmt.Errorf("invalid log output: %s", c.Logging.Output)
	}

	if c.Analysis.SampleSize < 1 {
		return fmt.Errorf("analysis sample size must be positive, got %d", c.Analysis.SampleSize)
	}
	if c.Analysis.MatchThreshold <= 0 || c.Analysis.MatchThreshold > 1 {
		return fmt.Errorf("match threshold must be in (0,1], got %.3f", c.Analysis.MatchThreshold)
	}
	if c.Analysis.SeriesPeriod < 2 {
		return fmt.Errorf("series period must be at least 2, got %d", c.Analysis.SeriesPeriod)
	}
	if c.Analysis.ForestContamination <= 0 || c.Analysis.ForestContamination >= 0.5 {
		return fmt.Errorf("forest contamination must be in (0,0.5), got %.3f", c.Analysis.ForestContamination)
	}
	if c.Analysis.ScanConcurrency < 1 {
		return fmt.Errorf("scan concurrency must be positive, got %d", c.Analysis.ScanConcurrency)
	}

	if c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("sheets source enabled without a spreadsheet id")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			return fmt.Errorf("rate limit rps must be positive, got %.1f", c.RateLimit.RPS)
		}
		if c.RateLimit.Burst < 1 {
			return fmt.Errorf("rate limit burst must be positive, got %d", c.RateLimit.Burst)
		}
	}

	return nil
}

// Address returns the host:port the HTTP server binds to
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
