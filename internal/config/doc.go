// Package config provides centralized configuration management for loglens.
// It handles loading configuration from multiple sources, validation, and
// provides a type-safe API for accessing configuration values throughout
// the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern LOGLENS_* for namespacing:
//
//	LOGLENS_SERVER_PORT=8085
//	LOGLENS_LOG_LEVEL=info
//	LOGLENS_ANALYSIS_SAMPLE_SIZE=100
//	LOGLENS_ANALYSIS_MATCH_THRESHOLD=0.75
//	LOGLENS_SHEETS_ENABLED=true
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, _ := config.GetPaths()
//	datasetPath := paths.GetDatasetPath("signin_logs.csv")
//	reportPath := paths.GetReportPath("loglens_anomalies_20250101.csv")
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//	- Required fields are present
//	- Values are within acceptable ranges
//	- Analysis thresholds make sense together
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
