package operations

import (
	"time"
)

// Config represents the run execution configuration
type Config struct {
	// Execution mode (sequential or parallel)
	ExecutionMode ExecutionMode `json:"execution_mode"`

	// Step-specific timeouts
	StepTimeouts map[string]time.Duration `json:"step_timeouts"`

	// Retry configuration for steps
	RetryConfig RetryConfig `json:"retry_config"`

	// Whether to continue on step failures
	ContinueOnError bool `json:"continue_on_error"`

	// Maximum concurrent steps (for parallel execution)
	MaxConcurrency int `json:"max_concurrency"`

	// Custom step configurations
	StepConfigs map[string]interface{} `json:"step_configs"`
}

// NewConfig returns the default run configuration
func NewConfig() *Config {
	return &Config{
		ExecutionMode: ExecutionModeSequential,
		StepTimeouts: map[string]time.Duration{
			StepIDIngest:    DefaultIngestTimeout,
			StepIDProfile:   DefaultProfileTimeout,
			StepIDReduce:    DefaultReduceTimeout,
			StepIDIdentify:  DefaultIdentifyTimeout,
			StepIDSignature: DefaultSignatureTimeout,
			StepIDAnomaly:   DefaultAnomalyTimeout,
			StepIDReport:    DefaultReportTimeout,
		},
		RetryConfig:     NewRetryConfig(),
		ContinueOnError: false,
		MaxConcurrency:  1,
		StepConfigs:     make(map[string]interface{}),
	}
}

// GetStepTimeout returns the timeout for a specific step
func (c *Config) GetStepTimeout(stepID string) time.Duration {
	if timeout, ok := c.StepTimeouts[stepID]; ok {
		return timeout
	}
	return DefaultStepTimeout
}

// SetStepTimeout sets the timeout for a specific step
func (c *Config) SetStepTimeout(stepID string, timeout time.Duration) {
	if c.StepTimeouts == nil {
		c.StepTimeouts = make(map[string]time.Duration)
	}
	c.StepTimeouts[stepID] = timeout
}

// GetStepConfig returns the configuration for a specific step
func (c *Config) GetStepConfig(stepID string) (interface{}, bool) {
	if c.StepConfigs == nil {
		return nil, false
	}
	config, ok := c.StepConfigs[stepID]
	return config, ok
}

// SetStepConfig sets the configuration for a specific step
func (c *Config) SetStepConfig(stepID string, config interface{}) {
	if c.StepConfigs == nil {
		c.StepConfigs = make(map[string]interface{})
	}
	c.StepConfigs[stepID] = config
}

// StepConfig represents configuration for individual steps
type StepConfig struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Dependencies  []string               `json:"dependencies,omitempty"`
	Retries       int                    `json:"retries,omitempty"`
	Enabled       bool                   `json:"enabled"`
	SkipOnFailure bool                   `json:"skip_on_failure"`
	Timeout       time.Duration          `json:"timeout"`
	RetryConfig   *RetryConfig           `json:"retry_config,omitempty"`
	Parameters    map[string]interface{} `json:"parameters,omitempty"`
}

// IngestStepConfig configures the dataset ingestion step
type IngestStepConfig struct {
	StepConfig
	DatasetDir string `json:"dataset_dir"`
}

// ReduceStepConfig configures the column reduction step
type ReduceStepConfig struct {
	StepConfig
	DropList       []string `json:"drop_list,omitempty"`
	NameRegexes    []string `json:"name_regexes,omitempty"`
	EntropyCleanup bool     `json:"entropy_cleanup"`
	EntropyCutoff  float64  `json:"entropy_cutoff,omitempty"`
}

// IdentifyStepConfig configures the entity identification step
type IdentifyStepConfig struct {
	StepConfig
	SampleSize int     `json:"sample_size,omitempty"`
	Threshold  float64 `json:"threshold,omitempty"`
	Partial    bool    `json:"partial"`
}

// AnomalyStepConfig configures the anomaly detection step
type AnomalyStepConfig struct {
	StepConfig
	TimeColumn    string  `json:"time_column,omitempty"`
	Trees         int     `json:"trees,omitempty"`
	Contamination float64 `json:"contamination,omitempty"`
}

// ReportStepConfig configures the report export step
type ReportStepConfig struct {
	StepConfig
	IncludeWorkbook bool `json:"include_workbook"`
}

// ConfigBuilder provides a fluent interface for building run configurations
type ConfigBuilder struct {
	config *Config
}

// NewConfigBuilder creates a new configuration builder
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: NewConfig(),
	}
}

// WithExecutionMode sets the execution mode
func (b *ConfigBuilder) WithExecutionMode(mode ExecutionMode) *ConfigBuilder {
	b.config.ExecutionMode = mode
	return b
}

// WithStepTimeout sets the timeout for a step
func (b *ConfigBuilder) WithStepTimeout(stepID string, timeout time.Duration) *ConfigBuilder {
	b.config.SetStepTimeout(stepID, timeout)
	return b
}

// WithRetryConfig sets the retry configuration
func (b *ConfigBuilder) WithRetryConfig(config RetryConfig) *ConfigBuilder {
	b.config.RetryConfig = config
	return b
}

// WithContinueOnError sets whether to continue on errors
func (b *ConfigBuilder) WithContinueOnError(continueOnError bool) *ConfigBuilder {
	b.config.ContinueOnError = continueOnError
	return b
}

// WithMaxConcurrency sets the maximum concurrency
func (b *ConfigBuilder) WithMaxConcurrency(maxConcurrency int) *ConfigBuilder {
	b.config.MaxConcurrency = maxConcurrency
	return b
}

// WithStepConfig sets the configuration for a step
func (b *ConfigBuilder) WithStepConfig(stepID string, config interface{}) *ConfigBuilder {
	b.config.SetStepConfig(stepID, config)
	return b
}

// Build returns the built configuration
func (b *ConfigBuilder) Build() *Config {
	return b.config
}
