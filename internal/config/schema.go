package config

// Config holds tracedoc configuration.
// Stored at: config.yaml (or the path given with --config)
type Config struct {
	Provider   ProviderCfg   `mapstructure:"provider" yaml:"provider"`
	Extraction ExtractionCfg `mapstructure:"extraction" yaml:"extraction"`
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
	Store      StoreCfg      `mapstructure:"store" yaml:"store"`
	Workers    WorkersCfg    `mapstructure:"workers" yaml:"workers"`
	Log        LogCfg        `mapstructure:"log" yaml:"log"`
}

// ProviderCfg configures the OpenAI-compatible chat provider. Pointing
// BaseURL at an Azure OpenAI deployment switches the client to Azure
// authentication automatically.
type ProviderCfg struct {
	APIKey     string  `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	BaseURL    string  `mapstructure:"base_url" yaml:"base_url"`
	Model      string  `mapstructure:"model" yaml:"model"`         // extraction and comparison
	QAModel    string  `mapstructure:"qa_model" yaml:"qa_model"`   // chat and detection
	APIVersion string  `mapstructure:"api_version" yaml:"api_version"` // Azure only
	RateLimit  float64 `mapstructure:"rate_limit" yaml:"rate_limit"`   // requests per minute
	MaxRetries int     `mapstructure:"max_retries" yaml:"max_retries"`
}

// ExtractionCfg controls batched key extraction.
type ExtractionCfg struct {
	BatchSize     int    `mapstructure:"batch_size" yaml:"batch_size"`         // keys per model call
	MaxConcurrent int    `mapstructure:"max_concurrent" yaml:"max_concurrent"` // batch calls in flight
	Language      string `mapstructure:"language" yaml:"language"`             // "en" or "de"
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// StoreCfg configures the embedded document store.
type StoreCfg struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// WorkersCfg configures the CPU-bound parse pool.
type WorkersCfg struct {
	Count     int `mapstructure:"count" yaml:"count"` // 0 means runtime.NumCPU()
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
}

// LogCfg configures logging.
type LogCfg struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderCfg{
			APIKey:     "${OPENAI_API_KEY}",
			Model:      "gpt-4.1",
			QAModel:    "gpt-4.1-mini",
			APIVersion: "2025-01-01-preview",
			RateLimit:  150,
			MaxRetries: 3,
		},
		Extraction: ExtractionCfg{
			BatchSize:     20,
			MaxConcurrent: 1,
			Language:      "en",
		},
		Server: ServerCfg{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Store: StoreCfg{
			Path: "data/tracedoc",
		},
		Workers: WorkersCfg{
			Count:     0,
			QueueSize: 256,
		},
		Log: LogCfg{
			Level:  "info",
			Format: "text",
		},
	}
}
