package config

import "time"

// Config is the complete jan-imagegen configuration.
type Config struct {
	Meta       MetaConfig       `yaml:"meta" json:"meta"`
	API        APIConfig        `yaml:"api" json:"api"`
	Polling    PollingConfig    `yaml:"polling" json:"polling"`
	Generation GenerationConfig `yaml:"generation" json:"generation"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring" json:"monitoring"`
}

type MetaConfig struct {
	Version     string `yaml:"version" json:"version" env:"IMAGEGEN_VERSION" jsonschema:"description=Configuration schema version"`
	Environment string `yaml:"environment" json:"environment" env:"IMAGEGEN_ENVIRONMENT" jsonschema:"enum=development,enum=staging,enum=production"`
}

// APIConfig points the client at the image-generation backend.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url" env:"IMAGEGEN_API_BASE_URL" jsonschema:"description=Backend base URL (generate-image, task-status, delete-images)"`
	APIKey         string        `yaml:"api_key" json:"api_key" env:"IMAGEGEN_API_KEY" jsonschema:"description=Bearer token sent with generation requests"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" env:"IMAGEGEN_API_REQUEST_TIMEOUT"`
	RateLimit      float64       `yaml:"rate_limit" json:"rate_limit" env:"IMAGEGEN_API_RATE_LIMIT" jsonschema:"description=Maximum backend requests per second"`
	RateBurst      int           `yaml:"rate_burst" json:"rate_burst" env:"IMAGEGEN_API_RATE_BURST"`
}

// PollingConfig controls the task-status loop.
type PollingConfig struct {
	Mode       string        `yaml:"mode" json:"mode" env:"IMAGEGEN_POLLING_MODE" jsonschema:"enum=retry,enum=simple"`
	Interval   time.Duration `yaml:"interval" json:"interval" env:"IMAGEGEN_POLLING_INTERVAL" jsonschema:"description=Poll interval in retry mode; the simple preset fixes it at 2s"`
	MaxRetries int           `yaml:"max_retries" json:"max_retries" env:"IMAGEGEN_POLLING_MAX_RETRIES" jsonschema:"description=FAILURE retries in retry mode; the simple preset allows none"`
	Budget     time.Duration `yaml:"budget" json:"budget" env:"IMAGEGEN_POLLING_BUDGET"`
}

type GenerationConfig struct {
	AllowConcurrent    bool   `yaml:"allow_concurrent" json:"allow_concurrent" env:"IMAGEGEN_ALLOW_CONCURRENT"`
	DefaultAspectRatio string `yaml:"default_aspect_ratio" json:"default_aspect_ratio" env:"IMAGEGEN_DEFAULT_ASPECT_RATIO"`
	UsePromptRefiner   bool   `yaml:"use_prompt_refiner" json:"use_prompt_refiner" env:"IMAGEGEN_USE_PROMPT_REFINER"`
}

// StorageConfig selects the key-value backend holding the gallery and theme.
type StorageConfig struct {
	Backend     string `yaml:"backend" json:"backend" env:"IMAGEGEN_STORAGE_BACKEND" jsonschema:"enum=file,enum=memory,enum=redis"`
	Path        string `yaml:"path" json:"path" env:"IMAGEGEN_STORAGE_PATH"`
	RedisURL    string `yaml:"redis_url" json:"redis_url" env:"IMAGEGEN_REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" json:"redis_prefix" env:"IMAGEGEN_REDIS_PREFIX"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr" env:"IMAGEGEN_SERVER_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"IMAGEGEN_SERVER_SHUTDOWN_TIMEOUT"`
	StatsCacheTTL   time.Duration `yaml:"stats_cache_ttl" json:"stats_cache_ttl" env:"IMAGEGEN_SERVER_STATS_CACHE_TTL"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"IMAGEGEN_LOG_LEVEL" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `yaml:"format" json:"format" env:"IMAGEGEN_LOG_FORMAT" jsonschema:"enum=console,enum=json"`
}

type MonitoringConfig struct {
	TracingEnabled bool    `yaml:"tracing_enabled" json:"tracing_enabled" env:"IMAGEGEN_TRACING_ENABLED"`
	MetricsEnabled bool    `yaml:"metrics_enabled" json:"metrics_enabled" env:"IMAGEGEN_METRICS_ENABLED"`
	OTLPEndpoint   string  `yaml:"otlp_endpoint" json:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SamplingRate   float64 `yaml:"sampling_rate" json:"sampling_rate" env:"IMAGEGEN_SAMPLING_RATE"`
	PIILevel       string  `yaml:"pii_level" json:"pii_level" env:"IMAGEGEN_PII_LEVEL" jsonschema:"enum=none,enum=hashed,enum=full"`
}
