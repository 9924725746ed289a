package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// StructDefaultSource provides the compiled-in defaults.
type StructDefaultSource struct{}

func (s *StructDefaultSource) Load(ctx context.Context, cfg *Config) error {
	*cfg = *Defaults()
	return nil
}

func (s *StructDefaultSource) Priority() int {
	return 100 // Lowest priority
}

func (s *StructDefaultSource) Name() string {
	return "struct-defaults"
}

// Defaults returns a Config populated with every default value.
func Defaults() *Config {
	return &Config{
		Meta: MetaConfig{
			Version:     "1.0.0",
			Environment: "development",
		},
		API: APIConfig{
			BaseURL:        "http://localhost:8888",
			APIKey:         "your-api-key-here",
			RequestTimeout: 30 * time.Second,
			RateLimit:      5,
			RateBurst:      2,
		},
		Polling: PollingConfig{
			Mode:       "retry",
			Interval:   5 * time.Second,
			MaxRetries: 3,
			Budget:     4 * time.Minute,
		},
		Generation: GenerationConfig{
			AllowConcurrent:    true,
			DefaultAspectRatio: "1:1",
		},
		Storage: StorageConfig{
			Backend:     "file",
			Path:        DefaultStoragePath(),
			RedisPrefix: "jan-imagegen:",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8290",
			ShutdownTimeout: 10 * time.Second,
			StatsCacheTTL:   5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Monitoring: MonitoringConfig{
			TracingEnabled: false,
			MetricsEnabled: false,
			OTLPEndpoint:   "localhost:4318",
			SamplingRate:   1.0,
			PIILevel:       "hashed",
		},
	}
}

// DefaultStoragePath is where the file store keeps the gallery and theme.
func DefaultStoragePath() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "jan-imagegen", "storage.json")
	}
	return filepath.Join(".jan-imagegen", "storage.json")
}

// DefaultConfigFile is the YAML file read when no --config flag is given.
func DefaultConfigFile() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "jan-imagegen", "config.yaml")
	}
	return filepath.Join(".jan-imagegen", "config.yaml")
}

// YAMLFileSource overlays the keys present in a YAML file.
type YAMLFileSource struct {
	Path     string
	Required bool
}

func (s *YAMLFileSource) Load(ctx context.Context, cfg *Config) error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		// A missing file is fine unless the user pointed at it explicitly
		if os.IsNotExist(err) && !s.Required {
			return nil
		}
		return fmt.Errorf("read yaml file: %w", err)
	}

	// Decoding onto the populated struct keeps keys the file does not mention,
	// and lets an explicit false or zero override a default.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}
	return nil
}

func (s *YAMLFileSource) Priority() int {
	return 200
}

func (s *YAMLFileSource) Name() string {
	return "yaml-file"
}

// EnvVarSource applies IMAGEGEN_* environment variables.
type EnvVarSource struct {
	// Environment replaces the process environment when set (tests).
	Environment map[string]string
}

func (s *EnvVarSource) Load(ctx context.Context, cfg *Config) error {
	opts := env.Options{}
	if s.Environment != nil {
		opts.Environment = s.Environment
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func (s *EnvVarSource) Priority() int {
	return 500
}

func (s *EnvVarSource) Name() string {
	return "env-vars"
}

// FlagSource applies command-line overrides.
type FlagSource struct {
	Apply func(cfg *Config)
}

func (s *FlagSource) Load(ctx context.Context, cfg *Config) error {
	if s.Apply != nil {
		s.Apply(cfg)
	}
	return nil
}

func (s *FlagSource) Priority() int {
	return 600 // Highest priority
}

func (s *FlagSource) Name() string {
	return "cli-flags"
}
