package config

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
)

// ConfigLoader loads configuration from multiple sources with explicit precedence
type ConfigLoader struct {
	config     *Config
	sources    []ConfigSource
	provenance map[string]ProvenanceInfo
}

// ConfigSource represents a source of configuration values
type ConfigSource interface {
	// Load applies configuration from this source to the config
	Load(ctx context.Context, cfg *Config) error

	// Priority returns the precedence priority (higher = takes precedence)
	// 100 = Struct defaults (lowest)
	// 200 = YAML file
	// 500 = Environment variables
	// 600 = CLI flags (highest)
	Priority() int

	// Name returns the human-readable name of this source
	Name() string
}

// ProvenanceInfo tracks where a configuration value came from
type ProvenanceInfo struct {
	Source   string      // Name of the ConfigSource
	Priority int         // Priority level
	Value    interface{} // The actual value
	Path     string      // Config path (e.g., "polling.interval")
}

// LoaderOption configures the ConfigLoader
type LoaderOption func(*ConfigLoader) error

// New creates a ConfigLoader and loads it immediately.
func New(ctx context.Context, opts ...LoaderOption) (*ConfigLoader, error) {
	loader := NewConfigLoader("")
	for _, opt := range opts {
		if err := opt(loader); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}
	if _, err := loader.Load(ctx); err != nil {
		return nil, err
	}
	return loader, nil
}

// NewConfigLoader creates a loader with the default source stack.
// An explicit configFile must exist; the default location is optional.
func NewConfigLoader(configFile string) *ConfigLoader {
	yamlSource := &YAMLFileSource{Path: configFile, Required: true}
	if configFile == "" {
		yamlSource = &YAMLFileSource{Path: DefaultConfigFile()}
	}

	return &ConfigLoader{
		config:     &Config{},
		provenance: make(map[string]ProvenanceInfo),
		sources: []ConfigSource{
			&StructDefaultSource{}, // Priority 100
			yamlSource,             // Priority 200
			&EnvVarSource{},        // Priority 500
		},
	}
}

// WithSources sets custom configuration sources
func WithSources(sources ...ConfigSource) LoaderOption {
	return func(l *ConfigLoader) error {
		l.sources = sources
		return nil
	}
}

// WithFlags appends a CLI flag source.
func WithFlags(apply func(cfg *Config)) LoaderOption {
	return func(l *ConfigLoader) error {
		l.sources = append(l.sources, &FlagSource{Apply: apply})
		return nil
	}
}

// AddSource appends a source to the stack.
func (l *ConfigLoader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load executes the configuration loading process
func (l *ConfigLoader) Load(ctx context.Context) (*Config, error) {
	sorted := l.sortedSources()

	for _, source := range sorted {
		before := *l.config
		if err := source.Load(ctx, l.config); err != nil {
			return nil, fmt.Errorf("load from %s: %w", source.Name(), err)
		}
		l.trackProvenance(source, &before)
	}

	if err := l.Validate(l.config); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := l.validatePollingOverrides(l.config); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return l.config, nil
}

// Get returns the loaded configuration
func (l *ConfigLoader) Get() *Config {
	return l.config
}

// AllProvenance returns all provenance information
func (l *ConfigLoader) AllProvenance() map[string]ProvenanceInfo {
	return l.provenance
}

// Provenance returns a human-readable string of all configuration sources
func (l *ConfigLoader) Provenance() string {
	var result strings.Builder
	result.WriteString("Configuration Sources (priority order):\n")

	for _, source := range l.sortedSources() {
		result.WriteString(fmt.Sprintf("  [%d] %s\n", source.Priority(), source.Name()))
	}

	paths := make([]string, 0, len(l.provenance))
	for path := range l.provenance {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	result.WriteString("\nConfiguration Values by Source:\n")
	for _, path := range paths {
		info := l.provenance[path]
		result.WriteString(fmt.Sprintf("  %s: %s (priority %d)\n", path, info.Source, info.Priority))
	}

	return result.String()
}

// Validate performs validation on the loaded configuration
func (l *ConfigLoader) Validate(cfg *Config) error {
	if cfg.Meta.Version == "" {
		return fmt.Errorf("meta.version is required")
	}

	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(cfg.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute http(s) URL, got %q", cfg.API.BaseURL)
	}
	if cfg.API.RateLimit <= 0 {
		return fmt.Errorf("api.rate_limit must be positive")
	}
	if cfg.API.RateBurst < 1 {
		return fmt.Errorf("api.rate_burst must be at least 1")
	}

	switch cfg.Polling.Mode {
	case "retry", "simple":
	default:
		return fmt.Errorf("polling.mode must be retry or simple, got %q", cfg.Polling.Mode)
	}
	if cfg.Polling.Interval <= 0 {
		return fmt.Errorf("polling.interval must be positive")
	}
	if cfg.Polling.Budget <= 0 {
		return fmt.Errorf("polling.budget must be positive")
	}
	if cfg.Polling.MaxRetries < 0 {
		return fmt.Errorf("polling.max_retries must not be negative")
	}

	switch cfg.Storage.Backend {
	case "file":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the file backend")
		}
	case "memory":
	case "redis":
		if cfg.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("storage.backend must be file, memory or redis, got %q", cfg.Storage.Backend)
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", cfg.Logging.Format)
	}

	switch cfg.Monitoring.PIILevel {
	case "none", "hashed", "full":
	default:
		return fmt.Errorf("monitoring.pii_level must be none, hashed or full, got %q", cfg.Monitoring.PIILevel)
	}
	if cfg.Monitoring.SamplingRate < 0 || cfg.Monitoring.SamplingRate > 1 {
		return fmt.Errorf("monitoring.sampling_rate must be between 0 and 1")
	}

	return nil
}

// validatePollingOverrides rejects interval and retry settings that the simple
// preset would never read.
func (l *ConfigLoader) validatePollingOverrides(cfg *Config) error {
	if cfg.Polling.Mode != "simple" {
		return nil
	}
	for _, path := range []string{"polling.interval", "polling.max_retries"} {
		if info, ok := l.provenance[path]; ok && info.Priority > (&StructDefaultSource{}).Priority() {
			return fmt.Errorf("%s is set by %s but only applies to polling.mode retry", path, info.Source)
		}
	}
	return nil
}

func (l *ConfigLoader) sortedSources() []ConfigSource {
	sorted := make([]ConfigSource, len(l.sources))
	copy(sorted, l.sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return sorted
}

// trackProvenance records every leaf value the source changed.
func (l *ConfigLoader) trackProvenance(source ConfigSource, before *Config) {
	diffLeaves(reflect.ValueOf(before).Elem(), reflect.ValueOf(l.config).Elem(), "", func(path string, value reflect.Value) {
		l.provenance[path] = ProvenanceInfo{
			Source:   source.Name(),
			Priority: source.Priority(),
			Value:    value.Interface(),
			Path:     path,
		}
	})
}

// diffLeaves walks two values of the same struct type and reports changed leaves
// by their yaml path.
func diffLeaves(before, after reflect.Value, prefix string, changed func(string, reflect.Value)) {
	t := after.Type()
	for i := 0; i < after.NumField(); i++ {
		field := t.Field(i)
		name := strings.Split(field.Tag.Get("yaml"), ",")[0]
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		b, a := before.Field(i), after.Field(i)
		if a.Kind() == reflect.Struct {
			diffLeaves(b, a, path, changed)
			continue
		}
		if !reflect.DeepEqual(b.Interface(), a.Interface()) {
			changed(path, a)
		}
	}
}
