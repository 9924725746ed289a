package observability

import (
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/janhq/jan-imagegen/pkg/config"
)

// Config wraps monitoring settings from pkg/config
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string // development, staging, production
	TracingEnabled bool
	MetricsEnabled bool
	OTLPEndpoint   string
	OTLPHeaders    map[string]string
	SamplingRate   float64 // 0.0 - 1.0
	PIILevel       string  // none|hashed|full

	TraceBatchTimeout time.Duration
	MetricInterval    time.Duration
	ResourceAttrs     []attribute.KeyValue
}

// DefaultConfig returns a config with exporters off.
func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:       serviceName,
		ServiceVersion:    "unknown",
		Environment:       "development",
		OTLPEndpoint:      "localhost:4318",
		SamplingRate:      1.0,
		PIILevel:          "hashed",
		TraceBatchTimeout: 5 * time.Second,
		MetricInterval:    15 * time.Second,
	}
}

// FromConfig maps the loaded application config onto an observability Config.
func FromConfig(serviceName string, cfg *config.Config) Config {
	c := DefaultConfig(serviceName)
	if cfg == nil {
		return c
	}
	if cfg.Meta.Version != "" {
		c.ServiceVersion = cfg.Meta.Version
	}
	if cfg.Meta.Environment != "" {
		c.Environment = cfg.Meta.Environment
	}
	m := cfg.Monitoring
	c.TracingEnabled = m.TracingEnabled
	c.MetricsEnabled = m.MetricsEnabled
	if m.OTLPEndpoint != "" {
		c.OTLPEndpoint = m.OTLPEndpoint
	}
	c.SamplingRate = m.SamplingRate
	if m.PIILevel != "" {
		c.PIILevel = m.PIILevel
	}
	return c
}
