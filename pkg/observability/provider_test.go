package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/jan-imagegen/pkg/config"
	"github.com/janhq/jan-imagegen/pkg/telemetry"
)

func TestInit_DisabledUsesNoop(t *testing.T) {
	p, err := Init(context.Background(), DefaultConfig("jan-imagegen"))
	require.NoError(t, err)

	assert.NotNil(t, p.Tracer)
	assert.NotNil(t, p.Meter)
	assert.Nil(t, p.TracerProvider)
	assert.Nil(t, p.MeterProvider)
	assert.Equal(t, telemetry.PIILevelHashed, p.Sanitizer.Level())
	assert.NoError(t, p.Shutdown(context.Background()))

	_, span := p.Tracer.Start(context.Background(), "noop")
	span.End()
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		Meta: config.MetaConfig{Version: "1.2.0", Environment: "production"},
		Monitoring: config.MonitoringConfig{
			TracingEnabled: true,
			OTLPEndpoint:   "collector:4318",
			SamplingRate:   0.25,
			PIILevel:       "none",
		},
	}

	got := FromConfig("jan-imagegen", cfg)
	assert.Equal(t, "jan-imagegen", got.ServiceName)
	assert.Equal(t, "1.2.0", got.ServiceVersion)
	assert.Equal(t, "production", got.Environment)
	assert.True(t, got.TracingEnabled)
	assert.False(t, got.MetricsEnabled)
	assert.Equal(t, "collector:4318", got.OTLPEndpoint)
	assert.Equal(t, 0.25, got.SamplingRate)
	assert.Equal(t, "none", got.PIILevel)

	assert.Equal(t, DefaultConfig("x").OTLPEndpoint, FromConfig("x", nil).OTLPEndpoint)
}
