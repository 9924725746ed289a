package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/janhq/jan-imagegen/pkg/observability/tasks"
)

func setup(t *testing.T) (*tasks.Instrumenter, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	inst, err := tasks.NewInstrumenter(tp.Tracer("test"), mp.Meter("test"), "imagegen")
	require.NoError(t, err)
	return inst, recorder, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestInstrumentTask_Success(t *testing.T) {
	inst, recorder, reader := setup(t)

	called := false
	err := inst.InstrumentTask(context.Background(), "generate", "gen_1", func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "task.generate", spans[0].Name())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)

	metrics := collect(t, reader)
	total, ok := metrics["imagegen_tasks_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, total.DataPoints, 1)
	assert.Equal(t, int64(1), total.DataPoints[0].Value)
	status, _ := total.DataPoints[0].Attributes.Value("status")
	assert.Equal(t, "success", status.AsString())

	active, ok := metrics["imagegen_tasks_active"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(0), active.DataPoints[0].Value)
}

func TestInstrumentTask_Error(t *testing.T) {
	inst, recorder, reader := setup(t)
	boom := errors.New("timed out")

	err := inst.InstrumentTask(context.Background(), "generate", "gen_2", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)

	total := collect(t, reader)["imagegen_tasks_total"].Data.(metricdata.Sum[int64])
	status, _ := total.DataPoints[0].Attributes.Value("status")
	assert.Equal(t, "error", status.AsString())
}
