// Package tasks instruments long-running generation tasks.
package tasks

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrumenter wraps each task in a span and records its duration and outcome.
type Instrumenter struct {
	tracer      trace.Tracer
	tasksActive metric.Int64UpDownCounter
	duration    metric.Float64Histogram
	total       metric.Int64Counter
}

func NewInstrumenter(tracer trace.Tracer, meter metric.Meter, serviceName string) (*Instrumenter, error) {
	tasksActive, err := meter.Int64UpDownCounter(
		fmt.Sprintf("%s_tasks_active", serviceName),
		metric.WithDescription("Tasks currently running"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		fmt.Sprintf("%s_task_duration_seconds", serviceName),
		metric.WithDescription("Task duration from submission to terminal state"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter(
		fmt.Sprintf("%s_tasks_total", serviceName),
		metric.WithDescription("Tasks finished"),
	)
	if err != nil {
		return nil, err
	}

	return &Instrumenter{tracer: tracer, tasksActive: tasksActive, duration: duration, total: total}, nil
}

// InstrumentTask runs fn inside a span named after taskType.
func (i *Instrumenter) InstrumentTask(ctx context.Context, taskType, taskID string, fn func(context.Context) error) error {
	typeAttr := attribute.String("task.type", taskType)
	i.tasksActive.Add(ctx, 1, metric.WithAttributes(typeAttr))
	defer i.tasksActive.Add(ctx, -1, metric.WithAttributes(typeAttr))

	ctx, span := i.tracer.Start(ctx, "task."+taskType,
		trace.WithAttributes(typeAttr, attribute.String("task.id", taskID)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	attrs := metric.WithAttributes(typeAttr, attribute.String("status", status))
	i.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	i.total.Add(ctx, 1, attrs)
	return err
}
