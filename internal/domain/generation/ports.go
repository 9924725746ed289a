package generation

import (
	"context"
	"time"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
)

// Request is one user submission.
type Request struct {
	Prompt           string `json:"prompt"`
	AspectRatio      string `json:"aspectRatio"`
	UsePromptRefiner bool   `json:"usePromptRefiner"`
}

// Result is a finished image as reported by the backend.
type Result struct {
	ImageURL      string
	Description   string
	RefinedPrompt string
}

// Submission is the backend's answer to a creation request: a task to poll,
// or, from synchronous backends, the finished Result.
type Submission struct {
	TaskID string
	Result *Result
}

// StatusReport is one task-status answer. Result is set for SUCCESS;
// Message carries the failure reason otherwise.
type StatusReport struct {
	Status  TaskStatus
	Result  *Result
	Message string
}

// Backend is the image-generation service.
type Backend interface {
	Submit(ctx context.Context, req Request) (*Submission, error)
	TaskStatus(ctx context.Context, taskID string) (*StatusReport, error)
}

// RecordSink receives successful generations.
type RecordSink interface {
	Add(ctx context.Context, record gallery.ImageRecord) error
}

// Notifier surfaces user-facing alerts.
type Notifier interface {
	Alert(ctx context.Context, message string)
}

// Transition is emitted on every state change.
type Transition struct {
	RequestID string
	Request   Request
	From      State
	To        State
	At        time.Time
	Err       error
}

// Listener observes transitions (loading indicators, metrics, trackers).
type Listener interface {
	OnTransition(ctx context.Context, t Transition)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, t Transition)

func (f ListenerFunc) OnTransition(ctx context.Context, t Transition) { f(ctx, t) }

// TaskInstrumenter wraps a unit of work with tracing.
type TaskInstrumenter interface {
	InstrumentTask(ctx context.Context, taskType, taskID string, fn func(context.Context) error) error
}

// Clock is the time source of the poll loop.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }
