package generation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/janhq/jan-imagegen/internal/utils/requestid"
)

// Job is the tracked view of one run.
type Job struct {
	RequestID   string    `json:"request_id"`
	Prompt      string    `json:"prompt"`
	AspectRatio string    `json:"aspect_ratio,omitempty"`
	State       State     `json:"state"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Alert is a surfaced message waiting to be dismissed.
type Alert struct {
	RequestID string    `json:"request_id,omitempty"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

// Tracker records runs and alerts for display. It is a Listener and a Notifier.
type Tracker struct {
	mu        sync.RWMutex
	jobs      map[string]*Job
	alerts    []Alert
	maxRecent int
	maxAlerts int
	now       func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		jobs:      make(map[string]*Job),
		maxRecent: 20,
		maxAlerts: 10,
		now:       time.Now,
	}
}

func (t *Tracker) OnTransition(ctx context.Context, tr Transition) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[tr.RequestID]
	if !ok {
		job = &Job{
			RequestID:   tr.RequestID,
			Prompt:      tr.Request.Prompt,
			AspectRatio: tr.Request.AspectRatio,
			StartedAt:   tr.At,
		}
		t.jobs[tr.RequestID] = job
	}
	job.State = tr.To
	job.UpdatedAt = tr.At
	if tr.Err != nil {
		job.Error = tr.Err.Error()
	}
	if tr.To.IsTerminal() {
		t.pruneLocked()
	}
}

func (t *Tracker) Alert(ctx context.Context, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alerts = append(t.alerts, Alert{
		RequestID: requestid.FromContext(ctx),
		Message:   message,
		At:        t.now(),
	})
	if over := len(t.alerts) - t.maxAlerts; over > 0 {
		t.alerts = t.alerts[over:]
	}
}

// Busy reports whether any run is submitting or polling.
func (t *Tracker) Busy() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, j := range t.jobs {
		if j.State.IsBusy() {
			return true
		}
	}
	return false
}

// Active returns in-flight runs, oldest first.
func (t *Tracker) Active() []Job {
	return t.filter(func(j *Job) bool { return !j.State.IsTerminal() })
}

// Jobs returns all tracked runs, oldest first.
func (t *Tracker) Jobs() []Job {
	return t.filter(func(*Job) bool { return true })
}

// Get returns the run with id.
func (t *Tracker) Get(id string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// Alerts returns pending alerts, oldest first.
func (t *Tracker) Alerts() []Alert {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Alert, len(t.alerts))
	copy(out, t.alerts)
	return out
}

func (t *Tracker) DismissAlerts() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.alerts = nil
}

func (t *Tracker) filter(keep func(*Job) bool) []Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		if keep(j) {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.Before(out[k].StartedAt) })
	return out
}

// pruneLocked drops the oldest finished runs beyond maxRecent.
func (t *Tracker) pruneLocked() {
	var finished []*Job
	for _, j := range t.jobs {
		if j.State.IsTerminal() {
			finished = append(finished, j)
		}
	}
	if len(finished) <= t.maxRecent {
		return
	}
	sort.Slice(finished, func(i, k int) bool { return finished[i].UpdatedAt.Before(finished[k].UpdatedAt) })
	for _, j := range finished[:len(finished)-t.maxRecent] {
		delete(t.jobs, j.RequestID)
	}
}
