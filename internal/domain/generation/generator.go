package generation

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/janhq/jan-imagegen/internal/domain/gallery"
	"github.com/janhq/jan-imagegen/internal/utils/requestid"
)

// Outcome is the discriminated result of one run. State is one of the
// terminal states; Record is set only when State is StateSucceeded.
type Outcome struct {
	RequestID  string
	Request    Request
	State      State
	TaskID     string
	Record     *gallery.ImageRecord
	Polls      int
	Retries    int
	Message    string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Generator submits prompts and polls their tasks to completion.
type Generator struct {
	backend         Backend
	sink            RecordSink
	notifier        Notifier
	listeners       []Listener
	policy          Policy
	clock           Clock
	log             zerolog.Logger
	sanitize        func(string) string
	instrumenter    TaskInstrumenter
	allowConcurrent bool

	inflight atomic.Bool
	wg       sync.WaitGroup
}

type Option func(*Generator)

func WithPolicy(p Policy) Option {
	return func(g *Generator) { g.policy = p }
}

func WithClock(c Clock) Option {
	return func(g *Generator) { g.clock = c }
}

func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) { g.log = log }
}

func WithListeners(ls ...Listener) Option {
	return func(g *Generator) { g.listeners = append(g.listeners, ls...) }
}

// WithPromptSanitizer filters prompts before they reach the logs.
func WithPromptSanitizer(fn func(string) string) Option {
	return func(g *Generator) { g.sanitize = fn }
}

func WithInstrumenter(i TaskInstrumenter) Option {
	return func(g *Generator) { g.instrumenter = i }
}

// WithConcurrentSubmissions controls whether a second run may start while one
// is still in flight.
func WithConcurrentSubmissions(allow bool) Option {
	return func(g *Generator) { g.allowConcurrent = allow }
}

func NewGenerator(backend Backend, sink RecordSink, notifier Notifier, opts ...Option) *Generator {
	g := &Generator{
		backend:         backend,
		sink:            sink,
		notifier:        notifier,
		policy:          RetryPolicy(),
		clock:           SystemClock(),
		log:             zerolog.Nop(),
		sanitize:        func(s string) string { return s },
		allowConcurrent: true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Policy returns the active poll policy.
func (g *Generator) Policy() Policy {
	return g.policy
}

// Run drives req to a terminal state. It blocks until the image is stored,
// the task fails, the poll budget runs out, or ctx is cancelled.
func (g *Generator) Run(ctx context.Context, req Request) Outcome {
	ctx, id := requestid.Ensure(ctx)
	r := &run{g: g, id: id, req: req, state: StateIdle}
	r.out = Outcome{RequestID: id, Request: req, StartedAt: g.clock.Now()}

	if g.instrumenter == nil {
		r.execute(ctx)
		return r.out
	}
	_ = g.instrumenter.InstrumentTask(ctx, "generate", id, func(ctx context.Context) error {
		r.execute(ctx)
		return r.out.Err
	})
	return r.out
}

// Start runs req in the background and returns its request id immediately.
func (g *Generator) Start(ctx context.Context, req Request) string {
	ctx, id := requestid.Ensure(ctx)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.Run(ctx, req)
	}()
	return id
}

// Wait blocks until every run started with Start has finished.
func (g *Generator) Wait() {
	g.wg.Wait()
}

// RunBatch runs reqs concurrently and returns outcomes in input order. When
// concurrent submissions are disabled the batch runs one at a time.
func (g *Generator) RunBatch(ctx context.Context, reqs []Request) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	var eg errgroup.Group
	if !g.allowConcurrent {
		eg.SetLimit(1)
	}
	for i, req := range reqs {
		eg.Go(func() error {
			outcomes[i] = g.Run(ctx, req)
			return nil
		})
	}
	_ = eg.Wait()
	return outcomes
}

// run holds the mutable state of one Run.
type run struct {
	g     *Generator
	id    string
	req   Request
	state State
	out   Outcome
}

func (r *run) execute(ctx context.Context) {
	g := r.g
	log := g.log.With().Str("request_id", r.id).Logger()

	if strings.TrimSpace(r.req.Prompt) == "" {
		r.finish(ctx, StateFailed, ErrEmptyPrompt, MsgEmptyPrompt)
		return
	}

	if !g.allowConcurrent {
		if !g.inflight.CompareAndSwap(false, true) {
			r.finish(ctx, StateFailed, ErrSubmissionInFlight, MsgInFlight)
			return
		}
		defer g.inflight.Store(false)
	}

	r.transition(ctx, StateSubmitting, nil)
	log.Info().
		Str("prompt", g.sanitize(r.req.Prompt)).
		Str("aspect_ratio", r.req.AspectRatio).
		Bool("use_prompt_refiner", r.req.UsePromptRefiner).
		Msg("submitting generation")

	sub, err := g.backend.Submit(ctx, r.req)
	if err != nil {
		if ctx.Err() != nil {
			r.finish(ctx, StateCancelled, ctx.Err(), "")
			return
		}
		msg := MsgSubmitFailed
		if isStatusError(err) {
			msg = MsgSubmitRejected
		}
		r.finish(ctx, StateFailed, err, msg)
		return
	}

	if sub.Result != nil {
		log.Debug().Msg("backend answered synchronously")
		r.succeed(ctx, *sub.Result)
		return
	}

	r.out.TaskID = sub.TaskID
	r.transition(ctx, StatePolling, nil)
	log.Debug().Str("task_id", sub.TaskID).Msg("polling task")
	r.poll(ctx, sub.TaskID)
}

func (r *run) poll(ctx context.Context, taskID string) {
	g := r.g
	policy := g.policy
	deadline := g.clock.Now().Add(policy.Budget)
	log := g.log.With().Str("request_id", r.id).Str("task_id", taskID).Logger()

	for {
		r.out.Polls++
		report, err := g.backend.TaskStatus(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				r.finish(ctx, StateCancelled, ctx.Err(), "")
				return
			}
			var se *StatusError
			switch {
			case errors.As(err, &se) && se.StatusCode == http.StatusInternalServerError:
				if !r.canWait(deadline) {
					r.finish(ctx, StateTimedOut, err, MsgServerBudget)
					return
				}
				log.Warn().Err(err).Msg("task status returned 500, polling again")
			case se != nil:
				r.finish(ctx, StateFailed, err, MsgStatusRejected)
				return
			default:
				r.finish(ctx, StateFailed, err, MsgStatusFailed)
				return
			}
		} else {
			switch report.Status {
			case TaskSuccess:
				if report.Result == nil || report.Result.ImageURL == "" {
					r.finish(ctx, StateFailed, ErrMalformedResponse, MsgStatusFailed)
					return
				}
				r.succeed(ctx, *report.Result)
				return
			case TaskPending:
				if !r.canWait(deadline) {
					r.finish(ctx, StateTimedOut, context.DeadlineExceeded, MsgPollTimedOut)
					return
				}
			default:
				// FAILURE and unrecognized statuses share the retry bound.
				if r.out.Retries >= policy.MaxRetries {
					r.finish(ctx, StateFailed, &TaskFailedError{Status: report.Status, Reason: report.Message},
						retriesExceededMessage(report.Message))
					return
				}
				r.out.Retries++
				log.Warn().
					Str("status", string(report.Status)).
					Int("attempt", r.out.Retries).
					Msg("task attempt failed, retrying")
			}
		}

		if err := g.clock.Sleep(ctx, policy.Interval); err != nil {
			r.finish(ctx, StateCancelled, err, "")
			return
		}
	}
}

func (r *run) canWait(deadline time.Time) bool {
	return !r.g.clock.Now().Add(r.g.policy.Interval).After(deadline)
}

func (r *run) succeed(ctx context.Context, res Result) {
	record := gallery.ImageRecord{
		ImageURL:      res.ImageURL,
		Prompt:        r.req.Prompt,
		Description:   res.Description,
		RefinedPrompt: res.RefinedPrompt,
		AspectRatio:   r.req.AspectRatio,
	}
	if err := r.g.sink.Add(ctx, record); err != nil {
		r.finish(ctx, StateFailed, err, MsgSaveFailed)
		return
	}
	r.out.Record = &record
	r.finish(ctx, StateSucceeded, nil, "")
}

func (r *run) finish(ctx context.Context, state State, err error, message string) {
	r.out.State = state
	r.out.Err = err
	r.out.Message = message
	r.out.FinishedAt = r.g.clock.Now()

	event := r.g.log.Info()
	if state != StateSucceeded {
		event = r.g.log.Warn().Err(err)
	}
	event.
		Str("request_id", r.id).
		Str("state", string(state)).
		Int("polls", r.out.Polls).
		Int("retries", r.out.Retries).
		Dur("elapsed", r.out.FinishedAt.Sub(r.out.StartedAt)).
		Msg("generation finished")

	if message != "" && r.g.notifier != nil {
		r.g.notifier.Alert(ctx, message)
	}
	r.transition(ctx, state, err)
}

func (r *run) transition(ctx context.Context, to State, err error) {
	t := Transition{
		RequestID: r.id,
		Request:   r.req,
		From:      r.state,
		To:        to,
		At:        r.g.clock.Now(),
		Err:       err,
	}
	r.state = to
	for _, l := range r.g.listeners {
		l.OnTransition(ctx, t)
	}
}

// TaskFailedError is a task that kept failing past the retry bound.
type TaskFailedError struct {
	Status TaskStatus
	Reason string
}

func (e *TaskFailedError) Error() string {
	if e.Reason == "" {
		return "task " + string(e.Status)
	}
	return "task " + string(e.Status) + ": " + e.Reason
}

func isStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
