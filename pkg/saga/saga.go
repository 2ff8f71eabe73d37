// Package saga runs a sequence of compensable steps in-process.
//
// Steps run in order. When a step fails (after its own retries) every step
// that already completed is compensated in reverse order. The returned error
// always matches the failing step's cause with errors.Is, plus ErrRolledBack
// when every compensation succeeded or ErrCompensationFailed when one did not.
//
// A pivot step cannot be undone. Once it completes the saga only moves
// forward: a later failure compensates nothing and reports ErrStalled.
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/blueledger/blueledger/pkg/logger"
)

var (
	// ErrRolledBack marks a saga whose completed steps were all compensated.
	ErrRolledBack = errors.New("saga rolled back")
	// ErrCompensationFailed marks a saga left partially applied.
	ErrCompensationFailed = errors.New("saga compensation failed")
	// ErrStalled marks a saga that failed after its pivot step.
	ErrStalled = errors.New("saga stalled after pivot")
)

const defaultRetryBase = 50 * time.Millisecond

// Step is one unit of a saga. Compensate may be nil for steps with nothing to undo.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
	// Retries is how many extra attempts Do gets before the saga gives up.
	Retries uint64
	// Pivot marks the point of no return.
	Pivot bool
}

// Report lists what a run did, in execution order.
type Report struct {
	Completed   []string
	Compensated []string
	FailedStep  string
	Pivoted     bool
}

// Error describes a failed run.
type Error struct {
	Saga            string
	Step            string
	Cause           error
	CompensationErr error
	Stalled         bool
}

func (e *Error) Error() string {
	if e.Stalled {
		return fmt.Sprintf("saga %s: step %s: %v (stalled after pivot)", e.Saga, e.Step, e.Cause)
	}
	if e.CompensationErr != nil {
		return fmt.Sprintf("saga %s: step %s: %v (compensation failed: %v)", e.Saga, e.Step, e.Cause, e.CompensationErr)
	}
	return fmt.Sprintf("saga %s: step %s: %v (rolled back)", e.Saga, e.Step, e.Cause)
}

func (e *Error) Unwrap() []error {
	if e.Stalled {
		return []error{e.Cause, ErrStalled}
	}
	if e.CompensationErr != nil {
		return []error{e.Cause, ErrCompensationFailed, e.CompensationErr}
	}
	return []error{e.Cause, ErrRolledBack}
}

// Saga is a named, ordered list of steps.
type Saga struct {
	name      string
	steps     []Step
	log       logger.Logger
	retryBase time.Duration
}

// Option customises a Saga.
type Option func(*Saga)

// WithRetryBase sets the first backoff delay between step retries.
func WithRetryBase(d time.Duration) Option {
	return func(s *Saga) { s.retryBase = d }
}

// New returns an empty saga.
func New(name string, log logger.Logger, opts ...Option) *Saga {
	s := &Saga{name: name, log: log, retryBase: defaultRetryBase}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Then appends a step.
func (s *Saga) Then(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying; the step fails immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Run executes the saga. Compensations run on a context detached from ctx's
// cancellation so a cancelled request still cleans up after itself.
func (s *Saga) Run(ctx context.Context) (Report, error) {
	var rep Report
	done := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if err := s.runStep(ctx, step); err != nil {
			rep.FailedStep = step.Name
			var perm *permanentError
			if errors.As(err, &perm) {
				err = perm.err
			}
			if rep.Pivoted {
				s.log.ErrorContext(ctx, "saga: step failed after pivot",
					"saga", s.name, "step", step.Name, "error", err)
				return rep, &Error{Saga: s.name, Step: step.Name, Cause: err, Stalled: true}
			}

			s.log.WarnContext(ctx, "saga: step failed, compensating",
				"saga", s.name, "step", step.Name, "error", err)
			compErr := s.compensate(context.WithoutCancel(ctx), done, &rep)
			return rep, &Error{Saga: s.name, Step: step.Name, Cause: err, CompensationErr: compErr}
		}
		done = append(done, step)
		rep.Completed = append(rep.Completed, step.Name)
		if step.Pivot {
			done = done[:0]
			rep.Pivoted = true
		}
		s.log.DebugContext(ctx, "saga: step completed", "saga", s.name, "step", step.Name)
	}
	return rep, nil
}

func (s *Saga) runStep(ctx context.Context, step Step) error {
	if step.Retries == 0 {
		return step.Do(ctx)
	}
	backoff := retry.WithMaxRetries(step.Retries, retry.NewExponential(s.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := step.Do(ctx)
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return err
		}
		s.log.WarnContext(ctx, "saga: step attempt failed", "saga", s.name, "step", step.Name, "error", err)
		return retry.RetryableError(err)
	})
}

func (s *Saga) compensate(ctx context.Context, done []Step, rep *Report) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.log.ErrorContext(ctx, "saga: compensation failed", "saga", s.name, "step", step.Name, "error", err)
			errs = append(errs, fmt.Errorf("compensate %s: %w", step.Name, err))
			continue
		}
		rep.Compensated = append(rep.Compensated, step.Name)
	}
	return errors.Join(errs...)
}
