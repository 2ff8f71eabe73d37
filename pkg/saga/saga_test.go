package saga

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/blueledger/blueledger/pkg/logger"
)

func newTestSaga(name string) *Saga {
	return New(name, logger.NewWithWriter(io.Discard, "error"), WithRetryBase(time.Millisecond))
}

func TestRun_AllStepsSucceed(t *testing.T) {
	var order []string
	s := newTestSaga("ok").
		Then(Step{Name: "a", Do: func(context.Context) error { order = append(order, "a"); return nil }}).
		Then(Step{Name: "b", Do: func(context.Context) error { order = append(order, "b"); return nil }})

	rep, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(order, []string{"a", "b"}) {
		t.Fatalf("unexpected order %v", order)
	}
	if !reflect.DeepEqual(rep.Completed, []string{"a", "b"}) {
		t.Fatalf("unexpected completed %v", rep.Completed)
	}
}

func TestRun_FailureCompensatesInReverse(t *testing.T) {
	boom := errors.New("boom")
	var undone []string
	s := newTestSaga("rollback").
		Then(Step{
			Name:       "a",
			Do:         func(context.Context) error { return nil },
			Compensate: func(context.Context) error { undone = append(undone, "a"); return nil },
		}).
		Then(Step{
			Name:       "b",
			Do:         func(context.Context) error { return nil },
			Compensate: func(context.Context) error { undone = append(undone, "b"); return nil },
		}).
		Then(Step{
			Name:       "c",
			Do:         func(context.Context) error { return boom },
			Compensate: func(context.Context) error { t.Fatal("failed step must not be compensated"); return nil },
		})

	rep, err := s.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause to match, got %v", err)
	}
	if !errors.Is(err, ErrRolledBack) {
		t.Fatalf("expected ErrRolledBack, got %v", err)
	}
	if errors.Is(err, ErrCompensationFailed) {
		t.Fatal("did not expect ErrCompensationFailed")
	}
	if !reflect.DeepEqual(undone, []string{"b", "a"}) {
		t.Fatalf("expected reverse compensation, got %v", undone)
	}
	if rep.FailedStep != "c" {
		t.Fatalf("expected failed step c, got %q", rep.FailedStep)
	}

	var sErr *Error
	if !errors.As(err, &sErr) || sErr.Step != "c" || sErr.Saga != "rollback" {
		t.Fatalf("expected *Error for step c, got %#v", err)
	}
}

func TestRun_CompensationFailure(t *testing.T) {
	undoErr := errors.New("identity store down")
	s := newTestSaga("partial").
		Then(Step{
			Name:       "a",
			Do:         func(context.Context) error { return nil },
			Compensate: func(context.Context) error { return undoErr },
		}).
		Then(Step{Name: "b", Do: func(context.Context) error { return errors.New("fail") }})

	_, err := s.Run(context.Background())
	if !errors.Is(err, ErrCompensationFailed) {
		t.Fatalf("expected ErrCompensationFailed, got %v", err)
	}
	if !errors.Is(err, undoErr) {
		t.Fatalf("expected compensation cause in chain, got %v", err)
	}
	if errors.Is(err, ErrRolledBack) {
		t.Fatal("partial rollback must not report ErrRolledBack")
	}
}

func TestRun_StepRetries(t *testing.T) {
	attempts := 0
	s := newTestSaga("retry").Then(Step{
		Name:    "flaky",
		Retries: 3,
		Do: func(context.Context) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		},
	})

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRun_PermanentErrorSkipsRetries(t *testing.T) {
	invalid := errors.New("invalid")
	attempts := 0
	s := newTestSaga("permanent").Then(Step{
		Name:    "validate",
		Retries: 5,
		Do: func(context.Context) error {
			attempts++
			return Permanent(invalid)
		},
	})

	_, err := s.Run(context.Background())
	if !errors.Is(err, invalid) {
		t.Fatalf("expected invalid, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestRun_CompensatesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	compensated := false
	s := newTestSaga("cancel").
		Then(Step{
			Name: "a",
			Do:   func(context.Context) error { return nil },
			Compensate: func(ctx context.Context) error {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				compensated = true
				return nil
			},
		}).
		Then(Step{Name: "b", Do: func(context.Context) error { cancel(); return context.Canceled }})

	_, err := s.Run(ctx)
	if !errors.Is(err, ErrRolledBack) {
		t.Fatalf("expected ErrRolledBack, got %v", err)
	}
	if !compensated {
		t.Fatal("expected compensation to run on a live context")
	}
}

func TestRun_FailureAfterPivotStalls(t *testing.T) {
	boom := errors.New("boom")
	s := newTestSaga("pivot").
		Then(Step{
			Name:       "deactivate",
			Do:         func(context.Context) error { return nil },
			Compensate: func(context.Context) error { t.Fatal("steps before the pivot must not be compensated"); return nil },
		}).
		Then(Step{Name: "delete", Do: func(context.Context) error { return nil }, Pivot: true}).
		Then(Step{Name: "cleanup", Do: func(context.Context) error { return boom }, Retries: 2})

	rep, err := s.Run(context.Background())
	if !errors.Is(err, boom) || !errors.Is(err, ErrStalled) {
		t.Fatalf("expected boom and ErrStalled, got %v", err)
	}
	if errors.Is(err, ErrRolledBack) {
		t.Fatalf("stalled saga must not report a rollback: %v", err)
	}
	if !rep.Pivoted || rep.FailedStep != "cleanup" || len(rep.Compensated) != 0 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestRun_FailureBeforePivotCompensates(t *testing.T) {
	boom := errors.New("boom")
	var undone []string
	s := newTestSaga("pivot").
		Then(Step{
			Name:       "deactivate",
			Do:         func(context.Context) error { return nil },
			Compensate: func(context.Context) error { undone = append(undone, "deactivate"); return nil },
		}).
		Then(Step{Name: "delete", Do: func(context.Context) error { return boom }, Pivot: true})

	rep, err := s.Run(context.Background())
	if !errors.Is(err, ErrRolledBack) {
		t.Fatalf("expected ErrRolledBack, got %v", err)
	}
	if rep.Pivoted || !reflect.DeepEqual(undone, []string{"deactivate"}) {
		t.Fatalf("unexpected report %+v, undone %v", rep, undone)
	}
}
