package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.temporal.io/sdk/worker"
)

type fakeWorker struct {
	worker.Worker
	startErr error
	started  bool
	stopped  chan struct{}
}

func (w *fakeWorker) Start() error {
	w.started = true
	return w.startErr
}

func (w *fakeWorker) Stop() { close(w.stopped) }

func TestRunWorker_StopsWhenContextEnds(t *testing.T) {
	w := &fakeWorker{stopped: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- RunWorker(ctx, w) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunWorker: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunWorker did not return after cancel")
	}
	if !w.started {
		t.Error("worker never started")
	}
	select {
	case <-w.stopped:
	default:
		t.Error("worker not stopped")
	}
}

func TestRunWorker_StartFailure(t *testing.T) {
	w := &fakeWorker{startErr: errors.New("namespace not found"), stopped: make(chan struct{})}
	if err := RunWorker(context.Background(), w); err == nil {
		t.Fatal("expected start error")
	}
	select {
	case <-w.stopped:
		t.Error("Stop called for a worker that never started")
	default:
	}
}
