package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) Sweep(context.Context) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	s := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		Run(ctx, "test", s, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for s.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not run twice")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_KeepsGoingAfterError(t *testing.T) {
	s := &countingSweeper{err: errors.New("db down")}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	Run(ctx, "test", s, 5*time.Millisecond)
	if s.calls.Load() < 2 {
		t.Errorf("expected repeated sweeps after errors, got %d", s.calls.Load())
	}
}

func TestRun_NonPositiveIntervalReturns(t *testing.T) {
	s := &countingSweeper{}
	Run(context.Background(), "test", s, 0)
	if s.calls.Load() != 0 {
		t.Error("expected no sweeps with zero interval")
	}
}
