package health

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(threshold int, interval time.Duration) (*Breaker, *fakeClock) {
	c := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker(threshold, interval)
	b.now = c.now
	return b, c
}

func TestBreaker_StartsClosed(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)
	if b.State() != StateClosed || !b.Allow() {
		t.Errorf("expected closed and allowing, got %s", b.State())
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)

	b.RecordFailure()
	b.RecordFailure()
	if b.State() != StateClosed {
		t.Fatal("expected closed after 2 failures")
	}
	b.RecordFailure()
	if b.State() != StateOpen {
		t.Fatalf("expected open after 3 failures, got %s", b.State())
	}
	if b.Allow() {
		t.Error("open breaker must not allow calls")
	}
}

func TestBreaker_SuccessResetsRun(t *testing.T) {
	b, _ := newTestBreaker(3, time.Second)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	if b.State() != StateClosed {
		t.Errorf("failures are not consecutive, expected closed, got %s", b.State())
	}
}

func TestBreaker_HalfOpenAllowsSingleProbe(t *testing.T) {
	b, c := newTestBreaker(1, time.Second)
	b.RecordFailure()

	c.t = c.t.Add(time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open, got %s", b.State())
	}
	if !b.Allow() {
		t.Fatal("expected the probe to be allowed")
	}
	if b.Allow() {
		t.Error("only one probe may be in flight")
	}
}

func TestBreaker_ProbeOutcome(t *testing.T) {
	b, c := newTestBreaker(1, time.Second)
	b.RecordFailure()
	c.t = c.t.Add(time.Second)
	b.Allow()
	b.RecordSuccess()
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}

	b.RecordFailure()
	c.t = c.t.Add(time.Second)
	b.Allow()
	b.RecordFailure()
	if b.State() != StateOpen {
		t.Errorf("expected open after failed probe, got %s", b.State())
	}
}

func TestBreaker_Reset(t *testing.T) {
	b, _ := newTestBreaker(1, time.Hour)
	b.RecordFailure()
	b.Reset()
	if b.State() != StateClosed || !b.Allow() {
		t.Error("expected closed after reset")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half_open"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestBreaker_AbandonReleasesProbe(t *testing.T) {
	b, c := newTestBreaker(1, time.Second)
	b.RecordFailure()
	c.t = c.t.Add(time.Second)

	if !b.Allow() {
		t.Fatal("expected probe")
	}
	b.Abandon()
	if !b.Allow() {
		t.Error("expected a new probe after the previous one was abandoned")
	}
}
