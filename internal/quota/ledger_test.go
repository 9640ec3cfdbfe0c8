package quota

import (
	"context"
	"errors"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLedger(capacity int, window time.Duration) (*Ledger, *MemoryStore, *clock) {
	c := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.now = c.now
	l := NewLedger(store, capacity, window)
	l.now = c.now
	return l, store, c
}

func TestLedger_AdmitsUpToCapacity(t *testing.T) {
	l, store, _ := newTestLedger(10, 24*time.Hour)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		d := l.Admit(ctx, "203.0.113.7")
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if d.Remaining != 10-i {
			t.Errorf("request %d: remaining = %d, want %d", i, d.Remaining, 10-i)
		}
	}

	for i := 0; i < 3; i++ {
		d := l.Admit(ctx, "203.0.113.7")
		if d.Allowed {
			t.Fatal("request beyond capacity should be denied")
		}
		if d.Remaining != 0 {
			t.Errorf("denied remaining = %d, want 0", d.Remaining)
		}
	}

	rec, _ := store.Get(ctx, "203.0.113.7")
	if rec == nil || rec.Count != 10 {
		t.Fatalf("denials must not consume quota, record = %+v", rec)
	}
}

func TestLedger_IdentitiesAreIndependent(t *testing.T) {
	l, _, _ := newTestLedger(1, time.Hour)
	ctx := context.Background()

	if !l.Admit(ctx, "a").Allowed {
		t.Fatal("first request for a should be allowed")
	}
	if l.Admit(ctx, "a").Allowed {
		t.Fatal("second request for a should be denied")
	}
	if !l.Admit(ctx, "b").Allowed {
		t.Fatal("b has its own quota")
	}
}

func TestLedger_WindowRollover(t *testing.T) {
	l, _, c := newTestLedger(2, 24*time.Hour)
	ctx := context.Background()

	first := l.Admit(ctx, "caller")
	l.Admit(ctx, "caller")
	if l.Admit(ctx, "caller").Allowed {
		t.Fatal("expected denial at capacity")
	}

	c.advance(24 * time.Hour)
	d := l.Admit(ctx, "caller")
	if !d.Allowed {
		t.Fatal("expected admission after window reset")
	}
	if d.Remaining != 1 {
		t.Errorf("remaining after reset = %d, want 1", d.Remaining)
	}
	if !d.ResetAt.After(first.ResetAt) {
		t.Errorf("expected a new window, reset %v not after %v", d.ResetAt, first.ResetAt)
	}
}

func TestLedger_ResetAtFixedWithinWindow(t *testing.T) {
	l, _, c := newTestLedger(5, time.Hour)
	ctx := context.Background()

	first := l.Admit(ctx, "caller")
	c.advance(10 * time.Minute)
	second := l.Admit(ctx, "caller")
	if !second.ResetAt.Equal(first.ResetAt) {
		t.Errorf("reset moved within window: %v vs %v", second.ResetAt, first.ResetAt)
	}
}

func TestLedger_LocalIdentityBypasses(t *testing.T) {
	l, store, _ := newTestLedger(1, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d := l.Admit(ctx, LocalIdentity)
		if !d.Allowed || !d.Bypassed {
			t.Fatalf("local identity should bypass, got %+v", d)
		}
	}
	if store.Len() != 0 {
		t.Error("bypassed requests must not be recorded")
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*Record, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) Set(context.Context, string, Record, time.Time) error {
	return errors.New("connection refused")
}

func TestLedger_FailsOpen(t *testing.T) {
	l := NewLedger(failingStore{}, 1, time.Hour)
	for i := 0; i < 3; i++ {
		d := l.Admit(context.Background(), "caller")
		if !d.Allowed || !d.FailedOpen {
			t.Fatalf("expected fail-open admission, got %+v", d)
		}
	}
}

func TestLedger_NilStoreFailsOpen(t *testing.T) {
	l := NewLedger(nil, 1, time.Hour)
	if d := l.Admit(context.Background(), "caller"); !d.Allowed {
		t.Fatal("expected allowed with no store")
	}
}
