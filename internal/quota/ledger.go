package quota

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// LocalIdentity is the caller identity that is never counted.
const LocalIdentity = "local"

// Record is the per-identity counter for the current window.
type Record struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// Store persists quota records. Get returns (nil, nil) for an absent or
// expired key. Set stores rec until expiresAt.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, rec Record, expiresAt time.Time) error
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	Bypassed   bool
	FailedOpen bool
}

// Ledger enforces a fixed-window request quota per caller identity.
type Ledger struct {
	store    Store
	capacity int
	window   time.Duration
	now      func() time.Time
}

// NewLedger creates a ledger over store. If store is nil, every admission
// passes (fail open).
func NewLedger(store Store, capacity int, window time.Duration) *Ledger {
	return &Ledger{
		store:    store,
		capacity: capacity,
		window:   window,
		now:      time.Now,
	}
}

func (l *Ledger) Capacity() int {
	return l.capacity
}

// Admit counts one request for identity. A denial does not consume quota.
// Store failures admit the request and are only logged.
func (l *Ledger) Admit(ctx context.Context, identity string) Decision {
	if identity == LocalIdentity {
		return Decision{Allowed: true, Remaining: math.MaxInt, Bypassed: true}
	}

	now := l.now()
	if l.store == nil {
		return Decision{Allowed: true, Remaining: l.capacity, ResetAt: now.Add(l.window), FailedOpen: true}
	}

	rec, err := l.store.Get(ctx, identity)
	if err != nil {
		slog.Warn("quota store read failed, admitting request", "identity", identity, "error", err)
		return Decision{Allowed: true, Remaining: l.capacity, ResetAt: now.Add(l.window), FailedOpen: true}
	}

	if rec == nil || !now.Before(rec.ResetAt) {
		next := Record{Count: 1, ResetAt: now.Add(l.window)}
		l.save(ctx, identity, next)
		return Decision{Allowed: true, Remaining: l.capacity - 1, ResetAt: next.ResetAt}
	}

	if rec.Count >= l.capacity {
		return Decision{Allowed: false, Remaining: 0, ResetAt: rec.ResetAt}
	}

	rec.Count++
	l.save(ctx, identity, *rec)
	return Decision{Allowed: true, Remaining: l.capacity - rec.Count, ResetAt: rec.ResetAt}
}

func (l *Ledger) save(ctx context.Context, identity string, rec Record) {
	if err := l.store.Set(ctx, identity, rec, rec.ResetAt); err != nil {
		slog.Warn("quota store write failed", "identity", identity, "error", err)
	}
}
