// Package health tracks completion provider availability with per-provider
// circuit breakers.
package health

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // calls flow
	StateOpen                  // calls fail fast
	StateHalfOpen              // one probe call allowed
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker opens after a run of consecutive failures and admits a single probe
// once the recovery interval has elapsed.
type Breaker struct {
	mu sync.Mutex

	state         State
	consecutive   int
	openedAt      time.Time
	probeInFlight bool

	failureThreshold int
	recoveryInterval time.Duration
	now              func() time.Time
}

func NewBreaker(failureThreshold int, recoveryInterval time.Duration) *Breaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &Breaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		recoveryInterval: recoveryInterval,
		now:              time.Now,
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// currentState must be called with mu held.
func (b *Breaker) currentState() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.recoveryInterval {
		b.state = StateHalfOpen
		b.probeInFlight = false
	}
	return b.state
}

// Allow reports whether a call may proceed. In half-open state only the
// first caller gets through until that probe reports back.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentState() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if b.probeInFlight {
			return false
		}
		b.probeInFlight = true
		return true
	default:
		return false
	}
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.consecutive = 0
	b.probeInFlight = false
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutive++
	switch b.currentState() {
	case StateClosed:
		if b.consecutive >= b.failureThreshold {
			b.trip()
		}
	case StateHalfOpen:
		b.trip()
	}
}

// Abandon releases a half-open probe whose call ended without an outcome.
func (b *Breaker) Abandon() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probeInFlight = false
}

func (b *Breaker) trip() {
	b.state = StateOpen
	b.openedAt = b.now()
	b.probeInFlight = false
}

func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.consecutive = 0
	b.probeInFlight = false
}
