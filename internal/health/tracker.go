package health

import (
	"sort"
	"sync"
	"time"
)

// Tracker owns one breaker per provider name, created on first use.
type Tracker struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker

	failureThreshold int
	recoveryInterval time.Duration
}

func NewTracker(failureThreshold int, recoveryInterval time.Duration) *Tracker {
	return &Tracker{
		breakers:         make(map[string]*Breaker),
		failureThreshold: failureThreshold,
		recoveryInterval: recoveryInterval,
	}
}

func (t *Tracker) Breaker(provider string) *Breaker {
	t.mu.RLock()
	b, ok := t.breakers[provider]
	t.mu.RUnlock()
	if ok {
		return b
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.breakers[provider]; ok {
		return b
	}
	b = NewBreaker(t.failureThreshold, t.recoveryInterval)
	t.breakers[provider] = b
	return b
}

func (t *Tracker) Allow(provider string) bool {
	return t.Breaker(provider).Allow()
}

func (t *Tracker) RecordSuccess(provider string) {
	t.Breaker(provider).RecordSuccess()
}

func (t *Tracker) RecordFailure(provider string) {
	t.Breaker(provider).RecordFailure()
}

func (t *Tracker) Abandon(provider string) {
	t.Breaker(provider).Abandon()
}

// ProviderState is one row of the /health report.
type ProviderState struct {
	Provider string `json:"provider"`
	State    string `json:"state"`
}

// Snapshot lists every known provider's breaker state, sorted by name.
func (t *Tracker) Snapshot() []ProviderState {
	t.mu.RLock()
	names := make([]string, 0, len(t.breakers))
	for name := range t.breakers {
		names = append(names, name)
	}
	t.mu.RUnlock()
	sort.Strings(names)

	out := make([]ProviderState, 0, len(names))
	for _, name := range names {
		out = append(out, ProviderState{Provider: name, State: t.Breaker(name).State().String()})
	}
	return out
}
