// Package breaker implements a per-provider circuit breaker that excludes an
// upstream from the provider chain after repeated transient failures.
package breaker

import (
	"sync"
	"time"
)

// Breaker tracks consecutive transient failures for one provider. After the
// failure threshold is crossed the breaker opens and Allow returns false
// until the reset window elapses; there is no half-open probing state, the
// next call after the window is simply let through.
type Breaker struct {
	mu                  sync.Mutex
	threshold           int
	resetWindow         time.Duration
	consecutiveFailures int
	openedAt            time.Time
	open                bool
	nowFunc             func() time.Time
}

// New creates a Breaker with the given failure threshold and reset window.
func New(threshold int, resetWindow time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if resetWindow <= 0 {
		resetWindow = 5 * time.Minute
	}
	return &Breaker{threshold: threshold, resetWindow: resetWindow, nowFunc: time.Now}
}

// Allow reports whether the provider may be called. An open breaker whose
// reset window has elapsed closes and lets the call through.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	if b.nowFunc().Sub(b.openedAt) > b.resetWindow {
		// Window elapsed: re-admit the provider. The failure count is kept
		// until the next success so one more transient failure reopens
		// immediately.
		b.open = false
		b.openedAt = time.Time{}
		return true
	}
	return false
}

// RecordFailure registers a transient failure. Permanent failures (unknown
// symbol) must not be recorded; they are a data outcome, not a health signal.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures++
	if b.consecutiveFailures >= b.threshold && !b.open {
		b.open = true
		b.openedAt = b.nowFunc()
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures = 0
	b.open = false
	b.openedAt = time.Time{}
}

// State returns the current failure count and whether the breaker is open.
func (b *Breaker) State() (consecutiveFailures int, open bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures, b.open
}
