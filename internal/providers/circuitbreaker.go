package providers

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker refuses a request without
// attempting network I/O.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitBreaker fails fast once consecutive failures reach a threshold,
// until a cool-down window elapses. A single success resets the failure
// counter; the counter also resets when the cool-down expires. A nil
// breaker is valid and always allows requests.
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	coolDown  time.Duration
	failures  int
	openUntil time.Time

	now func() time.Time // test hook
}

// NewCircuitBreaker creates a breaker opening after threshold consecutive
// failures for the given cool-down. Non-positive values fall back to 5
// failures / 30 seconds.
func NewCircuitBreaker(threshold int, coolDown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if coolDown <= 0 {
		coolDown = 30 * time.Second
	}
	return &CircuitBreaker{
		threshold: threshold,
		coolDown:  coolDown,
		now:       time.Now,
	}
}

// Allow reports whether a request may proceed. When an elapsed cool-down is
// observed the breaker closes and the failure counter resets.
func (b *CircuitBreaker) Allow() bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openUntil.IsZero() {
		return true
	}
	if b.now().After(b.openUntil) {
		b.openUntil = time.Time{}
		b.failures = 0
		return true
	}
	return false
}

// RecordSuccess resets the failure counter and closes the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.openUntil = time.Time{}
}

// RecordFailure increments the counter and opens the breaker when the
// threshold is reached.
func (b *CircuitBreaker) RecordFailure() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.threshold {
		b.openUntil = b.now().Add(b.coolDown)
	}
}
