package upstream

import (
	"sync"
	"time"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	StateClosed   CircuitState = iota // healthy, requests flow
	StateOpen                         // unhealthy, requests blocked
	StateHalfOpen                     // probing, one request allowed
)

func (s CircuitState) String() string {
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

// CircuitBreaker trips after a run of consecutive upstream failures and lets
// a single probe through once the recovery interval has passed.
type CircuitBreaker struct {
	mu sync.Mutex

	state       CircuitState
	failures    int
	probing     bool
	lastFailure time.Time
	openedAt    time.Time

	// Config
	failureThreshold      int
	recoveryProbeInterval time.Duration
}

// NewCircuitBreaker creates a circuit breaker with the given thresholds. A
// non-positive failureThreshold disables tripping.
func NewCircuitBreaker(failureThreshold int, recoveryProbeInterval time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:                 StateClosed,
		failureThreshold:      failureThreshold,
		recoveryProbeInterval: recoveryProbeInterval,
	}
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentState()
}

// currentState returns state, transitioning OPEN→HALF_OPEN if probe interval elapsed.
// Must be called with mu held.
func (cb *CircuitBreaker) currentState() CircuitState {
	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.recoveryProbeInterval {
		cb.state = StateHalfOpen
		cb.probing = false
	}
	return cb.state
}

// Allow returns true if a request should be allowed through. In the
// half-open state only the first caller gets through until it reports back.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentState() {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.probing {
			return false
		}
		cb.probing = true
		return true
	}
	return false
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.probing = false
	if cb.state == StateHalfOpen {
		cb.state = StateClosed
	}
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()
	cb.probing = false

	switch cb.state {
	case StateClosed:
		if cb.failureThreshold > 0 && cb.failures >= cb.failureThreshold {
			cb.state = StateOpen
			cb.openedAt = time.Now()
		}
	case StateHalfOpen:
		// Probe failed, reopen
		cb.state = StateOpen
		cb.openedAt = time.Now()
	}
}

// Abandon releases a half-open probe whose outcome is unknown, for example
// because the caller went away before upstream answered.
func (cb *CircuitBreaker) Abandon() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.probing = false
}

// Reset resets the circuit breaker to closed state.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.probing = false
}
