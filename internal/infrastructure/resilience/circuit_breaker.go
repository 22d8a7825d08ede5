package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed allows all attempts through.
	StateClosed State = iota
	// StateOpen rejects all attempts.
	StateOpen
	// StateHalfOpen lets attempts through to probe recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// StateChangeFunc observes breaker transitions. It runs outside the lock.
type StateChangeFunc func(name string, from, to State)

// Option configures a CircuitBreaker.
type Option func(*CircuitBreaker)

// WithHalfOpenSuccesses sets how many half-open successes close the circuit.
func WithHalfOpenSuccesses(n int) Option {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.halfOpenSucc = n
		}
	}
}

// WithStateChange registers a transition observer.
func WithStateChange(fn StateChangeFunc) Option {
	return func(cb *CircuitBreaker) {
		cb.onChange = fn
	}
}

// withClock replaces time.Now in tests.
func withClock(now func() time.Time) Option {
	return func(cb *CircuitBreaker) {
		cb.now = now
	}
}

// CircuitBreaker guards connection attempts against a platform so a broken
// token or outage fails fast instead of hammering the API.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	timeout      time.Duration
	halfOpenSucc int
	onChange     StateChangeFunc
	now          func() time.Time

	mu           sync.RWMutex
	state        State
	failures     int
	lastFailTime time.Time
	successCount int
}

// NewCircuitBreaker creates a breaker that opens after maxFailures
// consecutive failures and probes again once timeout has passed.
func NewCircuitBreaker(name string, maxFailures int, timeout time.Duration, opts ...Option) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		timeout:      timeout,
		halfOpenSucc: 1,
		now:          time.Now,
		state:        StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Execute runs fn unless the circuit is open or ctx is already done.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cb.beforeAttempt(); err != nil {
		return err
	}

	err := fn()
	cb.afterAttempt(err)

	return err
}

func (cb *CircuitBreaker) beforeAttempt() error {
	cb.mu.Lock()
	from := cb.state

	if cb.state == StateOpen {
		if cb.now().Sub(cb.lastFailTime) <= cb.timeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.successCount = 0
	}
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
	return nil
}

func (cb *CircuitBreaker) afterAttempt(err error) {
	cb.mu.Lock()
	from := cb.state

	if err != nil {
		cb.failures++
		cb.lastFailTime = cb.now()

		if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
			cb.state = StateOpen
		}
	} else {
		switch cb.state {
		case StateHalfOpen:
			cb.successCount++
			if cb.successCount >= cb.halfOpenSucc {
				cb.state = StateClosed
				cb.failures = 0
			}
		case StateClosed:
			cb.failures = 0
		}
	}
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
}

func (cb *CircuitBreaker) notify(from, to State) {
	if from != to && cb.onChange != nil {
		cb.onChange(cb.name, from, to)
	}
}

// State returns the current circuit breaker state.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Name returns the circuit breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Failures returns the current failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.successCount = 0
	cb.mu.Unlock()

	cb.notify(from, StateClosed)
}
