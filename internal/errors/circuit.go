package errors

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when a call is rejected because the breaker
// is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Default breaker tuning. Five consecutive failures trip the breaker; after
// 30 seconds one probe call is let through.
const (
	defaultMaxFailures  = 5
	defaultResetTimeout = 30 * time.Second
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed lets calls through and counts failures.
	StateClosed State = iota
	// StateOpen rejects calls until the reset timeout elapses.
	StateOpen
	// StateHalfOpen lets a single probe through to test recovery.
	StateHalfOpen
)

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

// CircuitBreaker fails fast against an upstream that keeps erroring. The
// source clients and the hybrid rewriter share this to stop hammering a
// down service (an upstream API, the local Ollama endpoint) while it is
// clearly unavailable.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration

	mu          sync.RWMutex
	state       State
	failures    int
	lastFailure time.Time
}

// CircuitBreakerOption configures a CircuitBreaker.
type CircuitBreakerOption func(*CircuitBreaker)

// WithMaxFailures sets how many consecutive failures open the circuit.
func WithMaxFailures(n int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) { cb.maxFailures = n }
}

// WithResetTimeout sets how long the circuit stays open before a probe.
func WithResetTimeout(d time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) { cb.resetTimeout = d }
}

// NewCircuitBreaker creates a closed breaker named for its protected
// upstream.
func NewCircuitBreaker(name string, opts ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:         name,
		maxFailures:  defaultMaxFailures,
		resetTimeout: defaultResetTimeout,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Name returns the breaker's name.
func (cb *CircuitBreaker) Name() string { return cb.name }

// State returns the current state, accounting for reset-timeout expiry.
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.currentState()
}

// currentState maps open to half-open once the reset timeout has passed.
// Callers must hold at least a read lock.
func (cb *CircuitBreaker) currentState() State {
	if cb.state == StateOpen && time.Since(cb.lastFailure) > cb.resetTimeout {
		return StateHalfOpen
	}
	return cb.state
}

// Failures returns the consecutive failure count.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Allow reports whether a call would currently be let through.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.currentState() != StateOpen
}

// RecordSuccess closes the circuit and clears the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.state = StateClosed
}

// RecordFailure counts one failure, opening the circuit at the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	cb.lastFailure = time.Now()
	if cb.failures >= cb.maxFailures {
		cb.state = StateOpen
	}
}

// trip reopens the circuit after a failed half-open probe.
func (cb *CircuitBreaker) trip() {
	cb.mu.Lock()
	cb.state = StateOpen
	cb.lastFailure = time.Now()
	cb.mu.Unlock()
}

// Execute runs fn under the breaker. An open circuit returns ErrCircuitOpen
// without invoking fn; a half-open circuit runs fn as the recovery probe.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	state := cb.currentState()
	cb.state = state
	cb.mu.Unlock()

	if state == StateOpen {
		return ErrCircuitOpen
	}

	err := fn()
	switch {
	case err == nil:
		cb.RecordSuccess()
		return nil
	case state == StateHalfOpen:
		// A failed probe reopens immediately, no counting.
		cb.trip()
		return err
	default:
		cb.RecordFailure()
		return err
	}
}

// CircuitExecuteWithResult runs a value-returning fn under the breaker,
// diverting to fallback when the circuit is open or the half-open probe
// fails. Failures in closed state return fn's error so the caller can decide
// whether the fallback applies.
func CircuitExecuteWithResult[T any](cb *CircuitBreaker, fn func() (T, error), fallback func() (T, error)) (T, error) {
	cb.mu.Lock()
	state := cb.currentState()
	cb.state = state
	cb.mu.Unlock()

	if state == StateOpen {
		return fallback()
	}

	result, err := fn()
	switch {
	case err == nil:
		cb.RecordSuccess()
		return result, nil
	case state == StateHalfOpen:
		cb.trip()
		return fallback()
	default:
		cb.RecordFailure()
		return result, err
	}
}
