package reliability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateOpen
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

// StateChangeFunc is called after a breaker changes state, outside its lock
type StateChangeFunc func(name string, from, to State, reason string)

// CircuitBreaker guards calls with the circuit breaker pattern. It is safe
// for concurrent use.
type CircuitBreaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	probes      int
	lastFailure time.Time

	totalCalls     int64
	totalFailures  int64
	totalRejected  int64
	totalSuccesses int64

	failureThreshold int
	successThreshold int
	timeout          time.Duration
	halfOpenRequests int
	name             string
	isFailure        func(error) bool
	now              func() time.Time
	onStateChange    []StateChangeFunc
	logger           *slog.Logger
}

// CircuitBreakerOption configures the circuit breaker
type CircuitBreakerOption func(*CircuitBreaker)

// WithFailureThreshold sets the consecutive failures that open the circuit
func WithFailureThreshold(threshold int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.failureThreshold = threshold
	}
}

// WithSuccessThreshold sets the successful probes that close the circuit
func WithSuccessThreshold(threshold int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.successThreshold = threshold
	}
}

// WithTimeout sets how long the circuit stays open
func WithTimeout(timeout time.Duration) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.timeout = timeout
	}
}

// WithHalfOpenRequests sets the max concurrent probes in half-open state
func WithHalfOpenRequests(requests int) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.halfOpenRequests = requests
	}
}

// WithName sets the circuit breaker name for identification
func WithName(name string) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.name = name
	}
}

// WithFailurePredicate decides which errors count as failures. By default
// every error except context cancellation does.
func WithFailurePredicate(isFailure func(error) bool) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.isFailure = isFailure
	}
}

// WithStateChange registers a state change callback
func WithStateChange(fn StateChangeFunc) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.onStateChange = append(cb.onStateChange, fn)
	}
}

// WithLogger sets the logger used to report state changes
func WithLogger(logger *slog.Logger) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.logger = logger
	}
}

func withClock(now func() time.Time) CircuitBreakerOption {
	return func(cb *CircuitBreaker) {
		cb.now = now
	}
}

func defaultIsFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(options ...CircuitBreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 3,
		timeout:          30 * time.Second,
		halfOpenRequests: 3,
		name:             "default",
		isFailure:        defaultIsFailure,
		now:              time.Now,
		logger:           slog.Default(),
	}

	for _, opt := range options {
		opt(cb)
	}

	return cb
}

// Name returns the breaker name
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute calls fn once unless the circuit rejects the call, in which case
// fn is not called and a *CircuitBreakerError is returned
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probe, change, err := cb.admit()
	cb.notify(change)
	if err != nil {
		return err
	}

	err = fn(ctx)
	cb.notify(cb.record(err, probe))
	return err
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the circuit and clears the current counters
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0
	cb.mu.Unlock()

	if from != StateClosed {
		cb.notify(&transition{from: from, to: StateClosed, reason: "reset"})
	}
}

type transition struct {
	from, to State
	reason   string
}

func (cb *CircuitBreaker) admit() (bool, *transition, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalCalls++

	var change *transition
	if cb.state == StateOpen {
		retryAt := cb.lastFailure.Add(cb.timeout)
		if cb.now().Before(retryAt) {
			cb.totalRejected++
			return false, nil, &CircuitBreakerError{
				Name:             cb.name,
				State:            StateOpen,
				Failures:         cb.failures,
				FailureThreshold: cb.failureThreshold,
				RetryAt:          retryAt,
			}
		}
		change = cb.moveTo(StateHalfOpen, "timeout expired")
	}

	if cb.state == StateHalfOpen {
		if cb.probes >= cb.halfOpenRequests {
			cb.totalRejected++
			return false, change, &CircuitBreakerError{
				Name:             cb.name,
				State:            StateHalfOpen,
				Failures:         cb.failures,
				FailureThreshold: cb.failureThreshold,
			}
		}
		cb.probes++
		return true, change, nil
	}

	return false, change, nil
}

func (cb *CircuitBreaker) record(err error, probe bool) *transition {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if probe && cb.probes > 0 {
		cb.probes--
	}

	if err != nil && cb.isFailure(err) {
		cb.failures++
		cb.totalFailures++
		cb.lastFailure = cb.now()

		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.failureThreshold {
				return cb.moveTo(StateOpen,
					fmt.Sprintf("failure threshold reached (%d/%d)", cb.failures, cb.failureThreshold))
			}
		case StateHalfOpen:
			if probe {
				return cb.moveTo(StateOpen, "failure in half-open state")
			}
		}
		return nil
	}

	if err != nil {
		return nil
	}

	cb.totalSuccesses++
	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		if !probe {
			return nil
		}
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.failures = 0
			return cb.moveTo(StateClosed,
				fmt.Sprintf("success threshold reached (%d/%d)", cb.successes, cb.successThreshold))
		}
	}
	return nil
}

// moveTo must be called with the lock held
func (cb *CircuitBreaker) moveTo(to State, reason string) *transition {
	from := cb.state
	cb.state = to
	cb.successes = 0
	cb.probes = 0
	return &transition{from: from, to: to, reason: reason}
}

func (cb *CircuitBreaker) notify(change *transition) {
	if change == nil {
		return
	}

	cb.logger.Warn("circuit breaker state changed",
		"breaker", cb.name,
		"from", change.from.String(),
		"to", change.to.String(),
		"reason", change.reason,
	)

	for _, fn := range cb.onStateChange {
		fn(cb.name, change.from, change.to, change.reason)
	}
}

// Stats returns a snapshot of the breaker counters
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Stats{
		Name:            cb.name,
		State:           cb.state,
		TotalCalls:      cb.totalCalls,
		TotalFailures:   cb.totalFailures,
		TotalRejected:   cb.totalRejected,
		TotalSuccesses:  cb.totalSuccesses,
		CurrentFailures: cb.failures,
		LastFailureTime: cb.lastFailure,
	}
}

// Stats is a point-in-time view of a circuit breaker
type Stats struct {
	Name            string
	State           State
	TotalCalls      int64
	TotalFailures   int64
	TotalRejected   int64
	TotalSuccesses  int64
	CurrentFailures int
	LastFailureTime time.Time
}

// Set lazily creates one circuit breaker per key, all sharing the same
// options
type Set[K comparable] struct {
	mu       sync.Mutex
	breakers map[K]*CircuitBreaker
	options  []CircuitBreakerOption
}

// NewSet creates an empty set. Each breaker is named after its key.
func NewSet[K comparable](options ...CircuitBreakerOption) *Set[K] {
	return &Set[K]{
		breakers: make(map[K]*CircuitBreaker),
		options:  options,
	}
}

// Get returns the breaker for key, creating it on first use
func (s *Set[K]) Get(key K) *CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, ok := s.breakers[key]; ok {
		return cb
	}

	opts := make([]CircuitBreakerOption, 0, len(s.options)+1)
	opts = append(opts, s.options...)
	opts = append(opts, WithName(fmt.Sprint(key)))
	cb := NewCircuitBreaker(opts...)
	s.breakers[key] = cb
	return cb
}

// Lookup returns the breaker for key without creating one
func (s *Set[K]) Lookup(key K) (*CircuitBreaker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cb, ok := s.breakers[key]
	return cb, ok
}

// Stats returns the stats of every breaker created so far
func (s *Set[K]) Stats() []Stats {
	s.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(s.breakers))
	for _, cb := range s.breakers {
		breakers = append(breakers, cb)
	}
	s.mu.Unlock()

	result := make([]Stats, 0, len(breakers))
	for _, cb := range breakers {
		result = append(result, cb.Stats())
	}
	return result
}
