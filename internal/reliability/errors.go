package reliability

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCircuitOpen   = errors.New("circuit breaker: circuit is open")
	ErrHalfOpenLimit = errors.New("circuit breaker: half-open request limit reached")
)

// CircuitBreakerError reports a call rejected without being attempted
type CircuitBreakerError struct {
	Name             string
	State            State
	Failures         int
	FailureThreshold int
	RetryAt          time.Time
}

func (e *CircuitBreakerError) Error() string {
	switch e.State {
	case StateOpen:
		return fmt.Sprintf("circuit breaker %s open: call blocked (failures=%d/%d, retry at %s)",
			e.Name, e.Failures, e.FailureThreshold, e.RetryAt.Format(time.RFC3339))
	case StateHalfOpen:
		return fmt.Sprintf("circuit breaker %s half-open: probe limit reached", e.Name)
	default:
		return fmt.Sprintf("circuit breaker %s: call rejected in state %v", e.Name, e.State)
	}
}

func (e *CircuitBreakerError) Unwrap() error {
	if e.State == StateHalfOpen {
		return ErrHalfOpenLimit
	}
	return ErrCircuitOpen
}

// IsRejection reports whether err comes from a breaker refusing a call, as
// opposed to the guarded function failing
func IsRejection(err error) bool {
	var cbErr *CircuitBreakerError
	return errors.As(err, &cbErr)
}
