package behaviors

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/glimte/mediate-go/internal/reliability"
)

var (
	ErrInvalidRequest = errors.New("behaviors: request failed validation")
	ErrRateLimited    = errors.New("behaviors: rate limit exceeded")
	ErrTimeout        = errors.New("behaviors: request timed out")
	ErrPanic          = errors.New("behaviors: handler panicked")

	// ErrCircuitOpen matches requests rejected by an open circuit breaker
	ErrCircuitOpen = reliability.ErrCircuitOpen
	// ErrHalfOpenLimit matches requests rejected while a breaker probes
	ErrHalfOpenLimit = reliability.ErrHalfOpenLimit
)

// ValidationError reports a request rejected before reaching its handler
type ValidationError struct {
	Request reflect.Type
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("behaviors: validation of %v failed: %v", e.Request, e.Err)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// RateLimitError reports a request rejected by its rate limiter
type RateLimitError struct {
	Request reflect.Type
	Err     error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("behaviors: rate limit exceeded for %v: %v", e.Request, e.Err)
	}
	return fmt.Sprintf("behaviors: rate limit exceeded for %v", e.Request)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a handler that did not finish within its deadline
type TimeoutError struct {
	Request reflect.Type
	After   time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("behaviors: %v timed out after %v", e.Request, e.After)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// PanicError carries a panic recovered from the rest of the chain
type PanicError struct {
	Request reflect.Type
	Value   any
	Stack   []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("behaviors: panic while handling %v: %v", e.Request, e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return errors.Join(ErrPanic, err)
	}
	return ErrPanic
}
