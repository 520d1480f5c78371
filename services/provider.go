package services

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNotRegistered = errors.New("services: no registration for type")
	ErrScopeClosed   = errors.New("services: scope is closed")
)

// Provider resolves services by type
type Provider interface {
	// Resolve returns the most recent registration for key
	Resolve(key reflect.Type) (any, error)

	// ResolveAll returns every registration for key in registration order.
	// An unknown key yields an empty slice, not an error.
	ResolveAll(key reflect.Type) ([]any, error)
}

// Scope is a Provider with its own set of scoped instances
type Scope interface {
	Provider

	// ID identifies the scope in logs
	ID() string

	// Close releases scoped instances implementing io.Closer, newest first
	Close() error
}

// ScopeFactory is implemented by providers that support per-call scopes
type ScopeFactory interface {
	CreateScope() Scope
}

// ResolutionError reports a registered factory that failed
type ResolutionError struct {
	Key reflect.Type
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("services: resolving %v failed: %v", e.Key, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// Key returns the registration key for T
func Key[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// Get resolves T from p
func Get[T any](p Provider) (T, error) {
	var zero T

	v, err := p.Resolve(Key[T]())
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("services: registration for %v holds %T", Key[T](), v)
	}
	return typed, nil
}

// All resolves every registration of T from p
func All[T any](p Provider) ([]T, error) {
	values, err := p.ResolveAll(Key[T]())
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(values))
	for _, v := range values {
		typed, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("services: registration for %v holds %T", Key[T](), v)
		}
		result = append(result, typed)
	}
	return result, nil
}
