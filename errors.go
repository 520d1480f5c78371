package mediate

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/glimte/mediate-go/registry"
)

var (
	ErrHandlerNotFound      = errors.New("mediate: no handler registered")
	ErrAmbiguousHandler     = errors.New("mediate: more than one handler registered")
	ErrTypeMismatch         = errors.New("mediate: unexpected value type in pipeline")
	ErrInvalidConfiguration = errors.New("mediate: invalid configuration")
)

// HandlerNotFoundError reports a request/response pair without a handler
type HandlerNotFoundError struct {
	Binding registry.Binding
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("mediate: no handler registered for %s", e.Binding)
}

func (e *HandlerNotFoundError) Unwrap() error {
	return ErrHandlerNotFound
}

// AmbiguousHandlerError reports a request/response pair with several handlers
type AmbiguousHandlerError struct {
	Binding registry.Binding
	Count   int
}

func (e *AmbiguousHandlerError) Error() string {
	return fmt.Sprintf("mediate: %d handlers registered for %s, expected exactly one", e.Count, e.Binding)
}

func (e *AmbiguousHandlerError) Unwrap() error {
	return ErrAmbiguousHandler
}

// TypeMismatchError reports a behaviour that replaced the request, or a
// query chain that produced a response, of the wrong type
type TypeMismatchError struct {
	Stage string // "request" or "response"
	Want  reflect.Type
	Got   reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("mediate: %s has type %v, want %v", e.Stage, e.Got, e.Want)
}

func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}
