package mediate

import (
	"reflect"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
)

// Behaviour types re-exported so that most callers only import mediate
type (
	Behavior            = pipeline.Behavior
	BehaviorFunc        = pipeline.BehaviorFunc
	Next                = pipeline.Next
	CommandBehavior     = pipeline.CommandBehavior
	CommandBehaviorFunc = pipeline.CommandBehaviorFunc
	CommandNext         = pipeline.CommandNext
	Declaration         = registry.Declaration
	Binding             = registry.Binding
)

// CommandBinding returns the binding of a command request
func CommandBinding[TReq any]() Binding {
	return Binding{Request: reflect.TypeFor[TReq]()}
}

// QueryBinding returns the binding of a query request
func QueryBinding[TReq, TResp any]() Binding {
	return Binding{Request: reflect.TypeFor[TReq](), Response: reflect.TypeFor[TResp]()}
}

// as converts a pipeline value back to T. A nil value converts to the zero
// value of nilable types.
func as[T any](v any) (T, bool) {
	if typed, ok := v.(T); ok {
		return typed, true
	}

	var zero T
	if v == nil {
		switch reflect.TypeFor[T]().Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return zero, true
		}
	}
	return zero, false
}

func typeOf(v any) reflect.Type {
	return reflect.TypeOf(v)
}
