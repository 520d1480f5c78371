package behaviors

import (
	"context"
	"reflect"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
	"github.com/go-playground/validator/v10"
)

// ValidationName is the declaration name of the validation behaviour
const ValidationName = "validation"

// Validation declares a behaviour that checks struct requests against their
// `validate` tags before the handler sees them. Requests that are not structs
// pass through. A nil validator uses one with required struct checks
// enabled.
func Validation(v *validator.Validate) registry.Declaration {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}

	return registry.Behaviour(ValidationName, nil, func(b registry.Binding) pipeline.Behavior {
		if !isStruct(b.Request) {
			return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
				return next(ctx, req)
			})
		}

		return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
			if err := validate(ctx, v, req); err != nil {
				return nil, &ValidationError{Request: b.Request, Err: err}
			}
			return next(ctx, req)
		})
	})
}

func validate(ctx context.Context, v *validator.Validate, req any) error {
	rv := reflect.ValueOf(req)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	return v.StructCtx(ctx, req)
}

func isStruct(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
