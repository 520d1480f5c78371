package behaviors

import (
	"context"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
)

// Condition decides whether a conditional behaviour applies to a request
type Condition func(ctx context.Context, req any) bool

// When wraps decl so that it only runs for requests matching cond. Other
// requests go straight to the next step. The wrapped declaration keeps the
// contract and constructors of decl.
func When(cond Condition, decl registry.Declaration) registry.Declaration {
	wrapped := registry.Declaration{
		Name:         "when(" + decl.Name + ")",
		Contract:     decl.Contract,
		Constructors: make([]registry.Constructor, len(decl.Constructors)),
	}

	for i, ctor := range decl.Constructors {
		build := ctor.New
		wrapped.Constructors[i] = registry.Constructor{
			Needs: ctor.Needs,
			New: func(b registry.Binding, deps []any) pipeline.Behavior {
				if build == nil {
					return nil
				}
				inner := build(b, deps)
				if inner == nil {
					return nil
				}
				return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
					if cond == nil || !cond(ctx, req) {
						return next(ctx, req)
					}
					return inner.Handle(ctx, req, next)
				})
			},
		}
	}

	return wrapped
}

// RequestIs matches requests assignable to T
func RequestIs[T any]() Condition {
	return func(_ context.Context, req any) bool {
		_, ok := req.(T)
		return ok
	}
}

// All matches when every condition does
func All(conds ...Condition) Condition {
	return func(ctx context.Context, req any) bool {
		for _, c := range conds {
			if !c(ctx, req) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one condition does
func Any(conds ...Condition) Condition {
	return func(ctx context.Context, req any) bool {
		for _, c := range conds {
			if c(ctx, req) {
				return true
			}
		}
		return false
	}
}
