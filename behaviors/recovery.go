package behaviors

import (
	"context"
	"runtime/debug"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
)

// RecoveryName is the declaration name of the recovery behaviour
const RecoveryName = "recovery"

// Recovery declares a behaviour turning a panic further down the chain into
// a *PanicError. Declare it first so that it wraps everything else.
func Recovery() registry.Declaration {
	return registry.Behaviour(RecoveryName, nil, func(b registry.Binding) pipeline.Behavior {
		return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (out any, err error) {
			defer func() {
				if r := recover(); r != nil {
					out = nil
					err = &PanicError{Request: b.Request, Value: r, Stack: debug.Stack()}
				}
			}()
			return next(ctx, req)
		})
	})
}
