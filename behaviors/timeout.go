package behaviors

import (
	"context"
	"errors"
	"time"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
)

// TimeoutName is the declaration name of the timeout behaviour
const TimeoutName = "timeout"

// Timeout declares a behaviour bounding the rest of the chain by d. The
// chain runs on the calling goroutine, so the handler must honour context
// cancellation for the deadline to take effect. When it fails because the
// deadline passed, the error is wrapped in a *TimeoutError.
func Timeout(d time.Duration) registry.Declaration {
	return registry.Behaviour(TimeoutName, nil, func(b registry.Binding) pipeline.Behavior {
		return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
			if d <= 0 {
				return next(ctx, req)
			}

			tctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()

			out, err := next(tctx, req)
			if err != nil && ctx.Err() == nil && errors.Is(tctx.Err(), context.DeadlineExceeded) {
				return out, &TimeoutError{Request: b.Request, After: d, Err: err}
			}
			return out, err
		})
	})
}
