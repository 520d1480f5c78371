package pipeline

import "context"

// Next invokes the remainder of a response-bearing chain. It may be called at
// most once.
type Next func(ctx context.Context, req any) (any, error)

// CommandNext invokes the remainder of a chain that produces no response.
// It may be called at most once.
type CommandNext func(ctx context.Context, req any) error

// Terminal is the innermost step of a pipeline, normally the request handler
type Terminal func(ctx context.Context, req any) (any, error)

// Behavior wraps the rest of a response-bearing chain
type Behavior interface {
	Handle(ctx context.Context, req any, next Next) (any, error)
}

// BehaviorFunc is a function adapter for Behavior
type BehaviorFunc func(ctx context.Context, req any, next Next) (any, error)

// Handle implements Behavior
func (f BehaviorFunc) Handle(ctx context.Context, req any, next Next) (any, error) {
	return f(ctx, req, next)
}

// CommandBehavior wraps the rest of a chain that produces no response
type CommandBehavior interface {
	Handle(ctx context.Context, req any, next CommandNext) error
}

// CommandBehaviorFunc is a function adapter for CommandBehavior
type CommandBehaviorFunc func(ctx context.Context, req any, next CommandNext) error

// Handle implements CommandBehavior
func (f CommandBehaviorFunc) Handle(ctx context.Context, req any, next CommandNext) error {
	return f(ctx, req, next)
}

// Command adapts a CommandBehavior so it can run inside a Pipeline
func Command(b CommandBehavior) Behavior {
	return &commandAdapter{inner: b}
}

type commandAdapter struct {
	inner CommandBehavior
}

func (a *commandAdapter) Handle(ctx context.Context, req any, next Next) (any, error) {
	var out any
	err := a.inner.Handle(ctx, req, func(ctx context.Context, req any) error {
		res, err := next(ctx, req)
		out = res
		return err
	})
	return out, err
}
