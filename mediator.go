package mediate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
	"github.com/glimte/mediate-go/services"
	"golang.org/x/sync/errgroup"
)

// Mediator routes requests to their handler through the declared behaviours.
// It holds no per-call state and is safe for concurrent use.
type Mediator struct {
	registry              *registry.Registry
	services              services.Provider
	scoped                bool
	parallelNotifications bool
	logger                *slog.Logger
}

// Option configures the Mediator
type Option func(*Mediator)

// WithScopedRequests makes every dispatch resolve its handler and behaviours
// from a fresh scope, closed when the dispatch returns
func WithScopedRequests(enabled bool) Option {
	return func(m *Mediator) {
		m.scoped = enabled
	}
}

// WithParallelNotifications makes Publish invoke notification handlers
// concurrently instead of one after another
func WithParallelNotifications(enabled bool) Option {
	return func(m *Mediator) {
		m.parallelNotifications = enabled
	}
}

// WithLogger sets the logger used while configuring the mediator. Dispatch
// itself never logs; use a logging behaviour for that.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mediator) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a mediator over a frozen registry. Scoped requests require a
// provider implementing services.ScopeFactory.
func New(reg *registry.Registry, provider services.Provider, options ...Option) (*Mediator, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: registry cannot be nil", ErrInvalidConfiguration)
	}
	if !reg.Frozen() {
		return nil, fmt.Errorf("%w: registry must be frozen before dispatch", ErrInvalidConfiguration)
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: provider cannot be nil", ErrInvalidConfiguration)
	}

	m := &Mediator{
		registry: reg,
		services: provider,
		logger:   slog.Default(),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.scoped {
		if _, ok := provider.(services.ScopeFactory); !ok {
			return nil, fmt.Errorf("%w: scoped requests need a provider that creates scopes, got %T",
				ErrInvalidConfiguration, provider)
		}
	}

	m.logger.Info("mediator configured",
		"contracts", len(reg.Contracts()),
		"scopedRequests", m.scoped,
		"parallelNotifications", m.parallelNotifications,
	)

	return m, nil
}

// Send dispatches a command to its handler
func Send[TReq any](ctx context.Context, m *Mediator, req TReq) (err error) {
	provider, release := m.provider()
	defer func() {
		if closeErr := release(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	binding := CommandBinding[TReq]()
	handler, err := resolveHandler[CommandHandler[TReq]](provider, binding)
	if err != nil {
		return err
	}

	behaviors, err := m.behaviors(contractOf(handler, CommandContract), CommandContract, binding, provider)
	if err != nil {
		return err
	}

	terminal := func(ctx context.Context, r any) (any, error) {
		typed, ok := as[TReq](r)
		if !ok {
			return nil, &TypeMismatchError{Stage: "request", Want: binding.Request, Got: typeOf(r)}
		}
		return nil, handler.Handle(ctx, typed)
	}

	_, err = pipeline.New(terminal, behaviors...).Execute(ctx, req)
	return err
}

// Query dispatches a request to its handler and returns the response
func Query[TReq, TResp any](ctx context.Context, m *Mediator, req TReq) (resp TResp, err error) {
	provider, release := m.provider()
	defer func() {
		if closeErr := release(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	binding := QueryBinding[TReq, TResp]()
	handler, err := resolveHandler[QueryHandler[TReq, TResp]](provider, binding)
	if err != nil {
		return resp, err
	}

	behaviors, err := m.behaviors(contractOf(handler, QueryContract), QueryContract, binding, provider)
	if err != nil {
		return resp, err
	}

	terminal := func(ctx context.Context, r any) (any, error) {
		typed, ok := as[TReq](r)
		if !ok {
			return nil, &TypeMismatchError{Stage: "request", Want: binding.Request, Got: typeOf(r)}
		}
		return handler.Handle(ctx, typed)
	}

	out, err := pipeline.New(terminal, behaviors...).Execute(ctx, req)
	if err != nil {
		if typed, ok := as[TResp](out); ok {
			return typed, err
		}
		return resp, err
	}

	typed, ok := as[TResp](out)
	if !ok {
		return resp, &TypeMismatchError{Stage: "response", Want: binding.Response, Got: typeOf(out)}
	}
	return typed, nil
}

// Publish delivers a notification to every registered handler. No
// behaviours apply. Having no handlers is not an error.
func Publish[TNote any](ctx context.Context, m *Mediator, note TNote) (err error) {
	provider, release := m.provider()
	defer func() {
		if closeErr := release(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	handlers, err := services.All[NotificationHandler[TNote]](provider)
	if err != nil {
		return err
	}

	if m.parallelNotifications {
		g, gctx := errgroup.WithContext(ctx)
		for _, h := range handlers {
			g.Go(func() error {
				return h.Handle(gctx, note)
			})
		}
		return g.Wait()
	}

	for _, h := range handlers {
		if err := h.Handle(ctx, note); err != nil {
			return err
		}
	}
	return nil
}

// PlanStage lists the behaviours declared for one level of a contract chain
type PlanStage struct {
	Contract   *contracts.Contract
	Behaviours []string
}

// Plan returns the behaviour layout a handler with contract c would get,
// outermost level first, without constructing anything
func (m *Mediator) Plan(c *contracts.Contract) ([]PlanStage, error) {
	root := CommandContract
	if !contracts.Derives(c, CommandContract) {
		root = QueryContract
	}

	steps, err := contracts.Steps(c, root)
	if err != nil {
		return nil, err
	}

	stages := make([]PlanStage, 0, len(steps))
	for _, step := range steps {
		decls := m.registry.Lookup(step)
		names := make([]string, len(decls))
		for i, d := range decls {
			names[i] = d.Name
		}
		stages = append(stages, PlanStage{Contract: step, Behaviours: names})
	}
	return stages, nil
}

func (m *Mediator) provider() (services.Provider, func() error) {
	if m.scoped {
		if factory, ok := m.services.(services.ScopeFactory); ok {
			scope := factory.CreateScope()
			return scope, scope.Close
		}
	}
	return m.services, func() error { return nil }
}

// behaviors builds the chain for contract, most specific level outermost
func (m *Mediator) behaviors(contract, root *contracts.Contract, b registry.Binding, p services.Provider) ([]pipeline.Behavior, error) {
	steps, err := contracts.Steps(contract, root)
	if err != nil {
		return nil, err
	}

	var result []pipeline.Behavior
	for _, step := range steps {
		for _, decl := range m.registry.Lookup(step) {
			behavior, err := registry.Construct(decl, b, p)
			if err != nil {
				return nil, err
			}
			result = append(result, behavior)
		}
	}
	return result, nil
}

func resolveHandler[H any](p services.Provider, b registry.Binding) (H, error) {
	var zero H

	handlers, err := services.All[H](p)
	if err != nil {
		return zero, err
	}

	switch len(handlers) {
	case 0:
		return zero, &HandlerNotFoundError{Binding: b}
	case 1:
		return handlers[0], nil
	default:
		return zero, &AmbiguousHandlerError{Binding: b, Count: len(handlers)}
	}
}
