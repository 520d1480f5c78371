package services

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Lifetime controls how often a factory runs
type Lifetime int

const (
	// LifetimeSingleton builds once per container
	LifetimeSingleton Lifetime = iota
	// LifetimeScoped builds once per scope. The container itself acts as the
	// root scope.
	LifetimeScoped
	// LifetimeTransient builds on every resolution
	LifetimeTransient
)

func (l Lifetime) String() string {
	switch l {
	case LifetimeSingleton:
		return "singleton"
	case LifetimeScoped:
		return "scoped"
	case LifetimeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Factory builds a service from a provider
type Factory func(p Provider) (any, error)

type registration struct {
	key      reflect.Type
	lifetime Lifetime
	factory  Factory

	once     sync.Once
	instance any
	err      error
}

// Container is an in-process Provider. Registrations should complete before
// the container is shared; resolution is safe for concurrent use.
type Container struct {
	registrations map[reflect.Type][]*registration
	mu            sync.RWMutex
	root          *scope
}

// NewContainer creates an empty container
func NewContainer() *Container {
	c := &Container{
		registrations: make(map[reflect.Type][]*registration),
	}
	c.root = newScope(c)
	return c
}

// Register adds a factory for key
func (c *Container) Register(key reflect.Type, lifetime Lifetime, factory Factory) error {
	if key == nil {
		return fmt.Errorf("key cannot be nil")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.registrations[key] = append(c.registrations[key], &registration{
		key:      key,
		lifetime: lifetime,
		factory:  factory,
	})
	return nil
}

// IsRegistered reports whether key has at least one registration
func (c *Container) IsRegistered(key reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.registrations[key]) > 0
}

// Resolve implements Provider using the root scope
func (c *Container) Resolve(key reflect.Type) (any, error) {
	return c.root.Resolve(key)
}

// ResolveAll implements Provider using the root scope
func (c *Container) ResolveAll(key reflect.Type) ([]any, error) {
	return c.root.ResolveAll(key)
}

// CreateScope implements ScopeFactory
func (c *Container) CreateScope() Scope {
	return newScope(c)
}

func (c *Container) lookup(key reflect.Type) []*registration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	regs := c.registrations[key]
	result := make([]*registration, len(regs))
	copy(result, regs)
	return result
}

func (c *Container) singleton(reg *registration) (any, error) {
	reg.once.Do(func() {
		reg.instance, reg.err = reg.factory(c.root)
	})
	return reg.instance, reg.err
}

// Singleton registers a ready-made instance of T
func Singleton[T any](c *Container, instance T) error {
	return c.Register(Key[T](), LifetimeSingleton, func(Provider) (any, error) {
		return instance, nil
	})
}

// SingletonFunc registers a lazily built singleton of T
func SingletonFunc[T any](c *Container, factory func(Provider) (T, error)) error {
	return c.Register(Key[T](), LifetimeSingleton, erase(factory))
}

// Scoped registers a factory of T that runs once per scope
func Scoped[T any](c *Container, factory func(Provider) (T, error)) error {
	return c.Register(Key[T](), LifetimeScoped, erase(factory))
}

// Transient registers a factory of T that runs on every resolution
func Transient[T any](c *Container, factory func(Provider) (T, error)) error {
	return c.Register(Key[T](), LifetimeTransient, erase(factory))
}

func erase[T any](factory func(Provider) (T, error)) Factory {
	if factory == nil {
		return nil
	}
	return func(p Provider) (any, error) {
		return factory(p)
	}
}

type scope struct {
	id        string
	container *Container

	mu        sync.Mutex
	instances map[*registration]any
	closers   []io.Closer
	closed    bool
}

func newScope(c *Container) *scope {
	return &scope{
		id:        uuid.New().String(),
		container: c,
		instances: make(map[*registration]any),
	}
}

func (s *scope) ID() string {
	return s.id
}

func (s *scope) Resolve(key reflect.Type) (any, error) {
	regs := s.container.lookup(key)
	if len(regs) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNotRegistered, key)
	}
	return s.build(regs[len(regs)-1])
}

func (s *scope) ResolveAll(key reflect.Type) ([]any, error) {
	regs := s.container.lookup(key)

	result := make([]any, 0, len(regs))
	for _, reg := range regs {
		v, err := s.build(reg)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

func (s *scope) build(reg *registration) (any, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrScopeClosed
	}

	var (
		v   any
		err error
	)

	switch reg.lifetime {
	case LifetimeSingleton:
		v, err = s.container.singleton(reg)
	case LifetimeScoped:
		v, err = s.scoped(reg)
	default:
		v, err = reg.factory(s)
	}

	if err != nil {
		var resErr *ResolutionError
		if errors.As(err, &resErr) || errors.Is(err, ErrNotRegistered) {
			return nil, err
		}
		return nil, &ResolutionError{Key: reg.key, Err: err}
	}
	return v, nil
}

func (s *scope) scoped(reg *registration) (any, error) {
	s.mu.Lock()
	if v, ok := s.instances[reg]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	// Built outside the lock so the factory can resolve other scoped services
	v, err := reg.factory(s)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.instances[reg]; ok {
		if closer, ok := v.(io.Closer); ok {
			_ = closer.Close()
		}
		return existing, nil
	}
	s.instances[reg] = v
	if closer, ok := v.(io.Closer); ok {
		s.closers = append(s.closers, closer)
	}
	return v, nil
}

func (s *scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.instances = make(map[*registration]any)
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
