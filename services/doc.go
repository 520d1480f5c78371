// Package services is the dependency provider boundary of the mediator.
//
// The mediator never constructs handlers itself. It asks a Provider for
// them, keyed by reflect.Type, and asks the same Provider for the
// dependencies of every behaviour it builds. Any DI framework can sit behind
// the Provider interface; Container is a small in-process implementation
// with singleton, scoped and transient lifetimes.
//
// Example usage:
//
//	c := services.NewContainer()
//	_ = services.Singleton[Clock](c, systemClock{})
//	_ = services.Scoped[*UnitOfWork](c, func(p services.Provider) (*UnitOfWork, error) {
//	    return NewUnitOfWork(), nil
//	})
//
//	scope := c.CreateScope()
//	defer scope.Close()
//	uow, err := services.Get[*UnitOfWork](scope)
package services
