// Package registry stores behaviour declarations keyed by handler contract
// and turns them into runnable behaviours at dispatch time.
//
// Declarations are collected with a Builder during configuration. Each one
// is checked against the contract it is attached to, and Build returns a
// frozen Registry that is only read afterwards:
//
//	b := registry.NewBuilder(registry.WithLogger(logger))
//	b.For(orders.HandlerContract).Use(audit, validation)
//	b.For(mediate.QueryContract).Use(logging)
//	reg, err := b.Build()
//
// A Declaration is unbound: it does not know the request or response type it
// will serve. Construct binds it to a concrete Binding and resolves the
// dependencies of its first satisfiable constructor from a services.Provider.
package registry
