// Package mediate dispatches typed requests to a single handler through a
// chain of cross-cutting behaviours.
//
// A handler declares the contract it implements. Contracts form an explicit
// hierarchy ending at CommandContract or QueryContract, and behaviours are
// declared against any contract of that hierarchy. On every dispatch the
// mediator walks the handler's contract chain from most derived to root,
// builds the behaviours declared for each level, and runs them as nested
// interceptors around the handler. Behaviours declared for more specific
// contracts run outermost.
//
// Example usage:
//
//	var OrderHandler = contracts.Define("OrderHandler", mediate.QueryContract)
//
//	b := registry.NewBuilder()
//	b.For(OrderHandler).Use(behaviors.Validation(nil))
//	b.For(mediate.QueryContract).Use(behaviors.Logging(logger))
//	reg, _ := b.Build()
//
//	c := services.NewContainer()
//	_ = mediate.RegisterQueryHandler[GetOrder, Order](c, &getOrderHandler{})
//
//	m, _ := mediate.New(reg, c, mediate.WithScopedRequests(true))
//	order, err := mediate.Query[GetOrder, Order](ctx, m, GetOrder{ID: "42"})
//
// Notifications bypass the behaviour chain and fan out to every registered
// NotificationHandler with Publish.
package mediate
