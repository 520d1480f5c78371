// Package behaviors provides ready-made pipeline behaviours for the
// mediator.
//
// Every constructor returns a registry.Declaration that can be attached to
// any handler contract, or to a single contract and its descendants:
//
//	b := registry.NewBuilder()
//	b.For(mediate.QueryContract).Use(
//		behaviors.Recovery(),
//		behaviors.Logging(),
//		behaviors.Tracing(nil),
//		metrics.Behaviour(),
//		behaviors.Validation(nil),
//		behaviors.Timeout(5*time.Second),
//	)
//
// Behaviours are built per dispatch from their declaration. State that must
// outlive a dispatch (rate limiters, breakers, caches, metric collectors)
// lives in the value the declaration was created from and is shared by every
// dispatch.
//
// None of these behaviours invokes its continuation more than once. Retrying
// a failed handler is left to the caller.
package behaviors
