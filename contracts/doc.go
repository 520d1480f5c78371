// Package contracts defines handler contracts and the hierarchy between them.
//
// A contract names a request-handling capability without fixing its request
// or response types. Contracts are declared once, as package-level values,
// with explicit parent edges:
//
//	var (
//		QueryHandler   = contracts.Root("QueryHandler")
//		CachedHandler  = contracts.Define("CachedHandler", QueryHandler)
//		ProductHandler = contracts.Define("ProductHandler", CachedHandler)
//	)
//
// Steps walks from a contract to one of its roots and returns every level on
// the way, most specific first. The mediator uses that path to decide which
// behaviours apply to a handler.
package contracts
