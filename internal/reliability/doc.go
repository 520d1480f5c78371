// Package reliability provides the circuit breaker used to guard request
// handlers.
//
// A CircuitBreaker watches the outcome of the calls it guards. After enough
// consecutive failures it opens and rejects calls outright until its timeout
// expires, then lets a limited number of probe calls through (half-open).
// Enough successful probes close it again; a single failed probe reopens it.
//
// A Set keeps one breaker per key, so that a failing request type does not
// trip the breaker of its neighbours:
//
//	breakers := reliability.NewSet[string](
//	    reliability.WithFailureThreshold(5),
//	    reliability.WithTimeout(30*time.Second),
//	)
//
//	err := breakers.Get("orders.Create").Execute(ctx, func(ctx context.Context) error {
//	    return next(ctx, req)
//	})
//
// A guarded function is called at most once per Execute. Breakers never
// retry.
package reliability
