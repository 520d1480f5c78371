// Package pipeline provides the behaviour chain engine used by the mediator.
//
// A Pipeline is an ordered list of behaviours wrapped around a single terminal
// step (the request handler). Executing it walks a cursor over the list: each
// behaviour receives the request and a continuation representing the rest of
// the chain. A behaviour may:
//   - call the continuation once, possibly with a transformed request
//   - not call it at all, short-circuiting the chain with its own result
//
// Calling a continuation twice, calling it after the pipeline finished, or
// executing the same pipeline again fails with a UsageError. The engine never
// catches, retries or logs anything: failures travel back through every frame
// unmodified unless a behaviour replaces them.
//
// Example usage:
//
//	p := pipeline.New(terminal, outer, inner)
//	resp, err := p.Execute(ctx, request)
package pipeline
