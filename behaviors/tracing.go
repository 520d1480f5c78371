package behaviors

import (
	"context"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingName is the declaration name of the tracing behaviour
const TracingName = "tracing"

const instrumentationName = "github.com/glimte/mediate-go/behaviors"

// Tracing declares a behaviour that wraps the rest of the chain in a span.
// A nil provider uses the global one.
func Tracing(tp trace.TracerProvider) registry.Declaration {
	return registry.Behaviour(TracingName, nil, func(b registry.Binding) pipeline.Behavior {
		provider := tp
		if provider == nil {
			provider = otel.GetTracerProvider()
		}
		tracer := provider.Tracer(instrumentationName)

		attrs := []attribute.KeyValue{
			attribute.String("mediate.request", b.Request.String()),
			attribute.String("mediate.kind", kindOf(b)),
		}
		if !b.IsCommand() {
			attrs = append(attrs, attribute.String("mediate.response", b.Response.String()))
		}

		return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
			ctx, span := tracer.Start(ctx, "mediate "+b.Request.String(),
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(attrs...),
			)
			defer span.End()

			if id, ok := DispatchID(ctx); ok {
				span.SetAttributes(attribute.String("mediate.dispatch_id", id))
			}

			out, err := next(ctx, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else {
				span.SetStatus(codes.Ok, "")
			}
			return out, err
		})
	})
}
