package behaviors

import (
	"context"
	"log/slog"
	"time"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
)

// LoggingName is the declaration name of the logging behaviour
const LoggingName = "logging"

// Logging declares a behaviour that logs each dispatch with its duration and
// outcome, and tags the context with a dispatch ID. The logger is resolved
// from the provider when one is registered there, slog.Default otherwise.
func Logging() registry.Declaration {
	return registry.Inject1[*slog.Logger](LoggingName, nil, func(b registry.Binding, logger *slog.Logger) pipeline.Behavior {
		return &loggingBehavior{binding: b, logger: logger}
	}).Or(registry.Constructor{
		New: func(b registry.Binding, _ []any) pipeline.Behavior {
			return &loggingBehavior{binding: b, logger: slog.Default()}
		},
	})
}

// LoggingWith declares the logging behaviour with a fixed logger
func LoggingWith(logger *slog.Logger) registry.Declaration {
	if logger == nil {
		logger = slog.Default()
	}
	return registry.Behaviour(LoggingName, nil, func(b registry.Binding) pipeline.Behavior {
		return &loggingBehavior{binding: b, logger: logger}
	})
}

type loggingBehavior struct {
	binding registry.Binding
	logger  *slog.Logger
}

func (l *loggingBehavior) Handle(ctx context.Context, req any, next pipeline.Next) (any, error) {
	ctx, id := ensureDispatchID(ctx)
	start := time.Now()

	l.logger.DebugContext(ctx, "dispatching request",
		"dispatchId", id,
		"request", l.binding.String(),
	)

	out, err := next(ctx, req)
	duration := time.Since(start)

	if err != nil {
		l.logger.ErrorContext(ctx, "request failed",
			"dispatchId", id,
			"request", l.binding.String(),
			"duration", duration,
			"error", err,
		)
	} else {
		l.logger.InfoContext(ctx, "request handled",
			"dispatchId", id,
			"request", l.binding.String(),
			"duration", duration,
		)
	}

	return out, err
}
