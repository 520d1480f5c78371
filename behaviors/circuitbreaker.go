package behaviors

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/glimte/mediate-go/internal/reliability"
	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
)

// CircuitBreakerName is the declaration name of the circuit breaker
// behaviour
const CircuitBreakerName = "circuit-breaker"

// BreakerSettings configures the breakers of a CircuitBreakers set. Zero
// fields keep their defaults.
type BreakerSettings struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	HalfOpenRequests int
	// IsFailure decides which handler errors count against the breaker
	IsFailure func(error) bool
	Logger    *slog.Logger
}

// CircuitBreakers keeps one circuit breaker per request type
type CircuitBreakers struct {
	set *reliability.Set[reflect.Type]
}

// NewCircuitBreakers creates an empty breaker set
func NewCircuitBreakers(settings BreakerSettings) *CircuitBreakers {
	var opts []reliability.CircuitBreakerOption
	if settings.FailureThreshold > 0 {
		opts = append(opts, reliability.WithFailureThreshold(settings.FailureThreshold))
	}
	if settings.SuccessThreshold > 0 {
		opts = append(opts, reliability.WithSuccessThreshold(settings.SuccessThreshold))
	}
	if settings.OpenTimeout > 0 {
		opts = append(opts, reliability.WithTimeout(settings.OpenTimeout))
	}
	if settings.HalfOpenRequests > 0 {
		opts = append(opts, reliability.WithHalfOpenRequests(settings.HalfOpenRequests))
	}
	if settings.IsFailure != nil {
		opts = append(opts, reliability.WithFailurePredicate(settings.IsFailure))
	}
	if settings.Logger != nil {
		opts = append(opts, reliability.WithLogger(settings.Logger))
	}

	return &CircuitBreakers{set: reliability.NewSet[reflect.Type](opts...)}
}

// State returns the breaker state of a request type, "closed" when no
// request of that type went through yet
func (c *CircuitBreakers) State(request reflect.Type) string {
	if breaker, ok := c.set.Lookup(request); ok {
		return breaker.State().String()
	}
	return reliability.StateClosed.String()
}

// Behaviour declares the behaviour guarding handlers with these breakers
func (c *CircuitBreakers) Behaviour() registry.Declaration {
	return registry.Behaviour(CircuitBreakerName, nil, func(b registry.Binding) pipeline.Behavior {
		breaker := c.set.Get(b.Request)

		return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
			var out any
			err := breaker.Execute(ctx, func(ctx context.Context) error {
				var err error
				out, err = next(ctx, req)
				return err
			})
			return out, err
		})
	})
}
