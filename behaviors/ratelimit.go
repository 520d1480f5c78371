package behaviors

import (
	"context"
	"reflect"
	"sync"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
	"golang.org/x/time/rate"
)

// RateLimitName is the declaration name of the rate limiting behaviour
const RateLimitName = "rate-limit"

// RateLimiter keeps one token bucket per request type
type RateLimiter struct {
	limit rate.Limit
	burst int
	wait  bool

	mu       sync.Mutex
	limiters map[reflect.Type]*rate.Limiter
}

// RateLimitOption configures a RateLimiter
type RateLimitOption func(*RateLimiter)

// WithWait makes requests over the limit wait for a token, bounded by their
// context, instead of failing immediately
func WithWait() RateLimitOption {
	return func(r *RateLimiter) {
		r.wait = true
	}
}

// NewRateLimiter allows limit requests per second of each request type with
// bursts of up to burst
func NewRateLimiter(limit rate.Limit, burst int, options ...RateLimitOption) *RateLimiter {
	r := &RateLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[reflect.Type]*rate.Limiter),
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Behaviour declares the behaviour enforcing these limits
func (r *RateLimiter) Behaviour() registry.Declaration {
	return registry.Behaviour(RateLimitName, nil, func(b registry.Binding) pipeline.Behavior {
		limiter := r.limiter(b.Request)

		return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
			if r.wait {
				if err := limiter.Wait(ctx); err != nil {
					return nil, &RateLimitError{Request: b.Request, Err: err}
				}
			} else if !limiter.Allow() {
				return nil, &RateLimitError{Request: b.Request}
			}
			return next(ctx, req)
		})
	})
}

func (r *RateLimiter) limiter(t reflect.Type) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[t]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters[t] = l
	}
	return l
}
