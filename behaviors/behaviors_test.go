package behaviors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
	"github.com/glimte/mediate-go/services"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type ping struct {
	Message string `validate:"required"`
}

type pong struct {
	Message string
}

type cachedPing struct {
	ID string
}

func (p cachedPing) CacheKey() string {
	return p.ID
}

type deleteUser struct {
	ID int `validate:"gt=0"`
}

var (
	pingBinding   = registry.Binding{Request: reflect.TypeFor[ping](), Response: reflect.TypeFor[pong]()}
	cachedBinding = registry.Binding{Request: reflect.TypeFor[cachedPing](), Response: reflect.TypeFor[pong]()}
	deleteBinding = registry.Binding{Request: reflect.TypeFor[deleteUser]()}
	errBoom       = errors.New("boom")
)

func echo(ctx context.Context, req any) (any, error) {
	switch r := req.(type) {
	case ping:
		return pong{Message: r.Message}, nil
	case cachedPing:
		return pong{Message: r.ID}, nil
	}
	return nil, nil
}

func failing(ctx context.Context, req any) (any, error) {
	return nil, errBoom
}

func runWith(t *testing.T, ctx context.Context, p services.Provider, decl registry.Declaration, b registry.Binding, req any, terminal pipeline.Terminal) (any, error) {
	t.Helper()
	behavior, err := registry.Construct(decl, b, p)
	require.NoError(t, err)
	return pipeline.New(terminal, behavior).Execute(ctx, req)
}

func run(t *testing.T, decl registry.Declaration, b registry.Binding, req any, terminal pipeline.Terminal) (any, error) {
	t.Helper()
	return runWith(t, context.Background(), services.NewContainer(), decl, b, req, terminal)
}

func decodeLogs(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLogging(t *testing.T) {
	t.Run("logs success with a dispatch ID", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		var seen string

		out, err := run(t, LoggingWith(logger), pingBinding, ping{Message: "hi"},
			func(ctx context.Context, req any) (any, error) {
				seen, _ = DispatchID(ctx)
				return echo(ctx, req)
			})

		require.NoError(t, err)
		assert.Equal(t, pong{Message: "hi"}, out)
		assert.NotEmpty(t, seen)

		entries := decodeLogs(t, &buf)
		require.Len(t, entries, 2)
		assert.Equal(t, "dispatching request", entries[0]["msg"])
		assert.Equal(t, "request handled", entries[1]["msg"])
		assert.Equal(t, seen, entries[1]["dispatchId"])
		assert.Equal(t, "behaviors.ping -> behaviors.pong", entries[1]["request"])
	})

	t.Run("logs failure at error level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		_, err := run(t, LoggingWith(logger), pingBinding, ping{}, failing)

		assert.Same(t, errBoom, err)
		entries := decodeLogs(t, &buf)
		require.Len(t, entries, 1)
		assert.Equal(t, "request failed", entries[0]["msg"])
		assert.Equal(t, "ERROR", entries[0]["level"])
		assert.Equal(t, "boom", entries[0]["error"])
	})

	t.Run("keeps an existing dispatch ID", func(t *testing.T) {
		var seen string
		ctx := WithDispatchID(context.Background(), "fixed")

		_, err := runWith(t, ctx, services.NewContainer(), LoggingWith(slog.New(slog.DiscardHandler)), pingBinding, ping{},
			func(ctx context.Context, req any) (any, error) {
				seen, _ = DispatchID(ctx)
				return nil, nil
			})

		require.NoError(t, err)
		assert.Equal(t, "fixed", seen)
	})

	t.Run("uses the logger from the provider", func(t *testing.T) {
		var buf bytes.Buffer
		c := services.NewContainer()
		require.NoError(t, services.Singleton(c, slog.New(slog.NewJSONHandler(&buf, nil))))

		_, err := runWith(t, context.Background(), c, Logging(), pingBinding, ping{}, echo)

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "request handled")
	})

	t.Run("falls back to the default logger", func(t *testing.T) {
		decl := Logging()

		require.Len(t, decl.Constructors, 2)
		assert.Len(t, decl.Constructors[0].Needs, 1)
		assert.Empty(t, decl.Constructors[1].Needs)

		_, err := run(t, decl, pingBinding, ping{}, echo)
		assert.NoError(t, err)
	})
}

func TestRecovery(t *testing.T) {
	t.Run("turns a panic into an error", func(t *testing.T) {
		out, err := run(t, Recovery(), pingBinding, ping{}, func(ctx context.Context, req any) (any, error) {
			panic("kaboom")
		})

		assert.Nil(t, out)
		require.ErrorIs(t, err, ErrPanic)
		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "kaboom", panicErr.Value)
		assert.NotEmpty(t, panicErr.Stack)
	})

	t.Run("keeps a panicked error reachable", func(t *testing.T) {
		_, err := run(t, Recovery(), pingBinding, ping{}, func(ctx context.Context, req any) (any, error) {
			panic(errBoom)
		})

		assert.ErrorIs(t, err, errBoom)
		assert.ErrorIs(t, err, ErrPanic)
	})

	t.Run("passes results through", func(t *testing.T) {
		out, err := run(t, Recovery(), pingBinding, ping{Message: "ok"}, echo)

		require.NoError(t, err)
		assert.Equal(t, pong{Message: "ok"}, out)
	})
}

func TestMetrics(t *testing.T) {
	t.Run("counts requests by status", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := NewMetrics("test")
		require.NoError(t, m.Register(reg))

		_, err := run(t, m.Behaviour(), pingBinding, ping{}, echo)
		require.NoError(t, err)
		_, err = run(t, m.Behaviour(), pingBinding, ping{}, echo)
		require.NoError(t, err)
		_, err = run(t, m.Behaviour(), pingBinding, ping{}, failing)
		require.Error(t, err)

		assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("behaviors.ping", "query", "success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("behaviors.ping", "query", "error")))
		assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("behaviors.ping", "query")))
		assert.Equal(t, 2, testutil.CollectAndCount(m.duration, "test_dispatch_duration_seconds"))
	})

	t.Run("labels commands", func(t *testing.T) {
		m := NewMetrics("test")

		_, err := run(t, m.Behaviour(), deleteBinding, deleteUser{ID: 1}, echo)

		require.NoError(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("behaviors.deleteUser", "command", "success")))
	})

	t.Run("tracks in-flight requests", func(t *testing.T) {
		m := NewMetrics("test")
		var during float64

		_, err := run(t, m.Behaviour(), pingBinding, ping{}, func(ctx context.Context, req any) (any, error) {
			during = testutil.ToFloat64(m.inFlight.WithLabelValues("behaviors.ping", "query"))
			return nil, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1.0, during)
	})

	t.Run("double registration fails", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := NewMetrics("test")
		require.NoError(t, m.Register(reg))

		assert.Error(t, m.Register(reg))
	})
}

func TestTracing(t *testing.T) {
	newProvider := func() (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
		sr := tracetest.NewSpanRecorder()
		return sr, sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	}

	t.Run("records a span per dispatch", func(t *testing.T) {
		sr, tp := newProvider()
		var inner trace.SpanContext

		_, err := run(t, Tracing(tp), pingBinding, ping{}, func(ctx context.Context, req any) (any, error) {
			inner = trace.SpanFromContext(ctx).SpanContext()
			return echo(ctx, req)
		})

		require.NoError(t, err)
		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, "mediate behaviors.ping", spans[0].Name())
		assert.Equal(t, codes.Ok, spans[0].Status().Code)
		assert.Equal(t, spans[0].SpanContext().SpanID(), inner.SpanID())
		assert.Contains(t, spans[0].Attributes(), attribute.String("mediate.request", "behaviors.ping"))
		assert.Contains(t, spans[0].Attributes(), attribute.String("mediate.response", "behaviors.pong"))
		assert.Contains(t, spans[0].Attributes(), attribute.String("mediate.kind", "query"))
	})

	t.Run("records errors", func(t *testing.T) {
		sr, tp := newProvider()

		_, err := run(t, Tracing(tp), pingBinding, ping{}, failing)

		assert.Same(t, errBoom, err)
		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		assert.Equal(t, "boom", spans[0].Status().Description)
		require.NotEmpty(t, spans[0].Events())
		assert.Equal(t, "exception", spans[0].Events()[0].Name)
	})

	t.Run("tags the dispatch ID", func(t *testing.T) {
		sr, tp := newProvider()
		ctx := WithDispatchID(context.Background(), "abc")

		_, err := runWith(t, ctx, services.NewContainer(), Tracing(tp), deleteBinding, deleteUser{}, echo)

		require.NoError(t, err)
		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Attributes(), attribute.String("mediate.dispatch_id", "abc"))
		assert.Contains(t, spans[0].Attributes(), attribute.String("mediate.kind", "command"))
	})

	t.Run("nil provider uses the global one", func(t *testing.T) {
		_, err := run(t, Tracing(nil), pingBinding, ping{}, echo)
		assert.NoError(t, err)
	})
}

func TestValidation(t *testing.T) {
	t.Run("rejects invalid requests before the handler", func(t *testing.T) {
		var called bool

		_, err := run(t, Validation(nil), pingBinding, ping{}, func(ctx context.Context, req any) (any, error) {
			called = true
			return nil, nil
		})

		assert.False(t, called)
		require.ErrorIs(t, err, ErrInvalidRequest)
		var valErr *ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, pingBinding.Request, valErr.Request)
		var fieldErrs validator.ValidationErrors
		require.ErrorAs(t, err, &fieldErrs)
		assert.Equal(t, "Message", fieldErrs[0].Field())
	})

	t.Run("accepts valid requests", func(t *testing.T) {
		out, err := run(t, Validation(nil), pingBinding, ping{Message: "ok"}, echo)

		require.NoError(t, err)
		assert.Equal(t, pong{Message: "ok"}, out)
	})

	t.Run("validates commands", func(t *testing.T) {
		_, err := run(t, Validation(nil), deleteBinding, deleteUser{ID: 0}, echo)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("validates pointer requests", func(t *testing.T) {
		b := registry.Binding{Request: reflect.TypeFor[*ping](), Response: reflect.TypeFor[pong]()}

		_, err := run(t, Validation(nil), b, &ping{}, echo)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("passes non-struct requests through", func(t *testing.T) {
		b := registry.Binding{Request: reflect.TypeFor[string](), Response: reflect.TypeFor[int]()}

		out, err := run(t, Validation(nil), b, "anything", func(ctx context.Context, req any) (any, error) {
			return 7, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 7, out)
	})

	t.Run("uses a custom validator", func(t *testing.T) {
		v := validator.New()
		require.NoError(t, v.RegisterValidation("shout", func(fl validator.FieldLevel) bool {
			return strings.ToUpper(fl.Field().String()) == fl.Field().String()
		}))
		type shout struct {
			Text string `validate:"shout"`
		}
		b := registry.Binding{Request: reflect.TypeFor[shout]()}

		_, err := run(t, Validation(v), b, shout{Text: "quiet"}, echo)
		assert.ErrorIs(t, err, ErrInvalidRequest)

		_, err = run(t, Validation(v), b, shout{Text: "LOUD"}, echo)
		assert.NoError(t, err)
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("rejects requests over the burst", func(t *testing.T) {
		limiter := NewRateLimiter(rate.Every(time.Hour), 2)

		for i := 0; i < 2; i++ {
			_, err := run(t, limiter.Behaviour(), pingBinding, ping{}, echo)
			require.NoError(t, err)
		}
		_, err := run(t, limiter.Behaviour(), pingBinding, ping{}, echo)

		require.ErrorIs(t, err, ErrRateLimited)
		var rlErr *RateLimitError
		require.ErrorAs(t, err, &rlErr)
		assert.Equal(t, pingBinding.Request, rlErr.Request)
	})

	t.Run("limits each request type separately", func(t *testing.T) {
		limiter := NewRateLimiter(rate.Every(time.Hour), 1)

		_, err := run(t, limiter.Behaviour(), pingBinding, ping{}, echo)
		require.NoError(t, err)
		_, err = run(t, limiter.Behaviour(), deleteBinding, deleteUser{}, echo)
		require.NoError(t, err)

		_, err = run(t, limiter.Behaviour(), pingBinding, ping{}, echo)
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("wait mode gives up at the deadline", func(t *testing.T) {
		limiter := NewRateLimiter(rate.Every(time.Hour), 1, WithWait())
		_, err := run(t, limiter.Behaviour(), pingBinding, ping{}, echo)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = runWith(t, ctx, services.NewContainer(), limiter.Behaviour(), pingBinding, ping{}, echo)

		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("wait mode lets requests through", func(t *testing.T) {
		limiter := NewRateLimiter(rate.Inf, 1, WithWait())

		for i := 0; i < 5; i++ {
			_, err := run(t, limiter.Behaviour(), pingBinding, ping{}, echo)
			require.NoError(t, err)
		}
	})
}

func TestTimeout(t *testing.T) {
	t.Run("wraps handler errors caused by the deadline", func(t *testing.T) {
		_, err := run(t, Timeout(10*time.Millisecond), pingBinding, ping{}, func(ctx context.Context, req any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

		require.ErrorIs(t, err, ErrTimeout)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		var toErr *TimeoutError
		require.ErrorAs(t, err, &toErr)
		assert.Equal(t, 10*time.Millisecond, toErr.After)
	})

	t.Run("passes fast handlers through", func(t *testing.T) {
		var deadline bool

		out, err := run(t, Timeout(time.Minute), pingBinding, ping{Message: "fast"}, func(ctx context.Context, req any) (any, error) {
			_, deadline = ctx.Deadline()
			return echo(ctx, req)
		})

		require.NoError(t, err)
		assert.True(t, deadline)
		assert.Equal(t, pong{Message: "fast"}, out)
	})

	t.Run("leaves caller cancellation alone", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := runWith(t, ctx, services.NewContainer(), Timeout(time.Minute), pingBinding, ping{},
			func(ctx context.Context, req any) (any, error) {
				return nil, ctx.Err()
			})

		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrTimeout)
	})

	t.Run("zero duration disables the deadline", func(t *testing.T) {
		var deadline bool

		_, err := run(t, Timeout(0), pingBinding, ping{}, func(ctx context.Context, req any) (any, error) {
			_, deadline = ctx.Deadline()
			return nil, nil
		})

		require.NoError(t, err)
		assert.False(t, deadline)
	})
}

func TestCircuitBreaker(t *testing.T) {
	t.Run("opens after consecutive failures", func(t *testing.T) {
		breakers := NewCircuitBreakers(BreakerSettings{
			FailureThreshold: 2,
			OpenTimeout:      time.Hour,
			Logger:           slog.New(slog.DiscardHandler),
		})

		for i := 0; i < 2; i++ {
			_, err := run(t, breakers.Behaviour(), pingBinding, ping{}, failing)
			assert.Same(t, errBoom, err)
		}

		var calls atomic.Int32
		_, err := run(t, breakers.Behaviour(), pingBinding, ping{}, func(ctx context.Context, req any) (any, error) {
			calls.Add(1)
			return nil, nil
		})

		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, int32(0), calls.Load())
		assert.Equal(t, "open", breakers.State(pingBinding.Request))
	})

	t.Run("keeps one breaker per request type", func(t *testing.T) {
		breakers := NewCircuitBreakers(BreakerSettings{FailureThreshold: 1, Logger: slog.New(slog.DiscardHandler)})

		_, _ = run(t, breakers.Behaviour(), pingBinding, ping{}, failing)
		_, err := run(t, breakers.Behaviour(), deleteBinding, deleteUser{}, echo)

		assert.NoError(t, err)
		assert.Equal(t, "open", breakers.State(pingBinding.Request))
		assert.Equal(t, "closed", breakers.State(deleteBinding.Request))
		assert.Equal(t, "closed", breakers.State(reflect.TypeFor[cachedPing]()))
	})

	t.Run("request types sharing a name keep separate breakers", func(t *testing.T) {
		type ping struct{ Message string }
		shadow := registry.Binding{Request: reflect.TypeFor[ping](), Response: reflect.TypeFor[pong]()}
		require.Equal(t, pingBinding.Request.String(), shadow.Request.String())
		breakers := NewCircuitBreakers(BreakerSettings{FailureThreshold: 1, Logger: slog.New(slog.DiscardHandler)})

		_, _ = run(t, breakers.Behaviour(), pingBinding, nil, failing)
		_, err := run(t, breakers.Behaviour(), shadow, ping{Message: "other"}, func(ctx context.Context, req any) (any, error) {
			return pong{Message: req.(ping).Message}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, "open", breakers.State(pingBinding.Request))
		assert.Equal(t, "closed", breakers.State(shadow.Request))
	})

	t.Run("returns the handler response", func(t *testing.T) {
		breakers := NewCircuitBreakers(BreakerSettings{})

		out, err := run(t, breakers.Behaviour(), pingBinding, ping{Message: "through"}, echo)

		require.NoError(t, err)
		assert.Equal(t, pong{Message: "through"}, out)
	})

	t.Run("ignores errors the predicate excludes", func(t *testing.T) {
		breakers := NewCircuitBreakers(BreakerSettings{
			FailureThreshold: 1,
			IsFailure:        func(err error) bool { return !errors.Is(err, errBoom) },
		})

		_, _ = run(t, breakers.Behaviour(), pingBinding, ping{}, failing)

		assert.Equal(t, "closed", breakers.State(pingBinding.Request))
	})
}

func TestCaching(t *testing.T) {
	t.Run("short-circuits repeated queries", func(t *testing.T) {
		cache, err := NewCache(16, nil)
		require.NoError(t, err)
		var calls atomic.Int32
		terminal := func(ctx context.Context, req any) (any, error) {
			calls.Add(1)
			return echo(ctx, req)
		}

		first, err := run(t, cache.Behaviour(), cachedBinding, cachedPing{ID: "a"}, terminal)
		require.NoError(t, err)
		second, err := run(t, cache.Behaviour(), cachedBinding, cachedPing{ID: "a"}, terminal)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("different keys miss", func(t *testing.T) {
		cache, err := NewCache(16, nil)
		require.NoError(t, err)

		a, err := run(t, cache.Behaviour(), cachedBinding, cachedPing{ID: "a"}, echo)
		require.NoError(t, err)
		b, err := run(t, cache.Behaviour(), cachedBinding, cachedPing{ID: "b"}, echo)
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
		assert.Equal(t, 2, cache.Len())
	})

	t.Run("request types sharing a name keep separate entries", func(t *testing.T) {
		type cachedPing struct{ ID string }
		shadow := registry.Binding{Request: reflect.TypeFor[cachedPing](), Response: reflect.TypeFor[pong]()}
		require.Equal(t, cachedBinding.String(), shadow.String())
		cache, err := NewCache(16, func(req any) (string, bool) { return "same", true })
		require.NoError(t, err)

		_, err = run(t, cache.Behaviour(), cachedBinding, nil, func(ctx context.Context, req any) (any, error) {
			return pong{Message: "first"}, nil
		})
		require.NoError(t, err)
		out, err := run(t, cache.Behaviour(), shadow, cachedPing{ID: "x"}, func(ctx context.Context, req any) (any, error) {
			return pong{Message: "second"}, nil
		})

		require.NoError(t, err)
		assert.Equal(t, pong{Message: "second"}, out)
		assert.Equal(t, 2, cache.Len())
	})

	t.Run("does not cache failures", func(t *testing.T) {
		cache, err := NewCache(16, nil)
		require.NoError(t, err)

		_, err = run(t, cache.Behaviour(), cachedBinding, cachedPing{ID: "a"}, failing)

		assert.Same(t, errBoom, err)
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("skips requests without a key", func(t *testing.T) {
		cache, err := NewCache(16, nil)
		require.NoError(t, err)

		_, err = run(t, cache.Behaviour(), pingBinding, ping{Message: "x"}, echo)

		require.NoError(t, err)
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("never caches commands", func(t *testing.T) {
		cache, err := NewCache(16, func(req any) (string, bool) { return "always", true })
		require.NoError(t, err)
		var calls atomic.Int32
		terminal := func(ctx context.Context, req any) (any, error) {
			calls.Add(1)
			return nil, nil
		}

		_, _ = run(t, cache.Behaviour(), deleteBinding, deleteUser{ID: 1}, terminal)
		_, _ = run(t, cache.Behaviour(), deleteBinding, deleteUser{ID: 1}, terminal)

		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("custom key function and purge", func(t *testing.T) {
		cache, err := NewCache(16, func(req any) (string, bool) {
			return req.(ping).Message, true
		})
		require.NoError(t, err)

		_, err = run(t, cache.Behaviour(), pingBinding, ping{Message: "x"}, echo)
		require.NoError(t, err)
		assert.Equal(t, 1, cache.Len())

		cache.Purge()
		assert.Equal(t, 0, cache.Len())
	})

	t.Run("rejects invalid size", func(t *testing.T) {
		_, err := NewCache(0, nil)
		assert.Error(t, err)
	})
}

func TestWhen(t *testing.T) {
	counting := func(calls *atomic.Int32) registry.Declaration {
		return registry.Behaviour("counting", nil, func(registry.Binding) pipeline.Behavior {
			return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
				calls.Add(1)
				return next(ctx, req)
			})
		})
	}

	t.Run("runs the behaviour when the condition holds", func(t *testing.T) {
		var calls atomic.Int32
		decl := When(RequestIs[ping](), counting(&calls))

		_, err := run(t, decl, pingBinding, ping{}, echo)

		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, "when(counting)", decl.Name)
	})

	t.Run("skips the behaviour otherwise", func(t *testing.T) {
		var calls atomic.Int32
		var handled bool

		_, err := run(t, When(RequestIs[ping](), counting(&calls)), deleteBinding, deleteUser{},
			func(ctx context.Context, req any) (any, error) {
				handled = true
				return nil, nil
			})

		require.NoError(t, err)
		assert.True(t, handled)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("combines conditions", func(t *testing.T) {
		yes := func(context.Context, any) bool { return true }
		no := func(context.Context, any) bool { return false }

		assert.True(t, All(yes, yes)(context.Background(), nil))
		assert.False(t, All(yes, no)(context.Background(), nil))
		assert.True(t, Any(no, yes)(context.Background(), nil))
		assert.False(t, Any(no, no)(context.Background(), nil))
	})

	t.Run("keeps dependencies of the wrapped declaration", func(t *testing.T) {
		decl := When(RequestIs[ping](), Logging())

		require.Len(t, decl.Constructors, 2)
		assert.Equal(t, Logging().Constructors[0].Needs, decl.Constructors[0].Needs)
	})
}
