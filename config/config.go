// Package config provides mediator settings loaded from environment
// variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	mediate "github.com/glimte/mediate-go"
	"github.com/glimte/mediate-go/behaviors"
	"github.com/glimte/mediate-go/registry"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Prefix is prepended to every environment variable name
const Prefix = "MEDIATE"

// Settings holds mediator configuration
type Settings struct {
	ScopedRequests        bool `envconfig:"SCOPED_REQUESTS" default:"false"`
	ParallelNotifications bool `envconfig:"PARALLEL_NOTIFICATIONS" default:"false"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`

	// Behaviours. A zero value disables the behaviour.
	Timeout          time.Duration `envconfig:"TIMEOUT" default:"30s" validate:"gte=0"`
	RateLimit        float64       `envconfig:"RATE_LIMIT" default:"0" validate:"gte=0"`
	RateBurst        int           `envconfig:"RATE_BURST" default:"1" validate:"gte=1"`
	CacheSize        int           `envconfig:"CACHE_SIZE" default:"0" validate:"gte=0"`
	MetricsNamespace string        `envconfig:"METRICS_NAMESPACE" default:"mediate"`
	Tracing          bool          `envconfig:"TRACING" default:"true"`
	Validation       bool          `envconfig:"VALIDATION" default:"true"`

	Breaker Breaker `envconfig:"BREAKER"`
}

// Breaker holds circuit breaker settings
type Breaker struct {
	Enabled          bool          `envconfig:"ENABLED" default:"false"`
	FailureThreshold int           `envconfig:"FAILURE_THRESHOLD" default:"5" validate:"gte=1"`
	SuccessThreshold int           `envconfig:"SUCCESS_THRESHOLD" default:"3" validate:"gte=1"`
	OpenTimeout      time.Duration `envconfig:"OPEN_TIMEOUT" default:"30s" validate:"gt=0"`
	HalfOpenRequests int           `envconfig:"HALF_OPEN_REQUESTS" default:"3" validate:"gte=1"`
}

// Load reads settings from the environment and validates them
func Load() (*Settings, error) {
	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every field against its validation tag
func (s *Settings) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation: %s (value: '%v')",
			e.Namespace(),
			e.Tag(),
			e.Value(),
		))
	}
	return fmt.Errorf("invalid settings:\n  %s", strings.Join(messages, "\n  "))
}

// Level returns the configured log level
func (s *Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger creates a logger writing to w in the configured format and level
func (s *Settings) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.Level()}
	if s.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// MediatorOptions returns the mediator options matching these settings
func (s *Settings) MediatorOptions(logger *slog.Logger) []mediate.Option {
	opts := []mediate.Option{
		mediate.WithScopedRequests(s.ScopedRequests),
		mediate.WithParallelNotifications(s.ParallelNotifications),
	}
	if logger != nil {
		opts = append(opts, mediate.WithLogger(logger))
	}
	return opts
}

// Behaviours builds the enabled behaviours, outermost first. Metrics are
// registered with reg when both reg and a namespace are set.
func (s *Settings) Behaviours(logger *slog.Logger, reg prometheus.Registerer) ([]registry.Declaration, error) {
	if logger == nil {
		logger = slog.Default()
	}

	decls := []registry.Declaration{
		behaviors.Recovery(),
		behaviors.LoggingWith(logger),
	}

	if s.Tracing {
		decls = append(decls, behaviors.Tracing(nil))
	}

	if reg != nil && s.MetricsNamespace != "" {
		metrics := behaviors.NewMetrics(s.MetricsNamespace)
		if err := metrics.Register(reg); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		decls = append(decls, metrics.Behaviour())
	}

	if s.Validation {
		decls = append(decls, behaviors.Validation(nil))
	}

	if s.RateLimit > 0 {
		decls = append(decls, behaviors.NewRateLimiter(rate.Limit(s.RateLimit), s.RateBurst).Behaviour())
	}

	if s.Breaker.Enabled {
		breakers := behaviors.NewCircuitBreakers(behaviors.BreakerSettings{
			FailureThreshold: s.Breaker.FailureThreshold,
			SuccessThreshold: s.Breaker.SuccessThreshold,
			OpenTimeout:      s.Breaker.OpenTimeout,
			HalfOpenRequests: s.Breaker.HalfOpenRequests,
			Logger:           logger,
		})
		decls = append(decls, breakers.Behaviour())
	}

	if s.CacheSize > 0 {
		cache, err := behaviors.NewCache(s.CacheSize, nil)
		if err != nil {
			return nil, err
		}
		decls = append(decls, cache.Behaviour())
	}

	if s.Timeout > 0 {
		decls = append(decls, behaviors.Timeout(s.Timeout))
	}

	return decls, nil
}

// Registry declares the configured behaviours on both root contracts and
// returns the frozen registry. declare, when set, can add declarations for
// more specific contracts before the registry is built.
func (s *Settings) Registry(logger *slog.Logger, reg prometheus.Registerer, declare func(*registry.Builder)) (*registry.Registry, error) {
	decls, err := s.Behaviours(logger, reg)
	if err != nil {
		return nil, err
	}

	b := registry.NewBuilder(registry.WithLogger(logger))
	b.For(mediate.CommandContract).Use(decls...)
	b.For(mediate.QueryContract).Use(decls...)
	if declare != nil {
		declare(b)
	}
	return b.Build()
}
