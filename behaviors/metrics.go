package behaviors

import (
	"context"
	"time"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/registry"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsName is the declaration name of the metrics behaviour
const MetricsName = "metrics"

const subsystem = "dispatch"

// Metrics collects Prometheus metrics for every dispatch passing through its
// behaviour
type Metrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	inFlight *prometheus.GaugeVec
}

// NewMetrics creates the collectors under namespace. They still need to be
// registered with Register.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "duration_seconds",
				Help:      "Request handling duration distribution",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"request", "kind", "status"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "requests_total",
				Help:      "Total number of dispatched requests by type and status",
			},
			[]string{"request", "kind", "status"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "in_flight",
				Help:      "Requests currently being handled",
			},
			[]string{"request", "kind"},
		),
	}
}

// Register registers all collectors with reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns the underlying collectors
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.duration, m.requests, m.inFlight}
}

// Behaviour declares the behaviour feeding these metrics
func (m *Metrics) Behaviour() registry.Declaration {
	return registry.Behaviour(MetricsName, nil, func(b registry.Binding) pipeline.Behavior {
		request := b.Request.String()
		kind := kindOf(b)

		return pipeline.BehaviorFunc(func(ctx context.Context, req any, next pipeline.Next) (any, error) {
			gauge := m.inFlight.WithLabelValues(request, kind)
			gauge.Inc()
			defer gauge.Dec()

			start := time.Now()
			out, err := next(ctx, req)

			status := "success"
			if err != nil {
				status = "error"
			}
			m.duration.WithLabelValues(request, kind, status).Observe(time.Since(start).Seconds())
			m.requests.WithLabelValues(request, kind, status).Inc()

			return out, err
		})
	})
}

func kindOf(b registry.Binding) string {
	if b.IsCommand() {
		return "command"
	}
	return "query"
}
