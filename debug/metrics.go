package debug

import (
	"errors"
	"time"

	"github.com/delaneyj/ripple/atom"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace defaults to "ripple".
	Namespace   string
	Subsystem   string
	ConstLabels prometheus.Labels

	// Buckets for operation duration. Default: prometheus.DefBuckets
	Buckets []float64

	// Registry defaults to prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

type MetricsOption func(*MetricsConfig)

func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "ripple",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics counts store operations by op.
//
//	ripple_ops_total{op}: operations run
//	ripple_op_duration_seconds{op}: time spent, including nested operations
//	ripple_op_errors_total{op,kind}: operations returning an error
//	ripple_mounted_signals: signals currently mounted
type Metrics struct {
	OpsTotal    *prometheus.CounterVec
	OpDuration  *prometheus.HistogramVec
	ErrorsTotal *prometheus.CounterVec
	Mounted     prometheus.Gauge
}

// NewMetrics registers the collectors. Registering twice against the same
// registry panics, as promauto does.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		OpsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "ops_total",
			Help:        "Total number of store operations",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		OpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "op_duration_seconds",
			Help:        "Store operation duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "op_errors_total",
			Help:        "Total number of store operations returning an error",
			ConstLabels: config.ConstLabels,
		}, []string{"op", "kind"}),

		Mounted: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "mounted_signals",
			Help:        "Number of signals currently mounted",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) Interceptor() *atom.Interceptor {
	return atom.Intercept(func(ev *atom.Event, next atom.Next) {
		op := ev.Op.String()
		start := time.Now()
		_, err := next()
		m.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		m.OpsTotal.WithLabelValues(op).Inc()

		switch ev.Op {
		case atom.OpMount:
			m.Mounted.Inc()
		case atom.OpUnmount:
			m.Mounted.Dec()
		}
		if err != nil {
			m.ErrorsTotal.WithLabelValues(op, categorizeError(err)).Inc()
		}
	})
}

// categorizeError keeps the kind label low cardinality.
func categorizeError(err error) string {
	var pe *atom.PanicError
	switch {
	case errors.As(err, &pe):
		return "panic"
	case errors.Is(err, atom.ErrAborted):
		return "aborted"
	case errors.Is(err, atom.ErrNotReadable), errors.Is(err, atom.ErrNotWritable), errors.Is(err, atom.ErrInvalidValue):
		return "usage"
	default:
		return "user"
	}
}
