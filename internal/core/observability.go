package core

import (
	"context"
	"expvar"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder receives operation outcomes and alert emissions. All
// methods must be safe for concurrent use and must never block the caller.
type MetricsRecorder interface {
	Observe(ctx context.Context, op string, ok bool, elapsed time.Duration)
	AlertEmitted(ctx context.Context, kind string)
}

type nopMetrics struct{}

func (nopMetrics) Observe(context.Context, string, bool, time.Duration) {}
func (nopMetrics) AlertEmitted(context.Context, string)                 {}

// ExpvarMetricsRecorder publishes per-operation counters under an expvar map.
// Useful for debug builds where the full Prometheus pipeline is overkill.
type ExpvarMetricsRecorder struct {
	ops *expvar.Map
}

// NewExpvarMetricsRecorder publishes (or reuses) the named expvar map.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	rec := &ExpvarMetricsRecorder{}
	if existing := expvar.Get(name); existing != nil {
		if m, ok := existing.(*expvar.Map); ok {
			rec.ops = m
			return rec
		}
	}
	rec.ops = expvar.NewMap(name)
	return rec
}

func (r *ExpvarMetricsRecorder) Observe(_ context.Context, op string, ok bool, _ time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "err"
	}
	r.ops.Add(fmt.Sprintf("%s_%s", op, outcome), 1)
}

func (r *ExpvarMetricsRecorder) AlertEmitted(_ context.Context, kind string) {
	r.ops.Add("alert_"+kind, 1)
}

// PrometheusMetricsRecorder exposes operation latency histograms and alert
// counters through a prometheus registry.
type PrometheusMetricsRecorder struct {
	operations *prometheus.HistogramVec
	alerts     *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder builds and registers the collector set.
// Registration failures (duplicate registration in tests) fall back to the
// already-registered collectors.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) *PrometheusMetricsRecorder {
	rec := &PrometheusMetricsRecorder{
		operations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hotlab",
			Name:      "operation_duration_seconds",
			Help:      "Latency of hot-lab core operations by outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hotlab",
			Name:      "alerts_emitted_total",
			Help:      "Workflow threshold alerts emitted by kind.",
		}, []string{"kind"}),
	}
	rec.operations = registerOrExisting(reg, rec.operations).(*prometheus.HistogramVec)
	rec.alerts = registerOrExisting(reg, rec.alerts).(*prometheus.CounterVec)
	return rec
}

func registerOrExisting(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if dup, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return dup.ExistingCollector
		}
	}
	return c
}

func (r *PrometheusMetricsRecorder) Observe(_ context.Context, op string, ok bool, elapsed time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "err"
	}
	r.operations.WithLabelValues(op, outcome).Observe(elapsed.Seconds())
}

func (r *PrometheusMetricsRecorder) AlertEmitted(_ context.Context, kind string) {
	r.alerts.WithLabelValues(kind).Inc()
}
