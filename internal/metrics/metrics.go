// Package metrics exposes Prometheus collectors for persistence and export.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"myfinance/internal/core"
)

const namespace = "myfinance"

// Result label values.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"

	ExportDone    = "exported"
	ExportSkipped = "skipped"
	ExportFailed  = "failed"
)

type Metrics struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	corruptReads *prometheus.CounterVec
	exports      *prometheus.CounterVec
	rateLimited  prometheus.Counter
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Gateway operations by collection, operation and result.",
		}, []string{"collection", "operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Gateway operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"collection", "operation"}),
		corruptReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "corrupt_reads_total",
			Help:      "Collections that failed to decode and were read as empty.",
		}, []string{"collection"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "exports_total",
			Help:      "Month exports by result.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Write requests rejected by the per-client rate limiter.",
		}),
	}
	reg.MustRegister(m.operations, m.duration, m.corruptReads, m.exports, m.rateLimited)
	return m
}

// ObserveOp records one gateway call that started at start.
func (m *Metrics) ObserveOp(collection core.Collection, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(string(collection), op, resultOf(err)).Inc()
	m.duration.WithLabelValues(string(collection), op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) CorruptRead(collection core.Collection) {
	if m == nil {
		return
	}
	m.corruptReads.WithLabelValues(string(collection)).Inc()
}

func (m *Metrics) Export(result string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(result).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, core.ErrNotFound):
		return ResultNotFound
	case errors.Is(err, core.ErrValidation):
		return ResultInvalid
	default:
		return ResultError
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
