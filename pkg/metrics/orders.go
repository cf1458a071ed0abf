package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pkgerrors "github.com/angelmondragon/platehub-backend/pkg/errors"
)

const outcomeOK = "ok"

// OrderMetrics records order lifecycle outcomes.
type OrderMetrics struct {
	duration    *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	replays     *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_operation_duration_seconds",
		Help:    "Duration of order operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_operations_total",
		Help: "Order operations by outcome. Outcome is ok or the error code.",
	}, []string{"operation", "outcome"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_version_conflicts_total",
		Help: "Optimistic version conflicts hit while saving an order.",
	}, []string{"operation"})
	replays := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_idempotent_replays_total",
		Help: "Requests answered from a stored idempotent response.",
	}, []string{"operation"})
	reg.MustRegister(duration, transitions, conflicts, replays)
	return &OrderMetrics{
		duration:    duration,
		transitions: transitions,
		conflicts:   conflicts,
		replays:     replays,
	}
}

// Observe records the outcome and duration of one operation.
func (m *OrderMetrics) Observe(operation string, started time.Time, err error) {
	if m == nil || m.transitions == nil {
		return
	}
	op := normalizeLabel(operation)
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	m.transitions.WithLabelValues(op, outcomeLabel(err)).Inc()
}

// IncConflict counts a lost optimistic update.
func (m *OrderMetrics) IncConflict(operation string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncReplay counts an idempotent replay.
func (m *OrderMetrics) IncReplay(operation string) {
	if m == nil || m.replays == nil {
		return
	}
	m.replays.WithLabelValues(normalizeLabel(operation)).Inc()
}

func outcomeLabel(err error) string {
	if err == nil {
		return outcomeOK
	}
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeInternal)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
