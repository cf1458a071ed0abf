package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// PayoutMetrics records payout status changes and settled amounts.
type PayoutMetrics struct {
	statusChanges *prometheus.CounterVec
	paidAmount    prometheus.Counter
}

// NewPayoutMetrics registers the payout metrics on the provided registerer.
func NewPayoutMetrics(reg prometheus.Registerer) *PayoutMetrics {
	if reg == nil {
		return &PayoutMetrics{}
	}
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payout_status_changes_total",
		Help: "Payout status changes by target status.",
	}, []string{"status"})
	paidAmount := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payout_paid_amount_total",
		Help: "Sum of payout amounts marked paid.",
	})
	reg.MustRegister(statusChanges, paidAmount)
	return &PayoutMetrics{
		statusChanges: statusChanges,
		paidAmount:    paidAmount,
	}
}

// IncStatus counts a payout moving to status.
func (m *PayoutMetrics) IncStatus(status string) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(status)).Inc()
}

// AddPaid adds a settled payout amount.
func (m *PayoutMetrics) AddPaid(amount decimal.Decimal) {
	if m == nil || m.paidAmount == nil || amount.IsNegative() {
		return
	}
	m.paidAmount.Add(amount.InexactFloat64())
}
