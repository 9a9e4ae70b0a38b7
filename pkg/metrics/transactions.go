package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TransactionMetrics records outcomes of sale transaction processing.
type TransactionMetrics struct {
	duration   *prometheus.HistogramVec
	committed  *prometheus.CounterVec
	rolledBack *prometheus.CounterVec
	overpaid   prometheus.Counter
	conflicts  prometheus.Counter
}

// NewTransactionMetrics registers the transaction metrics on the provided registerer.
func NewTransactionMetrics(reg prometheus.Registerer) *TransactionMetrics {
	if reg == nil {
		return &TransactionMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sale_transaction_duration_seconds",
		Help:    "Duration of sale transaction processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	committed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_transaction_committed",
		Help: "Committed sale transactions.",
	}, []string{"operation"})
	rolledBack := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_transaction_rolled_back",
		Help: "Rolled back sale transactions.",
	}, []string{"operation"})
	overpaid := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sale_transaction_overpayment_splits",
		Help: "Payments split into an invoice settlement plus an overpayment credit.",
	})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sale_transaction_concurrency_conflicts",
		Help: "Customer balance updates lost to a concurrent writer.",
	})
	reg.MustRegister(duration, committed, rolledBack, overpaid, conflicts)
	return &TransactionMetrics{
		duration:   duration,
		committed:  committed,
		rolledBack: rolledBack,
		overpaid:   overpaid,
		conflicts:  conflicts,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *TransactionMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

// IncCommitted increments the committed counter for the named operation.
func (m *TransactionMetrics) IncCommitted(operation string) {
	if m == nil || m.committed == nil {
		return
	}
	m.committed.WithLabelValues(operation).Inc()
}

// IncRolledBack increments the rollback counter for the named operation.
func (m *TransactionMetrics) IncRolledBack(operation string) {
	if m == nil || m.rolledBack == nil {
		return
	}
	m.rolledBack.WithLabelValues(operation).Inc()
}

// IncOverpaymentSplit counts a payment split into settlement plus credit.
func (m *TransactionMetrics) IncOverpaymentSplit() {
	if m == nil || m.overpaid == nil {
		return
	}
	m.overpaid.Inc()
}

// IncConcurrencyConflict counts a lost optimistic-concurrency race.
func (m *TransactionMetrics) IncConcurrencyConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}
