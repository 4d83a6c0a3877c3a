// Package metrics exposes Prometheus collectors for the RPC layer, the bill
// lock and the settlement engine. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitbill"

// Metrics holds every collector the server records into.
type Metrics struct {
	rpcRequests        *prometheus.CounterVec
	rpcDuration        *prometheus.HistogramVec
	lockWait           *prometheus.HistogramVec
	lockBusy           *prometheus.CounterVec
	invariantViolation *prometheus.CounterVec
	expenseMutations   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC requests by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for a bill lock.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 2.5, 5},
		}, []string{"backend"}),
		lockBusy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_busy_total",
			Help:      "Bill lock acquisitions that timed out.",
		}, []string{"backend"}),
		invariantViolation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invariant_violations_total",
			Help:      "Internal consistency checks that failed.",
		}, []string{"check"}),
		expenseMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expense_mutations_total",
			Help:      "Committed expense writes by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		m.rpcRequests,
		m.rpcDuration,
		m.lockWait,
		m.lockBusy,
		m.invariantViolation,
		m.expenseMutations,
	)
	return m
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}

// ObserveLockWait records a lock acquisition attempt.
func (m *Metrics) ObserveLockWait(backend string, waited time.Duration, acquired bool) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(backend).Observe(waited.Seconds())
	if !acquired {
		m.lockBusy.WithLabelValues(backend).Inc()
	}
}

// InvariantViolated counts a failed consistency check.
func (m *Metrics) InvariantViolated(check string) {
	if m == nil {
		return
	}
	m.invariantViolation.WithLabelValues(check).Inc()
}

// ExpenseMutated counts a committed add, update or remove.
func (m *Metrics) ExpenseMutated(op string) {
	if m == nil {
		return
	}
	m.expenseMutations.WithLabelValues(op).Inc()
}
