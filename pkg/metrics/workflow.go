package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics records operator actions and upstream latency.
type WorkflowMetrics struct {
	decisions   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	approvals   *prometheus.CounterVec
	upstream    *prometheus.HistogramVec
}

// NewWorkflowMetrics registers the workflow metrics on the provided registerer.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attachment_decisions_total",
		Help: "Attachment category decisions submitted upstream.",
	}, []string{"decision"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lease_request_transitions_total",
		Help: "Lease request status transitions accepted upstream.",
	}, []string{"to"})
	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "annual_rate_approvals_total",
		Help: "Annual rate approval attempts by outcome.",
	}, []string{"outcome"})
	upstream := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of calls to the system of record.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	reg.MustRegister(decisions, transitions, approvals, upstream)
	return &WorkflowMetrics{
		decisions:   decisions,
		transitions: transitions,
		approvals:   approvals,
		upstream:    upstream,
	}
}

func (m *WorkflowMetrics) IncDecision(decision string) {
	if m == nil || m.decisions == nil {
		return
	}
	m.decisions.WithLabelValues(normalizeLabel(decision)).Inc()
}

func (m *WorkflowMetrics) IncTransition(to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(to)).Inc()
}

// IncApproval counts an approval attempt; outcome is "approved" or an error code.
func (m *WorkflowMetrics) IncApproval(outcome string) {
	if m == nil || m.approvals == nil {
		return
	}
	m.approvals.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveUpstream records how long a single upstream operation took.
func (m *WorkflowMetrics) ObserveUpstream(operation, outcome string, duration time.Duration) {
	if m == nil || m.upstream == nil {
		return
	}
	m.upstream.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
