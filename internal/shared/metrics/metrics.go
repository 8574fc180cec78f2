package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exposed on /metrics.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	LeaveDecision *prometheus.CounterVec
	LeaveSubmit   *prometheus.CounterVec
	ComplianceRun *prometheus.CounterVec
	OutboxBacklog *prometheus.GaugeVec
	OutboxRelayed *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leave",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		LeaveDecision: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "review_decisions_total",
			Help:      "Leave review outcomes.",
		}, []string{"decision"}),
		LeaveSubmit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "submissions_total",
			Help:      "Leave submissions by outcome.",
		}, []string{"outcome"}),
		ComplianceRun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "compliance_fetch_total",
			Help:      "Compliance day fetches by outcome.",
		}, []string{"outcome"}),
		OutboxBacklog: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "leave",
			Name:      "outbox_backlog",
			Help:      "Unsent outbox rows by status.",
		}, []string{"status"}),
		OutboxRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "outbox_relayed_total",
			Help:      "Outbox publish attempts by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.LeaveDecision, m.LeaveSubmit,
			m.ComplianceRun, m.OutboxBacklog, m.OutboxRelayed)
	}
	return m
}

// Nop returns unregistered collectors for tests and callers that do not expose metrics.
func Nop() *Metrics {
	return New(nil)
}
