// Package metrics holds the Prometheus collectors for auth flows and
// notification delivery. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Notification results.
const (
	ResultSent     = "sent"
	ResultFailed   = "failed"
	ResultDropped  = "dropped"
	ResultEnqueued = "enqueued"
)

type Metrics struct {
	AuthFlows     *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Panics if registration fails (following prometheus convention).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthFlows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventhub_auth_flows_total",
				Help: "Auth flow completions by flow and outcome",
			},
			[]string{"flow", "outcome"},
		),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventhub_notifications_total",
				Help: "Notification messages by purpose and result",
			},
			[]string{"purpose", "result"},
		),
	}

	reg.MustRegister(m.AuthFlows, m.Notifications)
	return m
}

// RecordFlow counts one completed flow.
func (m *Metrics) RecordFlow(flow, outcome string) {
	if m == nil {
		return
	}
	m.AuthFlows.WithLabelValues(flow, outcome).Inc()
}

// RecordNotification counts one notification state change.
func (m *Metrics) RecordNotification(purpose, result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(purpose, result).Inc()
}
