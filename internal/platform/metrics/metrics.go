// Package metrics registers the Prometheus instruments for the matching
// engine and the session registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	MatchDecisions       *prometheus.CounterVec
	MatchDuration        prometheus.Histogram
	SessionsStarted      prometheus.Counter
	SessionsEnded        prometheus.Counter
	VerificationAttempts *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		MatchDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustface_match_decisions_total",
			Help: "Match decisions by mode (1to1, 1toN) and outcome (accepted, rejected).",
		}, []string{"mode", "outcome"}),
		MatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustface_match_duration_seconds",
			Help:    "Latency of matching decisions.",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustface_sessions_started_total",
			Help: "Total exam sessions started.",
		}),
		SessionsEnded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustface_sessions_ended_total",
			Help: "Total exam sessions ended.",
		}),
		VerificationAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustface_verification_attempts_total",
			Help: "Mid-exam verification attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// RecordMatch records one matching decision.
func (m *Metrics) RecordMatch(mode string, accepted bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.MatchDecisions.WithLabelValues(mode, outcome).Inc()
	m.MatchDuration.Observe(seconds)
}

// RecordVerification records one mid-exam verification attempt.
func (m *Metrics) RecordVerification(accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.VerificationAttempts.WithLabelValues(outcome).Inc()
}

// IncSessionsStarted increments the started-sessions counter.
func (m *Metrics) IncSessionsStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// IncSessionsEnded increments the ended-sessions counter.
func (m *Metrics) IncSessionsEnded() {
	if m == nil {
		return
	}
	m.SessionsEnded.Inc()
}
