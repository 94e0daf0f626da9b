package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Consent intake outcomes used as the "outcome" label.
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics holds the Prometheus collectors of the consent service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ConsentSubmissions *prometheus.CounterVec
	HealthChecks       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConsentSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pdpa_consent_submissions_total",
			Help: "Consent submissions by terminal outcome",
		}, []string{"outcome", "source_channel"}),
		HealthChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pdpa_health_checks_total",
			Help: "Datastore health probes by result",
		}, []string{"result"}),
	}
}

// IncrementConsentSubmission counts one finished intake call.
func (m *Metrics) IncrementConsentSubmission(outcome, sourceChannel string) {
	if m == nil {
		return
	}
	m.ConsentSubmissions.WithLabelValues(outcome, sourceChannel).Inc()
}

// IncrementHealthCheck counts one probe; result is "up", "down" or "error".
func (m *Metrics) IncrementHealthCheck(result string) {
	if m == nil {
		return
	}
	m.HealthChecks.WithLabelValues(result).Inc()
}
