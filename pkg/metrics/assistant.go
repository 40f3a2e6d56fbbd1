package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Intent resolution outcomes. Rate-limit failures are tracked apart from
// generic ones so quota exhaustion is visible without log digging.
const (
	IntentOutcomeResolved    = "resolved"
	IntentOutcomeMalformed   = "malformed"
	IntentOutcomeRateLimited = "rate_limited"
	IntentOutcomeFailed      = "failed"
)

// AssistantMetrics records intent classification and command dispatch
// outcomes.
type AssistantMetrics struct {
	intentOutcomes  *prometheus.CounterVec
	intentDuration  *prometheus.HistogramVec
	dispatchedKinds *prometheus.CounterVec
	dispatchErrors  *prometheus.CounterVec
}

// NewAssistantMetrics registers the assistant metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	if reg == nil {
		return &AssistantMetrics{}
	}
	intentOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_intent_resolutions",
		Help: "Intent resolution attempts by outcome.",
	}, []string{"outcome"})
	intentDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assistant_intent_duration_seconds",
		Help:    "Duration of intent resolution calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	dispatchedKinds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_dispatched_intents",
		Help: "Commands dispatched by intent kind.",
	}, []string{"intent"})
	dispatchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_dispatch_errors",
		Help: "Dispatch failures by intent kind.",
	}, []string{"intent"})
	reg.MustRegister(intentOutcomes, intentDuration, dispatchedKinds, dispatchErrors)
	return &AssistantMetrics{
		intentOutcomes:  intentOutcomes,
		intentDuration:  intentDuration,
		dispatchedKinds: dispatchedKinds,
		dispatchErrors:  dispatchErrors,
	}
}

// ObserveResolution records one intent resolution attempt.
func (a *AssistantMetrics) ObserveResolution(outcome string, duration time.Duration) {
	if a == nil || a.intentOutcomes == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	a.intentOutcomes.WithLabelValues(outcome).Inc()
	a.intentDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// IncDispatched increments the dispatch counter for the named intent kind.
func (a *AssistantMetrics) IncDispatched(intent string) {
	if a == nil || a.dispatchedKinds == nil {
		return
	}
	a.dispatchedKinds.WithLabelValues(normalizeLabel(intent)).Inc()
}

// IncDispatchError increments the dispatch failure counter for the named
// intent kind.
func (a *AssistantMetrics) IncDispatchError(intent string) {
	if a == nil || a.dispatchErrors == nil {
		return
	}
	a.dispatchErrors.WithLabelValues(normalizeLabel(intent)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
