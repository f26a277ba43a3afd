// Package metrics defines the Prometheus instruments recorded by the engine.
// All Record methods are safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ldc_memory"

// Metrics holds all custom Prometheus metrics for the engine.
type Metrics struct {
	// Oracle metrics
	OracleRequests *prometheus.CounterVec
	OracleLatency  *prometheus.HistogramVec

	// Summarization metrics
	Summaries *prometheus.CounterVec

	// Suggestion metrics
	SuggestionsGenerated *prometheus.CounterVec
	SuggestionsDeduped   prometheus.Counter
	StatusTransitions    *prometheus.CounterVec

	// Context assembly metrics
	ContextAssemblies *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// New registers the engine metrics on reg. Passing a fresh
// prometheus.NewRegistry() keeps tests isolated from the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OracleRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_requests_total",
			Help:      "Oracle calls by operation and outcome",
		}, []string{"operation", "outcome"}), // outcome: ok, error

		OracleLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_request_duration_seconds",
			Help:      "Oracle call latency in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"operation"}),

		Summaries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Summarization runs by result reason",
		}, []string{"reason"}),

		SuggestionsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_generated_total",
			Help:      "Suggestions persisted by the generator, by type",
		}, []string{"type"}),

		SuggestionsDeduped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestions_deduped_total",
			Help:      "Generated suggestions skipped as duplicates",
		}),

		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestion_status_transitions_total",
			Help:      "Suggestion status changes by target status",
		}, []string{"status"}),

		ContextAssemblies: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_assemblies_total",
			Help:      "Context assemblies by context mode",
		}, []string{"mode"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code class",
		}, []string{"route", "code"}),
	}
}

// RecordOracleCall records one oracle call and its latency.
func (m *Metrics) RecordOracleCall(operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.OracleRequests.WithLabelValues(operation, outcome).Inc()
	m.OracleLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordSummary records the outcome of one summarization run.
func (m *Metrics) RecordSummary(reason string) {
	if m == nil {
		return
	}
	m.Summaries.WithLabelValues(reason).Inc()
}

// RecordSuggestion records one persisted suggestion.
func (m *Metrics) RecordSuggestion(suggestionType string) {
	if m == nil {
		return
	}
	m.SuggestionsGenerated.WithLabelValues(suggestionType).Inc()
}

// RecordDeduped records a suggestion skipped as a duplicate.
func (m *Metrics) RecordDeduped() {
	if m == nil {
		return
	}
	m.SuggestionsDeduped.Inc()
}

// RecordTransition records a suggestion status change.
func (m *Metrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status).Inc()
}

// RecordAssembly records one context assembly.
func (m *Metrics) RecordAssembly(mode string) {
	if m == nil {
		return
	}
	m.ContextAssemblies.WithLabelValues(mode).Inc()
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, code).Inc()
}
