// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal tracks turns appended to sessions.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_turns_total",
			Help: "Total conversation turns appended",
		},
		[]string{"role"},
	)

	// SessionsTotal tracks sessions reaching a terminal or initial state.
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_sessions_total",
			Help: "Session lifecycle transitions",
		},
		[]string{"status"},
	)

	// ExtractionDuration tracks LLM extraction round-trip duration.
	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intake_extraction_duration_seconds",
			Help:    "LLM field extraction duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "status"},
	)

	// FieldValidationsTotal tracks field validation outcomes.
	FieldValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_field_validations_total",
			Help: "Field validation outcomes",
		},
		[]string{"field", "status"},
	)

	// RecordSavesTotal tracks persistence gateway save attempts.
	RecordSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_record_saves_total",
			Help: "Finalized record save attempts",
		},
		[]string{"status"},
	)

	// UnsafeInputsTotal tracks rejected raw inputs (security events).
	UnsafeInputsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "intake_unsafe_inputs_total",
			Help: "Inputs rejected by the sanitizer denylist",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveExtraction records one LLM extraction attempt.
func ObserveExtraction(provider, status string, seconds float64) {
	ExtractionDuration.WithLabelValues(provider, status).Observe(seconds)
}

// RecordValidation records one field validation outcome.
func RecordValidation(field, status string) {
	FieldValidationsTotal.WithLabelValues(field, status).Inc()
}
