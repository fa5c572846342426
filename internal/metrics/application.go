package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ApplicationMetrics tracks domain-specific metrics for the mastering pipeline
// that don't belong on the shared Metrics singleton (request-path validation,
// classifier confidence, decode failures).
type ApplicationMetrics struct {
	// Decode
	DecodeFailuresTotal prometheus.CounterVec
	DecodeDuration      prometheus.HistogramVec

	// Classification
	ClassificationsTotal    prometheus.CounterVec
	ClassificationConfident prometheus.HistogramVec

	// Validation
	ValidationFailures prometheus.CounterVec

	// Preset changes mid-stream
	PresetChangesTotal prometheus.CounterVec
}

// InitializeApplicationMetrics creates and registers all application metrics
func InitializeApplicationMetrics() *ApplicationMetrics {
	return &ApplicationMetrics{
		DecodeFailuresTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "decode_failures_total",
				Help: "Total number of source audio decode failures",
			},
			[]string{"reason"},
		),
		DecodeDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "decode_duration_seconds",
				Help:    "Time to decode a source file to PCM",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10},
			},
			[]string{"format"},
		),

		ClassificationsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classifications_total",
				Help: "Total number of recording-type classifications performed",
			},
			[]string{"recording_type"},
		),
		ClassificationConfident: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classification_confidence",
				Help:    "Confidence score assigned to the winning recording type",
				Buckets: []float64{.1, .25, .4, .5, .6, .75, .9, 1},
			},
			[]string{"recording_type"},
		),

		ValidationFailures: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "validation_failures_total",
				Help: "Total validation failures",
			},
			[]string{"field", "reason"},
		),

		PresetChangesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "preset_changes_total",
				Help: "Total number of mid-stream preset or intensity changes",
			},
			[]string{"from_preset", "to_preset"},
		),
	}
}
