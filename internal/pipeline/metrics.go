package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	receiptsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scontrino_receipts_processed_total",
			Help: "Receipt images processed, by outcome",
		},
		[]string{"outcome"}, // ok, no_receipt, exhausted, failure, canceled
	)

	processingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scontrino_receipt_processing_duration_seconds",
			Help:    "Time from image to record",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
		},
	)

	rectifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scontrino_rectifications_total",
			Help: "Rectification results",
		},
		[]string{"result"}, // rectified, fallback
	)

	recognitionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scontrino_recognition_attempts_total",
			Help: "Recognizer calls per candidate crop and rotation",
		},
		[]string{"candidate", "rotation"},
	)

	recordFields = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scontrino_record_fields",
			Help:    "Number of fields in the final record",
			Buckets: []float64{0, 1, 2, 4, 6, 8, 10, 13},
		},
	)
)
