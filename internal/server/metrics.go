package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scontrino_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scontrino_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// kind: scan, capture, parse; status: ok or the error kind
	receiptRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scontrino_receipt_requests_total",
			Help: "Total number of receipt requests by endpoint and outcome",
		},
		[]string{"kind", "status"},
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scontrino_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{10 * 1024, 100 * 1024, 512 * 1024, 1024 * 1024, 4 * 1024 * 1024, 16 * 1024 * 1024},
		},
	)

	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scontrino_rate_limit_hits_total",
			Help: "Total number of rejected requests by limit window",
		},
		[]string{"window"},
	)
)
