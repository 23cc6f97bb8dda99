package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice_detection"

// Metrics carries the service's Prometheus instruments. Build one per
// process with NewDefault, or with New and a private registry in tests.
type Metrics struct {
	DetectionsTotal     *prometheus.CounterVec
	DetectionDuration   prometheus.Histogram
	ExtractionDuration  prometheus.Histogram
	DecodeFailures      *prometheus.CounterVec
	ActiveDetections    prometheus.Gauge
	HTTPRequests        *prometheus.CounterVec
	ExplanationRequests *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		DetectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Completed detections by verdict and language.",
		}, []string{"result", "language"}),

		DetectionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_duration_seconds",
			Help:      "End-to-end detection latency, decode included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		ExtractionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feature_extraction_duration_seconds",
			Help:      "Feature extraction latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		DecodeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Rejected inputs by failure reason.",
		}, []string{"reason"}),

		ActiveDetections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_detections",
			Help:      "Detections currently holding a worker slot.",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, endpoint and status code.",
		}, []string{"method", "endpoint", "status_code"}),

		ExplanationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanation_requests_total",
			Help:      "Explanation generation attempts by outcome.",
		}, []string{"outcome"}),
	}
}

// NewDefault registers the instruments on the default registry exposed at
// /metrics.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
