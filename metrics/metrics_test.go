package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegisterAndCount(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.DetectionsTotal.WithLabelValues("AI_GENERATED", "tamil").Inc()
	m.DetectionsTotal.WithLabelValues("HUMAN", "english").Add(2)

	if got := testutil.ToFloat64(m.DetectionsTotal.WithLabelValues("AI_GENERATED", "tamil")); got != 1 {
		t.Errorf("expected 1 tamil AI detection, got %v", got)
	}
	if got := testutil.ToFloat64(m.DetectionsTotal.WithLabelValues("HUMAN", "english")); got != 2 {
		t.Errorf("expected 2 english human detections, got %v", got)
	}

	m.ActiveDetections.Inc()
	m.ActiveDetections.Inc()
	m.ActiveDetections.Dec()
	if got := testutil.ToFloat64(m.ActiveDetections); got != 1 {
		t.Errorf("expected 1 active detection, got %v", got)
	}

	m.DecodeFailures.WithLabelValues("invalid base64 encoding").Inc()
	if got := testutil.ToFloat64(m.DecodeFailures.WithLabelValues("invalid base64 encoding")); got != 1 {
		t.Errorf("expected 1 decode failure, got %v", got)
	}
}

func TestMetricsIndependentRegistries(t *testing.T) {
	t.Parallel()

	first := New(prometheus.NewRegistry())
	second := New(prometheus.NewRegistry())

	first.DetectionsTotal.WithLabelValues("HUMAN", "hindi").Inc()

	if got := testutil.ToFloat64(second.DetectionsTotal.WithLabelValues("HUMAN", "hindi")); got != 0 {
		t.Errorf("registries must not share state, got %v", got)
	}
}
