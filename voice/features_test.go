package voice

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestExtractFeaturesPureTone(t *testing.T) {
	t.Parallel()

	signal := sineSignal(440, 0.5, 2.0, 22050)
	features, err := ExtractFeatures(context.Background(), signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if features.PitchMean < 430 || features.PitchMean > 450 {
		t.Errorf("expected pitch near 440 Hz, got %.2f", features.PitchMean)
	}
	if features.PitchStd > 5 {
		t.Errorf("a steady tone should have a stable pitch track, got std %.2f", features.PitchStd)
	}

	// A 440 Hz tone crosses zero twice per period.
	expectedZCR := 2 * 440.0 / 22050.0
	if math.Abs(features.ZCRMean-expectedZCR) > 0.01 {
		t.Errorf("expected zcr near %.4f, got %.4f", expectedZCR, features.ZCRMean)
	}

	expectedRMS := 0.5 / math.Sqrt2
	if math.Abs(features.RMSMean-expectedRMS) > 0.01 {
		t.Errorf("expected rms near %.4f, got %.4f", expectedRMS, features.RMSMean)
	}

	if features.SpectralCentroidMean <= 0 {
		t.Errorf("expected a positive spectral centroid, got %.2f", features.SpectralCentroidMean)
	}
}

func TestExtractFeaturesSilence(t *testing.T) {
	t.Parallel()

	signal := &AudioSignal{
		Samples:    make([]float64, 22050),
		SampleRate: 22050,
		Duration:   1.0,
	}

	features, err := ExtractFeatures(context.Background(), signal)
	if err != nil {
		t.Fatalf("silence must degrade to defaults, not fail: %v", err)
	}

	if features.PitchMean != 0 || features.PitchStd != 0 || features.PitchRange != 0 {
		t.Errorf("silence has no voiced frames, got pitch %v/%v/%v",
			features.PitchMean, features.PitchStd, features.PitchRange)
	}
	if features.ZCRMean != 0 {
		t.Errorf("silence never crosses zero, got %.4f", features.ZCRMean)
	}
	if features.RMSMean != 0 {
		t.Errorf("silence carries no energy, got %.4f", features.RMSMean)
	}

	// The degraded vector must still classify cleanly.
	classifier := mustClassifier(t, BatteryFull)
	result := classifier.Classify(features, LanguageEnglish)
	if result.Confidence < 0 || result.Confidence > 1 {
		t.Errorf("confidence %.4f out of range", result.Confidence)
	}
	if result.Label != LabelAIGenerated && result.Label != LabelHuman {
		t.Errorf("unexpected label %q", result.Label)
	}
}

func TestExtractFeaturesDeterministic(t *testing.T) {
	t.Parallel()

	signal := sineSignal(220, 0.4, 1.0, 22050)

	first, err := ExtractFeatures(context.Background(), signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ExtractFeatures(context.Background(), signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("feature extraction is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestExtractFeaturesVectorSize(t *testing.T) {
	t.Parallel()

	signal := sineSignal(330, 0.3, 0.5, 22050)

	features, err := ExtractFeatures(context.Background(), signal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if features.Count() != 58 {
		t.Errorf("extended feature set should carry 58 values, got %d", features.Count())
	}

	lean, err := ExtractFeaturesWith(context.Background(), signal, LeanExtractorConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lean.Count() != 44 {
		t.Errorf("lean feature set should carry 44 values, got %d", lean.Count())
	}
}

func TestExtractFeaturesRejectsUnusableSignal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		signal *AudioSignal
	}{
		{"nil signal", nil},
		{"no samples", &AudioSignal{SampleRate: 22050}},
		{"bad sample rate", &AudioSignal{Samples: []float64{0.1, 0.2}}},
	}

	for _, tt := range tests {
		_, err := ExtractFeatures(context.Background(), tt.signal)
		var featureErr *FeatureComputationError
		if !errors.As(err, &featureErr) {
			t.Errorf("%s: expected FeatureComputationError, got %v", tt.name, err)
		}
	}
}

func TestExtractFeaturesHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExtractFeatures(ctx, sineSignal(440, 0.5, 1.0, 22050))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func sineSignal(freq, amplitude, seconds float64, sampleRate int) *AudioSignal {
	count := int(seconds * float64(sampleRate))
	samples := make([]float64, count)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return &AudioSignal{
		Samples:    samples,
		SampleRate: sampleRate,
		Duration:   seconds,
		SNRDb:      EstimateSNR(samples),
	}
}
