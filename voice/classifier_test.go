package voice

import (
	"testing"
)

func TestClassifyAllChecksSatisfied(t *testing.T) {
	t.Parallel()

	classifier := mustClassifier(t, BatteryFull)
	features := aiLikeVector()

	tests := []struct {
		language   Language
		confidence float64
	}{
		{LanguageEnglish, 1.0},
		{LanguageHindi, 0.98},
		{LanguageTelugu, 0.97},
		{LanguageMalayalam, 0.96},
		{LanguageTamil, 0.95},
	}

	for _, tt := range tests {
		result := classifier.Classify(features, tt.language)
		if result.Label != LabelAIGenerated {
			t.Errorf("%s: expected %s, got %s", tt.language, LabelAIGenerated, result.Label)
		}
		if result.Confidence != tt.confidence {
			t.Errorf("%s: expected confidence %.4f, got %.4f", tt.language, tt.confidence, result.Confidence)
		}
	}
}

func TestClassifyNoChecksSatisfied(t *testing.T) {
	t.Parallel()

	classifier := mustClassifier(t, BatteryFull)
	features := humanLikeVector()

	for _, language := range SupportedLanguages() {
		result := classifier.Classify(features, language)
		if result.Label != LabelHuman {
			t.Errorf("%s: expected %s, got %s", language, LabelHuman, result.Label)
		}
		if result.Confidence != 1.0 {
			t.Errorf("%s: expected confidence 1.0, got %.4f", language, result.Confidence)
		}
	}
}

func TestClassifyThresholdBoundary(t *testing.T) {
	t.Parallel()

	// Two of the four reduced checks satisfied puts the adjusted score at
	// exactly 0.5 for english, which must land on the AI side.
	classifier := mustClassifier(t, BatteryReduced)

	features := humanLikeVector()
	features.SpectralCentroidStd = 100
	features.MFCCStd = []float64{5, 5}

	result := classifier.Classify(features, LanguageEnglish)
	if result.Label != LabelAIGenerated {
		t.Fatalf("expected %s at the 0.5 boundary, got %s", LabelAIGenerated, result.Label)
	}
	if result.Confidence != 0.5 {
		t.Fatalf("expected confidence 0.5, got %.4f", result.Confidence)
	}
}

func TestClassifyConfidenceRounding(t *testing.T) {
	t.Parallel()

	// The four weight-1.0 checks out of the full battery give a raw score of
	// 4/6.5, and the tamil factor lands it on a repeating decimal.
	classifier := mustClassifier(t, BatteryFull)

	features := humanLikeVector()
	features.SpectralCentroidStd = 100
	features.MFCCStd = []float64{5, 5}
	features.ZCRStd = 0.01
	features.PitchStd = 10
	features.PitchMean = 150

	result := classifier.Classify(features, LanguageTamil)
	if result.Label != LabelAIGenerated {
		t.Fatalf("expected %s, got %s", LabelAIGenerated, result.Label)
	}
	if result.Confidence != 0.5846 {
		t.Fatalf("expected confidence 0.5846, got %.10f", result.Confidence)
	}
}

func TestClassifyConfidenceBounds(t *testing.T) {
	t.Parallel()

	classifier := mustClassifier(t, BatteryFull)
	vectors := []*FeatureVector{
		aiLikeVector(),
		humanLikeVector(),
		unvoicedVector(),
		{},
	}

	for _, features := range vectors {
		for _, language := range SupportedLanguages() {
			result := classifier.Classify(features, language)
			if result.Confidence < 0.0 || result.Confidence > 1.0 {
				t.Errorf("%s: confidence %.4f out of range", language, result.Confidence)
			}
			if result.Label != LabelAIGenerated && result.Label != LabelHuman {
				t.Errorf("%s: unexpected label %q", language, result.Label)
			}
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	t.Parallel()

	classifier := mustClassifier(t, BatteryFull)
	features := aiLikeVector()

	first := classifier.Classify(features, LanguageHindi)
	for i := 0; i < 50; i++ {
		result := classifier.Classify(features, LanguageHindi)
		if result != first {
			t.Fatalf("classification drifted on repeat %d: %+v vs %+v", i, result, first)
		}
	}
}

func TestClassifyUnvoicedSkipsPitchChecks(t *testing.T) {
	t.Parallel()

	classifier := mustClassifier(t, BatteryFull)
	features := unvoicedVector()

	satisfied := map[string]bool{}
	for _, check := range classifier.CheckResults(features) {
		satisfied[check.Name] = check.Satisfied
	}

	if satisfied["pitch_consistency"] {
		t.Error("pitch_consistency must not fire when pitch_mean is 0")
	}
	if satisfied["pitch_range"] {
		t.Error("pitch_range must not fire when pitch_mean is 0")
	}

	// 5.0 of the 6.5 total weight remains satisfied.
	result := classifier.Classify(features, LanguageEnglish)
	if result.Label != LabelAIGenerated {
		t.Fatalf("expected %s, got %s", LabelAIGenerated, result.Label)
	}
	if result.Confidence != 0.7692 {
		t.Fatalf("expected confidence 0.7692, got %.10f", result.Confidence)
	}
}

func TestLanguageFactorOrdering(t *testing.T) {
	t.Parallel()

	ordered := []Language{
		LanguageEnglish,
		LanguageHindi,
		LanguageTelugu,
		LanguageMalayalam,
		LanguageTamil,
	}

	for i := 1; i < len(ordered); i++ {
		higher := LanguageFactor(ordered[i-1])
		lower := LanguageFactor(ordered[i])
		if higher <= lower {
			t.Errorf("expected factor[%s]=%.2f > factor[%s]=%.2f",
				ordered[i-1], higher, ordered[i], lower)
		}
	}

	if factor := LanguageFactor(Language("french")); factor != 1.0 {
		t.Errorf("unknown language should fall back to factor 1.0, got %.2f", factor)
	}
}

func TestNewClassifierProfiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		profile BatteryProfile
		checks  int
	}{
		{BatteryFull, 9},
		{BatteryReduced, 4},
		{BatteryMinimal, 3},
	}

	for _, tt := range tests {
		classifier, err := NewClassifier(tt.profile)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.profile, err)
		}
		if classifier.CheckCount() != tt.checks {
			t.Errorf("%s: expected %d checks, got %d", tt.profile, tt.checks, classifier.CheckCount())
		}
		if classifier.Profile() != tt.profile {
			t.Errorf("expected profile %s, got %s", tt.profile, classifier.Profile())
		}
	}

	if _, err := NewClassifier(BatteryProfile("bogus")); err == nil {
		t.Error("expected an error for an unknown profile")
	}
}

func TestCheckResultsOrderAndOutcome(t *testing.T) {
	t.Parallel()

	classifier := mustClassifier(t, BatteryFull)
	results := classifier.CheckResults(aiLikeVector())

	expected := []string{
		"spectral_consistency",
		"mfcc_variance",
		"zcr_consistency",
		"pitch_consistency",
		"spectral_flatness",
		"rms_consistency",
		"spectral_contrast",
		"mel_uniformity",
		"pitch_range",
	}

	if len(results) != len(expected) {
		t.Fatalf("expected %d results, got %d", len(expected), len(results))
	}
	for i, name := range expected {
		if results[i].Name != name {
			t.Errorf("result %d: expected %q, got %q", i, name, results[i].Name)
		}
		if !results[i].Satisfied {
			t.Errorf("check %q should be satisfied by the synthetic vector", name)
		}
	}
}

func TestConfidenceBand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		confidence float64
		band       string
	}{
		{0.95, "high"},
		{0.85, "high"},
		{0.75, "medium"},
		{0.65, "medium"},
		{0.5, "low"},
		{0.1, "low"},
	}

	for _, tt := range tests {
		if band := ConfidenceBand(tt.confidence); band != tt.band {
			t.Errorf("confidence %.2f: expected band %q, got %q", tt.confidence, tt.band, band)
		}
	}
}

func mustClassifier(t *testing.T, profile BatteryProfile) *Classifier {
	t.Helper()
	classifier, err := NewClassifier(profile)
	if err != nil {
		t.Fatalf("failed to build classifier: %v", err)
	}
	return classifier
}

// aiLikeVector satisfies every check in the full battery.
func aiLikeVector() *FeatureVector {
	return &FeatureVector{
		SpectralCentroidMean: 1800,
		SpectralCentroidStd:  50,
		SpectralRolloffMean:  3200,
		SpectralContrastMean: 30,
		SpectralFlatnessMean: 0.4,
		SpectralFlatnessStd:  0.01,
		ZCRMean:              0.05,
		ZCRStd:               0.005,
		RMSMean:              0.2,
		RMSStd:               0.001,
		PitchMean:            150,
		PitchStd:             5,
		PitchRange:           20,
		MelSpecMean:          1.5,
		MelSpecStd:           2,
		MFCCMean:             []float64{-120, 80, 10},
		MFCCStd:              []float64{5, 5, 5},
	}
}

// humanLikeVector fails every check in the full battery.
func humanLikeVector() *FeatureVector {
	return &FeatureVector{
		SpectralCentroidMean: 2200,
		SpectralCentroidStd:  500,
		SpectralRolloffMean:  4100,
		SpectralContrastMean: 20,
		SpectralFlatnessMean: 0.1,
		SpectralFlatnessStd:  0.2,
		ZCRMean:              0.12,
		ZCRStd:               0.08,
		RMSMean:              0.3,
		RMSStd:               0.05,
		PitchMean:            180,
		PitchStd:             60,
		PitchRange:           120,
		MelSpecMean:          3.5,
		MelSpecStd:           12,
		MFCCMean:             []float64{-90, 60, 20},
		MFCCStd:              []float64{30, 30, 30},
	}
}

// unvoicedVector looks synthetic on every non-pitch axis but carries no
// voiced frames at all.
func unvoicedVector() *FeatureVector {
	features := aiLikeVector()
	features.PitchMean = 0
	features.PitchStd = 0
	features.PitchRange = 0
	return features
}
