package voice

// Heuristic Voice Classifier
//
// The classifier scores a FeatureVector against a fixed battery of weighted
// checks. Each check encodes one acoustic signature of synthetic speech:
// generated voices tend to be spectrally over-consistent, with unnaturally
// stable pitch, energy and cepstral trajectories. The raw score is the
// weight of the satisfied checks over the weight of the whole battery, so a
// vector satisfying everything scores exactly 1.0.
//
// The raw score is then multiplied by a per-language factor compensating for
// how much natural variation each language's prosody shows, and the adjusted
// score is thresholded at 0.5: at or above is AI_GENERATED with the score as
// confidence, below is HUMAN with the complement.
//
// The thresholds are the model. They are fixed at compile time, never tuned
// at runtime, and must not drift between deployments. Classification is a
// pure function: same vector and language in, same label and confidence out.

import (
	"fmt"
	"math"
)

// BatteryProfile selects which slice of the check battery a Classifier runs.
type BatteryProfile string

const (
	// BatteryFull runs all nine checks. This is the serving default.
	BatteryFull BatteryProfile = "full"
	// BatteryReduced runs the four weight-1.0 checks only.
	BatteryReduced BatteryProfile = "reduced"
	// BatteryMinimal runs the three checks computable without pitch tracking.
	BatteryMinimal BatteryProfile = "minimal"
)

// batteryCheck is one weighted heuristic. satisfied must be total over every
// well-formed FeatureVector.
type batteryCheck struct {
	name        string
	description string
	weight      float64
	satisfied   func(*FeatureVector) bool
}

// fullBattery is the canonical nine-check table. Order matters: the reduced
// and minimal profiles are prefixes of it.
var fullBattery = []batteryCheck{
	{
		name:        "spectral_consistency",
		description: "spectral centroid varies less than natural speech",
		weight:      1.0,
		satisfied: func(f *FeatureVector) bool {
			return f.SpectralCentroidStd < 200
		},
	},
	{
		name:        "mfcc_variance",
		description: "cepstral envelope is unnaturally stable across frames",
		weight:      1.0,
		satisfied: func(f *FeatureVector) bool {
			return meanOf(f.MFCCStd) < 15
		},
	},
	{
		name:        "zcr_consistency",
		description: "zero-crossing rate shows too little frame-to-frame spread",
		weight:      1.0,
		satisfied: func(f *FeatureVector) bool {
			return f.ZCRStd < 0.02
		},
	},
	{
		name:        "pitch_consistency",
		description: "voiced pitch track is flatter than natural prosody",
		weight:      1.0,
		satisfied: func(f *FeatureVector) bool {
			return f.PitchStd < 20 && f.PitchMean > 0
		},
	},
	{
		name:        "spectral_flatness",
		description: "spectrum is noise-like overall or its flatness barely moves",
		weight:      0.5,
		satisfied: func(f *FeatureVector) bool {
			return f.SpectralFlatnessMean > 0.3 || f.SpectralFlatnessStd < 0.05
		},
	},
	{
		name:        "rms_consistency",
		description: "loudness envelope lacks the dynamics of live speech",
		weight:      0.5,
		satisfied: func(f *FeatureVector) bool {
			return f.RMSStd < 0.01
		},
	},
	{
		name:        "spectral_contrast",
		description: "peak-to-valley spectral contrast is amplified beyond natural voice",
		weight:      0.5,
		satisfied: func(f *FeatureVector) bool {
			return f.SpectralContrastMean > 25
		},
	},
	{
		name:        "mel_uniformity",
		description: "mel band energies are distributed too uniformly",
		weight:      0.5,
		satisfied: func(f *FeatureVector) bool {
			return f.MelSpecStd < 5
		},
	},
	{
		name:        "pitch_range",
		description: "voiced pitch stays inside a narrow band",
		weight:      0.5,
		satisfied: func(f *FeatureVector) bool {
			return f.PitchRange < 50 && f.PitchMean > 0
		},
	},
}

// languageFactors compensates for how much natural prosodic variation each
// supported language shows. The factor multiplies the raw battery score.
var languageFactors = map[Language]float64{
	LanguageTamil:     0.95,
	LanguageEnglish:   1.00,
	LanguageHindi:     0.98,
	LanguageMalayalam: 0.96,
	LanguageTelugu:    0.97,
}

// Classifier scores feature vectors with one fixed battery profile. It is
// immutable after construction and safe for concurrent use.
type Classifier struct {
	profile     BatteryProfile
	checks      []batteryCheck
	totalWeight float64
}

// NewClassifier builds a classifier for the given profile. Profiles are
// never mixed: a reduced deployment runs the reduced battery for every
// request it serves.
func NewClassifier(profile BatteryProfile) (*Classifier, error) {
	var checks []batteryCheck
	switch profile {
	case BatteryFull:
		checks = fullBattery
	case BatteryReduced:
		checks = fullBattery[:4]
	case BatteryMinimal:
		checks = fullBattery[:3]
	default:
		return nil, fmt.Errorf("unknown battery profile %q", profile)
	}

	var total float64
	for _, check := range checks {
		total += check.weight
	}

	return &Classifier{
		profile:     profile,
		checks:      checks,
		totalWeight: total,
	}, nil
}

// Profile returns the battery profile this classifier runs.
func (c *Classifier) Profile() BatteryProfile {
	return c.profile
}

// CheckCount returns how many checks the active battery evaluates.
func (c *Classifier) CheckCount() int {
	return len(c.checks)
}

// Classify scores features and returns the label and rounded confidence.
// It never fails on a well-formed vector.
func (c *Classifier) Classify(features *FeatureVector, language Language) Classification {
	var satisfiedWeight float64
	for _, check := range c.checks {
		if check.satisfied(features) {
			satisfiedWeight += check.weight
		}
	}

	raw := satisfiedWeight / c.totalWeight
	adjusted := raw * LanguageFactor(language)

	var label Label
	var confidence float64
	if adjusted >= 0.5 {
		label = LabelAIGenerated
		confidence = math.Min(adjusted, 1.0)
	} else {
		label = LabelHuman
		confidence = math.Min(1.0-adjusted, 1.0)
	}

	return Classification{
		Label:      label,
		Confidence: roundConfidence(clamp01(confidence)),
	}
}

// CheckResult reports one battery check's outcome for a vector. The serving
// layer exposes these for explanations and diagnostics; they carry no weight
// in the classification contract itself.
type CheckResult struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Satisfied   bool    `json:"satisfied"`
}

// CheckResults evaluates every check in the active battery against features.
func (c *Classifier) CheckResults(features *FeatureVector) []CheckResult {
	results := make([]CheckResult, len(c.checks))
	for i, check := range c.checks {
		results[i] = CheckResult{
			Name:        check.name,
			Description: check.description,
			Weight:      check.weight,
			Satisfied:   check.satisfied(features),
		}
	}
	return results
}

// Battery lists the active checks without evaluating them, for diagnostic
// listings. Satisfied is left false.
func (c *Classifier) Battery() []CheckResult {
	results := make([]CheckResult, len(c.checks))
	for i, check := range c.checks {
		results[i] = CheckResult{
			Name:        check.name,
			Description: check.description,
			Weight:      check.weight,
		}
	}
	return results
}

// LanguageFactor returns the score multiplier for language. Unknown values
// fall back to 1.0 so an unrecognized tag can only make the score more
// conservative, never inflate it.
func LanguageFactor(language Language) float64 {
	if factor, ok := languageFactors[language]; ok {
		return factor
	}
	return 1.0
}

// ConfidenceBand buckets a confidence value for human-facing output.
func ConfidenceBand(confidence float64) string {
	switch {
	case confidence >= 0.85:
		return "high"
	case confidence >= 0.65:
		return "medium"
	default:
		return "low"
	}
}

// roundConfidence rounds to the four decimal places the output contract
// promises.
func roundConfidence(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
