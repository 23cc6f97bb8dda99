package voice

// Core Data Model
//
// Three immutable values flow through a detection, in one direction only:
//
//	AudioSignal -> FeatureVector -> Classification
//
// An AudioSignal is decoded PCM audio. A FeatureVector is the fixed set of
// acoustic statistics the heuristic battery scores against. A Classification
// is the final verdict. Every value is built once, fully, then only read;
// nothing outlives the detection call that produced it.

import (
	"fmt"
	"sort"
)

// AudioSignal is mono PCM audio ready for feature extraction. Samples are in
// [-1, 1] and the duration has already been capped to the analysis window.
type AudioSignal struct {
	Samples    []float64
	SampleRate int
	Duration   float64
	SNRDb      float64
}

// Language is one of the five supported target languages.
type Language string

const (
	LanguageTamil     Language = "tamil"
	LanguageEnglish   Language = "english"
	LanguageHindi     Language = "hindi"
	LanguageMalayalam Language = "malayalam"
	LanguageTelugu    Language = "telugu"
)

// ParseLanguage validates a wire-level language tag.
func ParseLanguage(value string) (Language, error) {
	lang := Language(value)
	if _, ok := languageFactors[lang]; !ok {
		return "", fmt.Errorf("unsupported language %q, must be one of %v", value, SupportedLanguages())
	}
	return lang, nil
}

// SupportedLanguages lists the valid language tags in stable order.
func SupportedLanguages() []Language {
	languages := make([]Language, 0, len(languageFactors))
	for lang := range languageFactors {
		languages = append(languages, lang)
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i] < languages[j] })
	return languages
}

// Label is the detection verdict.
type Label string

const (
	LabelAIGenerated Label = "AI_GENERATED"
	LabelHuman       Label = "HUMAN"
)

// Classification pairs a verdict with its confidence, rounded to four
// decimal places.
type Classification struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"`
}

// FeatureVector is the fixed acoustic profile of one AudioSignal. Field
// names mirror the statistics they hold; every field is finite, with 0.0
// (or a zero vector) substituted when a feature group could not be
// computed.
type FeatureVector struct {
	SpectralCentroidMean  float64 `json:"spectral_centroid_mean"`
	SpectralCentroidStd   float64 `json:"spectral_centroid_std"`
	SpectralRolloffMean   float64 `json:"spectral_rolloff_mean"`
	SpectralBandwidthMean float64 `json:"spectral_bandwidth_mean"`
	SpectralContrastMean  float64 `json:"spectral_contrast_mean"`
	SpectralFlatnessMean  float64 `json:"spectral_flatness_mean"`
	SpectralFlatnessStd   float64 `json:"spectral_flatness_std"`

	MFCCMean []float64 `json:"mfcc_mean"`
	MFCCStd  []float64 `json:"mfcc_std"`

	ZCRMean float64 `json:"zcr_mean"`
	ZCRStd  float64 `json:"zcr_std"`
	RMSMean float64 `json:"rms_mean"`
	RMSStd  float64 `json:"rms_std"`

	PitchMean  float64 `json:"pitch_mean"`
	PitchStd   float64 `json:"pitch_std"`
	PitchRange float64 `json:"pitch_range"`

	OnsetStrengthMean float64 `json:"onset_strength_mean"`
	ChromaMean        float64 `json:"chroma_mean"`
	MelSpecMean       float64 `json:"mel_spec_mean"`
	MelSpecStd        float64 `json:"mel_spec_std"`
}

// Count returns the number of individual feature values in the vector,
// counting each MFCC coefficient separately. Reported to callers as
// features_extracted metadata.
func (f *FeatureVector) Count() int {
	const scalars = 18
	return scalars + len(f.MFCCMean) + len(f.MFCCStd)
}
