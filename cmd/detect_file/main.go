package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"voice-detection/voice"
)

// Run one audio file through the full pipeline and show the per-check
// scoring the API never exposes.
func main() {
	profileFlag := flag.String("profile", "full", "Battery profile (full, reduced, minimal)")
	languageFlag := flag.String("language", "english", "Spoken language of the clip")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: go run . [-profile full|reduced|minimal] [-language <lang>] <audio-file>")
	}

	testFile := flag.Arg(0)
	language, err := voice.ParseLanguage(*languageFlag)
	if err != nil {
		log.Fatalf("Invalid language: %v", err)
	}

	classifier, err := voice.NewClassifier(voice.BatteryProfile(*profileFlag))
	if err != nil {
		log.Fatalf("Invalid profile: %v", err)
	}

	data, err := os.ReadFile(testFile)
	if err != nil {
		log.Fatalf("Failed to read audio file: %v", err)
	}

	fmt.Printf("=== Analyzing: %s ===\n\n", filepath.Base(testFile))

	signal, err := voice.Decode(data, voice.DefaultDecodeOptions())
	if err != nil {
		log.Fatalf("Decode error: %v", err)
	}

	fmt.Printf("📊 Signal:\n")
	fmt.Printf("   Sample rate: %d Hz\n", signal.SampleRate)
	fmt.Printf("   Duration:    %.2f s\n", signal.Duration)
	fmt.Printf("   SNR:         %.1f dB\n\n", signal.SNRDb)

	features, err := voice.ExtractFeatures(context.Background(), signal)
	if err != nil {
		log.Fatalf("Feature extraction error: %v", err)
	}

	fmt.Printf("🔍 Key Features:\n")
	fmt.Printf("   %-22s: %.4f\n", "spectral_centroid_std", features.SpectralCentroidStd)
	fmt.Printf("   %-22s: %.4f\n", "zcr_std", features.ZCRStd)
	fmt.Printf("   %-22s: %.4f\n", "pitch_mean", features.PitchMean)
	fmt.Printf("   %-22s: %.4f\n", "pitch_std", features.PitchStd)
	fmt.Printf("   %-22s: %.4f\n", "spectral_flatness_mean", features.SpectralFlatnessMean)
	fmt.Printf("   %-22s: %.4f\n", "rms_std", features.RMSStd)
	fmt.Println()

	fmt.Printf("🧪 Battery (%s):\n", classifier.Profile())
	var satisfiedWeight, totalWeight float64
	for _, check := range classifier.CheckResults(features) {
		mark := "  "
		if check.Satisfied {
			mark = "✅"
			satisfiedWeight += check.Weight
		}
		totalWeight += check.Weight
		fmt.Printf("   %s %-22s (weight %.1f) %s\n", mark, check.Name, check.Weight, check.Description)
	}
	fmt.Printf("   Raw score: %.4f (%.1f of %.1f weight satisfied)\n\n", satisfiedWeight/totalWeight, satisfiedWeight, totalWeight)

	classification := classifier.Classify(features, language)

	emoji := "🗣️"
	if classification.Label == voice.LabelAIGenerated {
		emoji = "🤖"
	}
	fmt.Printf("🎯 Verdict:\n")
	fmt.Printf("   %s %s\n", emoji, classification.Label)
	fmt.Printf("   Confidence: %.2f%% (language factor %s = %.2f)\n",
		classification.Confidence*100, language, voice.LanguageFactor(language))
}
