package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"

	"voice-detection/voice"
)

// Test if the detection pipeline is deterministic: identical bytes must
// produce identical feature vectors and identical verdicts on every run.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run main.go <path-to-audio-file>")
	}

	testFile := os.Args[1]
	log.Printf("Testing determinism with: %s\n", testFile)

	data, err := os.ReadFile(testFile)
	if err != nil {
		log.Fatalf("Failed to read audio file: %v", err)
	}

	const numRuns = 5
	var featureSets []*voice.FeatureVector
	var verdicts []voice.Classification

	classifier, err := voice.NewClassifier(voice.BatteryFull)
	if err != nil {
		log.Fatalf("Failed to build classifier: %v", err)
	}

	for i := 0; i < numRuns; i++ {
		features, classification, err := runDetection(data, classifier)
		if err != nil {
			log.Fatalf("Run %d failed: %v", i+1, err)
		}
		featureSets = append(featureSets, features)
		verdicts = append(verdicts, classification)
		log.Printf("Run %d: result=%s confidence=%.10f pitch_mean=%.10f centroid_std=%.10f",
			i+1, classification.Label, classification.Confidence, features.PitchMean, features.SpectralCentroidStd)
	}

	fmt.Println("\n=== Feature Determinism Check ===")
	allIdentical := true
	maxDiff := 0.0

	reference, err := json.Marshal(featureSets[0])
	if err != nil {
		log.Fatalf("Failed to serialize features: %v", err)
	}
	for i := 1; i < numRuns; i++ {
		encoded, err := json.Marshal(featureSets[i])
		if err != nil {
			log.Fatalf("Failed to serialize features: %v", err)
		}
		if string(encoded) != string(reference) {
			allIdentical = false
			fmt.Printf("❌ Feature vector of run %d differs from run 1\n", i+1)
		}

		diffs := []float64{
			math.Abs(featureSets[0].PitchMean - featureSets[i].PitchMean),
			math.Abs(featureSets[0].SpectralCentroidStd - featureSets[i].SpectralCentroidStd),
			math.Abs(featureSets[0].ZCRStd - featureSets[i].ZCRStd),
			math.Abs(featureSets[0].MelSpecStd - featureSets[i].MelSpecStd),
		}
		for _, diff := range diffs {
			if diff > maxDiff {
				maxDiff = diff
			}
		}
	}

	if allIdentical {
		fmt.Println("✅ All runs produced IDENTICAL features (deterministic)")
	} else {
		fmt.Printf("❌ Feature extraction is NON-DETERMINISTIC (max sampled diff: %e)\n", maxDiff)
	}

	fmt.Println("\n=== Verdict Determinism Check ===")
	verdictsIdentical := true
	for i := 1; i < numRuns; i++ {
		if verdicts[i] != verdicts[0] {
			verdictsIdentical = false
			fmt.Printf("❌ Run %d verdict differs: %s/%.4f vs %s/%.4f\n",
				i+1, verdicts[i].Label, verdicts[i].Confidence, verdicts[0].Label, verdicts[0].Confidence)
		}
	}

	if verdictsIdentical {
		fmt.Printf("✅ All runs produced the same verdict: %s (confidence %.4f)\n",
			verdicts[0].Label, verdicts[0].Confidence)
	}
}

func runDetection(data []byte, classifier *voice.Classifier) (*voice.FeatureVector, voice.Classification, error) {
	signal, err := voice.Decode(data, voice.DefaultDecodeOptions())
	if err != nil {
		return nil, voice.Classification{}, fmt.Errorf("decode audio: %w", err)
	}

	features, err := voice.ExtractFeatures(context.Background(), signal)
	if err != nil {
		return nil, voice.Classification{}, fmt.Errorf("extract features: %w", err)
	}

	return features, classifier.Classify(features, voice.LanguageEnglish), nil
}
