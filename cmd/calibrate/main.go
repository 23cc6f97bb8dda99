package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voice-detection/voice"
)

// CalibrationConfig holds calibration parameters
type CalibrationConfig struct {
	DataDir    string
	Language   string
	ReportPath string
	Verbose    bool
}

// ProfileMetrics tracks one battery profile's performance over the corpus
type ProfileMetrics struct {
	Profile        string  `json:"profile"`
	TotalSamples   int     `json:"total_samples"`
	CorrectCount   int     `json:"correct_count"`
	Accuracy       float64 `json:"accuracy"`
	AvgConfidence  float64 `json:"avg_confidence"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
}

// CalibrationReport is the JSON artifact written after a run
type CalibrationReport struct {
	Timestamp      time.Time        `json:"timestamp"`
	DataDir        string           `json:"data_dir"`
	Language       string           `json:"language"`
	Profiles       []ProfileMetrics `json:"profiles"`
	ProcessingTime time.Duration    `json:"processing_time"`
}

type labeledSample struct {
	path  string
	label voice.Label
}

// Calibrate measures battery accuracy against a labeled corpus laid out as
//
//	<data-dir>/ai/*.wav      clips known to be machine speech
//	<data-dir>/human/*.wav   clips known to be natural speech
//
// and reports accuracy for every battery profile so threshold regressions
// show up before a deploy.
func main() {
	config := parseFlags()

	language, err := voice.ParseLanguage(config.Language)
	if err != nil {
		log.Fatalf("Invalid language: %v", err)
	}

	samples, err := collectLabeledSamples(config.DataDir)
	if err != nil {
		log.Fatalf("Failed to collect samples: %v", err)
	}
	if len(samples) == 0 {
		log.Fatalf("No labeled audio found under %s (expected ai/ and human/ subdirectories)", config.DataDir)
	}

	log.Printf("Calibrating against %d labeled samples (language=%s)\n", len(samples), language)

	report := CalibrationReport{
		Timestamp: time.Now(),
		DataDir:   config.DataDir,
		Language:  string(language),
	}

	// Decode and extract once per file, then score every profile against
	// the same vectors.
	vectors := make([]*voice.FeatureVector, 0, len(samples))
	kept := make([]labeledSample, 0, len(samples))
	for _, sample := range samples {
		data, err := os.ReadFile(sample.path)
		if err != nil {
			log.Printf("WARNING: failed to read %s: %v\n", sample.path, err)
			continue
		}
		signal, err := voice.Decode(data, voice.DefaultDecodeOptions())
		if err != nil {
			log.Printf("WARNING: failed to decode %s: %v\n", sample.path, err)
			continue
		}
		features, err := voice.ExtractFeatures(context.Background(), signal)
		if err != nil {
			log.Printf("WARNING: failed to extract features from %s: %v\n", sample.path, err)
			continue
		}
		vectors = append(vectors, features)
		kept = append(kept, sample)
	}

	for _, profile := range []voice.BatteryProfile{voice.BatteryFull, voice.BatteryReduced, voice.BatteryMinimal} {
		classifier, err := voice.NewClassifier(profile)
		if err != nil {
			log.Fatalf("Failed to build classifier: %v", err)
		}

		metrics := ProfileMetrics{Profile: string(profile)}
		totalConfidence := 0.0

		for i, features := range vectors {
			classification := classifier.Classify(features, language)
			metrics.TotalSamples++
			totalConfidence += classification.Confidence

			if classification.Label == kept[i].label {
				metrics.CorrectCount++
			} else if classification.Label == voice.LabelAIGenerated {
				metrics.FalsePositives++
			} else {
				metrics.FalseNegatives++
			}

			if config.Verbose {
				mark := "✅"
				if classification.Label != kept[i].label {
					mark = "❌"
				}
				fmt.Printf("   %s [%s] %-40s %s (%.4f)\n",
					mark, profile, filepath.Base(kept[i].path), classification.Label, classification.Confidence)
			}
		}

		if metrics.TotalSamples > 0 {
			metrics.Accuracy = float64(metrics.CorrectCount) / float64(metrics.TotalSamples) * 100
			metrics.AvgConfidence = totalConfidence / float64(metrics.TotalSamples)
		}
		report.Profiles = append(report.Profiles, metrics)
	}

	report.ProcessingTime = time.Since(report.Timestamp)
	printReport(report)

	if config.ReportPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			log.Fatalf("Failed to serialize report: %v", err)
		}
		if err := os.WriteFile(config.ReportPath, data, 0644); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		log.Printf("Report saved to %s\n", config.ReportPath)
	}
}

func parseFlags() CalibrationConfig {
	var config CalibrationConfig

	flag.StringVar(&config.DataDir, "dir", "calibration_data",
		"Directory with ai/ and human/ subdirectories of audio files")
	flag.StringVar(&config.Language, "language", "english",
		"Language factor to apply during scoring")
	flag.StringVar(&config.ReportPath, "report", "calibration_report.json",
		"Path to save calibration report (empty to skip)")
	flag.BoolVar(&config.Verbose, "verbose", false,
		"Print a line per sample")

	flag.Parse()

	return config
}

func collectLabeledSamples(rootDir string) ([]labeledSample, error) {
	var samples []labeledSample

	labels := map[string]voice.Label{
		"ai":    voice.LabelAIGenerated,
		"human": voice.LabelHuman,
	}

	for dirName, label := range labels {
		classDir := filepath.Join(rootDir, dirName)
		entries, err := os.ReadDir(classDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			samples = append(samples, labeledSample{
				path:  filepath.Join(classDir, entry.Name()),
				label: label,
			})
		}
	}

	return samples, nil
}

func printReport(report CalibrationReport) {
	fmt.Println("\n=== Calibration Report ===")
	fmt.Printf("%-10s %10s %12s %8s %8s %8s\n", "Profile", "Accuracy", "Confidence", "Samples", "FalsePos", "FalseNeg")
	for _, m := range report.Profiles {
		status := ""
		if m.Accuracy < 70 {
			status = " ⚠️"
		}
		fmt.Printf("%-10s %9.2f%% %11.4f %8d %8d %8d%s\n",
			m.Profile, m.Accuracy, m.AvgConfidence, m.TotalSamples, m.FalsePositives, m.FalseNegatives, status)
	}
	fmt.Printf("\nProcessed in %s\n", report.ProcessingTime.Round(time.Millisecond))
}
