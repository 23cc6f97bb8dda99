package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"voice-detection/tts"
	"voice-detection/utils"
	"voice-detection/voice"

	"github.com/joho/godotenv"
)

// Phrases long enough to give the extractor a few seconds of speech.
var samplePhrases = map[voice.Language][]string{
	voice.LanguageEnglish: {
		"The weather today is pleasant and the streets are quiet after the morning rain.",
		"Please confirm your appointment for tomorrow afternoon at the downtown clinic.",
	},
	voice.LanguageTamil: {
		"இன்று வானிலை மிகவும் இனிமையாக உள்ளது, மாலை நேரத்தில் மழை பெய்யக்கூடும்.",
		"நாளை மதியம் உங்கள் சந்திப்பை உறுதிப்படுத்தவும்.",
	},
	voice.LanguageHindi: {
		"आज मौसम बहुत सुहावना है और शाम को बारिश हो सकती है।",
		"कृपया कल दोपहर की अपनी नियुक्ति की पुष्टि करें।",
	},
	voice.LanguageMalayalam: {
		"ഇന്ന് കാലാവസ്ഥ വളരെ സുഖകരമാണ്, വൈകുന്നേരം മഴ പെയ്യാൻ സാധ്യതയുണ്ട്.",
		"നാളെ ഉച്ചയ്ക്ക് നിങ്ങളുടെ കൂടിക്കാഴ്ച സ്ഥിരീകരിക്കുക.",
	},
	voice.LanguageTelugu: {
		"ఈ రోజు వాతావరణం చాలా ఆహ్లాదకరంగా ఉంది, సాయంత్రం వర్షం పడవచ్చు.",
		"రేపు మధ్యాహ్నం మీ అపాయింట్‌మెంట్‌ను నిర్ధారించండి.",
	},
}

// Build the ai/ side of a calibration corpus by synthesizing known machine
// speech in every supported language.
func main() {
	_ = godotenv.Load()

	outDir := flag.String("out", filepath.Join("calibration_data", "ai"), "Output directory for synthesized WAV files")
	flag.Parse()

	client, err := tts.NewClientFromEnv()
	if err != nil {
		log.Fatalf("Failed to build TTS client: %v", err)
	}

	if err := utils.CreateFolder(*outDir); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	ctx := context.Background()
	generated := 0

	for _, language := range voice.SupportedLanguages() {
		phrases := samplePhrases[language]
		v := tts.VoiceFor(language)

		for i, phrase := range phrases {
			path := filepath.Join(*outDir, fmt.Sprintf("%s_%02d.wav", language, i+1))
			if _, err := os.Stat(path); err == nil {
				log.Printf("Skipping %s (already exists)\n", path)
				continue
			}

			started := time.Now()
			if err := client.SynthesizeToFile(ctx, phrase, v, path); err != nil {
				log.Printf("WARNING: synthesis failed for %s sample %d: %v\n", language, i+1, err)
				continue
			}
			log.Printf("Wrote %s (%s voice, %s)\n", path, v.Name, time.Since(started).Round(time.Millisecond))
			generated++
		}
	}

	fmt.Printf("\nGenerated %d synthetic samples in %s\n", generated, *outDir)
	fmt.Println("Add human recordings under the sibling human/ directory, then run cmd/calibrate.")
}
