package explain

import (
	"context"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"

	"voice-detection/detect"
	"voice-detection/voice"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(detect.ExplainInput{
		Label:      voice.LabelAIGenerated,
		Confidence: 0.8731,
		Language:   voice.LanguageTamil,
		Checks: []voice.CheckResult{
			{Name: "spectral_consistency", Description: "unusually steady spectral centroid", Satisfied: true},
			{Name: "pitch_consistency", Description: "natural pitch movement", Satisfied: false},
		},
	})

	for _, want := range []string{
		"AI-generated speech",
		"0.87",
		"tamil",
		"unusually steady spectral centroid",
		"natural pitch movement",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptHumanVerdict(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(detect.ExplainInput{
		Label:      voice.LabelHuman,
		Confidence: 0.95,
		Language:   voice.LanguageEnglish,
	})

	if !strings.Contains(prompt, "natural human speech") {
		t.Errorf("expected human verdict wording:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Synthetic markers observed: none.") {
		t.Errorf("expected empty marker list to be spelled out:\n%s", prompt)
	}
}

func TestFirstText(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(""), genai.Text("the clip sounds synthetic")}}},
		},
	}

	if got := firstText(resp); got != "the clip sounds synthetic" {
		t.Errorf("unexpected text: %q", got)
	}
	if got := firstText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("expected empty text for empty response, got %q", got)
	}
}

func TestNewExplainerRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewExplainer(context.Background(), "", DefaultModel, DefaultTimeout); err == nil {
		t.Fatal("expected an error for a missing api key")
	}
}
