package explain

// Detection Explanations
//
// Explainer turns a finished classification into a short natural-language
// rationale using Gemini. Explanations are presentation only: the label and
// confidence are computed before the model is consulted and are never
// altered by what it returns.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"voice-detection/detect"
	"voice-detection/voice"
)

const DefaultModel = "gemini-1.5-flash"

const DefaultTimeout = 10 * time.Second

const systemPrompt = `You are the explanation layer of a voice analysis service that screens short
audio clips for synthetic speech. You receive the verdict and the acoustic
measurements that produced it. Restate the verdict in plain language and point
at the two or three strongest pieces of evidence. Do not second-guess the
verdict, do not mention internal thresholds or check names, and keep the
answer under 80 words.`

type Explainer struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

func NewExplainer(ctx context.Context, apiKey, modelName string, timeout time.Duration) (*Explainer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	model.SetTemperature(0.4)
	model.SetMaxOutputTokens(200)

	return &Explainer{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// Explain generates a rationale for one detection. It never runs longer than
// the configured timeout.
func (e *Explainer) Explain(ctx context.Context, input detect.ExplainInput) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.model.GenerateContent(ctx, genai.Text(BuildPrompt(input)))
	if err != nil {
		return "", fmt.Errorf("failed to generate explanation: %v", err)
	}

	text := firstText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned no text candidates")
	}

	cleanText := strings.ReplaceAll(text, "*", "")
	return strings.TrimSpace(cleanText), nil
}

func (e *Explainer) Close() error {
	return e.client.Close()
}

// BuildPrompt renders the detection outcome as the user turn of the chat.
func BuildPrompt(input detect.ExplainInput) string {
	verdict := "natural human speech"
	if input.Label == voice.LabelAIGenerated {
		verdict = "AI-generated speech"
	}

	var signals []string
	var counterSignals []string
	for _, check := range input.Checks {
		if check.Satisfied {
			signals = append(signals, check.Description)
		} else {
			counterSignals = append(counterSignals, check.Description)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Verdict: %s (confidence %.2f, language %s).\n", verdict, input.Confidence, input.Language)
	if len(signals) > 0 {
		fmt.Fprintf(&b, "Synthetic markers observed: %s.\n", strings.Join(signals, "; "))
	} else {
		b.WriteString("Synthetic markers observed: none.\n")
	}
	if len(counterSignals) > 0 {
		fmt.Fprintf(&b, "Natural markers observed: %s.\n", strings.Join(counterSignals, "; "))
	}
	b.WriteString("Explain this verdict to the person who uploaded the clip.")
	return b.String()
}

func firstText(resp *genai.GenerateContentResponse) string {
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok && text != "" {
				return string(text)
			}
		}
	}
	return ""
}
