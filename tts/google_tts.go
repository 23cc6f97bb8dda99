package tts

// Synthetic Speech Fixtures
//
// Client drives the Google Cloud Text-to-Speech REST API to produce clips
// that are machine speech by construction. The calibration tooling runs
// these through the detector to measure how often the battery flags them;
// nothing in the serving path depends on this package.

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"voice-detection/voice"
)

const synthesizeURL = "https://texttospeech.googleapis.com/v1/text:synthesize"

// SampleRate matches the detector's analysis rate so synthesized WAVs take
// the direct decode path.
const SampleRate = 22050

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Voice selects the synthesis voice for one language.
type Voice struct {
	LanguageCode string
	Name         string
	SsmlGender   string
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name,omitempty"`
		SsmlGender   string `json:"ssmlGender"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding   string `json:"audioEncoding"`
		SampleRateHertz int    `json:"sampleRateHertz,omitempty"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google tts api key is required")
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: synthesizeURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("GOOGLE_TTS_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_TTS_API_KEY environment variable is required")
	}
	return NewClient(apiKey)
}

// VoiceFor maps a detection language to a synthesis voice. Unknown languages
// fall back to the English voice.
func VoiceFor(language voice.Language) Voice {
	switch language {
	case voice.LanguageTamil:
		return Voice{LanguageCode: "ta-IN", Name: "ta-IN-Standard-A", SsmlGender: "FEMALE"}
	case voice.LanguageHindi:
		return Voice{LanguageCode: "hi-IN", Name: "hi-IN-Standard-A", SsmlGender: "FEMALE"}
	case voice.LanguageMalayalam:
		return Voice{LanguageCode: "ml-IN", Name: "ml-IN-Standard-A", SsmlGender: "FEMALE"}
	case voice.LanguageTelugu:
		return Voice{LanguageCode: "te-IN", Name: "te-IN-Standard-A", SsmlGender: "FEMALE"}
	default:
		return Voice{LanguageCode: "en-IN", Name: "en-IN-Standard-A", SsmlGender: "FEMALE"}
	}
}

// Synthesize renders text as 16-bit PCM WAV bytes at SampleRate.
func (c *Client) Synthesize(ctx context.Context, text string, v Voice) ([]byte, error) {
	ttsReq := synthesizeRequest{}
	ttsReq.Input.Text = text
	ttsReq.Voice.LanguageCode = v.LanguageCode
	ttsReq.Voice.Name = v.Name
	ttsReq.Voice.SsmlGender = v.SsmlGender
	ttsReq.AudioConfig.AudioEncoding = "LINEAR16"
	ttsReq.AudioConfig.SampleRateHertz = SampleRate

	jsonData, err := json.Marshal(ttsReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TTS request: %v", err)
	}

	url := fmt.Sprintf("%s?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send TTS request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read TTS response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS API error: %s - %s", resp.Status, string(body))
	}

	var ttsResp synthesizeResponse
	if err := json.Unmarshal(body, &ttsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal TTS response: %v", err)
	}

	audioData, err := base64.StdEncoding.DecodeString(ttsResp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio content: %v", err)
	}

	return audioData, nil
}

// SynthesizeToFile writes one synthesized clip to path.
func (c *Client) SynthesizeToFile(ctx context.Context, text string, v Voice, path string) error {
	audioData, err := c.Synthesize(ctx, text, v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, audioData, 0644)
}
