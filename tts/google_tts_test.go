package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"voice-detection/voice"
)

func TestSynthesize(t *testing.T) {
	t.Parallel()

	audio := []byte("RIFF fake wav payload")
	var captured synthesizeRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected api key in query, got %q", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString(audio),
		})
	}))
	defer server.Close()

	client := &Client{apiKey: "test-key", baseURL: server.URL, client: &http.Client{Timeout: time.Second}}
	got, err := client.Synthesize(t.Context(), "vanakkam", VoiceFor(voice.LanguageTamil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(got) != string(audio) {
		t.Errorf("audio bytes did not round-trip")
	}
	if captured.Input.Text != "vanakkam" {
		t.Errorf("expected text to be forwarded, got %q", captured.Input.Text)
	}
	if captured.Voice.LanguageCode != "ta-IN" {
		t.Errorf("expected ta-IN voice, got %q", captured.Voice.LanguageCode)
	}
	if captured.AudioConfig.AudioEncoding != "LINEAR16" {
		t.Errorf("expected LINEAR16 encoding, got %q", captured.AudioConfig.AudioEncoding)
	}
	if captured.AudioConfig.SampleRateHertz != SampleRate {
		t.Errorf("expected %d Hz, got %d", SampleRate, captured.AudioConfig.SampleRateHertz)
	}
}

func TestSynthesizeAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := &Client{apiKey: "test-key", baseURL: server.URL, client: &http.Client{Timeout: time.Second}}
	if _, err := client.Synthesize(t.Context(), "hello", VoiceFor(voice.LanguageEnglish)); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestVoiceFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		language voice.Language
		code     string
	}{
		{voice.LanguageTamil, "ta-IN"},
		{voice.LanguageHindi, "hi-IN"},
		{voice.LanguageMalayalam, "ml-IN"},
		{voice.LanguageTelugu, "te-IN"},
		{voice.LanguageEnglish, "en-IN"},
		{voice.Language("french"), "en-IN"},
	}
	for _, tt := range tests {
		if got := VoiceFor(tt.language); got.LanguageCode != tt.code {
			t.Errorf("VoiceFor(%s) = %s, want %s", tt.language, got.LanguageCode, tt.code)
		}
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(""); err == nil {
		t.Fatal("expected an error for a missing api key")
	}
}
