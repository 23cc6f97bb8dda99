package detect

import (
	"context"
	"encoding/base64"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"voice-detection/metrics"
	"voice-detection/voice"
	"voice-detection/wav"
)

func newTestService(t *testing.T, opts Options) (*Service, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	opts.Metrics = m
	service, err := NewService(opts)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service, m
}

// stubDecoder ignores the input bytes and returns a fixed tone.
func stubDecoder(freq float64) Decoder {
	return func(data []byte, opts voice.DecodeOptions) (*voice.AudioSignal, error) {
		samples := make([]float64, 22050)
		for i := range samples {
			samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/22050)
		}
		return &voice.AudioSignal{
			Samples:    samples,
			SampleRate: 22050,
			Duration:   1.0,
			SNRDb:      0,
		}, nil
	}
}

func TestDetectBase64(t *testing.T) {
	t.Parallel()

	service, m := newTestService(t, Options{})
	service.decode = stubDecoder(440)

	payload := []byte("encoded-audio-bytes")
	result, err := service.DetectBase64(context.Background(), base64.StdEncoding.EncodeToString(payload), voice.LanguageTamil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Label != voice.LabelAIGenerated && result.Label != voice.LabelHuman {
		t.Errorf("unexpected label %q", result.Label)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		t.Errorf("confidence %v out of range", result.Confidence)
	}
	if result.Language != voice.LanguageTamil {
		t.Errorf("expected language tamil, got %s", result.Language)
	}
	if len(result.Checks) != 9 {
		t.Errorf("expected 9 check results, got %d", len(result.Checks))
	}

	if got := result.Metadata["input_type"]; got != "base64" {
		t.Errorf("expected input_type base64, got %v", got)
	}
	if got := result.Metadata["audio_size_bytes"]; got != len(payload) {
		t.Errorf("expected audio_size_bytes %d, got %v", len(payload), got)
	}
	if got := result.Metadata["features_extracted"]; got != 58 {
		t.Errorf("expected 58 features, got %v", got)
	}
	if got := result.Metadata["model_version"]; got != ModelVersion {
		t.Errorf("expected model version %q, got %v", ModelVersion, got)
	}
	if _, present := result.Metadata["source_url"]; present {
		t.Error("source_url must be absent for base64 input")
	}

	counted := testutil.ToFloat64(m.DetectionsTotal.WithLabelValues(string(result.Label), "tamil"))
	if counted != 1 {
		t.Errorf("expected 1 counted detection, got %v", counted)
	}
}

func TestDetectBase64RejectsInvalidEncoding(t *testing.T) {
	t.Parallel()

	service, m := newTestService(t, Options{})

	_, err := service.DetectBase64(context.Background(), "!!!definitely not base64!!!", voice.LanguageEnglish)
	var decodeErr *voice.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if !voice.IsClientFault(err) {
		t.Error("invalid base64 is a client fault")
	}

	failures := testutil.ToFloat64(m.DecodeFailures.WithLabelValues("invalid base64 encoding"))
	if failures != 1 {
		t.Errorf("expected 1 recorded decode failure, got %v", failures)
	}
}

func TestDetectPropagatesDecodeFailure(t *testing.T) {
	t.Parallel()

	service, m := newTestService(t, Options{})
	service.decode = func(data []byte, opts voice.DecodeOptions) (*voice.AudioSignal, error) {
		return nil, &voice.DecodeError{Reason: "unsupported or corrupt audio container"}
	}

	_, err := service.detect(context.Background(), []byte{1, 2, 3}, voice.LanguageHindi, "base64", "")
	if !voice.IsClientFault(err) {
		t.Fatalf("expected a client fault, got %v", err)
	}

	failures := testutil.ToFloat64(m.DecodeFailures.WithLabelValues("unsupported or corrupt audio container"))
	if failures != 1 {
		t.Errorf("expected 1 recorded decode failure, got %v", failures)
	}
}

func TestDetectDeterministic(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t, Options{})
	service.decode = stubDecoder(330)

	encoded := base64.StdEncoding.EncodeToString([]byte("same bytes"))
	first, err := service.DetectBase64(context.Background(), encoded, voice.LanguageMalayalam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := service.DetectBase64(context.Background(), encoded, voice.LanguageMalayalam)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Label != second.Label || first.Confidence != second.Confidence {
		t.Fatalf("detection drifted: %s/%v vs %s/%v",
			first.Label, first.Confidence, second.Label, second.Confidence)
	}
}

func TestDetectBlocksWhenPoolIsFull(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t, Options{MaxConcurrent: 1})

	entered := make(chan struct{})
	release := make(chan struct{})
	service.decode = func(data []byte, opts voice.DecodeOptions) (*voice.AudioSignal, error) {
		entered <- struct{}{}
		<-release
		return stubDecoder(440)(data, opts)
	}

	done := make(chan error, 1)
	go func() {
		_, err := service.detect(context.Background(), []byte("a"), voice.LanguageEnglish, "base64", "")
		done <- err
	}()
	<-entered

	// The only slot is held, so a second detection must give up with its
	// context instead of running.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := service.detect(ctx, []byte("b"), voice.LanguageEnglish, "base64", "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded while pool is full, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first detection should complete cleanly: %v", err)
	}
}

func TestDetectFromURL(t *testing.T) {
	t.Parallel()

	samples := make([]float64, 22050)
	for i := range samples {
		samples[i] = 0.4 * math.Sin(2*math.Pi*440*float64(i)/22050)
	}
	wavBytes, err := wav.EncodeSamples(samples, 22050)
	if err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wavBytes)
	}))
	defer server.Close()

	service, _ := newTestService(t, Options{
		Decode: voice.DecodeOptions{TargetSampleRate: 22050},
	})

	result, err := service.DetectFromURL(context.Background(), server.URL+"/clip.wav", voice.LanguageTelugu)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Metadata["input_type"]; got != "url" {
		t.Errorf("expected input_type url, got %v", got)
	}
	if got := result.Metadata["source_url"]; got != server.URL+"/clip.wav" {
		t.Errorf("expected source_url to round-trip, got %v", got)
	}
}

func TestDetectFromURLFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	service, _ := newTestService(t, Options{})

	tests := []struct {
		name string
		url  string
	}{
		{"missing resource", server.URL + "/absent.mp3"},
		{"bad scheme", "ftp://example.com/clip.mp3"},
		{"no host", "http://"},
	}

	for _, tt := range tests {
		_, err := service.DetectFromURL(context.Background(), tt.url, voice.LanguageEnglish)
		if !voice.IsClientFault(err) {
			t.Errorf("%s: expected a client fault, got %v", tt.name, err)
		}
	}
}

type staticExplainer struct {
	text string
	err  error
}

func (e staticExplainer) Explain(ctx context.Context, input ExplainInput) (string, error) {
	return e.text, e.err
}

func TestDetectAttachesExplanation(t *testing.T) {
	t.Parallel()

	service, m := newTestService(t, Options{
		Explainer: staticExplainer{text: "the pitch track barely moves"},
	})
	service.decode = stubDecoder(440)

	result, err := service.detect(context.Background(), []byte("x"), voice.LanguageEnglish, "base64", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Explanation != "the pitch track barely moves" {
		t.Errorf("expected explanation to be attached, got %q", result.Explanation)
	}
	if got := testutil.ToFloat64(m.ExplanationRequests.WithLabelValues("success")); got != 1 {
		t.Errorf("expected 1 successful explanation, got %v", got)
	}
}

func TestDetectSurvivesExplainerFailure(t *testing.T) {
	t.Parallel()

	service, m := newTestService(t, Options{
		Explainer: staticExplainer{err: errors.New("quota exhausted")},
	})
	service.decode = stubDecoder(440)

	result, err := service.detect(context.Background(), []byte("x"), voice.LanguageEnglish, "base64", "")
	if err != nil {
		t.Fatalf("explainer failures must not fail detections: %v", err)
	}
	if result.Explanation != "" {
		t.Errorf("expected no explanation, got %q", result.Explanation)
	}
	if got := testutil.ToFloat64(m.ExplanationRequests.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 failed explanation, got %v", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	if got := FormatTimestamp(ts); got != "2025-03-14T09:26:53.589793Z" {
		t.Errorf("unexpected timestamp format: %q", got)
	}
}
