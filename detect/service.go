package detect

// Detection Orchestration
//
// Service ties the pipeline together for the transport layer:
//
//	decode -> extract features -> classify -> optional explanation
//
// Feature extraction is CPU-bound, so every detection first takes a slot
// from a fixed-size pool; requests beyond the pool block until a slot frees
// or their context expires. Decode and extraction failures surface as the
// voice package's typed errors so callers can map them to client or server
// faults. Results are returned, never stored.

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"voice-detection/metrics"
	"voice-detection/utils"
	"voice-detection/voice"
)

// DefaultMaxConcurrent is the worker pool size when Options does not set one.
const DefaultMaxConcurrent = 4

// ModelVersion identifies the heuristic battery revision reported in
// response metadata.
const ModelVersion = "1.0.0"

// Explainer produces a human-readable rationale for a finished detection.
type Explainer interface {
	Explain(ctx context.Context, input ExplainInput) (string, error)
}

// ExplainInput is everything an Explainer may reference.
type ExplainInput struct {
	Label      voice.Label
	Confidence float64
	Language   voice.Language
	Checks     []voice.CheckResult
}

// Decoder converts encoded audio bytes into a signal. It exists as a type so
// tests can substitute the real pipeline.
type Decoder func(data []byte, opts voice.DecodeOptions) (*voice.AudioSignal, error)

// Options configures a Service.
type Options struct {
	Profile       voice.BatteryProfile
	Extractor     voice.ExtractorConfig
	Decode        voice.DecodeOptions
	MaxConcurrent int
	Metrics       *metrics.Metrics
	Explainer     Explainer
}

// Service runs detections. It is safe for concurrent use.
type Service struct {
	classifier *voice.Classifier
	extractor  voice.ExtractorConfig
	decodeOpts voice.DecodeOptions
	decode     Decoder
	metrics    *metrics.Metrics
	explainer  Explainer
	fetcher    *fetcher
	slots      chan struct{}
	logger     *slog.Logger
}

// Result is one completed detection.
type Result struct {
	Label       voice.Label
	Confidence  float64
	Language    voice.Language
	Checks      []voice.CheckResult
	Explanation string
	SNRDb       float64
	Duration    float64
	LatencyMs   float64
	Timestamp   time.Time
	Metadata    map[string]interface{}
}

func NewService(opts Options) (*Service, error) {
	profile := opts.Profile
	if profile == "" {
		profile = voice.BatteryFull
	}
	classifier, err := voice.NewClassifier(profile)
	if err != nil {
		return nil, err
	}

	extractor := opts.Extractor
	defaults := voice.DefaultExtractorConfig()
	if extractor.MFCCCount <= 0 {
		extractor.MFCCCount = defaults.MFCCCount
	}
	if extractor.MelBands <= 0 {
		extractor.MelBands = defaults.MelBands
	}
	if extractor.MaxPitchFrames <= 0 {
		extractor.MaxPitchFrames = defaults.MaxPitchFrames
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}

	return &Service{
		classifier: classifier,
		extractor:  extractor,
		decodeOpts: opts.Decode,
		decode:     voice.Decode,
		metrics:    m,
		explainer:  opts.Explainer,
		fetcher:    newFetcher(),
		slots:      make(chan struct{}, maxConcurrent),
		logger:     utils.GetLogger(),
	}, nil
}

// Profile returns the battery profile the service classifies with.
func (s *Service) Profile() voice.BatteryProfile {
	return s.classifier.Profile()
}

// Battery lists the active battery's checks.
func (s *Service) Battery() []voice.CheckResult {
	return s.classifier.Battery()
}

// MaxDuration returns the analysis window cap.
func (s *Service) MaxDuration() time.Duration {
	if s.decodeOpts.MaxDuration > 0 {
		return s.decodeOpts.MaxDuration
	}
	return voice.DefaultMaxDuration
}

// DetectBase64 runs a detection on base64-encoded audio bytes.
func (s *Service) DetectBase64(ctx context.Context, encoded string, language voice.Language) (*Result, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		s.metrics.DecodeFailures.WithLabelValues("invalid base64 encoding").Inc()
		return nil, &voice.DecodeError{Reason: "invalid base64 encoding", Err: err}
	}
	return s.detect(ctx, data, language, "base64", "")
}

// DetectFile runs a detection on a local audio file.
func (s *Service) DetectFile(ctx context.Context, path string, language voice.Language) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %v", err)
	}
	return s.detect(ctx, data, language, "file", "")
}

// DetectFromURL downloads the audio at rawURL and runs a detection on it.
// Download problems are client faults: the bytes never reached the decoder.
func (s *Service) DetectFromURL(ctx context.Context, rawURL string, language voice.Language) (*Result, error) {
	data, contentType, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.metrics.DecodeFailures.WithLabelValues("download failed").Inc()
		return nil, &voice.DecodeError{Reason: "audio download failed", Err: err}
	}
	if !isAudioContentType(contentType) {
		s.logger.WarnContext(ctx, "downloaded content type is not audio",
			slog.String("contentType", contentType),
			slog.String("url", rawURL),
		)
	}
	return s.detect(ctx, data, language, "url", rawURL)
}

func (s *Service) detect(ctx context.Context, data []byte, language voice.Language, inputType, sourceURL string) (*Result, error) {
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s.metrics.ActiveDetections.Inc()
	defer func() {
		<-s.slots
		s.metrics.ActiveDetections.Dec()
	}()

	started := time.Now()

	signal, err := s.decode(data, s.decodeOpts)
	if err != nil {
		s.metrics.DecodeFailures.WithLabelValues(decodeFailureReason(err)).Inc()
		return nil, err
	}

	extractStarted := time.Now()
	features, err := voice.ExtractFeaturesWith(ctx, signal, s.extractor)
	if err != nil {
		return nil, err
	}
	s.metrics.ExtractionDuration.Observe(time.Since(extractStarted).Seconds())

	classification := s.classifier.Classify(features, language)
	checks := s.classifier.CheckResults(features)

	explanation := s.explain(ctx, classification, language, checks)

	latency := time.Since(started)
	s.metrics.DetectionDuration.Observe(latency.Seconds())
	s.metrics.DetectionsTotal.WithLabelValues(string(classification.Label), string(language)).Inc()

	s.logger.InfoContext(ctx, "detection complete",
		slog.String("result", string(classification.Label)),
		slog.Float64("confidence", classification.Confidence),
		slog.String("language", string(language)),
		slog.String("inputType", inputType),
		slog.Float64("latency_ms", latency.Seconds()*1000),
		slog.Float64("duration", signal.Duration),
	)

	metadata := map[string]interface{}{
		"audio_size_bytes":   len(data),
		"features_extracted": features.Count(),
		"model_version":      ModelVersion,
		"input_type":         inputType,
		"battery_profile":    string(s.classifier.Profile()),
		"duration_seconds":   signal.Duration,
		"snr_db":             signal.SNRDb,
	}
	if sourceURL != "" {
		metadata["source_url"] = sourceURL
	}

	return &Result{
		Label:       classification.Label,
		Confidence:  classification.Confidence,
		Language:    language,
		Checks:      checks,
		Explanation: explanation,
		SNRDb:       signal.SNRDb,
		Duration:    signal.Duration,
		LatencyMs:   latency.Seconds() * 1000,
		Timestamp:   time.Now().UTC(),
		Metadata:    metadata,
	}, nil
}

// explain asks the configured explainer for a rationale. Explanations are
// best effort: a failure is logged and the detection proceeds without one.
func (s *Service) explain(ctx context.Context, classification voice.Classification, language voice.Language, checks []voice.CheckResult) string {
	if s.explainer == nil {
		return ""
	}

	explanation, err := s.explainer.Explain(ctx, ExplainInput{
		Label:      classification.Label,
		Confidence: classification.Confidence,
		Language:   language,
		Checks:     checks,
	})
	if err != nil {
		s.metrics.ExplanationRequests.WithLabelValues("error").Inc()
		s.logger.WarnContext(ctx, "explanation generation failed", slog.Any("error", err))
		return ""
	}

	s.metrics.ExplanationRequests.WithLabelValues("success").Inc()
	return explanation
}

func decodeFailureReason(err error) string {
	var decodeErr *voice.DecodeError
	if errors.As(err, &decodeErr) {
		return decodeErr.Reason
	}
	var emptyErr *voice.EmptyAudioError
	if errors.As(err, &emptyErr) {
		return "empty audio"
	}
	return "internal"
}

// FormatTimestamp renders t the way the wire contract expects.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}
