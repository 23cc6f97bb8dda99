package voice

// Audio Decoding Pipeline
//
// This file turns encoded audio bytes from a client into an AudioSignal
// ready for feature extraction:
//
// 1. Base64 Decoding: socket and REST clients send audio base64-encoded
// 2. Container Probe: input that is already a PCM16 WAV is parsed in memory
// 3. Conversion: anything else round-trips through ffmpeg into a mono
//    PCM16 WAV at the configured target rate
// 4. Sample Extraction: PCM bytes become float64 samples in [-1, 1]
// 5. Windowing: samples are truncated to the bounded analysis window
//
// Truncation happens here, at decode time. Downstream stages never see more
// than MaxDuration of samples.

import (
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"voice-detection/utils"
	"voice-detection/wav"
)

// DefaultMaxDuration is the analysis window cap applied when DecodeOptions
// does not override it.
const DefaultMaxDuration = 30 * time.Second

// DefaultTargetSampleRate is the sample rate audio is resampled to during
// conversion. The extractor works at any rate; fixing one keeps feature
// scales comparable across deployments.
const DefaultTargetSampleRate = 22050

// DecodeOptions bounds the decoding work done for a single request.
type DecodeOptions struct {
	// MaxDuration truncates the decoded signal. Zero means DefaultMaxDuration.
	MaxDuration time.Duration
	// TargetSampleRate resamples converted audio. Zero keeps the native rate
	// of the input.
	TargetSampleRate int
	// TempDir is where conversion inputs are staged. Empty means "tmp".
	TempDir string
}

// DefaultDecodeOptions returns the options used by the serving path.
func DefaultDecodeOptions() DecodeOptions {
	return DecodeOptions{
		MaxDuration:      DefaultMaxDuration,
		TargetSampleRate: DefaultTargetSampleRate,
	}
}

// DecodeBase64 decodes a base64 payload and then the audio inside it.
func DecodeBase64(encoded string, opts DecodeOptions) (*AudioSignal, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid base64 encoding", Err: err}
	}
	return Decode(data, opts)
}

// DecodeFile reads and decodes the audio file at path.
func DecodeFile(path string, opts DecodeOptions) (*AudioSignal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %v", err)
	}
	return Decode(data, opts)
}

// Decode converts encoded audio bytes into a mono AudioSignal, truncated to
// the analysis window. Inputs that are already PCM16 WAV files at an
// acceptable rate are parsed in memory; everything else is converted with
// ffmpeg.
func Decode(data []byte, opts DecodeOptions) (*AudioSignal, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Reason: "empty input"}
	}

	if info, err := wav.ParseWavBytes(data); err == nil {
		if opts.TargetSampleRate == 0 || info.SampleRate == opts.TargetSampleRate {
			if len(info.Data) == 0 {
				return nil, &EmptyAudioError{}
			}
			samples, err := wav.WavBytesToSamples(info.Data)
			if err != nil {
				return nil, &DecodeError{Reason: "corrupt PCM payload", Err: err}
			}
			samples = wav.DownmixToMono(samples, info.Channels)
			return buildSignal(samples, info.SampleRate, opts)
		}
	}

	return decodeViaFFmpeg(data, opts)
}

func decodeViaFFmpeg(data []byte, opts DecodeOptions) (*AudioSignal, error) {
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = "tmp"
	}
	if err := utils.CreateFolder(tempDir); err != nil {
		return nil, fmt.Errorf("unable to create tmp folder: %v", err)
	}

	inputPath := filepath.Join(tempDir, fmt.Sprintf("in_%d", time.Now().UnixNano()))
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to stage audio for conversion: %v", err)
	}
	defer os.Remove(inputPath)

	converted, err := wav.ConvertToWAV(inputPath, 1, opts.TargetSampleRate)
	if err != nil {
		return nil, &DecodeError{Reason: "unsupported or corrupt audio container", Err: err}
	}
	defer os.Remove(converted)

	info, err := wav.ReadWavInfo(converted)
	if err != nil {
		return nil, &DecodeError{Reason: "conversion produced an unreadable file", Err: err}
	}
	if len(info.Data) == 0 {
		return nil, &EmptyAudioError{}
	}

	samples, err := wav.WavBytesToSamples(info.Data)
	if err != nil {
		return nil, &DecodeError{Reason: "corrupt PCM payload", Err: err}
	}
	samples = wav.DownmixToMono(samples, info.Channels)

	return buildSignal(samples, info.SampleRate, opts)
}

func buildSignal(samples []float64, sampleRate int, opts DecodeOptions) (*AudioSignal, error) {
	if len(samples) == 0 {
		return nil, &EmptyAudioError{}
	}

	maxDuration := opts.MaxDuration
	if maxDuration <= 0 {
		maxDuration = DefaultMaxDuration
	}
	maxSamples := int(maxDuration.Seconds() * float64(sampleRate))
	if maxSamples > 0 && len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}

	return &AudioSignal{
		Samples:    samples,
		SampleRate: sampleRate,
		Duration:   float64(len(samples)) / float64(sampleRate),
		SNRDb:      EstimateSNR(samples),
	}, nil
}

// EstimateSNR estimates the signal-to-noise ratio in dB, assuming the first
// tenth of the recording is comparatively quiet. The value is informational
// metadata only and never feeds the classifier.
func EstimateSNR(samples []float64) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	noiseLength := len(samples) / 10
	if noiseLength < 512 {
		noiseLength = 512
	}
	if noiseLength > len(samples) {
		noiseLength = len(samples)
	}

	var noisePower float64
	for _, s := range samples[:noiseLength] {
		noisePower += s * s
	}
	noisePower /= float64(noiseLength)

	var signalPower float64
	for _, s := range samples {
		signalPower += s * s
	}
	signalPower /= float64(len(samples))

	if noisePower == 0 {
		return 100.0
	}

	snr := signalPower / noisePower
	if snr <= 0 {
		return -100.0
	}

	return 10.0 * math.Log10(snr)
}
