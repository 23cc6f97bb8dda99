package dsp

// Short-Time Fourier Transform
//
// A Spectrogram slices the signal into overlapping frames, applies a Hann
// window to each frame and computes the magnitude spectrum per frame. The
// result is a time × frequency matrix that the feature extractor reduces
// into per-frame statistics.
//
// Frame geometry follows the common speech-analysis defaults: 2048-sample
// windows with a 512-sample hop (75% overlap). Signals shorter than one
// window are zero-padded into a single frame.

import (
	"math/cmplx"
)

const (
	// DefaultFrameSize is the STFT window length in samples.
	DefaultFrameSize = 2048
	// DefaultHopSize is the step between consecutive frames in samples.
	DefaultHopSize = 512
)

// Spectrogram holds per-frame magnitude spectra and the geometry needed to
// map bins back to frequencies.
type Spectrogram struct {
	Magnitudes [][]float64 // frame -> bin -> magnitude
	FrameSize  int
	HopSize    int
	SampleRate int
}

// ComputeSpectrogram slices samples into overlapping Hann-windowed frames and
// returns the magnitude spectrum of each frame. Only the non-redundant half
// of each spectrum (frameSize/2 bins) is kept.
func ComputeSpectrogram(samples []float64, sampleRate int) *Spectrogram {
	return ComputeSpectrogramWith(samples, sampleRate, DefaultFrameSize, DefaultHopSize)
}

// ComputeSpectrogramWith is ComputeSpectrogram with explicit frame geometry.
func ComputeSpectrogramWith(samples []float64, sampleRate, frameSize, hopSize int) *Spectrogram {
	if frameSize <= 0 {
		frameSize = DefaultFrameSize
	}
	if hopSize <= 0 {
		hopSize = DefaultHopSize
	}
	frameSize = NextPowerOfTwo(frameSize)

	frameCount := 1
	if len(samples) > frameSize {
		frameCount = 1 + (len(samples)-frameSize)/hopSize
	}

	binCount := frameSize / 2
	magnitudes := make([][]float64, frameCount)
	buffer := make([]float64, frameSize)

	for frame := 0; frame < frameCount; frame++ {
		start := frame * hopSize
		for i := range buffer {
			if start+i < len(samples) {
				buffer[i] = samples[start+i]
			} else {
				buffer[i] = 0
			}
		}
		ApplyHannWindow(buffer)

		spectrum := FFT(buffer)
		row := make([]float64, binCount)
		for bin := 0; bin < binCount; bin++ {
			row[bin] = cmplx.Abs(spectrum[bin])
		}
		magnitudes[frame] = row
	}

	return &Spectrogram{
		Magnitudes: magnitudes,
		FrameSize:  frameSize,
		HopSize:    hopSize,
		SampleRate: sampleRate,
	}
}

// Frames returns the number of time frames.
func (s *Spectrogram) Frames() int {
	return len(s.Magnitudes)
}

// Bins returns the number of frequency bins per frame.
func (s *Spectrogram) Bins() int {
	if len(s.Magnitudes) == 0 {
		return 0
	}
	return len(s.Magnitudes[0])
}

// BinFrequency returns the center frequency in Hz of the given bin.
func (s *Spectrogram) BinFrequency(bin int) float64 {
	return float64(bin) * float64(s.SampleRate) / float64(s.FrameSize)
}

// FrequencyBin returns the bin index closest to the given frequency.
func (s *Spectrogram) FrequencyBin(freq float64) int {
	bin := int(freq * float64(s.FrameSize) / float64(s.SampleRate))
	if bin < 0 {
		bin = 0
	}
	if bin >= s.Bins() {
		bin = s.Bins() - 1
	}
	return bin
}

// Power returns the power spectrum (squared magnitudes) of frame t.
func (s *Spectrogram) Power(t int) []float64 {
	row := s.Magnitudes[t]
	power := make([]float64, len(row))
	for i, mag := range row {
		power[i] = mag * mag
	}
	return power
}
