package voice

// Feature Extraction Pipeline
//
// This file computes the fixed acoustic profile the heuristic battery scores
// against. The signal is partitioned into overlapping analysis frames
// (2048-sample Hann windows, 512-sample hop); every spectral feature derives
// from the per-frame magnitude spectrum, aggregated across frames by mean
// and standard deviation.
//
// Feature groups, each computed in isolation:
//
//   spectral  - centroid, rolloff, bandwidth, flatness, contrast
//   cepstral  - MFCC mean/std vectors (mel filterbank + log + DCT-II)
//   temporal  - zero-crossing rate and RMS energy statistics
//   pitch     - dominant-periodicity statistics over voiced frames
//   energy    - onset strength, chroma energy, mel spectrogram statistics
//
// Groups run concurrently and fail independently: a group whose computation
// degenerates leaves its documented zero defaults in place and never aborts
// the vector. The extractor raises FeatureComputationError only when the
// signal itself is unusable. For a fixed AudioSignal the output is
// bit-for-bit deterministic.

import (
	"context"
	"errors"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"voice-detection/dsp"
)

// ExtractorConfig selects the feature-set variant.
type ExtractorConfig struct {
	// MFCCCount is the number of cepstral coefficients retained: 20 for the
	// extended feature set, 13 for the lean one.
	MFCCCount int
	// MelBands is the mel filterbank size shared by the MFCC, onset and mel
	// statistics groups.
	MelBands int
	// MaxPitchFrames caps how many leading frames the pitch tracker visits.
	MaxPitchFrames int
}

// DefaultExtractorConfig returns the extended feature-set configuration used
// by the serving path.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MFCCCount:      20,
		MelBands:       dsp.DefaultMelBands,
		MaxPitchFrames: 100,
	}
}

// LeanExtractorConfig returns the 13-coefficient variant used by
// lower-fidelity deployments.
func LeanExtractorConfig() ExtractorConfig {
	cfg := DefaultExtractorConfig()
	cfg.MFCCCount = 13
	return cfg
}

// ExtractFeatures computes the feature vector for signal with the default
// configuration.
func ExtractFeatures(ctx context.Context, signal *AudioSignal) (*FeatureVector, error) {
	return ExtractFeaturesWith(ctx, signal, DefaultExtractorConfig())
}

// ExtractFeaturesWith computes the feature vector for signal. The only
// errors it returns are FeatureComputationError for an unusable signal and
// the context's error on cancellation.
func ExtractFeaturesWith(ctx context.Context, signal *AudioSignal, cfg ExtractorConfig) (*FeatureVector, error) {
	if signal == nil || len(signal.Samples) == 0 {
		return nil, &FeatureComputationError{Err: errors.New("no samples to analyze")}
	}
	if signal.SampleRate <= 0 {
		return nil, &FeatureComputationError{Err: errors.New("invalid sample rate")}
	}
	if cfg.MFCCCount <= 0 {
		cfg.MFCCCount = 20
	}
	if cfg.MelBands <= 0 {
		cfg.MelBands = dsp.DefaultMelBands
	}
	if cfg.MaxPitchFrames <= 0 {
		cfg.MaxPitchFrames = 100
	}

	spec := dsp.ComputeSpectrogram(signal.Samples, signal.SampleRate)
	filters := dsp.MelFilterbank(cfg.MelBands, spec.FrameSize, signal.SampleRate)
	melSpec := dsp.MelSpectrogram(spec, filters)

	features := &FeatureVector{
		MFCCMean: make([]float64, cfg.MFCCCount),
		MFCCStd:  make([]float64, cfg.MFCCCount),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runFeatureGroup(ctx, func() { extractSpectralGroup(spec, features) })
	})
	g.Go(func() error {
		return runFeatureGroup(ctx, func() { extractCepstralGroup(melSpec, cfg.MFCCCount, features) })
	})
	g.Go(func() error {
		return runFeatureGroup(ctx, func() { extractTemporalGroup(signal.Samples, spec.FrameSize, spec.HopSize, features) })
	})
	g.Go(func() error {
		return runFeatureGroup(ctx, func() { extractPitchGroup(spec, cfg.MaxPitchFrames, features) })
	})
	g.Go(func() error {
		return runFeatureGroup(ctx, func() { extractEnergyGroup(spec, melSpec, features) })
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sanitizeFeatures(features)
	return features, nil
}

// runFeatureGroup isolates one feature group: a panic inside fn leaves the
// group's zero defaults in place instead of failing the extraction.
func runFeatureGroup(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer func() {
		_ = recover()
	}()
	fn()
	return nil
}

func extractSpectralGroup(spec *dsp.Spectrogram, features *FeatureVector) {
	frames := spec.Frames()
	if frames == 0 {
		return
	}

	freqs := binFrequencies(spec)

	centroids := make([]float64, frames)
	rolloffs := make([]float64, frames)
	bandwidths := make([]float64, frames)
	flatnesses := make([]float64, frames)

	for t := 0; t < frames; t++ {
		magnitude := spec.Magnitudes[t]
		centroid := spectralCentroid(magnitude, freqs)
		centroids[t] = centroid
		rolloffs[t] = spectralRolloff(magnitude, freqs, 0.85)
		bandwidths[t] = spectralBandwidth(magnitude, freqs, centroid)
		flatnesses[t] = spectralFlatness(magnitude)
	}

	features.SpectralCentroidMean, features.SpectralCentroidStd = meanStd(centroids)
	features.SpectralRolloffMean, _ = meanStd(rolloffs)
	features.SpectralBandwidthMean, _ = meanStd(bandwidths)
	features.SpectralFlatnessMean, features.SpectralFlatnessStd = meanStd(flatnesses)
	features.SpectralContrastMean = spectralContrastMean(spec, freqs)
}

func extractCepstralGroup(melSpec [][]float64, numCoeffs int, features *FeatureVector) {
	if len(melSpec) == 0 {
		return
	}

	perCoeff := make([][]float64, numCoeffs)
	for c := range perCoeff {
		perCoeff[c] = make([]float64, len(melSpec))
	}

	for t, melRow := range melSpec {
		logMel := dsp.PowerToDb(melRow)
		coeffs := dsp.DCT2(logMel, numCoeffs)
		for c := 0; c < numCoeffs && c < len(coeffs); c++ {
			perCoeff[c][t] = coeffs[c]
		}
	}

	for c := 0; c < numCoeffs; c++ {
		features.MFCCMean[c], features.MFCCStd[c] = meanStd(perCoeff[c])
	}
}

func extractTemporalGroup(samples []float64, frameSize, hopSize int, features *FeatureVector) {
	if len(samples) == 0 {
		return
	}

	frameCount := 1
	if len(samples) > frameSize {
		frameCount = 1 + (len(samples)-frameSize)/hopSize
	}

	zcrs := make([]float64, frameCount)
	rmss := make([]float64, frameCount)

	for t := 0; t < frameCount; t++ {
		start := t * hopSize
		end := start + frameSize
		if end > len(samples) {
			end = len(samples)
		}
		frame := samples[start:end]
		zcrs[t] = zeroCrossingRate(frame)
		rmss[t] = rootMeanSquare(frame)
	}

	features.ZCRMean, features.ZCRStd = meanStd(zcrs)
	features.RMSMean, features.RMSStd = meanStd(rmss)
}

func extractPitchGroup(spec *dsp.Spectrogram, maxFrames int, features *FeatureVector) {
	frames := spec.Frames()
	if frames == 0 {
		return
	}
	if frames > maxFrames {
		frames = maxFrames
	}

	lowBin := spec.FrequencyBin(pitchFloorHz)
	highBin := spec.FrequencyBin(pitchCeilHz)
	if lowBin < 1 {
		lowBin = 1
	}
	if highBin <= lowBin {
		return
	}

	var pitches []float64
	for t := 0; t < frames; t++ {
		pitch := dominantPitch(spec, t, lowBin, highBin)
		if pitch > 0 {
			pitches = append(pitches, pitch)
		}
	}

	if len(pitches) == 0 {
		return
	}

	mean, std := meanStd(pitches)
	minPitch, maxPitch := pitches[0], pitches[0]
	for _, p := range pitches {
		if p < minPitch {
			minPitch = p
		}
		if p > maxPitch {
			maxPitch = p
		}
	}

	features.PitchMean = mean
	features.PitchStd = std
	features.PitchRange = maxPitch - minPitch
}

func extractEnergyGroup(spec *dsp.Spectrogram, melSpec [][]float64, features *FeatureVector) {
	if len(melSpec) == 0 {
		return
	}

	var all []float64
	for _, row := range melSpec {
		all = append(all, row...)
	}
	features.MelSpecMean, features.MelSpecStd = meanStd(all)

	features.OnsetStrengthMean = onsetStrengthMean(melSpec)
	features.ChromaMean = chromaMean(spec)
}

const (
	// Voiced speech fundamentals live well inside this window; bins outside
	// it are ignored by the pitch tracker.
	pitchFloorHz = 50.0
	pitchCeilHz  = 2000.0

	magnitudeFloor = 1e-10
)

// dominantPitch returns the interpolated frequency of the strongest bin in
// the voiced range of frame t, or 0 when the frame carries no energy there.
func dominantPitch(spec *dsp.Spectrogram, t, lowBin, highBin int) float64 {
	magnitude := spec.Magnitudes[t]
	peakBin := -1
	peakMag := magnitudeFloor
	for bin := lowBin; bin <= highBin && bin < len(magnitude); bin++ {
		if magnitude[bin] > peakMag {
			peakMag = magnitude[bin]
			peakBin = bin
		}
	}
	if peakBin < 0 {
		return 0
	}

	// Parabolic interpolation sharpens the estimate to sub-bin accuracy.
	offset := 0.0
	if peakBin > 0 && peakBin+1 < len(magnitude) {
		left := magnitude[peakBin-1]
		right := magnitude[peakBin+1]
		denom := left - 2*peakMag + right
		if denom != 0 {
			offset = 0.5 * (left - right) / denom
			if offset > 0.5 {
				offset = 0.5
			}
			if offset < -0.5 {
				offset = -0.5
			}
		}
	}

	return (float64(peakBin) + offset) * float64(spec.SampleRate) / float64(spec.FrameSize)
}

func zeroCrossingRate(frame []float64) float64 {
	if len(frame) <= 1 {
		return 0
	}
	var count float64
	for i := 1; i < len(frame); i++ {
		if frame[i-1] == 0 || frame[i] == 0 {
			continue
		}
		if (frame[i-1] > 0) != (frame[i] > 0) {
			count++
		}
	}
	return count / float64(len(frame))
}

func rootMeanSquare(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, v := range frame {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func spectralCentroid(magnitude, freqs []float64) float64 {
	var weightedSum float64
	var total float64
	for i := range magnitude {
		weightedSum += magnitude[i] * freqs[i]
		total += magnitude[i]
	}
	if total == 0 {
		return 0
	}
	return weightedSum / total
}

func spectralBandwidth(magnitude, freqs []float64, centroid float64) float64 {
	var variance float64
	var total float64
	for i := range magnitude {
		deviation := freqs[i] - centroid
		variance += magnitude[i] * deviation * deviation
		total += magnitude[i]
	}
	if total == 0 {
		return 0
	}
	return math.Sqrt(variance / total)
}

func spectralRolloff(magnitude, freqs []float64, threshold float64) float64 {
	if len(magnitude) == 0 {
		return 0
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.85
	}

	var total float64
	for _, mag := range magnitude {
		total += mag
	}
	if total == 0 {
		return 0
	}

	target := threshold * total
	var cumulative float64
	for i, mag := range magnitude {
		cumulative += mag
		if cumulative >= target {
			return freqs[i]
		}
	}

	return freqs[len(freqs)-1]
}

func spectralFlatness(magnitude []float64) float64 {
	if len(magnitude) == 0 {
		return 0
	}
	const eps = 1e-12
	var logSum float64
	var arithmetic float64

	for _, mag := range magnitude {
		value := mag + eps
		logSum += math.Log(value)
		arithmetic += value
	}

	count := float64(len(magnitude))
	geoMean := math.Exp(logSum / count)
	ariMean := arithmetic / count

	if ariMean == 0 {
		return 0
	}
	return geoMean / ariMean
}

// spectralContrastMean averages the peak-to-valley energy contrast, in dB,
// over octave sub-bands and frames. Band edges follow the usual 200 Hz
// octave ladder.
func spectralContrastMean(spec *dsp.Spectrogram, freqs []float64) float64 {
	edges := []float64{0, 200, 400, 800, 1600, 3200, 6400, float64(spec.SampleRate) / 2}

	var contrasts []float64
	for t := 0; t < spec.Frames(); t++ {
		power := spec.Power(t)
		for b := 0; b+1 < len(edges); b++ {
			band := bandPower(power, freqs, edges[b], edges[b+1])
			if len(band) == 0 {
				continue
			}
			contrasts = append(contrasts, bandContrastDb(band))
		}
	}

	mean, _ := meanStd(contrasts)
	return mean
}

func bandPower(power, freqs []float64, low, high float64) []float64 {
	var band []float64
	for i, f := range freqs {
		if f >= low && f < high {
			band = append(band, power[i])
		}
	}
	return band
}

// bandContrastDb compares the mean of the top energy quantile of a band
// against the mean of its bottom quantile.
func bandContrastDb(band []float64) float64 {
	sorted := append([]float64(nil), band...)
	sort.Float64s(sorted)

	quantile := len(sorted) / 50
	if quantile < 1 {
		quantile = 1
	}

	var valley, peak float64
	for i := 0; i < quantile; i++ {
		valley += sorted[i]
		peak += sorted[len(sorted)-1-i]
	}
	valley /= float64(quantile)
	peak /= float64(quantile)

	return 10.0 * (math.Log10(peak+magnitudeFloor) - math.Log10(valley+magnitudeFloor))
}

// onsetStrengthMean measures transient energy as the mean positive frame-to-
// frame flux of the log-mel spectrogram.
func onsetStrengthMean(melSpec [][]float64) float64 {
	if len(melSpec) < 2 {
		return 0
	}

	prev := dsp.PowerToDb(melSpec[0])
	var fluxes []float64
	for t := 1; t < len(melSpec); t++ {
		current := dsp.PowerToDb(melSpec[t])
		var flux float64
		for b := range current {
			if diff := current[b] - prev[b]; diff > 0 {
				flux += diff
			}
		}
		fluxes = append(fluxes, flux/float64(len(current)))
		prev = current
	}

	mean, _ := meanStd(fluxes)
	return mean
}

// chromaMean folds spectral energy into the twelve pitch classes, normalizes
// each frame by its strongest class and averages everything. Bins below the
// pitch floor carry no tonal information and are skipped.
func chromaMean(spec *dsp.Spectrogram) float64 {
	frames := spec.Frames()
	if frames == 0 {
		return 0
	}

	classes := make([]int, spec.Bins())
	for bin := range classes {
		classes[bin] = pitchClass(spec.BinFrequency(bin))
	}

	var total float64
	var count int
	chroma := make([]float64, 12)

	for t := 0; t < frames; t++ {
		for i := range chroma {
			chroma[i] = 0
		}
		power := spec.Power(t)
		for bin, class := range classes {
			if class < 0 {
				continue
			}
			chroma[class] += power[bin]
		}

		maxEnergy := 0.0
		for _, c := range chroma {
			if c > maxEnergy {
				maxEnergy = c
			}
		}
		if maxEnergy > 0 {
			for _, c := range chroma {
				total += c / maxEnergy
				count++
			}
		} else {
			count += 12
		}
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// pitchClass maps a frequency to its chroma class (0 = C), or -1 when the
// frequency is too low to carry pitch.
func pitchClass(freq float64) int {
	if freq < pitchFloorHz {
		return -1
	}
	midi := 69.0 + 12.0*math.Log2(freq/440.0)
	class := int(math.Round(midi)) % 12
	if class < 0 {
		class += 12
	}
	return class
}

func binFrequencies(spec *dsp.Spectrogram) []float64 {
	freqs := make([]float64, spec.Bins())
	for i := range freqs {
		freqs[i] = spec.BinFrequency(i)
	}
	return freqs
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}

// sanitizeFeatures replaces any non-finite value with the documented 0.0
// default so the battery only ever sees real numbers.
func sanitizeFeatures(features *FeatureVector) {
	scalars := []*float64{
		&features.SpectralCentroidMean, &features.SpectralCentroidStd,
		&features.SpectralRolloffMean, &features.SpectralBandwidthMean,
		&features.SpectralContrastMean, &features.SpectralFlatnessMean,
		&features.SpectralFlatnessStd, &features.ZCRMean, &features.ZCRStd,
		&features.RMSMean, &features.RMSStd, &features.PitchMean,
		&features.PitchStd, &features.PitchRange, &features.OnsetStrengthMean,
		&features.ChromaMean, &features.MelSpecMean, &features.MelSpecStd,
	}
	for _, v := range scalars {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
	for _, vec := range [][]float64{features.MFCCMean, features.MFCCStd} {
		for i, v := range vec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				vec[i] = 0
			}
		}
	}
}
