package dsp

// Mel Filterbank and Cepstral Transform
//
// The mel scale warps frequency so that equal steps sound equally spaced to
// a human listener. A mel filterbank is a set of overlapping triangular
// filters laid out evenly on the mel axis; applying it to a power spectrum
// yields a compact perceptual energy profile per frame.
//
// MFCCs are the discrete cosine transform of the log filterbank energies.
// The low-order coefficients summarise the spectral envelope, which is the
// standard compact representation for voice analysis.

import (
	"math"
)

// DefaultMelBands is the filterbank size used for mel spectrograms and MFCCs.
const DefaultMelBands = 128

const logFloor = 1e-10

// HzToMel converts a frequency in Hz to mels (HTK formula).
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts mels back to Hz.
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10, mel/2595.0) - 1.0)
}

// MelFilterbank builds numBands triangular filters spanning 0 Hz to the
// Nyquist frequency, expressed as weights over the first frameSize/2 FFT
// bins.
func MelFilterbank(numBands, frameSize, sampleRate int) [][]float64 {
	binCount := frameSize / 2
	nyquist := float64(sampleRate) / 2.0

	lowMel := HzToMel(0)
	highMel := HzToMel(nyquist)

	// numBands triangles need numBands+2 edge points on the mel axis.
	melPoints := make([]float64, numBands+2)
	for i := range melPoints {
		melPoints[i] = lowMel + (highMel-lowMel)*float64(i)/float64(numBands+1)
	}

	binPoints := make([]float64, len(melPoints))
	for i, mel := range melPoints {
		binPoints[i] = MelToHz(mel) * float64(frameSize) / float64(sampleRate)
	}

	filters := make([][]float64, numBands)
	for b := 0; b < numBands; b++ {
		filter := make([]float64, binCount)
		left, center, right := binPoints[b], binPoints[b+1], binPoints[b+2]

		for bin := 0; bin < binCount; bin++ {
			f := float64(bin)
			switch {
			case f > left && f < center:
				filter[bin] = (f - left) / (center - left)
			case f >= center && f < right:
				filter[bin] = (right - f) / (right - center)
			}
		}
		filters[b] = filter
	}

	return filters
}

// MelSpectrogram applies the filterbank to every frame's power spectrum,
// producing frame × band mel energies.
func MelSpectrogram(spec *Spectrogram, filters [][]float64) [][]float64 {
	frames := spec.Frames()
	mel := make([][]float64, frames)

	for t := 0; t < frames; t++ {
		power := spec.Power(t)
		row := make([]float64, len(filters))
		for b, filter := range filters {
			var sum float64
			for bin, weight := range filter {
				if weight > 0 && bin < len(power) {
					sum += weight * power[bin]
				}
			}
			row[b] = sum
		}
		mel[t] = row
	}

	return mel
}

// PowerToDb converts power values to decibels with a noise floor.
func PowerToDb(values []float64) []float64 {
	db := make([]float64, len(values))
	for i, v := range values {
		if v < logFloor {
			v = logFloor
		}
		db[i] = 10.0 * math.Log10(v)
	}
	return db
}

// DCT2 computes the orthonormal type-II discrete cosine transform and keeps
// the first numCoeffs outputs.
func DCT2(input []float64, numCoeffs int) []float64 {
	M := len(input)
	if M == 0 || numCoeffs <= 0 {
		return nil
	}
	if numCoeffs > M {
		numCoeffs = M
	}

	output := make([]float64, numCoeffs)
	for k := 0; k < numCoeffs; k++ {
		var sum float64
		for m := 0; m < M; m++ {
			sum += input[m] * math.Cos(math.Pi*float64(k)*(float64(m)+0.5)/float64(M))
		}
		scale := math.Sqrt(2.0 / float64(M))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(M))
		}
		output[k] = scale * sum
	}

	return output
}
