package dsp

// Fast Fourier Transform (FFT)
//
// This file implements the Cooley-Tukey radix-2 FFT, which converts a
// time-domain signal into its frequency-domain representation.
//
// 1. Purpose:
//    - Converts audio samples (amplitude over time) into frequency components
//    - Reveals which frequencies are present and their magnitudes
//    - Every spectral feature in the voice package derives from this output
//
// 2. Algorithm (Cooley-Tukey Radix-2):
//    - Divide-and-conquer: recursively splits the signal in half
//    - Even-indexed samples form one half, odd-indexed the other
//    - Each half is transformed recursively, then the halves are combined
//      using twiddle factors (complex exponentials)
//
// 3. Twiddle Factors:
//    - W_N^k = e^(-2πik/N) = cos(-2πk/N) + i*sin(-2πk/N)
//    - Rotate frequency components to merge the even/odd halves
//
// Inputs are zero-padded to a power of two by the callers in this package.

import (
	"math"
)

// FFT transforms real-valued samples into the complex frequency domain.
// The input length should be a power of two; see NextPowerOfTwo.
func FFT(input []float64) []complex128 {
	complexArray := make([]complex128, len(input))
	for i, v := range input {
		complexArray[i] = complex(v, 0)
	}

	return recursiveFFT(complexArray)
}

func recursiveFFT(complexArray []complex128) []complex128 {
	N := len(complexArray)
	if N <= 1 {
		return complexArray
	}

	even := make([]complex128, N/2)
	odd := make([]complex128, N/2)
	for i := 0; i < N/2; i++ {
		even[i] = complexArray[2*i]
		odd[i] = complexArray[2*i+1]
	}

	even = recursiveFFT(even)
	odd = recursiveFFT(odd)

	fftResult := make([]complex128, N)
	for k := 0; k < N/2; k++ {
		t := complex(math.Cos(-2*math.Pi*float64(k)/float64(N)), math.Sin(-2*math.Pi*float64(k)/float64(N)))
		fftResult[k] = even[k] + t*odd[k]
		fftResult[k+N/2] = even[k] - t*odd[k]
	}

	return fftResult
}

// NextPowerOfTwo returns the smallest power of two that is >= n.
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	return power
}

// ApplyHannWindow multiplies the buffer in place by a Hann window, reducing
// spectral leakage at the frame edges.
func ApplyHannWindow(buffer []float64) {
	length := len(buffer)
	if length <= 1 {
		return
	}
	for i := range buffer {
		buffer[i] *= 0.5 * (1 - math.Cos((2*math.Pi*float64(i))/float64(length-1)))
	}
}
