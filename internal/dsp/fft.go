// Package dsp implements the pure DSP primitives shared by the fingerprint
// extractor and the mastering pipeline: FFT/STFT, HPSS, YIN pitch
// estimation, constant-Q chromagram, the adaptive compressor, the soft
// limiter, and equal-power crossfade (spec.md §4.1).
package dsp

import (
	"math"
	"math/cmplx"
)

// FFT computes the discrete Fourier transform of x using an iterative
// Cooley-Tukey radix-2 algorithm, zero-padding to the next power of two when
// len(x) isn't already one. Grounded on the teacher's fingerprint.fft —
// generalized here into a standalone, reusable primitive instead of a method
// on the fingerprinter.
func FFT(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		out := make([]complex128, n)
		copy(out, x)
		return out
	}

	if n&(n-1) != 0 {
		next := 1
		for next < n {
			next <<= 1
		}
		padded := make([]complex128, next)
		copy(padded, x)
		x = padded
		n = next
	}

	result := make([]complex128, n)
	bits := int(math.Log2(float64(n)))
	for i := 0; i < n; i++ {
		result[reverseBits(i, bits)] = x[i]
	}

	for s := 1; s <= bits; s++ {
		m := 1 << s
		wm := cmplx.Exp(complex(0, -2*math.Pi/float64(m)))
		for k := 0; k < n; k += m {
			w := complex(1.0, 0.0)
			for j := 0; j < m/2; j++ {
				t := w * result[k+j+m/2]
				u := result[k+j]
				result[k+j] = u + t
				result[k+j+m/2] = u - t
				w *= wm
			}
		}
	}

	return result
}

// IFFT computes the inverse discrete Fourier transform via the standard
// conjugate trick: IFFT(x) = conj(FFT(conj(x))) / N.
func IFFT(x []complex128) []complex128 {
	n := len(x)
	conj := make([]complex128, n)
	for i, v := range x {
		conj[i] = cmplx.Conj(v)
	}
	y := FFT(conj)
	out := make([]complex128, n)
	for i, v := range y {
		out[i] = cmplx.Conj(v) / complex(float64(n), 0)
	}
	return out
}

func reverseBits(num, bits int) int {
	result := 0
	for i := 0; i < bits; i++ {
		result = (result << 1) | (num & 1)
		num >>= 1
	}
	return result
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
