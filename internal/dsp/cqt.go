package dsp

import "math"

const (
	cqtOctaves       = 7
	cqtBinsPerOctave = 36
	cqtBaseFreqHz    = 32.7 // C1
	cqtNumBins       = cqtOctaves * cqtBinsPerOctave
)

// Chromagram is a 12 x numFrames matrix; each column sums to 1.0 (within
// epsilon) for non-silent frames (spec.md §4.1, §8 invariant 3).
type Chromagram struct {
	Columns [][12]float64
	// ChromaEnergy is the mean of the chromagram, a fingerprint dimension.
	ChromaEnergy float64
}

// ComputeChromagram convolves a bank of Gaussian-windowed constant-Q kernels
// (7 octaves x 36 bins/octave = 252 log-spaced bins from 32.7 Hz) against
// hop-sized frames of x, folds bins modulo 12 into pitch classes, and
// normalizes each time column to sum to 1.0.
func ComputeChromagram(x []float64, sampleRate int) *Chromagram {
	// Q = 1 / (2^(1/bins_per_octave) - 1), ~51.44 for 36 bins/octave.
	q := 1.0 / (math.Pow(2, 1.0/float64(cqtBinsPerOctave)) - 1)

	kernels := make([]cqtKernel, cqtNumBins)
	maxLen := 0
	for k := 0; k < cqtNumBins; k++ {
		freq := cqtBaseFreqHz * math.Pow(2, float64(k)/float64(cqtBinsPerOctave))
		length := int(math.Ceil(q * float64(sampleRate) / freq))
		if length < 1 {
			length = 1
		}
		kernels[k] = buildCQTKernel(freq, length, sampleRate)
		if length > maxLen {
			maxLen = length
		}
	}

	if len(x) < maxLen {
		return &Chromagram{Columns: nil, ChromaEnergy: 0}
	}

	hop := maxLen / 2
	if hop < 1 {
		hop = 1
	}

	var columns [][12]float64
	var energySum float64
	var energyCount int

	for start := 0; start+maxLen <= len(x); start += hop {
		var pitchClasses [12]float64
		for k, kernel := range kernels {
			re, im := 0.0, 0.0
			for i := 0; i < kernel.length && start+i < len(x); i++ {
				sample := x[start+i]
				re += sample * kernel.real[i]
				im += sample * kernel.imag[i]
			}
			mag := math.Hypot(re, im)
			pitchClasses[k%12] += mag
		}

		sum := 0.0
		for _, v := range pitchClasses {
			sum += v
		}
		if sum > 1e-12 {
			for i := range pitchClasses {
				pitchClasses[i] /= sum
			}
		}

		columns = append(columns, pitchClasses)
		for _, v := range pitchClasses {
			energySum += v
			energyCount++
		}
	}

	chromaEnergy := 0.0
	if energyCount > 0 {
		chromaEnergy = energySum / float64(energyCount)
	}

	return &Chromagram{Columns: columns, ChromaEnergy: chromaEnergy}
}

type cqtKernel struct {
	real   []float64
	imag   []float64
	length int
}

// buildCQTKernel builds a Gaussian-windowed complex exponential at freq, of
// the given sample length.
func buildCQTKernel(freq float64, length, sampleRate int) cqtKernel {
	re := make([]float64, length)
	im := make([]float64, length)
	center := float64(length-1) / 2
	sigma := float64(length) / 6 // Gaussian window spans ~6 sigma

	for i := 0; i < length; i++ {
		t := float64(i) - center
		gauss := math.Exp(-0.5 * (t / sigma) * (t / sigma))
		phase := 2 * math.Pi * freq * float64(i) / float64(sampleRate)
		re[i] = gauss * math.Cos(phase)
		im[i] = gauss * math.Sin(phase)
	}

	return cqtKernel{real: re, imag: im, length: length}
}
