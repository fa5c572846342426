package dsp

import "math"

// HannWindow returns a symmetric Hann window of the given size, matching the
// teacher's createHannWindow coefficient (denominator size-1, symmetric
// window).
func HannWindow(size int) []float64 {
	w := make([]float64, size)
	if size == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < size; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}
