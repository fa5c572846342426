package dsp

import "math"

// EqualPowerCrossfade joins tail A and head B, each of length L, as
// A*cos^2(pi/2 * t/L) + B*sin^2(pi/2 * t/L). Preserves constant energy when
// A and B are decorrelated (spec.md §4.1, §8 invariant 4).
func EqualPowerCrossfade(a, b []float64) []float64 {
	l := len(a)
	if len(b) < l {
		l = len(b)
	}
	out := make([]float64, l)
	for t := 0; t < l; t++ {
		phase := math.Pi / 2 * float64(t) / float64(l)
		cos2 := math.Cos(phase) * math.Cos(phase)
		sin2 := math.Sin(phase) * math.Sin(phase)
		out[t] = a[t]*cos2 + b[t]*sin2
	}
	return out
}
