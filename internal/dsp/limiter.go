package dsp

import "math"

// SoftLimiter applies a stateless tanh saturation ceiling: y = tanh(k*x) /
// tanh(k), with k chosen so that input 0.9 maps to the configured ceiling
// (spec.md §4.1).
type SoftLimiter struct {
	k         float64
	tanhK     float64
}

// NewSoftLimiter builds a limiter whose ceiling is ceilingDBFS (e.g. -0.5).
// k is solved so that tanh(k*0.9)/tanh(k) == 10^(ceilingDBFS/20).
func NewSoftLimiter(ceilingDBFS float64) *SoftLimiter {
	target := dbToLinear(ceilingDBFS)
	k := solveLimiterK(target)
	return &SoftLimiter{k: k, tanhK: math.Tanh(k)}
}

// Process applies the limiter to one sample.
func (l *SoftLimiter) Process(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}
	return math.Tanh(l.k*x) / l.tanhK
}

// ProcessBuffer applies the limiter to a full buffer, returning a new slice.
func (l *SoftLimiter) ProcessBuffer(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = l.Process(v)
	}
	return out
}

// solveLimiterK finds k such that tanh(0.9*k)/tanh(k) == target using
// bisection; tanh(0.9k)/tanh(k) is monotonically increasing in k for k>0
// (from 0.9 as k->0 towards 1 as k grows).
func solveLimiterK(target float64) float64 {
	lo, hi := 1e-6, 50.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		val := math.Tanh(0.9*mid) / math.Tanh(mid)
		if val < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
