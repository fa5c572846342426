package dsp

import "math"

// YINConfig configures the YIN pitch estimator (spec.md §4.1).
type YINConfig struct {
	FrameSize int     // default 2048
	HopSize   int     // default 512
	Threshold float64 // default 0.15
	SampleRate int
}

// DefaultYINConfig returns the spec's default frame/hop/threshold for a
// given sample rate.
func DefaultYINConfig(sampleRate int) YINConfig {
	return YINConfig{
		FrameSize:  2048,
		HopSize:    512,
		Threshold:  0.15,
		SampleRate: sampleRate,
	}
}

// PitchTrack holds the per-frame pitch estimates (Hz, 0 when unvoiced) and
// the overall pitch stability.
type PitchTrack struct {
	FrequenciesHz   []float64
	PitchStability  float64 // 1 - normalized variance of log-pitch across voiced frames
}

// TrackPitch runs the YIN algorithm over successive frames of x.
func TrackPitch(x []float64, cfg YINConfig) *PitchTrack {
	if len(x) < cfg.FrameSize {
		return &PitchTrack{FrequenciesHz: nil, PitchStability: 0}
	}

	numFrames := (len(x)-cfg.FrameSize)/cfg.HopSize + 1
	freqs := make([]float64, 0, numFrames)
	var logPitches []float64

	for f := 0; f < numFrames; f++ {
		start := f * cfg.HopSize
		frame := x[start : start+cfg.FrameSize]
		hz := yinFrame(frame, cfg)
		freqs = append(freqs, hz)
		if hz > 0 {
			logPitches = append(logPitches, math.Log(hz))
		}
	}

	stability := 0.0
	if len(logPitches) > 0 {
		mean := 0.0
		for _, v := range logPitches {
			mean += v
		}
		mean /= float64(len(logPitches))

		var variance float64
		for _, v := range logPitches {
			d := v - mean
			variance += d * d
		}
		variance /= float64(len(logPitches))

		// normalize: variance of a few octaves of log-pitch is small in
		// absolute terms (log of Hz ratios); scale so the common case maps
		// into [0,1] without negative stability for gently drifting pitch.
		normalized := variance / (variance + 1.0)
		stability = 1 - normalized
	}

	return &PitchTrack{FrequenciesHz: freqs, PitchStability: stability}
}

// yinFrame estimates the fundamental frequency of a single frame, or 0 if
// no period passes the threshold (unvoiced/silent).
func yinFrame(frame []float64, cfg YINConfig) float64 {
	maxTau := len(frame) / 2
	d := make([]float64, maxTau)

	for tau := 1; tau < maxTau; tau++ {
		var sum float64
		for i := 0; i < maxTau; i++ {
			diff := frame[i] - frame[i+tau]
			sum += diff * diff
		}
		d[tau] = sum
	}

	dPrime := make([]float64, maxTau)
	dPrime[0] = 1
	runningSum := 0.0
	for tau := 1; tau < maxTau; tau++ {
		runningSum += d[tau]
		if runningSum == 0 {
			dPrime[tau] = 1
		} else {
			dPrime[tau] = d[tau] * float64(tau) / runningSum
		}
	}

	tau := -1
	for t := 2; t < maxTau-1; t++ {
		if dPrime[t] < cfg.Threshold {
			// require a local minimum to avoid locking onto the falling edge
			if dPrime[t] < dPrime[t-1] && dPrime[t] <= dPrime[t+1] {
				tau = t
				break
			}
		}
	}
	if tau == -1 {
		return 0
	}

	// parabolic interpolation for sub-sample precision
	betterTau := float64(tau)
	if tau > 0 && tau < maxTau-1 {
		s0, s1, s2 := dPrime[tau-1], dPrime[tau], dPrime[tau+1]
		denom := s0 - 2*s1 + s2
		if denom != 0 {
			betterTau = float64(tau) + (s0-s2)/(2*denom)
		}
	}

	if betterTau <= 0 {
		return 0
	}
	return float64(cfg.SampleRate) / betterTau
}
