package dsp

import "math"

// CompressorConfig is the static parameter set for the adaptive compressor
// (spec.md §4.1, §4.3 AdaptiveParameters.compressor).
type CompressorConfig struct {
	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
	KneeDB      float64
}

// EnvelopeState is the compressor's per-channel carry-over state. It MUST
// persist across chunk boundaries for the same stream (spec.md §4.1, §4.4
// step 3) — callers pass it by value between chunk builds; it is never
// shared between concurrent streams.
type EnvelopeState struct {
	EnvelopeDB float64
}

// Compressor applies per-sample gain reduction driven by a first-order
// envelope follower (attack on rise, release on fall) over the input's
// dB magnitude.
type Compressor struct {
	cfg        CompressorConfig
	sampleRate int
}

// NewCompressor builds a Compressor for the given configuration and sample
// rate; attack/release time constants are converted to per-sample filter
// coefficients at the start of each ProcessChannel call.
func NewCompressor(cfg CompressorConfig, sampleRate int) *Compressor {
	return &Compressor{cfg: cfg, sampleRate: sampleRate}
}

// ProcessChannel applies the compressor to one channel's samples in place,
// threading the envelope state across calls. Returns the updated state to
// carry into the next chunk.
func (c *Compressor) ProcessChannel(samples []float64, state EnvelopeState) ([]float64, EnvelopeState) {
	attackCoeff := timeConstantCoeff(c.cfg.AttackMs, c.sampleRate)
	releaseCoeff := timeConstantCoeff(c.cfg.ReleaseMs, c.sampleRate)

	out := make([]float64, len(samples))
	envDB := state.EnvelopeDB

	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}

		detectorDB := linearToDB(math.Abs(s))
		if detectorDB > envDB {
			envDB = attackCoeff*envDB + (1-attackCoeff)*detectorDB
		} else {
			envDB = releaseCoeff*envDB + (1-releaseCoeff)*detectorDB
		}

		gainDB := c.gainComputer(envDB)
		gainLinear := math.Pow(10, gainDB/20)
		out[i] = s * gainLinear
	}

	return out, EnvelopeState{EnvelopeDB: envDB}
}

// gainComputer maps envelope dB to gain reduction dB, applying a soft knee
// around the threshold: g = min(0, -(env_dB - threshold_dB)*(1 - 1/ratio)).
func (c *Compressor) gainComputer(envDB float64) float64 {
	threshold := c.cfg.ThresholdDB
	ratio := c.cfg.Ratio
	if ratio < 1 {
		ratio = 1
	}
	knee := c.cfg.KneeDB

	overshoot := envDB - threshold

	if knee > 0 {
		half := knee / 2
		switch {
		case overshoot < -half:
			return 0
		case overshoot > half:
			return -(overshoot) * (1 - 1/ratio)
		default:
			// quadratic knee interpolation between the two linear regions
			x := overshoot + half
			return -(x * x / (2 * knee)) * (1 - 1/ratio)
		}
	}

	if overshoot <= 0 {
		return 0
	}
	return -overshoot * (1 - 1/ratio)
}

func timeConstantCoeff(timeMs float64, sampleRate int) float64 {
	if timeMs <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (timeMs / 1000 * float64(sampleRate)))
}

// linearToDB converts a linear amplitude to dB, guarding log(0) per
// spec.md §9 (clamp to a floor of 1e-10 before the log).
func linearToDB(amplitude float64) float64 {
	return 20 * math.Log10(math.Max(amplitude, 1e-10))
}

// dbToLinear is the inverse of linearToDB.
func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
