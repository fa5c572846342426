package dsp

import (
	"sort"

	"github.com/wavecore/masterstream/internal/errors"
)

// HPSSConfig configures harmonic-percussive source separation via median
// filtering of the STFT magnitude (spec.md §4.1).
type HPSSConfig struct {
	STFT             STFTConfig
	HarmonicKernel   int // median filter length along the time axis
	PercussiveKernel int // median filter length along the frequency axis
	Epsilon          float64
}

// DefaultHPSSConfig returns the conventional kernel sizes (odd lengths
// around 17 frames / 17 bins), with an analysis frame of frameSize samples.
func DefaultHPSSConfig(frameSize int) HPSSConfig {
	return HPSSConfig{
		STFT:             DefaultSTFTConfig(frameSize),
		HarmonicKernel:   17,
		PercussiveKernel: 17,
		Epsilon:          1e-10,
	}
}

// HPSSResult holds the time-domain harmonic and percussive components, and
// the ratio of their total energy (used as a fingerprint dimension).
type HPSSResult struct {
	Harmonic      []float64
	Percussive    []float64
	HarmonicRatio float64
}

// Separate performs STFT-domain harmonic-percussive source separation:
// median-filter the magnitude spectrogram horizontally (time) for the
// harmonic estimate and vertically (frequency) for the percussive estimate,
// then apply a soft mask H/(H+P+eps) to the original complex spectrogram
// before inverting.
func Separate(x []float64, cfg HPSSConfig) (*HPSSResult, error) {
	spec, err := Forward(x, cfg.STFT)
	if err != nil {
		return nil, err
	}

	mag := spec.Magnitude()
	if len(mag) == 0 {
		return nil, errors.InputTooShort("not enough frames for HPSS")
	}

	harmonicMag := medianFilterTime(mag, cfg.HarmonicKernel)
	percussiveMag := medianFilterFreq(mag, cfg.PercussiveKernel)

	numFrames := len(spec.Frames)
	numBins := len(spec.Frames[0])

	harmonicSpec := &Spectrogram{Frames: make([][]complex128, numFrames), FrameSize: spec.FrameSize, HopSize: spec.HopSize, SignalLen: spec.SignalLen}
	percussiveSpec := &Spectrogram{Frames: make([][]complex128, numFrames), FrameSize: spec.FrameSize, HopSize: spec.HopSize, SignalLen: spec.SignalLen}

	var harmonicEnergy, percussiveEnergy float64

	for t := 0; t < numFrames; t++ {
		hRow := make([]complex128, numBins)
		pRow := make([]complex128, numBins)
		for b := 0; b < numBins; b++ {
			h := harmonicMag[t][b]
			p := percussiveMag[t][b]
			mask := h / (h + p + cfg.Epsilon)
			hRow[b] = spec.Frames[t][b] * complex(mask, 0)
			pRow[b] = spec.Frames[t][b] * complex(1-mask, 0)
			harmonicEnergy += h * h
			percussiveEnergy += p * p
		}
		harmonicSpec.Frames[t] = hRow
		percussiveSpec.Frames[t] = pRow
	}

	ratio := harmonicEnergy / (harmonicEnergy + percussiveEnergy + cfg.Epsilon)

	return &HPSSResult{
		Harmonic:      Inverse(harmonicSpec),
		Percussive:    Inverse(percussiveSpec),
		HarmonicRatio: ratio,
	}, nil
}

// medianFilterTime applies a 1-D median filter along the time axis (across
// frames, per bin), extracting sustained/tonal (harmonic) energy.
func medianFilterTime(mag [][]float64, kernel int) [][]float64 {
	numFrames := len(mag)
	numBins := len(mag[0])
	half := kernel / 2
	out := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		out[t] = make([]float64, numBins)
	}

	window := make([]float64, 0, kernel)
	for b := 0; b < numBins; b++ {
		for t := 0; t < numFrames; t++ {
			window = window[:0]
			for k := t - half; k <= t+half; k++ {
				if k < 0 || k >= numFrames {
					continue
				}
				window = append(window, mag[k][b])
			}
			out[t][b] = median(window)
		}
	}
	return out
}

// medianFilterFreq applies a 1-D median filter along the frequency axis
// (across bins, per frame), extracting broadband transient (percussive)
// energy.
func medianFilterFreq(mag [][]float64, kernel int) [][]float64 {
	numFrames := len(mag)
	numBins := len(mag[0])
	half := kernel / 2
	out := make([][]float64, numFrames)

	window := make([]float64, 0, kernel)
	for t := 0; t < numFrames; t++ {
		row := make([]float64, numBins)
		for b := 0; b < numBins; b++ {
			window = window[:0]
			for k := b - half; k <= b+half; k++ {
				if k < 0 || k >= numBins {
					continue
				}
				window = append(window, mag[t][k])
			}
			row[b] = median(window)
		}
		out[t] = row
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
