package dsp

import (
	"math"

	"github.com/wavecore/masterstream/internal/errors"
)

// STFTConfig configures the forward/inverse short-time Fourier transform.
type STFTConfig struct {
	FrameSize int
	HopSize   int // default: FrameSize * (1 - overlap), overlap default 0.75
}

// DefaultSTFTConfig returns a 75%-overlap Hann-windowed STFT configuration
// for the given frame size, per spec.md §4.1.
func DefaultSTFTConfig(frameSize int) STFTConfig {
	return STFTConfig{
		FrameSize: frameSize,
		HopSize:   frameSize / 4,
	}
}

// Spectrogram is the complex STFT of a signal: Frames[t][bin].
type Spectrogram struct {
	Frames    [][]complex128
	FrameSize int
	HopSize   int
	// SignalLen is the original signal length, needed to invert without
	// trailing padding artifacts.
	SignalLen int
}

// Forward computes the STFT of x using a Hann-windowed, zero-padded-FFT
// frame. Returns InputTooShort if x is shorter than one frame.
func Forward(x []float64, cfg STFTConfig) (*Spectrogram, error) {
	if len(x) < cfg.FrameSize {
		return nil, errors.InputTooShort("signal shorter than one STFT frame")
	}

	win := HannWindow(cfg.FrameSize)
	numFrames := (len(x)-cfg.FrameSize)/cfg.HopSize + 1

	frames := make([][]complex128, numFrames)
	for f := 0; f < numFrames; f++ {
		start := f * cfg.HopSize
		windowed := make([]complex128, cfg.FrameSize)
		for i := 0; i < cfg.FrameSize; i++ {
			windowed[i] = complex(x[start+i]*win[i], 0)
		}
		frames[f] = FFT(windowed)
	}

	return &Spectrogram{Frames: frames, FrameSize: cfg.FrameSize, HopSize: cfg.HopSize, SignalLen: len(x)}, nil
}

// Inverse reconstructs a real signal from a complex spectrogram via
// overlap-add, applying the same Hann window used on analysis (as a
// synthesis window) and normalizing by the window's overlap-add sum.
func Inverse(spec *Spectrogram) []float64 {
	win := HannWindow(spec.FrameSize)
	outLen := spec.SignalLen
	if outLen == 0 {
		outLen = (len(spec.Frames)-1)*spec.HopSize + spec.FrameSize
	}

	out := make([]float64, outLen)
	norm := make([]float64, outLen)

	for f, frame := range spec.Frames {
		start := f * spec.HopSize
		ifft := IFFT(frame)
		for i := 0; i < spec.FrameSize && start+i < outLen; i++ {
			out[start+i] += real(ifft[i]) * win[i]
			norm[start+i] += win[i] * win[i]
		}
	}

	for i := range out {
		if norm[i] > 1e-12 {
			out[i] /= norm[i]
		}
	}

	return out
}

// Magnitude returns the per-frame, per-bin magnitude of a spectrogram.
func (s *Spectrogram) Magnitude() [][]float64 {
	mag := make([][]float64, len(s.Frames))
	for f, frame := range s.Frames {
		row := make([]float64, len(frame))
		for b, v := range frame {
			row[b] = cabs(v)
		}
		mag[f] = row
	}
	return mag
}

func cabs(c complex128) float64 {
	re, im := real(c), imag(c)
	return math.Sqrt(re*re + im*im)
}
