// Package pcm provides the canonical in-memory audio representation shared
// by the fingerprint extractor and the mastering pipeline.
package pcm

import "fmt"

// Buffer is the PCM Buffer entity from spec.md §3: interleaved float samples
// in [-1, 1], immutable after construction.
type Buffer struct {
	SampleRate int
	Channels   int
	// Samples is interleaved: for stereo, [L0, R0, L1, R1, ...].
	Samples []float64
}

// Frames returns the number of per-channel sample frames.
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the buffer's length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Mono returns a mono downmix (simple channel average), leaving the original
// buffer untouched.
func (b *Buffer) Mono() []float64 {
	frames := b.Frames()
	out := make([]float64, frames)
	if b.Channels <= 1 {
		copy(out, b.Samples)
		return out
	}
	for i := 0; i < frames; i++ {
		var sum float64
		base := i * b.Channels
		for c := 0; c < b.Channels; c++ {
			sum += b.Samples[base+c]
		}
		out[i] = sum / float64(b.Channels)
	}
	return out
}

// Channel extracts one channel's samples (0 = left, 1 = right).
func (b *Buffer) Channel(idx int) ([]float64, error) {
	if idx < 0 || idx >= b.Channels {
		return nil, fmt.Errorf("pcm: channel %d out of range (buffer has %d)", idx, b.Channels)
	}
	frames := b.Frames()
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		out[i] = b.Samples[i*b.Channels+idx]
	}
	return out, nil
}

// Window returns a new Buffer covering [start, start+length) frames,
// clamped to the buffer's extent. Used to carve chunk_len + 2*context_len
// analysis windows out of a loaded track (spec.md §4.4 step 1).
func (b *Buffer) Window(startFrame, lengthFrames int) *Buffer {
	frames := b.Frames()
	if startFrame < 0 {
		startFrame = 0
	}
	end := startFrame + lengthFrames
	if end > frames {
		end = frames
	}
	if startFrame >= end {
		return &Buffer{SampleRate: b.SampleRate, Channels: b.Channels, Samples: nil}
	}
	lo := startFrame * b.Channels
	hi := end * b.Channels
	out := make([]float64, hi-lo)
	copy(out, b.Samples[lo:hi])
	return &Buffer{SampleRate: b.SampleRate, Channels: b.Channels, Samples: out}
}
