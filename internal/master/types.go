// Package master implements the chunked DSP mastering pipeline: per-chunk
// EQ, dynamics, stereo width, level targeting, soft limiting, character
// preservation, and crossfaded chunk stitching (spec.md §4.4).
package master

import (
	"sync"

	"github.com/wavecore/masterstream/internal/dsp"
)

// Config is the subset of internal/config's options the pipeline consumes.
type Config struct {
	ChunkDurationSec   int
	ContextDurationSec int
	CrossfadeMs        int
	MaxDBDeltaPerChunk float64
	SoftCeilingDBFS    float64
}

// minGainDB/maxGainDB bound the level-smoothing trend itself (spec.md §4.4
// "clamp(..., min_gain_db, max_gain_db)"); the per-chunk step is separately
// bounded by MaxDBDeltaPerChunk.
const (
	minGainDB = -24.0
	maxGainDB = 24.0
)

// ProcessedChunk is one mastered, crossfade-stitched chunk of audio, ready
// for encoding (spec.md §3 ProcessedChunk).
type ProcessedChunk struct {
	ChunkIndex       int
	SampleRate       int
	Channels         int
	Samples          []float64 // interleaved audible output, post crossfade
	AudibleFrames    int
	CrossfadeSamples int
	GainDB           float64
	ClampedSamples   int
}

// StreamState is the carry-over state threaded across chunk builds for one
// (track, preset, intensity) stream: compressor envelopes, the level-gain
// trend, and the previous chunk's output tail for crossfading (spec.md
// §4.4 step 3, §5 "DSP carry-over state is strictly sequential").
type StreamState struct {
	mu             sync.Mutex
	Envelopes      []dsp.EnvelopeState
	PrevGainDB     float64
	Tail           [][]float64 // per channel, crossfade_samples long
	LastChunkIndex int
}

// NewStreamState returns the carry-over state for chunk 0 of a fresh stream.
func NewStreamState(channels int) *StreamState {
	return &StreamState{
		Envelopes:      make([]dsp.EnvelopeState, channels),
		PrevGainDB:     0,
		LastChunkIndex: -1,
	}
}

// ResetLevelTrend clears the gain trend (but not the compressor envelopes
// or crossfade tail) so a mid-stream preset change reaches its new target
// within one chunk's smoothing limit (spec.md §4.4 "Preset change mid-stream").
func (s *StreamState) ResetLevelTrend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PrevGainDB = 0
}

// ChunkCount returns the total number of chunks for a track of the given
// frame count at the configured chunk duration.
func ChunkCount(totalFrames, sampleRate, chunkDurationSec int) int {
	chunkLen := chunkDurationSec * sampleRate
	if chunkLen <= 0 {
		return 0
	}
	return (totalFrames + chunkLen - 1) / chunkLen
}
