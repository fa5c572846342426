package master

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/masterstream/internal/classify"
	"github.com/wavecore/masterstream/internal/pcm"
)

func testTrack(seconds float64, sampleRate, channels int) *pcm.Buffer {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n*channels)
	for i := 0; i < n; i++ {
		v := 0.3 * math.Sin(2*math.Pi*220*float64(i)/float64(sampleRate))
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}
	return &pcm.Buffer{SampleRate: sampleRate, Channels: channels, Samples: samples}
}

func testConfig() Config {
	return Config{
		ChunkDurationSec:   2,
		ContextDurationSec: 1,
		CrossfadeMs:        200,
		MaxDBDeltaPerChunk: 1.5,
		SoftCeilingDBFS:    -0.5,
	}
}

func identityParams() classify.AdaptiveParameters {
	return classify.AdaptiveParameters{
		Compressor:        classify.CompressorParams{Ratio: 1, ThresholdDB: 0, AttackMs: 10, ReleaseMs: 100, KneeDB: 0},
		EQ:                classify.EQParams{},
		StereoWidthFactor: 1.0,
		TargetLUFS:        0,
		PreserveCharacter: 1.0,
	}
}

func TestBuildChunkRejectsOutOfOrderIndex(t *testing.T) {
	track := testTrack(10, 44100, 2)
	state := NewStreamState(2)

	_, err := BuildChunk(context.Background(), track, 1, identityParams(), testConfig(), state)
	require.Error(t, err)
}

func TestBuildChunkSequenceProducesNoNaN(t *testing.T) {
	track := testTrack(10, 44100, 2)
	state := NewStreamState(2)
	cfg := testConfig()

	count := ChunkCount(track.Frames(), track.SampleRate, cfg.ChunkDurationSec)
	for k := 0; k < count; k++ {
		chunk, err := BuildChunk(context.Background(), track, k, identityParams(), cfg, state)
		require.NoError(t, err)
		for _, s := range chunk.Samples {
			assert.False(t, math.IsNaN(s))
			assert.False(t, math.IsInf(s, 0))
		}
	}
}

func TestBuildChunkGainDeltaBounded(t *testing.T) {
	track := testTrack(10, 44100, 1)
	state := NewStreamState(1)
	cfg := testConfig()

	params := identityParams()
	params.TargetLUFS = -6 // force a large loudness jump

	var prevGain float64
	count := ChunkCount(track.Frames(), track.SampleRate, cfg.ChunkDurationSec)
	for k := 0; k < count; k++ {
		chunk, err := BuildChunk(context.Background(), track, k, params, cfg, state)
		require.NoError(t, err)
		if k > 0 {
			assert.LessOrEqual(t, math.Abs(chunk.GainDB-prevGain), cfg.MaxDBDeltaPerChunk+1e-9)
		}
		prevGain = chunk.GainDB
	}
}

func TestBuildChunkCrossfadeAppliedAfterFirst(t *testing.T) {
	track := testTrack(10, 44100, 2)
	state := NewStreamState(2)
	cfg := testConfig()

	chunk0, err := BuildChunk(context.Background(), track, 0, identityParams(), cfg, state)
	require.NoError(t, err)
	assert.Equal(t, 0, chunk0.CrossfadeSamples)

	chunk1, err := BuildChunk(context.Background(), track, 1, identityParams(), cfg, state)
	require.NoError(t, err)
	assert.Greater(t, chunk1.CrossfadeSamples, 0)
}
