package encode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitSegmentStartsWithEBMLHeaderID(t *testing.T) {
	m := NewWebMMuxer(48000, 2)
	init := m.InitSegment()

	require := assert.New(t)
	require.True(len(init) > 4)
	require.Equal(byte(0x1A), init[0])
	require.Equal(byte(0x45), init[1])
	require.Equal(byte(0xDF), init[2])
	require.Equal(byte(0xA3), init[3])
}

func TestEncodeChunkAdvancesTimecode(t *testing.T) {
	m := NewWebMMuxer(48000, 1)
	frames := [][]byte{{1, 2, 3}, {4, 5, 6}}

	c0 := m.EncodeChunk(frames)
	assert.NotEmpty(t, c0)
	assert.Equal(t, uint64(40), m.nextTimecodeMs)

	c1 := m.EncodeChunk(frames)
	assert.NotEmpty(t, c1)
	assert.Equal(t, uint64(80), m.nextTimecodeMs)
}

func TestResampleLinearPreservesLength(t *testing.T) {
	samples := make([]float64, 100*2)
	out := resampleLinear(samples, 44100, 48000, 2)
	assert.InDelta(t, float64(len(out))/2, 100*48000.0/44100.0, 2)
}

func TestResampleLinearNoopSameRate(t *testing.T) {
	samples := []float64{0.1, 0.2, 0.3, 0.4}
	out := resampleLinear(samples, 48000, 48000, 2)
	assert.Equal(t, samples, out)
}
