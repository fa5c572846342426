package fingerprint

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/masterstream/internal/pcm"
)

func sineBuffer(freq float64, seconds float64, sampleRate int) *pcm.Buffer {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return &pcm.Buffer{SampleRate: sampleRate, Channels: 1, Samples: samples}
}

func TestComputeRejectsShortInput(t *testing.T) {
	buf := sineBuffer(440, 0.5, 44100)
	_, err := NewLocalComputer().Compute(context.Background(), buf)
	require.Error(t, err)
}

func TestComputeIsDeterministic(t *testing.T) {
	buf := sineBuffer(440, 2, 44100)
	c := NewLocalComputer()

	fp1, err := c.Compute(context.Background(), buf)
	require.NoError(t, err)
	fp2, err := c.Compute(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, fp1.Hash, fp2.Hash)
	assert.Equal(t, fp1.Vector, fp2.Vector)
}

func TestVectorHashChangesWithContent(t *testing.T) {
	low := sineBuffer(110, 2, 44100)
	high := sineBuffer(4000, 2, 44100)
	c := NewLocalComputer()

	fpLow, err := c.Compute(context.Background(), low)
	require.NoError(t, err)
	fpHigh, err := c.Compute(context.Background(), high)
	require.NoError(t, err)

	assert.NotEqual(t, fpLow.Hash, fpHigh.Hash)
}

func TestVerifyDetectsTamperedVector(t *testing.T) {
	buf := sineBuffer(440, 2, 44100)
	fp, err := NewLocalComputer().Compute(context.Background(), buf)
	require.NoError(t, err)

	assert.True(t, fp.Vector.Verify(fp.Hash))
	fp.Vector.LUFS += 1
	assert.False(t, fp.Vector.Verify(fp.Hash))
}

func TestMonoStereoDefaultsCorrelationToOne(t *testing.T) {
	buf := sineBuffer(440, 2, 44100)
	fp, err := NewLocalComputer().Compute(context.Background(), buf)
	require.NoError(t, err)

	assert.Equal(t, 0.0, fp.Vector.StereoWidth)
	assert.Equal(t, 1.0, fp.Vector.PhaseCorrelation)
}
