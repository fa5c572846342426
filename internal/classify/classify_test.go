package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/masterstream/internal/fingerprint"
)

func vectorFromProjection(p projection) fingerprint.Vector {
	return fingerprint.Vector{
		LUFS:             p.lufs,
		CrestDB:          p.crestDB,
		BassMidRatio:     p.bassMidRatio,
		SpectralCentroid: p.spectralCentroid,
		StereoWidth:      p.stereoWidth,
		SpectralFlatness: p.spectralFlatness,
	}
}

func TestClassifyExactCentroidIsConfidentPrimary(t *testing.T) {
	v := vectorFromProjection(centroids[Metal])
	result := Classify(v, DefaultConfig())

	assert.Equal(t, Metal, result.Primary)
	assert.False(t, result.Hybrid)
	assert.Greater(t, result.Confidence, DefaultConfig().ConfidenceThreshold)
}

func TestClassifyScoresSumToOne(t *testing.T) {
	v := vectorFromProjection(centroids[Studio])
	result := Classify(v, DefaultConfig())

	var sum float64
	for _, s := range result.Scores {
		sum += s.Confidence
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestClassifyAmbiguousInputFallsBackToUnknown(t *testing.T) {
	// Midpoint between two dissimilar centroids: neither dominant nor
	// concentrated enough in the top-k to trigger the hybrid path.
	a := centroids[Studio]
	b := centroids[Metal]
	mid := projection{
		lufs:             (a.lufs + b.lufs) / 2,
		crestDB:          (a.crestDB + b.crestDB) / 2,
		bassMidRatio:     (a.bassMidRatio + b.bassMidRatio) / 2,
		spectralCentroid: (a.spectralCentroid + b.spectralCentroid) / 2,
		stereoWidth:      (a.stereoWidth + b.stereoWidth) / 2,
		spectralFlatness: (a.spectralFlatness + b.spectralFlatness) / 2,
	}
	cfg := DefaultConfig()
	cfg.ConfidenceThreshold = 0.99 // force the fallback branch deterministically
	result := Classify(vectorFromProjection(mid), cfg)

	if !result.Hybrid {
		assert.Equal(t, Unknown, result.Primary)
	}
}

func TestMapParametersIntensityZeroIsIdentity(t *testing.T) {
	result := Classify(vectorFromProjection(centroids[Studio]), DefaultConfig())
	params := MapParameters(result, PresetPunchy, 0)

	assert.Equal(t, 1.0, params.Compressor.Ratio)
	assert.Equal(t, 0.0, params.EQ.BassGainDB)
	assert.Equal(t, 1.0, params.StereoWidthFactor)
	assert.Equal(t, 1.0, params.PreserveCharacter)
}

func TestMapParametersHybridWeightsSumToOne(t *testing.T) {
	result := Result{
		Primary: BrightMaster,
		Hybrid:  true,
		Blend: map[RecordingType]float64{
			BrightMaster:  0.43,
			HiRes:         0.31,
			DamagedStudio: 0.26,
		},
	}
	var sum float64
	for _, w := range result.Blend {
		sum += w
	}
	require.InDelta(t, 1.0, sum, 1e-9)

	params := MapParameters(result, PresetAdaptive, 1.0)
	assert.Greater(t, params.Compressor.Ratio, 0.0)
}
