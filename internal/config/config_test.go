package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.ChunkDurationSec)
	assert.Equal(t, 5, cfg.ContextDurationSec)
	assert.Equal(t, 200, cfg.CrossfadeMs)
	assert.Equal(t, 44100, cfg.AnalysisSampleRate)
	assert.Equal(t, 0.65, cfg.ClassifierConfidenceThreshold)
	assert.Equal(t, 0.50, cfg.HybridDominanceThreshold)
	assert.Equal(t, 1.5, cfg.MaxDBDeltaPerChunk)
	assert.Equal(t, -0.5, cfg.SoftCeilingDBFS)
	assert.Equal(t, 8, cfg.T1MaxChunks)
	assert.Equal(t, 64, cfg.T2MaxChunks)
	assert.Equal(t, 3, cfg.PredictiveWindow)
	assert.Equal(t, 2.0, cfg.BuildTimeoutFactor)
	assert.Equal(t, 16, cfg.FingerprintWorkers)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.ChunkDurationSec)
}
