package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestWAV(t *testing.T, dir, trackID string) {
	t.Helper()
	path := filepath.Join(dir, trackID+".wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 44100, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{SampleRate: 44100, NumChannels: 1},
		Data:   []int{100, -100, 200, -200},
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestLoadResolvesWAVWithoutTranscode(t *testing.T) {
	dir := t.TempDir()
	writeTestWAV(t, dir, "track1")

	store := NewStore(dir)
	buf, err := store.Load(context.Background(), "track1")
	require.NoError(t, err)
	assert.Equal(t, 44100, buf.SampleRate)
	assert.Greater(t, buf.Frames(), 0)
}

func TestLoadMissingTrackReturnsDecodeError(t *testing.T) {
	store := NewStore(t.TempDir())
	_, err := store.Load(context.Background(), "nope")
	assert.Error(t, err)
}
