package stream

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/masterstream/internal/cache"
	"github.com/wavecore/masterstream/internal/classify"
	apperrors "github.com/wavecore/masterstream/internal/errors"
	"github.com/wavecore/masterstream/internal/fingerprint"
	"github.com/wavecore/masterstream/internal/pcm"
)

type fakeLoader struct {
	buf *pcm.Buffer
}

func (f *fakeLoader) Load(ctx context.Context, trackID string) (*pcm.Buffer, error) {
	return f.buf, nil
}

type fakeVectors struct{}

var errNoVector = errors.New("no fingerprint")

func (fakeVectors) Vector(ctx context.Context, trackID string) (fingerprint.Vector, error) {
	return fingerprint.Vector{}, errNoVector
}

func testBuffer(seconds float64, sampleRate, channels int) *pcm.Buffer {
	n := int(seconds * float64(sampleRate))
	samples := make([]float64, n*channels)
	for i := 0; i < n; i++ {
		v := 0.25 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = v
		}
	}
	return &pcm.Buffer{SampleRate: sampleRate, Channels: channels, Samples: samples}
}

func testController(buf *pcm.Buffer) *Controller {
	cfg := DefaultConfig()
	cfg.Master.ChunkDurationSec = 2
	cfg.Master.ContextDurationSec = 1
	mgr := cache.NewManager(8, nil, cfg.PredictiveWindow)
	return New(&fakeLoader{buf: buf}, fakeVectors{}, mgr, cfg)
}

func TestRequestChunkReturnsSequentialChunks(t *testing.T) {
	buf := testBuffer(10, 44100, 2)
	c := testController(buf)

	resp0, err := c.RequestChunk(context.Background(), "trackA", 0, classify.PresetAdaptive, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, resp0.ChunkIndex)
	assert.NotEmpty(t, resp0.Data)

	resp1, err := c.RequestChunk(context.Background(), "trackA", 1, classify.PresetAdaptive, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, resp1.ChunkIndex)
	assert.Equal(t, resp0.PresetHash, resp1.PresetHash)
}

func TestRequestChunkOutOfRangeIsNotFound(t *testing.T) {
	buf := testBuffer(3, 44100, 2)
	c := testController(buf)

	_, err := c.RequestChunk(context.Background(), "trackB", 99, classify.PresetAdaptive, 0.5)
	require.Error(t, err)
	var apiErr *apperrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestRequestChunkCachesRepeatedRequest(t *testing.T) {
	buf := testBuffer(5, 44100, 1)
	c := testController(buf)

	r1, err := c.RequestChunk(context.Background(), "trackC", 0, classify.PresetGentle, 0.3)
	require.NoError(t, err)

	r2, err := c.RequestChunk(context.Background(), "trackC", 0, classify.PresetGentle, 0.3)
	require.NoError(t, err)

	assert.Equal(t, r1.Data, r2.Data)
}

func TestConcurrentChunkRequestsAreOrdered(t *testing.T) {
	buf := testBuffer(12, 44100, 1)
	c := testController(buf)

	var wg sync.WaitGroup
	results := make([]*ChunkResponse, 4)
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = c.RequestChunk(context.Background(), "trackD", idx, classify.PresetPunchy, 0.7)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "chunk %d", i)
		assert.Equal(t, i, results[i].ChunkIndex)
	}
}

func TestEndStreamPurgesSession(t *testing.T) {
	buf := testBuffer(5, 44100, 2)
	c := testController(buf)

	_, err := c.RequestChunk(context.Background(), "trackE", 0, classify.PresetWarm, 0.4)
	require.NoError(t, err)

	c.EndStream(context.Background(), "trackE")

	c.mu.Lock()
	_, ok := c.sessions["trackE"]
	c.mu.Unlock()
	assert.False(t, ok)
}
