package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/masterstream/internal/cache"
	"github.com/wavecore/masterstream/internal/fingerprint"
	"github.com/wavecore/masterstream/internal/pcm"
	"github.com/wavecore/masterstream/internal/stream"
)

type fakeLoader struct{ buf *pcm.Buffer }

func (f *fakeLoader) Load(ctx context.Context, trackID string) (*pcm.Buffer, error) {
	return f.buf, nil
}

type fakeVectors struct{}

var errNoVector = errors.New("no fingerprint")

func (fakeVectors) Vector(ctx context.Context, trackID string) (fingerprint.Vector, error) {
	return fingerprint.Vector{}, errNoVector
}

func testBuffer() *pcm.Buffer {
	n := 5 * 44100
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.2 * math.Sin(2*math.Pi*440*float64(i)/44100)
	}
	return &pcm.Buffer{SampleRate: 44100, Channels: 1, Samples: samples}
}

func testHandler() *ChunkHandler {
	cfg := stream.DefaultConfig()
	cfg.Master.ChunkDurationSec = 2
	cfg.Master.ContextDurationSec = 1
	mgr := cache.NewManager(8, nil, cfg.PredictiveWindow)
	controller := stream.New(&fakeLoader{buf: testBuffer()}, fakeVectors{}, mgr, cfg)
	return NewChunkHandler(controller)
}

func setupRouter(h *ChunkHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/stream/chunk", h.Serve)
	return r
}

func TestChunkHandlerServesChunkWithHeaders(t *testing.T) {
	r := setupRouter(testHandler())

	req := httptest.NewRequest(http.MethodGet, "/stream/chunk?track=trackA&index=0&preset=adaptive&intensity=0.5", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-Chunk-Index"))
	assert.NotEmpty(t, rec.Header().Get("X-Preset-Hash"))
	assert.Equal(t, "audio/webm; codecs=opus", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestChunkHandlerMissingTrackIsBadRequest(t *testing.T) {
	r := setupRouter(testHandler())

	req := httptest.NewRequest(http.MethodGet, "/stream/chunk?index=0", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChunkHandlerOutOfRangeIsNotFound(t *testing.T) {
	r := setupRouter(testHandler())

	req := httptest.NewRequest(http.MethodGet, "/stream/chunk?track=trackA&index=999", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChunkHandlerInvalidIntensityIsBadRequest(t *testing.T) {
	r := setupRouter(testHandler())

	req := httptest.NewRequest(http.MethodGet, "/stream/chunk?track=trackA&index=0&intensity=2.0", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
