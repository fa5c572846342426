// Package stream implements the progressive streaming controller: the
// chunk request protocol, predictive-window scheduling, and per-track
// session lifecycle described in spec.md §4.5 and §5.
package stream

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/wavecore/masterstream/internal/cache"
	"github.com/wavecore/masterstream/internal/classify"
	"github.com/wavecore/masterstream/internal/errors"
	"github.com/wavecore/masterstream/internal/fingerprint"
	"github.com/wavecore/masterstream/internal/master"
	"github.com/wavecore/masterstream/internal/metrics"
	"github.com/wavecore/masterstream/internal/pcm"
)

// TrackLoader loads a decoded track's full PCM buffer by id. Implementations
// typically wrap internal/pcm's decoder over a stored audio file.
type TrackLoader interface {
	Load(ctx context.Context, trackID string) (*pcm.Buffer, error)
}

// VectorProvider resolves a track's persisted fingerprint vector. Returning
// an error (e.g. not yet computed) is not fatal: the controller falls back
// to classify.RecordingType Unknown with conservative parameters
// (spec.md §7 "Fingerprint errors ... do not block playback").
type VectorProvider interface {
	Vector(ctx context.Context, trackID string) (fingerprint.Vector, error)
}

// Config bundles the tunables the controller needs beyond cache.Manager and
// master.Config, per spec.md §6.4.
type Config struct {
	Master            master.Config
	Classify          classify.Config
	PredictiveWindow  int
	BuildTimeoutFactor float64
}

// DefaultConfig mirrors spec.md §6.4's documented defaults.
func DefaultConfig() Config {
	return Config{
		Master: master.Config{
			ChunkDurationSec:   30,
			ContextDurationSec: 5,
			CrossfadeMs:        200,
			MaxDBDeltaPerChunk: 1.5,
			SoftCeilingDBFS:    -0.5,
		},
		Classify:           classify.DefaultConfig(),
		PredictiveWindow:   3,
		BuildTimeoutFactor: 2.0,
	}
}

// ChunkResponse is what the HTTP layer (internal/handlers) serializes for
// /stream/chunk (spec.md §6.2).
type ChunkResponse struct {
	Data             []byte
	ChunkIndex       int
	ChunkCount       int
	ChunkSamples     int
	CrossfadeSamples int
	PresetHash       string
}

// Controller coordinates track sessions, the chunk cache, and the
// mastering+encoding pipeline.
type Controller struct {
	loader   TrackLoader
	vectors  VectorProvider
	cache    *cache.Manager
	cfg      Config

	mu       sync.Mutex
	sessions map[string]*trackSession
}

// New builds a streaming controller.
func New(loader TrackLoader, vectors VectorProvider, cacheMgr *cache.Manager, cfg Config) *Controller {
	return &Controller{
		loader:   loader,
		vectors:  vectors,
		cache:    cacheMgr,
		cfg:      cfg,
		sessions: make(map[string]*trackSession),
	}
}

// PresetHash is the short content hash of an applied parameter set
// (spec.md §4.5 "preset_hash(preset, intensity)", §6.2 "X-Preset-Hash").
func PresetHash(preset classify.Preset, intensity float64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%.4f", preset, intensity)))
	return hex.EncodeToString(sum[:])[:16]
}

// RequestChunk implements the chunk request protocol of spec.md §4.5.
func (c *Controller) RequestChunk(ctx context.Context, trackID string, chunkIndex int, preset classify.Preset, intensity float64) (*ChunkResponse, error) {
	sess, err := c.session(ctx, trackID)
	if err != nil {
		return nil, err
	}

	chunkCount := master.ChunkCount(sess.totalFrames(), sess.buf.SampleRate, c.cfg.Master.ChunkDurationSec)
	if chunkIndex < 0 || chunkIndex >= chunkCount {
		return nil, errors.NotFound("chunk")
	}

	presetHash := PresetHash(preset, intensity)
	params := classify.MapParameters(sess.classification, preset, intensity)

	c.cache.AdvancePosition(trackID, presetHash, chunkIndex)
	sess.waitForTurn(ctx, chunkIndex)

	desc := cache.ChunkDescriptor{TrackID: trackID, ChunkIndex: chunkIndex, PresetHash: presetHash}

	deadline := time.Duration(float64(c.cfg.Master.ChunkDurationSec) * c.cfg.BuildTimeoutFactor * float64(time.Second))
	buildCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	chunk, encoded, err := c.cache.Get(buildCtx, desc, func(bctx context.Context) (*master.ProcessedChunk, []byte, error) {
		return sess.build(bctx, chunkIndex, params)
	})
	sess.advanceTurn(chunkIndex)

	if err != nil {
		if buildCtx.Err() == context.DeadlineExceeded {
			metrics.Get().ChunkBuildsTotal.WithLabelValues(string(preset), "timeout").Inc()
			if params.PreserveCharacter >= 0.5 {
				return sess.passThrough(chunkIndex, chunkCount, presetHash)
			}
			return nil, errors.BuildTimeout(chunkIndex)
		}
		return nil, err
	}

	metrics.Get().StreamChunksServedTotal.WithLabelValues("built").Inc()
	return &ChunkResponse{
		Data:             encoded,
		ChunkIndex:       chunkIndex,
		ChunkCount:       chunkCount,
		ChunkSamples:     chunk.AudibleFrames,
		CrossfadeSamples: chunk.CrossfadeSamples,
		PresetHash:       presetHash,
	}, nil
}

// EndStream purges a track's cache residency and session state (spec.md
// §4.5 "Per-track cleanup").
func (c *Controller) EndStream(ctx context.Context, trackID string) {
	c.cache.PurgeTrack(ctx, trackID, true)
	c.mu.Lock()
	delete(c.sessions, trackID)
	c.mu.Unlock()
}

// SweepIdle purges sessions for tracks idle beyond the cache's idle
// timeout. Intended to be called periodically (e.g. by cmd/server).
func (c *Controller) SweepIdle(ctx context.Context) []string {
	stale := c.cache.SweepIdle(ctx, time.Now())
	c.mu.Lock()
	for _, id := range stale {
		delete(c.sessions, id)
	}
	c.mu.Unlock()
	return stale
}

func (c *Controller) session(ctx context.Context, trackID string) (*trackSession, error) {
	c.mu.Lock()
	sess, ok := c.sessions[trackID]
	c.mu.Unlock()
	if ok {
		return sess, nil
	}

	buf, err := c.loader.Load(ctx, trackID)
	if err != nil {
		return nil, errors.DecodeError(err.Error())
	}

	var result classify.Result
	if v, verr := c.vectors.Vector(ctx, trackID); verr == nil {
		result = classify.Classify(v, c.cfg.Classify)
	} else {
		result = classify.Result{Primary: classify.Unknown, Confidence: 0}
	}

	sess, err = newTrackSession(trackID, buf, result, c.cfg.Master)
	if err != nil {
		return nil, errors.EncoderError(err.Error())
	}
	c.mu.Lock()
	if existing, ok := c.sessions[trackID]; ok {
		sess = existing
	} else {
		c.sessions[trackID] = sess
	}
	c.mu.Unlock()
	return sess, nil
}
