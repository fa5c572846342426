package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wavecore/masterstream/internal/master"
	"github.com/wavecore/masterstream/internal/metrics"
	"github.com/wavecore/masterstream/internal/middleware"
)

// BuildFunc runs the mastering+encoding pipeline for one chunk. It is
// invoked at most once per key even under concurrent requests, via the
// manager's single-flight group (spec.md §4.5 "Single-flight").
type BuildFunc func(ctx context.Context) (*master.ProcessedChunk, []byte, error)

// idleTimeout is how long a track can go without a chunk request before
// its state is swept (spec.md §4.5 "Per-track cleanup").
const idleTimeout = 60 * time.Second

// warmTTL bounds how long an abandoned track's encoded chunks linger in
// Redis before Redis itself reclaims them.
const warmTTL = 10 * time.Minute

// Manager owns the T1/T2 tiers, the single-flight build table, and the
// per-track predictive-window state (spec.md §4.5 "Chunk request
// protocol").
type Manager struct {
	hot    *hotTier
	warm   *RedisClient
	group  singleflight.Group
	delta  int

	mu     sync.Mutex
	tracks map[string]*TrackCacheState
}

// NewManager builds a cache with the given T1 capacity (chunks), an
// optional T2 store (nil disables the warm tier — purely in-process), and
// the predictive-window size Δ (spec.md default 3).
func NewManager(t1Max int, warm *RedisClient, predictiveWindowDelta int) *Manager {
	return &Manager{
		hot:    newHotTier(t1Max),
		warm:   warm,
		delta:  predictiveWindowDelta,
		tracks: make(map[string]*TrackCacheState),
	}
}

// Get implements the chunk request protocol: T1 hit, T2 hit-then-promote,
// or single-flight build (spec.md §4.5 lines 151-160).
func (m *Manager) Get(ctx context.Context, desc ChunkDescriptor, build BuildFunc) (*master.ProcessedChunk, []byte, error) {
	state := m.touchTrack(desc)

	if e, ok := m.hot.get(desc.Key()); ok {
		middleware.RecordCacheHit("hot")
		m.markResidentHot(state, desc.ChunkIndex)
		return e.chunk, e.encoded, nil
	}
	middleware.RecordCacheMiss("hot")

	if m.warm != nil {
		start := time.Now()
		encoded, err := m.warm.getChunk(ctx, desc)
		middleware.RecordCacheOperation("GET", "warm", time.Since(start))
		if err == nil {
			middleware.RecordCacheHit("warm")
			m.hot.put(desc, nil, encoded, m.protectFunc())
			m.markResidentHot(state, desc.ChunkIndex)
			return nil, encoded, nil
		}
		middleware.RecordCacheMiss("warm")
	}

	result, err, _ := m.group.Do(desc.Key(), func() (interface{}, error) {
		chunk, encoded, buildErr := build(ctx)
		if buildErr != nil {
			return nil, buildErr
		}
		m.hot.put(desc, chunk, encoded, m.protectFunc())
		if m.warm != nil {
			setStart := time.Now()
			_ = m.warm.setChunk(context.WithoutCancel(ctx), desc, encoded, warmTTL)
			middleware.RecordCacheOperation("SET", "warm", time.Since(setStart))
		}
		m.markResidentHot(state, desc.ChunkIndex)
		return [2]interface{}{chunk, encoded}, nil
	})
	if err != nil {
		return nil, nil, err
	}
	pair := result.([2]interface{})
	chunk, _ := pair[0].(*master.ProcessedChunk)
	encoded, _ := pair[1].([]byte)
	return chunk, encoded, nil
}

// AdvancePosition moves a track's playback position, which shifts its
// predictive window and unprotects chunks that fall behind it.
func (m *Manager) AdvancePosition(trackID, presetHash string, chunkIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.tracks[trackID]
	if !ok {
		return
	}
	if state.PresetHash != presetHash {
		state.PresetHash = presetHash
		state.ResidentHot = make(map[int]struct{})
		state.ResidentWarm = make(map[int]struct{})
	}
	state.PositionChunk = chunkIndex
	state.LastTouched = time.Now()
}

// PredictiveWindow returns the chunk indices [position, position+Δ] that
// should be pre-built for trackID, if it has active state.
func (m *Manager) PredictiveWindow(trackID string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.tracks[trackID]
	if !ok {
		return nil
	}
	indices := make([]int, 0, m.delta+1)
	for i := 0; i <= m.delta; i++ {
		indices = append(indices, state.PositionChunk+i)
	}
	return indices
}

// PurgeTrack removes a track's T1 residents and (optionally) its T2
// entries, per spec.md §4.5 "Per-track cleanup".
func (m *Manager) PurgeTrack(ctx context.Context, trackID string, demoteToWarm bool) {
	m.hot.deleteTrack(trackID)
	if !demoteToWarm && m.warm != nil {
		_ = m.warm.deleteTrack(ctx, trackID)
	}
	m.mu.Lock()
	delete(m.tracks, trackID)
	m.mu.Unlock()
}

// SweepIdle purges every track whose last chunk request predates now by
// more than idleTimeout.
func (m *Manager) SweepIdle(ctx context.Context, now time.Time) []string {
	m.mu.Lock()
	var stale []string
	for id, state := range m.tracks {
		if state.IdleDuration(now) > idleTimeout {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	for _, id := range stale {
		m.PurgeTrack(ctx, id, true)
	}
	return stale
}

func (m *Manager) touchTrack(desc ChunkDescriptor) *TrackCacheState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.tracks[desc.TrackID]
	if !ok {
		state = newTrackCacheState(desc.TrackID, desc.PresetHash)
		m.tracks[desc.TrackID] = state
		metrics.Get().StreamActiveTracks.WithLabelValues().Set(float64(len(m.tracks)))
	}
	state.LastTouched = time.Now()
	return state
}

func (m *Manager) markResidentHot(state *TrackCacheState, chunkIndex int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state.ResidentHot[chunkIndex] = struct{}{}
}

// protectFunc reports whether a T1 key belongs to any track's predictive
// window, sparing it from LRU eviction (spec.md §4.5 "excluding any chunk
// within the predictive window of current playback position").
func (m *Manager) protectFunc() func(key string) bool {
	return func(key string) bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, state := range m.tracks {
			for idx := range state.ResidentHot {
				d := ChunkDescriptor{TrackID: state.TrackID, ChunkIndex: idx, PresetHash: state.PresetHash}
				if d.Key() == key && state.inPredictiveWindow(idx, m.delta) {
					return true
				}
			}
		}
		return false
	}
}
