// Package cache implements the two-tier chunk cache described in spec.md
// §4.5 ("Tiers", "Single-flight"): a hot (T1) in-process tier holding
// decoded+encoded chunks for actively-playing tracks, and a warm (T2) tier
// holding encoded-only bytes in Redis, with single-flight build coalescing
// between them.
package cache

import (
	"fmt"
	"time"
)

// ChunkDescriptor is the immutable identity of a cached chunk: which track,
// which chunk index, and which parameter set (folded into a short hash so
// two presets never collide on the same cache entry).
type ChunkDescriptor struct {
	TrackID    string
	ChunkIndex int
	PresetHash string
}

// Key returns the cache/single-flight table key for this descriptor.
func (d ChunkDescriptor) Key() string {
	return fmt.Sprintf("%s:%d:%s", d.TrackID, d.ChunkIndex, d.PresetHash)
}

func (d ChunkDescriptor) redisKey() string {
	return "chunk:" + d.Key()
}

// TrackCacheState tracks one actively-played track: its current position,
// active preset, and which chunk indices are resident, so eviction can
// spare the predictive window and idle tracks can be swept (spec.md §4.5
// "Per-track cleanup").
type TrackCacheState struct {
	TrackID        string
	PresetHash     string
	PositionChunk  int
	ResidentHot    map[int]struct{}
	ResidentWarm   map[int]struct{}
	Pending        map[int]struct{}
	LastTouched    time.Time
}

func newTrackCacheState(trackID, presetHash string) *TrackCacheState {
	return &TrackCacheState{
		TrackID:      trackID,
		PresetHash:   presetHash,
		ResidentHot:  make(map[int]struct{}),
		ResidentWarm: make(map[int]struct{}),
		Pending:      make(map[int]struct{}),
		LastTouched:  time.Now(),
	}
}

func (s *TrackCacheState) inPredictiveWindow(chunkIndex, delta int) bool {
	return chunkIndex >= s.PositionChunk && chunkIndex <= s.PositionChunk+delta
}

// IdleDuration reports staleness since the track's last chunk request.
func (s *TrackCacheState) IdleDuration(now time.Time) time.Duration {
	return now.Sub(s.LastTouched)
}
