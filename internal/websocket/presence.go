// Package websocket: ProgressNotifier pushes job_progress, chunk_ready and
// player_state events onto the hub (spec.md §6.3).
package websocket

import (
	"sync"
	"time"
)

// ProgressNotifier pushes the three domain events this engine broadcasts:
// fingerprint job progress, chunk-ready prefetch hints, and periodic
// player-state snapshots. Beyond the hub reference it keeps only the time
// of each client's last player_state send, for throttling; callers supply
// the payload each time.
type ProgressNotifier struct {
	hub *Hub

	mu            sync.Mutex
	lastPlayerAt  map[string]time.Time
	minPlayerGap  time.Duration
}

// NewProgressNotifier builds a notifier over hub. minPlayerGap throttles
// player_state broadcasts per client so a misbehaving UI can't flood the
// socket faster than spec.md §6.3's >= 1 Hz floor implies is needed.
func NewProgressNotifier(hub *Hub, minPlayerGap time.Duration) *ProgressNotifier {
	if minPlayerGap <= 0 {
		minPlayerGap = time.Second
	}
	return &ProgressNotifier{
		hub:          hub,
		lastPlayerAt: make(map[string]time.Time),
		minPlayerGap: minPlayerGap,
	}
}

// NotifyJobProgress broadcasts fingerprint extraction progress for jobID to
// every connected client.
func (p *ProgressNotifier) NotifyJobProgress(jobID string, progress int, message string) {
	p.hub.Broadcast(NewMessage(MessageTypeJobProgress, JobProgressPayload{
		JobID:    jobID,
		Progress: progress,
		Message:  message,
	}))
}

// NotifyChunkReady broadcasts that a chunk has finished building and is
// available to pre-fetch.
func (p *ProgressNotifier) NotifyChunkReady(track string, index int, presetHash string) {
	p.hub.Broadcast(NewMessage(MessageTypeChunkReady, ChunkReadyPayload{
		Track:      track,
		Index:      index,
		PresetHash: presetHash,
	}))
}

// NotifyPlayerState sends a clientID its own playback snapshot, throttled to
// at most one update per minPlayerGap.
func (p *ProgressNotifier) NotifyPlayerState(clientID string, state PlayerStatePayload) {
	p.mu.Lock()
	last, seen := p.lastPlayerAt[clientID]
	now := time.Now()
	if seen && now.Sub(last) < p.minPlayerGap {
		p.mu.Unlock()
		return
	}
	p.lastPlayerAt[clientID] = now
	p.mu.Unlock()

	p.hub.SendToClient(clientID, NewMessage(MessageTypePlayerState, state))
}
