package cache

import (
	"container/list"
	"sync"

	"github.com/wavecore/masterstream/internal/master"
	"github.com/wavecore/masterstream/internal/middleware"
)

// hotEntry is one T1 resident: decoded chunk plus its encoded bytes, at
// full fidelity (spec.md §4.5 "Hot (T1): ... holds ... decoded PCM +
// encoded bytes").
type hotEntry struct {
	desc    ChunkDescriptor
	chunk   *master.ProcessedChunk
	encoded []byte
	elem    *list.Element
}

// hotTier is an LRU cache over hotEntry, evicting the least-recently-used
// entry that is NOT within any live track's predictive window.
type hotTier struct {
	mu       sync.Mutex
	maxSize  int
	entries  map[string]*hotEntry
	order    *list.List // front = most recently used
}

func newHotTier(maxSize int) *hotTier {
	return &hotTier{
		maxSize: maxSize,
		entries: make(map[string]*hotEntry),
		order:   list.New(),
	}
}

func (t *hotTier) get(key string) (*hotEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	t.order.MoveToFront(e.elem)
	return e, true
}

// put inserts or refreshes key, evicting LRU entries that pass protect
// until the tier is back under maxSize. protect reports whether a
// candidate key must be spared (it's in some track's predictive window).
func (t *hotTier) put(desc ChunkDescriptor, chunk *master.ProcessedChunk, encoded []byte, protect func(key string) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := desc.Key()
	if existing, ok := t.entries[key]; ok {
		existing.chunk = chunk
		existing.encoded = encoded
		t.order.MoveToFront(existing.elem)
		return
	}

	e := &hotEntry{desc: desc, chunk: chunk, encoded: encoded}
	e.elem = t.order.PushFront(e)
	t.entries[key] = e

	for len(t.entries) > t.maxSize {
		if !t.evictOneLocked(protect) {
			break
		}
	}
}

func (t *hotTier) evictOneLocked(protect func(key string) bool) bool {
	for elem := t.order.Back(); elem != nil; elem = elem.Prev() {
		candidate := elem.Value.(*hotEntry)
		if protect != nil && protect(candidate.desc.Key()) {
			continue
		}
		t.order.Remove(elem)
		delete(t.entries, candidate.desc.Key())
		middleware.RecordCacheEviction("hot", 1)
		return true
	}
	return false
}

func (t *hotTier) deleteTrack(trackID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, e := range t.entries {
		if e.desc.TrackID == trackID {
			t.order.Remove(e.elem)
			delete(t.entries, key)
		}
	}
}

func (t *hotTier) delete(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		t.order.Remove(e.elem)
		delete(t.entries, key)
	}
}
