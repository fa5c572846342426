package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavecore/masterstream/internal/master"
)

func desc(track string, idx int) ChunkDescriptor {
	return ChunkDescriptor{TrackID: track, ChunkIndex: idx, PresetHash: "p1"}
}

func TestGetCachesAfterFirstBuild(t *testing.T) {
	m := NewManager(8, nil, 3)
	var calls int32

	build := func(ctx context.Context) (*master.ProcessedChunk, []byte, error) {
		atomic.AddInt32(&calls, 1)
		return &master.ProcessedChunk{ChunkIndex: 0}, []byte("encoded"), nil
	}

	d := desc("trackA", 0)
	_, enc1, err := m.Get(context.Background(), d, build)
	require.NoError(t, err)
	assert.Equal(t, []byte("encoded"), enc1)

	_, enc2, err := m.Get(context.Background(), d, build)
	require.NoError(t, err)
	assert.Equal(t, []byte("encoded"), enc2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestConcurrentGetBuildsOnce(t *testing.T) {
	m := NewManager(8, nil, 3)
	var calls int32
	d := desc("trackB", 0)

	build := func(ctx context.Context) (*master.ProcessedChunk, []byte, error) {
		atomic.AddInt32(&calls, 1)
		return &master.ProcessedChunk{ChunkIndex: 0}, []byte("x"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Get(context.Background(), d, build)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEvictionSparesPredictiveWindow(t *testing.T) {
	m := NewManager(2, nil, 3)
	build := func(idx int) BuildFunc {
		return func(ctx context.Context) (*master.ProcessedChunk, []byte, error) {
			return &master.ProcessedChunk{ChunkIndex: idx}, []byte{byte(idx)}, nil
		}
	}

	ctx := context.Background()
	m.Get(ctx, desc("trackC", 0), build(0))
	m.AdvancePosition("trackC", "p1", 0)
	m.Get(ctx, desc("trackC", 1), build(1))
	m.Get(ctx, desc("trackC", 2), build(2))

	if _, ok := m.hot.get(desc("trackC", 0).Key()); !ok {
		t.Fatalf("chunk 0 should be protected by the predictive window")
	}
}

func TestPurgeTrackRemovesHotEntries(t *testing.T) {
	m := NewManager(8, nil, 3)
	build := func(ctx context.Context) (*master.ProcessedChunk, []byte, error) {
		return &master.ProcessedChunk{ChunkIndex: 0}, []byte("y"), nil
	}
	d := desc("trackD", 0)
	m.Get(context.Background(), d, build)
	m.PurgeTrack(context.Background(), "trackD", false)

	if _, ok := m.hot.get(d.Key()); ok {
		t.Fatalf("expected hot entry to be purged")
	}
}
