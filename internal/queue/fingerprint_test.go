package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wavecore/masterstream/internal/database"
	"github.com/wavecore/masterstream/internal/fingerprint"
	"github.com/wavecore/masterstream/internal/pcm"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.FingerprintRow{}))
	database.DB = db
}

type fakeLoader struct {
	buf *pcm.Buffer
	err error
}

func (f *fakeLoader) Load(ctx context.Context, trackID string) (*pcm.Buffer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.buf, nil
}

type fakeComputer struct {
	err error
}

func (f *fakeComputer) Compute(ctx context.Context, buf *pcm.Buffer) (*fingerprint.Fingerprint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fingerprint.Fingerprint{Vector: fingerprint.Vector{LUFS: -14.2}, SchemaVersion: 1, Hash: "abc123"}, nil
}

func testBuffer() *pcm.Buffer {
	return &pcm.Buffer{SampleRate: 44100, Channels: 1, Samples: make([]float64, 44100*2)}
}

func TestFingerprintQueueProcessesPendingTrack(t *testing.T) {
	setupTestDB(t)

	q := New(&fakeLoader{buf: testBuffer()}, &fakeComputer{}, 2)
	q.Start()
	defer q.Stop()

	require.NoError(t, q.Enqueue("track-1"))
	require.NoError(t, q.WaitForCompletion("track-1", 2*time.Second))

	row, err := database.GetFingerprintRow("track-1")
	require.NoError(t, err)
	assert.Equal(t, database.FingerprintComplete, row.Status)
	assert.Equal(t, "abc123", row.Hash)
}

func TestFingerprintQueueMarksErrorOnLoadFailure(t *testing.T) {
	setupTestDB(t)

	q := New(&fakeLoader{err: fmt.Errorf("source missing")}, &fakeComputer{}, 2)
	q.Start()
	defer q.Stop()

	require.NoError(t, q.Enqueue("track-2"))
	require.NoError(t, q.WaitForCompletion("track-2", 2*time.Second))

	row, err := database.GetFingerprintRow("track-2")
	require.NoError(t, err)
	assert.Equal(t, database.FingerprintError, row.Status)
	assert.Contains(t, row.ErrorMessage, "source missing")
}

func TestFingerprintQueueDoesNotDoubleProcess(t *testing.T) {
	setupTestDB(t)

	q := New(&fakeLoader{buf: testBuffer()}, &fakeComputer{}, 8)
	q.Start()
	defer q.Stop()

	const numTracks = 20
	var wg sync.WaitGroup
	for i := 0; i < numTracks; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			require.NoError(t, q.Enqueue(fmt.Sprintf("track-%d", idx)))
		}(i)
	}
	wg.Wait()

	for i := 0; i < numTracks; i++ {
		require.NoError(t, q.WaitForCompletion(fmt.Sprintf("track-%d", i), 5*time.Second))
	}

	for i := 0; i < numTracks; i++ {
		row, err := database.GetFingerprintRow(fmt.Sprintf("track-%d", i))
		require.NoError(t, err)
		assert.Equal(t, database.FingerprintComplete, row.Status)
	}
}

func TestQueueDepthReflectsPendingBacklog(t *testing.T) {
	setupTestDB(t)

	q := New(&fakeLoader{buf: testBuffer()}, &fakeComputer{}, 0)
	require.NoError(t, q.Enqueue("track-a"))
	require.NoError(t, q.Enqueue("track-b"))

	depth, err := QueueDepth()
	require.NoError(t, err)
	assert.Equal(t, 2, depth)
}

func BenchmarkEnqueue(b *testing.B) {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	db.AutoMigrate(&database.FingerprintRow{})
	database.DB = db

	q := New(&fakeLoader{buf: testBuffer()}, &fakeComputer{}, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Enqueue(fmt.Sprintf("bench-track-%d", i))
	}
}
