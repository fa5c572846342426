// Package queue runs the background fingerprint worker pool: it dequeues
// pending tracks FIFO, computes their fingerprint vector, and persists the
// result (spec.md §4.2, §6.4 "fingerprint_workers").
package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wavecore/masterstream/internal/database"
	"github.com/wavecore/masterstream/internal/fingerprint"
	"github.com/wavecore/masterstream/internal/logger"
	"github.com/wavecore/masterstream/internal/metrics"
	"github.com/wavecore/masterstream/internal/pcm"
)

// DefaultWorkers is spec.md §6.4's documented default for fingerprint_workers.
const DefaultWorkers = 16

// defaultPollInterval is how often an idle pool checks for newly pending
// rows when its backlog is empty.
const defaultPollInterval = 500 * time.Millisecond

// TrackLoader loads a track's decoded PCM for fingerprinting.
// internal/audio.Store satisfies this.
type TrackLoader interface {
	Load(ctx context.Context, trackID string) (*pcm.Buffer, error)
}

// ProgressNotifier reports fingerprint job progress over the WebSocket
// channel (spec.md §6.3 "job_progress"). internal/websocket.ProgressNotifier
// satisfies this; nil is a valid no-op notifier.
type ProgressNotifier interface {
	NotifyJobProgress(jobID string, progress int, message string)
}

// FingerprintQueue is a bounded worker pool over the pending fingerprint
// backlog in internal/database. Workers claim rows via the pending ->
// processing CAS so two pool instances (or two replicas) never double
// process a track.
type FingerprintQueue struct {
	workers  int
	poll     time.Duration
	loader   TrackLoader
	computer fingerprint.Computer
	notifier ProgressNotifier

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a fingerprint worker pool. workers <= 0 falls back to
// DefaultWorkers.
func New(loader TrackLoader, computer fingerprint.Computer, workers int) *FingerprintQueue {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if computer == nil {
		computer = fingerprint.NewLocalComputer()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &FingerprintQueue{
		workers:  workers,
		poll:     defaultPollInterval,
		loader:   loader,
		computer: computer,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker goroutines.
func (q *FingerprintQueue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(i)
	}
}

// Stop signals workers to exit and waits for in-flight jobs to finish.
func (q *FingerprintQueue) Stop() {
	q.cancel()
	q.wg.Wait()
}

// SetNotifier attaches a progress notifier. Safe to call before Start; not
// safe to change concurrently with running workers.
func (q *FingerprintQueue) SetNotifier(n ProgressNotifier) {
	q.notifier = n
}

// Enqueue marks a track pending if it has no row yet. Safe to call
// repeatedly; a track already pending, processing, complete, or errored is
// left untouched.
func (q *FingerprintQueue) Enqueue(trackID string) error {
	return database.EnsurePending(trackID)
}

func (q *FingerprintQueue) run(workerID int) {
	defer q.wg.Done()

	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.drainOnce(workerID)
		}
	}
}

// drainOnce claims and processes pending rows until the backlog this worker
// can see is empty, so a burst of enqueues is worked down within one poll
// interval rather than trickling out one row per tick.
func (q *FingerprintQueue) drainOnce(workerID int) {
	for {
		select {
		case <-q.ctx.Done():
			return
		default:
		}

		row, ok := q.claimNext()
		if !ok {
			return
		}
		q.process(workerID, row.TrackID)
	}
}

// claimNext pops the oldest pending row and CASes it to processing. Because
// ClaimForProcessing is a conditional update on the pending row's current
// status, a concurrent claim by another worker (or pool instance) simply
// fails the CAS; claimNext then reports no row, and this worker's drain
// pass ends until the next poll.
func (q *FingerprintQueue) claimNext() (database.FingerprintRow, bool) {
	rows, err := database.ListPendingFIFO(1)
	if err != nil || len(rows) == 0 {
		return database.FingerprintRow{}, false
	}
	row := rows[0]
	if err := database.ClaimForProcessing(row.TrackID); err != nil {
		return database.FingerprintRow{}, false
	}
	return row, true
}

func (q *FingerprintQueue) process(workerID int, trackID string) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(q.ctx, 2*time.Minute)
	defer cancel()

	q.notify(trackID, 0, "loading track")

	buf, err := q.loader.Load(ctx, trackID)
	if err != nil {
		q.fail(trackID, err)
		return
	}

	q.notify(trackID, 40, "computing fingerprint")
	fp, err := q.computer.Compute(ctx, buf)
	if err != nil {
		q.fail(trackID, err)
		return
	}

	vectorJSON, err := json.Marshal(fp.Vector)
	if err != nil {
		q.fail(trackID, err)
		return
	}

	if err := database.MarkComplete(trackID, string(vectorJSON), fp.Hash); err != nil {
		q.fail(trackID, err)
		return
	}

	metrics.Get().FingerprintJobsTotal.WithLabelValues("complete").Inc()
	metrics.Get().FingerprintJobDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	q.notify(trackID, 100, "complete")
	logger.Log.Info("fingerprint job complete",
		logger.WithJobID(trackID),
		logger.WithTrackID(trackID),
		zap.Int("worker_id", workerID),
		zap.Duration("duration", time.Since(start)),
	)
}

func (q *FingerprintQueue) fail(trackID string, cause error) {
	if err := database.MarkError(trackID, cause.Error()); err != nil {
		logger.Log.Error("fingerprint job: mark error failed",
			logger.WithJobID(trackID),
			logger.WithTrackID(trackID),
			zap.Error(err),
		)
	}
	metrics.Get().FingerprintJobsTotal.WithLabelValues("error").Inc()
	q.notify(trackID, 100, "error: "+cause.Error())
	logger.Log.Warn("fingerprint job failed",
		logger.WithJobID(trackID),
		logger.WithTrackID(trackID),
		zap.Error(cause),
	)
}

func (q *FingerprintQueue) notify(trackID string, progress int, message string) {
	if q.notifier == nil {
		return
	}
	q.notifier.NotifyJobProgress(trackID, progress, message)
}

// WaitForCompletion polls until trackID reaches a terminal status (complete
// or error), for tests. Returns an error on timeout.
func (q *FingerprintQueue) WaitForCompletion(trackID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		row, err := database.GetFingerprintRow(trackID)
		if err == nil && (row.Status == database.FingerprintComplete || row.Status == database.FingerprintError) {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return context.DeadlineExceeded
}

// QueueDepth reports how many tracks are currently pending, for the
// fingerprint_queue_depth gauge.
func QueueDepth() (int, error) {
	rows, err := database.ListPendingFIFO(1 << 20)
	if err != nil && err != gorm.ErrRecordNotFound {
		return 0, err
	}
	return len(rows), nil
}
