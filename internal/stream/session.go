package stream

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wavecore/masterstream/internal/classify"
	"github.com/wavecore/masterstream/internal/encode"
	"github.com/wavecore/masterstream/internal/logger"
	"github.com/wavecore/masterstream/internal/master"
	"github.com/wavecore/masterstream/internal/pcm"
)

// trackSession holds everything scoped to one actively-streamed track: the
// decoded source, its classification, the mastering pipeline's carried
// state (envelope, gain trend, crossfade tail), and the WebM/Opus encoder
// instance, which must stay single-owner per track because the init
// segment is only emitted once (spec.md §4.5 "Encoder").
type trackSession struct {
	id             string
	buf            *pcm.Buffer
	classification classify.Result
	masterCfg      master.Config

	state   *master.StreamState
	muxer   *encode.WebMMuxer
	opusEnc *encode.OpusEncoder

	mu       sync.Mutex
	cond     *sync.Cond
	turn     int // next chunk index allowed to start a build
	initSent bool
}

func newTrackSession(trackID string, buf *pcm.Buffer, result classify.Result, masterCfg master.Config) (*trackSession, error) {
	opusEnc, err := encode.NewOpusEncoder(buf.Channels)
	if err != nil {
		return nil, err
	}
	s := &trackSession{
		id:             trackID,
		buf:            buf,
		classification: result,
		masterCfg:      masterCfg,
		state:          master.NewStreamState(buf.Channels),
		muxer:          encode.NewWebMMuxer(encode.OpusSampleRate, buf.Channels),
		opusEnc:        opusEnc,
	}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

func (s *trackSession) totalFrames() int {
	return s.buf.Frames()
}

// waitForTurn blocks until chunkIndex is next in the strictly sequential
// build order the compressor's carried envelope state requires (spec.md
// §4.4 step 3, §5 "a chunk k build cannot start until chunk k-1's ... state
// exist"), or until ctx is cancelled.
func (s *trackSession) waitForTurn(ctx context.Context, chunkIndex int) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.turn < chunkIndex && ctx.Err() == nil {
		s.cond.Wait()
	}
}

// advanceTurn records that chunkIndex's build slot has been consumed
// (successfully or not — either way the next chunk may proceed; a failed
// chunk is dropped per spec.md §4.4 "Failure semantics", not retried
// in-order).
func (s *trackSession) advanceTurn(chunkIndex int) {
	s.mu.Lock()
	if chunkIndex+1 > s.turn {
		s.turn = chunkIndex + 1
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// build runs the mastering pipeline and muxes the result into this
// session's ongoing WebM stream, emitting the init segment ahead of the
// first chunk's bytes.
func (s *trackSession) build(ctx context.Context, chunkIndex int, params classify.AdaptiveParameters) (*master.ProcessedChunk, []byte, error) {
	chunk, err := master.BuildChunk(ctx, s.buf, chunkIndex, params, s.masterCfg, s.state)
	if err != nil {
		logger.Log.Debug("chunk build failed",
			logger.WithTrackID(s.id),
			logger.WithChunkIndex(chunkIndex),
			zap.Error(err),
		)
		return nil, nil, err
	}
	logger.Log.Debug("chunk built",
		logger.WithTrackID(s.id),
		logger.WithChunkIndex(chunkIndex),
		zap.Float64("gain_db", chunk.GainDB),
	)

	frames, err := s.opusEnc.EncodeFrames(chunk.Samples, chunk.SampleRate)
	if err != nil {
		return nil, nil, err
	}

	out := s.muxPrefix()
	out = append(out, s.muxer.EncodeChunk(frames)...)
	return chunk, out, nil
}

func (s *trackSession) muxPrefix() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initSent {
		return nil
	}
	s.initSent = true
	return s.muxer.InitSegment()
}

// passThrough serves the raw source audio for a chunk that could not be
// mastered within its soft deadline (spec.md §5 "falls back to serving
// source-pass-through ... if preserve_character >= 0.5"). It does not
// touch the carried envelope/gain state, since the pipeline never ran.
func (s *trackSession) passThrough(chunkIndex, chunkCount int, presetHash string) (*ChunkResponse, error) {
	frameLen := s.masterCfg.ChunkDurationSec * s.buf.SampleRate
	start := chunkIndex * frameLen
	window := s.buf.Window(start, frameLen)

	frames, err := s.opusEnc.EncodeFrames(window.Samples, window.SampleRate)
	if err != nil {
		return nil, err
	}

	out := s.muxPrefix()
	out = append(out, s.muxer.EncodeChunk(frames)...)

	return &ChunkResponse{
		Data:             out,
		ChunkIndex:       chunkIndex,
		ChunkCount:       chunkCount,
		ChunkSamples:     window.Frames(),
		CrossfadeSamples: 0,
		PresetHash:       presetHash,
	}, nil
}
