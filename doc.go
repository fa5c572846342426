// Package masterstream implements the core adaptive mastering and
// progressive-streaming engine.
//
// The server entry point lives in cmd/server. The domain logic is organized
// into internal packages:
//
//   - internal/pcm: source decode into normalized float64 PCM buffers
//   - internal/dsp: STFT, HPSS, pitch estimation, CQT chroma, and the
//     adaptive compressor/limiter primitives shared by fingerprinting and
//     mastering
//   - internal/fingerprint: 25-dimensional audio fingerprint extraction and
//     integrity hashing
//   - internal/classify: recording-type classification and preset parameter
//     recommendation
//   - internal/master: the chunked, stateful mastering pipeline
//   - internal/encode: Opus encoding and WebM container muxing
//   - internal/cache: two-tier chunk cache with predictive-window eviction
//   - internal/stream: progressive streaming session management
//   - internal/queue: background fingerprint computation workers
//   - internal/database: persistence for fingerprint records
//   - internal/handlers: HTTP handlers for the streaming and fingerprint API
//   - internal/websocket: real-time job progress and playback-state channel
//   - internal/config: configuration loading
//   - internal/logger: structured logging
//   - internal/metrics: Prometheus instrumentation
//   - internal/middleware: HTTP middleware (rate limiting, request IDs, etc.)
//   - internal/errors: the API error taxonomy
package masterstream
