// Package handlers wires the HTTP surface described in spec.md §6.2 onto
// internal/stream and internal/queue, in the teacher's gin-handler idiom.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	masterstreamerrors "github.com/wavecore/masterstream/internal/errors"
	"github.com/wavecore/masterstream/internal/classify"
	"github.com/wavecore/masterstream/internal/stream"
	"github.com/wavecore/masterstream/internal/util"
)

// ChunkReadyNotifier reports a built chunk to the WebSocket progress channel
// (spec.md §6.3 "chunk_ready"). internal/websocket.ProgressNotifier
// satisfies this; nil is a valid no-op notifier.
type ChunkReadyNotifier interface {
	NotifyChunkReady(track string, index int, presetHash string)
}

// ChunkHandler serves GET /stream/chunk.
type ChunkHandler struct {
	controller *stream.Controller
	notifier   ChunkReadyNotifier
}

// NewChunkHandler builds a ChunkHandler over the given streaming controller.
func NewChunkHandler(controller *stream.Controller) *ChunkHandler {
	return &ChunkHandler{controller: controller}
}

// SetNotifier attaches a chunk-ready notifier.
func (h *ChunkHandler) SetNotifier(n ChunkReadyNotifier) {
	h.notifier = n
}

// Serve implements GET /stream/chunk?track=<id>&index=<int>&preset=<name>&intensity=<float>
// per spec.md §6.2.
func (h *ChunkHandler) Serve(c *gin.Context) {
	trackID := c.Query("track")
	if trackID == "" {
		util.RespondBadRequest(c, "track is required")
		return
	}

	index, err := strconv.Atoi(c.Query("index"))
	if err != nil || index < 0 {
		util.RespondBadRequest(c, "index must be a non-negative integer")
		return
	}

	preset := classify.Preset(c.DefaultQuery("preset", string(classify.PresetAdaptive)))

	intensity := 0.5
	if raw := c.Query("intensity"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			util.RespondBadRequest(c, "intensity must be a float in [0,1]")
			return
		}
		intensity = v
	}

	resp, err := h.controller.RequestChunk(c.Request.Context(), trackID, index, preset, intensity)
	if err != nil {
		respondChunkError(c, err)
		return
	}

	c.Header("X-Chunk-Index", strconv.Itoa(resp.ChunkIndex))
	c.Header("X-Chunk-Count", strconv.Itoa(resp.ChunkCount))
	c.Header("X-Chunk-Samples", strconv.Itoa(resp.ChunkSamples))
	c.Header("X-Chunk-Crossfade", strconv.Itoa(resp.CrossfadeSamples))
	c.Header("X-Preset-Hash", resp.PresetHash)
	c.Data(http.StatusOK, "audio/webm; codecs=opus", resp.Data)

	if h.notifier != nil {
		h.notifier.NotifyChunkReady(trackID, resp.ChunkIndex, resp.PresetHash)
	}
}

// respondChunkError maps internal/errors kinds to the 404/409/500 contract
// of spec.md §6.2.
func respondChunkError(c *gin.Context, err error) {
	var apiErr *masterstreamerrors.APIError
	if errors.As(err, &apiErr) {
		util.RespondWithAPIError(c, apiErr)
		return
	}
	util.RespondInternalError(c, err.Error())
}
