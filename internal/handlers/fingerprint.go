package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wavecore/masterstream/internal/database"
	"github.com/wavecore/masterstream/internal/queue"
	"github.com/wavecore/masterstream/internal/util"
)

// FingerprintHandler serves GET /tracks/:id/fingerprint, enqueueing
// background extraction on first request for a track with no row yet.
type FingerprintHandler struct {
	queue *queue.FingerprintQueue
}

// NewFingerprintHandler builds a FingerprintHandler over the given
// fingerprint worker pool.
func NewFingerprintHandler(q *queue.FingerprintQueue) *FingerprintHandler {
	return &FingerprintHandler{queue: q}
}

type fingerprintStatusResponse struct {
	TrackID      string  `json:"track_id"`
	Status       string  `json:"fingerprint_status"`
	ErrorMessage string  `json:"fingerprint_error_message,omitempty"`
	Hash         string  `json:"fingerprint_hash,omitempty"`
	Version      int     `json:"fingerprint_version,omitempty"`
}

// Status implements GET /tracks/:id/fingerprint per spec.md §6.1/§2: a
// track with no row yet is enqueued and reported as pending rather than
// 404'd, since "not computed yet" is the expected first-request state.
func (h *FingerprintHandler) Status(c *gin.Context) {
	trackID := c.Param("id")
	if trackID == "" {
		util.RespondBadRequest(c, "track id is required")
		return
	}

	row, err := database.GetFingerprintRow(trackID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := h.queue.Enqueue(trackID); err != nil {
			util.RespondInternalError(c, err.Error())
			return
		}
		c.JSON(http.StatusAccepted, fingerprintStatusResponse{
			TrackID: trackID,
			Status:  string(database.FingerprintPending),
		})
		return
	}
	if err != nil {
		util.RespondInternalError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, fingerprintStatusResponse{
		TrackID:      row.TrackID,
		Status:       string(row.Status),
		ErrorMessage: row.ErrorMessage,
		Hash:         row.Hash,
		Version:      row.Version,
	})
}
