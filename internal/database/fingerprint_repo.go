package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	masterstreamerrors "github.com/wavecore/masterstream/internal/errors"
	"github.com/wavecore/masterstream/internal/fingerprint"
)

// GetFingerprintRow fetches the fingerprint row for a track, or
// gorm.ErrRecordNotFound if none exists yet.
func GetFingerprintRow(trackID string) (*FingerprintRow, error) {
	var row FingerprintRow
	if err := DB.First(&row, "track_id = ?", trackID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// EnsurePending creates a pending row for a track if one doesn't already
// exist. It is a no-op (not an error) if the row is already present in any
// status.
func EnsurePending(trackID string) error {
	row := FingerprintRow{
		TrackID: trackID,
		Status:  FingerprintPending,
		Version: FingerprintVersion,
	}
	return DB.Clauses().Where(FingerprintRow{TrackID: trackID}).
		FirstOrCreate(&row).Error
}

// ClaimForProcessing performs the pending -> processing CAS transition used
// by a fingerprint worker before starting a job. It returns
// gorm.ErrRecordNotFound if no row is currently pending for that track
// (already claimed by another worker, or not enqueued).
func ClaimForProcessing(trackID string) error {
	res := DB.Model(&FingerprintRow{}).
		Where("track_id = ? AND fingerprint_status = ?", trackID, FingerprintPending).
		Update("fingerprint_status", FingerprintProcessing)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkComplete performs the processing -> complete CAS transition, storing
// the computed vector JSON and hash.
func MarkComplete(trackID, vectorJSON, hash string) error {
	now := time.Now().UTC()
	res := DB.Model(&FingerprintRow{}).
		Where("track_id = ? AND fingerprint_status = ?", trackID, FingerprintProcessing).
		Updates(map[string]any{
			"fingerprint_status":      FingerprintComplete,
			"fingerprint_computed_at": &now,
			"fingerprint_vector":      vectorJSON,
			"fingerprint_hash":        hash,
			"fingerprint_version":     FingerprintVersion,
			"fingerprint_error_message": "",
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("track %s was not in processing state", trackID)
	}
	return nil
}

// MarkError performs the processing -> error CAS transition.
func MarkError(trackID, message string) error {
	res := DB.Model(&FingerprintRow{}).
		Where("track_id = ? AND fingerprint_status = ?", trackID, FingerprintProcessing).
		Updates(map[string]any{
			"fingerprint_status":        FingerprintError,
			"fingerprint_error_message": message,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("track %s was not in processing state", trackID)
	}
	return nil
}

// Reenqueue transitions a track from error (or any terminal state, on
// explicit user request) back to pending.
func Reenqueue(trackID string) error {
	res := DB.Model(&FingerprintRow{}).
		Where("track_id = ?", trackID).
		Update("fingerprint_status", FingerprintPending)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListPendingFIFO returns up to limit pending rows ordered by created_at, the
// FIFO contract the background queue dequeues against (spec.md §4.2).
func ListPendingFIFO(limit int) ([]FingerprintRow, error) {
	var rows []FingerprintRow
	err := DB.Where("fingerprint_status = ?", FingerprintPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// VectorProvider implements internal/stream.VectorProvider over the
// fingerprints table, decoding the persisted JSON vector on read.
type VectorProvider struct{}

// Vector resolves trackID's persisted fingerprint vector. It returns an
// error if no row exists yet or the row hasn't reached complete status;
// the caller (internal/stream.Controller) treats that as non-fatal.
func (VectorProvider) Vector(ctx context.Context, trackID string) (fingerprint.Vector, error) {
	row, err := GetFingerprintRow(trackID)
	if err != nil {
		return fingerprint.Vector{}, err
	}
	if row.Status != FingerprintComplete {
		return fingerprint.Vector{}, fmt.Errorf("track %s fingerprint not complete (status=%s)", trackID, row.Status)
	}
	var v fingerprint.Vector
	if err := json.Unmarshal([]byte(row.VectorJSON), &v); err != nil {
		return fingerprint.Vector{}, fmt.Errorf("decode fingerprint vector for %s: %w", trackID, err)
	}
	if !v.Verify(row.Hash) {
		return fingerprint.Vector{}, masterstreamerrors.FingerprintIntegrity(trackID)
	}
	return v, nil
}
