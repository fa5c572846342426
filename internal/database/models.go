package database

import "time"

// FingerprintStatus is the lifecycle state of a track's fingerprint row.
// Transitions are monotone: pending -> processing -> {complete, error}.
// Re-enqueue is only valid from error or on explicit user request.
type FingerprintStatus string

const (
	FingerprintPending    FingerprintStatus = "pending"
	FingerprintProcessing FingerprintStatus = "processing"
	FingerprintComplete   FingerprintStatus = "complete"
	FingerprintError      FingerprintStatus = "error"
)

// FingerprintVersion is the current fingerprint schema version (spec.md §6.1).
const FingerprintVersion = 1

// FingerprintRow is the one persisted entity in the core's scope: a single
// row per track carrying the fingerprint lifecycle and, once complete, the
// 25-dimensional vector and its integrity hash.
//
// This is the mastering core's analogue of the teacher's
// models.AudioFingerprint / models.SoundUsage pair, trimmed to just the
// fields spec.md §6.1 specifies — no match/usage tracking, which belongs to
// the out-of-scope library/social layers.
type FingerprintRow struct {
	TrackID      string            `gorm:"primaryKey;column:track_id" json:"track_id"`
	Status       FingerprintStatus `gorm:"column:fingerprint_status;index" json:"fingerprint_status"`
	ComputedAt   *time.Time        `gorm:"column:fingerprint_computed_at" json:"fingerprint_computed_at"`
	ErrorMessage string            `gorm:"column:fingerprint_error_message" json:"fingerprint_error_message,omitempty"`
	VectorJSON   string            `gorm:"column:fingerprint_vector;type:text" json:"fingerprint_vector"`
	Hash         string            `gorm:"column:fingerprint_hash;index" json:"fingerprint_hash"`
	Version      int               `gorm:"column:fingerprint_version" json:"fingerprint_version"`
	CreatedAt    time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

// TableName pins the GORM table name independent of struct naming.
func (FingerprintRow) TableName() string {
	return "fingerprints"
}
