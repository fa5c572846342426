package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    ErrorCode  `json:"code"`
	Message string     `json:"message"`
	Field   string     `json:"field,omitempty"`
	Details string     `json:"details,omitempty"`
	Status  int        `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MarshalJSON customizes JSON encoding
func (e *APIError) MarshalJSON() ([]byte, error) {
	type Alias APIError
	return json.Marshal(&struct {
		*Alias
	}{
		Alias: (*Alias)(e),
	})
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return &APIError{
		Code:    ErrBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return &APIError{
		Code:    ErrInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// InputTooShort creates an INPUT_TOO_SHORT error: audio shorter than one analysis frame.
func InputTooShort(message string) *APIError {
	return &APIError{
		Code:    ErrInputTooShort,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// DecodeError creates a DECODE_ERROR: upstream decoder returned non-PCM or malformed data.
func DecodeError(message string) *APIError {
	return &APIError{
		Code:    ErrDecodeError,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// FingerprintIntegrity creates a FINGERPRINT_INTEGRITY error: stored hash disagrees
// with the recomputed hash.
func FingerprintIntegrity(trackID string) *APIError {
	return &APIError{
		Code:    ErrFingerprintIntegr,
		Message: fmt.Sprintf("fingerprint hash mismatch for track %s", trackID),
		Status:  http.StatusConflict,
	}
}

// DSPError creates a DSP_ERROR: an algorithmic pipeline step failed or produced
// non-finite output.
func DSPError(step string, chunkIndex int, cause error) *APIError {
	e := &APIError{
		Code:    ErrDSPError,
		Message: fmt.Sprintf("dsp step %q failed on chunk %d", step, chunkIndex),
		Status:  http.StatusInternalServerError,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// BuildTimeout creates a BUILD_TIMEOUT error: a chunk build exceeded its soft deadline.
func BuildTimeout(chunkIndex int) *APIError {
	return &APIError{
		Code:    ErrBuildTimeout,
		Message: fmt.Sprintf("build for chunk %d exceeded its soft deadline", chunkIndex),
		Status:  http.StatusInternalServerError,
	}
}

// Cancelled creates a CANCELLED error: build cancelled by the controller (stream
// ended or track changed).
func Cancelled(reason string) *APIError {
	return &APIError{
		Code:    ErrCancelled,
		Message: reason,
		Status:  http.StatusInternalServerError,
	}
}

// EncoderError creates an ENCODER_ERROR: WebM/Opus encoding failed.
func EncoderError(message string) *APIError {
	return &APIError{
		Code:    ErrEncoderError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// ErrCacheMissSentinel is a sentinel value for a cache miss, which is control
// flow, never an APIError surfaced to a client. No lookup in internal/cache
// returns it: cache.Manager.Get runs the build function on a miss.
var ErrCacheMissSentinel = fmt.Errorf("cache miss")
