package errors

import "net/http"

// ErrorCode represents the type of error
type ErrorCode string

const (
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrBadRequest    ErrorCode = "BAD_REQUEST"
	ErrInternalError ErrorCode = "INTERNAL_ERROR"

	// Mastering/streaming domain kinds (spec.md §7). CacheMiss and Cancelled
	// are control flow, not surfaced as APIError, so they carry no HTTP
	// status mapping beyond InternalError as a safety net.
	ErrInputTooShort     ErrorCode = "INPUT_TOO_SHORT"
	ErrDecodeError       ErrorCode = "DECODE_ERROR"
	ErrFingerprintIntegr ErrorCode = "FINGERPRINT_INTEGRITY"
	ErrClassifierUnknown ErrorCode = "CLASSIFIER_UNKNOWN"
	ErrDSPError          ErrorCode = "DSP_ERROR"
	ErrBuildTimeout      ErrorCode = "BUILD_TIMEOUT"
	ErrCacheMiss         ErrorCode = "CACHE_MISS"
	ErrCancelled         ErrorCode = "CANCELLED"
	ErrEncoderError      ErrorCode = "ENCODER_ERROR"
)

// StatusCodeMap maps ErrorCode to HTTP status code
var StatusCodeMap = map[ErrorCode]int{
	ErrNotFound:      http.StatusNotFound,
	ErrBadRequest:    http.StatusBadRequest,
	ErrInternalError: http.StatusInternalServerError,

	ErrInputTooShort:     http.StatusBadRequest,
	ErrDecodeError:       http.StatusBadRequest,
	ErrFingerprintIntegr: http.StatusConflict,
	ErrClassifierUnknown: http.StatusOK,
	ErrDSPError:          http.StatusInternalServerError,
	ErrBuildTimeout:      http.StatusInternalServerError,
	ErrCacheMiss:         http.StatusInternalServerError,
	ErrCancelled:         http.StatusInternalServerError,
	ErrEncoderError:      http.StatusInternalServerError,
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}
