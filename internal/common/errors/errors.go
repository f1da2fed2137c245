// Package errors provides the standardized error taxonomy shared by the
// dashboard packages and its mapping onto HTTP responses.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConnection        ErrorCode = "CONNECTION_ERROR"
	ErrCodeInvalidQuery      ErrorCode = "INVALID_QUERY"
	ErrCodeDataSeedFailed    ErrorCode = "DATA_SEED_FAILED"
	ErrCodeSeedInProgress    ErrorCode = "SEED_IN_PROGRESS"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	Cause     error     `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is matches any StandardError carrying the same code, so callers can test
// against the sentinel values below with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrConnection        = &StandardError{Code: ErrCodeConnection}
	ErrInvalidQuery      = &StandardError{Code: ErrCodeInvalidQuery}
	ErrDataSeedFailed    = &StandardError{Code: ErrCodeDataSeedFailed}
	ErrSeedInProgress    = &StandardError{Code: ErrCodeSeedInProgress}
	ErrMalformedResponse = &StandardError{Code: ErrCodeMalformedResponse}
	ErrSearchQueryFailed = &StandardError{Code: ErrCodeSearchQueryFailed}
)

// NewConnectionError reports a misconfigured or unreachable search engine.
func NewConnectionError(details string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConnection,
		Message:   "Elasticsearch connection error",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewInvalidQueryError reports caller input that failed validation.
func NewInvalidQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuery,
		Message:   "Invalid query",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataSeedError reports a sample-data run that failed partway.
func NewDataSeedError(step string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataSeedFailed,
		Message:   "Failed to create sample data",
		Details:   fmt.Sprintf("step: %s, error: %v", step, cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewSeedInProgressError reports that another regeneration holds the seed lock.
func NewSeedInProgressError(lockKey string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSeedInProgress,
		Message:   "Sample data generation already in progress",
		Details:   fmt.Sprintf("lock: %s", lockKey),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError reports an engine response missing expected structure.
func NewMalformedResponseError(shape string, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   "Malformed search response",
		Details:   fmt.Sprintf("shape: %s, %s", shape, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError reports an engine call that returned an error.
func NewSearchQueryFailedError(operation string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, cause),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// HTTPStatus maps an error onto the status code returned to the caller.
func HTTPStatus(err error) int {
	switch Normalize(err).Code {
	case ErrCodeInvalidQuery:
		return http.StatusBadRequest
	case ErrCodeSeedInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable reports whether the caller may retry the operation manually.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Normalize(err).Retryable
}
