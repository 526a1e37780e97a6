// Package errors provides standardized error handling for the dashboard
// API and background jobs.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnknownField      ErrorCode = "UNKNOWN_FIELD"
	ErrCodeUnknownRecordType ErrorCode = "UNKNOWN_RECORD_TYPE"

	ErrCodeInvalidFilterFormat ErrorCode = "INVALID_FILTER_FORMAT"
	ErrCodeInvalidPageRequest  ErrorCode = "INVALID_PAGE_REQUEST"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeEventNotFound ErrorCode = "EVENT_NOT_FOUND"

	ErrCodeExportFailed ErrorCode = "EXPORT_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeScanFailed ErrorCode = "SCAN_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewUnknownFieldError creates a non-retryable schema mismatch error.
func NewUnknownFieldError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownField,
		Message:   "Field is not declared for this record type",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownRecordTypeError creates a non-retryable record type error.
func NewUnknownRecordTypeError(recordType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownRecordType,
		Message:   "Unknown record type",
		Details:   fmt.Sprintf("recordType: %s", recordType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFilterFormatError creates a non-retryable filter format error.
func NewInvalidFilterFormatError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFilterFormat,
		Message:   "Invalid filter format",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPageRequestError creates a non-retryable pagination error.
func NewInvalidPageRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPageRequest,
		Message:   "Invalid page request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(recordType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("recordType: %s, error: %s", recordType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(recordType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("recordType: %s", recordType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Snapshot cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventNotFoundError creates a non-retryable lookup error.
func NewEventNotFoundError(id int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventNotFound,
		Message:   "Security event not found or already acknowledged",
		Details:   fmt.Sprintf("id: %d", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExportFailedError creates a retryable export error.
func NewExportFailedError(recordType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExportFailed,
		Message:   "CSV export failed",
		Details:   fmt.Sprintf("recordType: %s, error: %s", recordType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewScanFailedError creates a retryable scan error.
func NewScanFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScanFailed,
		Message:   "Log scan failed",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatusMapping maps internal error codes to HTTP response statuses.
var HTTPStatusMapping = map[ErrorCode]int{
	ErrCodeUnknownField:             http.StatusBadRequest,
	ErrCodeUnknownRecordType:        http.StatusNotFound,
	ErrCodeInvalidFilterFormat:      http.StatusBadRequest,
	ErrCodeInvalidPageRequest:       http.StatusBadRequest,
	ErrCodeDatabaseConnectionFailed: http.StatusServiceUnavailable,
	ErrCodeQueryExecutionFailed:     http.StatusInternalServerError,
	ErrCodeQueryTimeout:             http.StatusGatewayTimeout,
	ErrCodeCacheUnavailable:         http.StatusServiceUnavailable,
	ErrCodeEventNotFound:            http.StatusNotFound,
	ErrCodeExportFailed:             http.StatusInternalServerError,
	ErrCodeNotificationSendFailed:   http.StatusBadGateway,
	ErrCodeScanFailed:               http.StatusInternalServerError,
}

// HTTPStatus returns the response status for an error code, defaulting to
// 500 for anything unmapped.
func HTTPStatus(code ErrorCode) int {
	if status, ok := HTTPStatusMapping[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandardError unwraps err to a *StandardError if one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableError checks whether an error carries a retryable code.
func IsRetryableError(err error) bool {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "FIELD") || strings.Contains(codeStr, "RECORD_TYPE"):
		return "SCHEMA"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "EXPORT") || strings.Contains(codeStr, "SCAN"):
		return "JOB"
	default:
		return "OTHER"
	}
}
