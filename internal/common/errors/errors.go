// Package errors provides standardized error handling for the chat API and
// BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Query pipeline
const (
	ErrCodeInvalidMessage       ErrorCode = "INVALID_MESSAGE"
	ErrCodeAccessDenied         ErrorCode = "ACCESS_DENIED"
	ErrCodeUnknownQueryType     ErrorCode = "UNKNOWN_QUERY_TYPE"
	ErrCodeQueryBuildFailed     ErrorCode = "QUERY_BUILD_FAILED"
	ErrCodeResponseFormatFailed ErrorCode = "RESPONSE_FORMAT_FAILED"
)

// Data access
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
)

// Sessions and request limits
const (
	ErrCodeAuthentication ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeAccountLocked  ErrorCode = "ACCOUNT_LOCKED"
	ErrCodeRateLimited    ErrorCode = "RATE_LIMITED"
)

const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

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
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidMessageError(details string) *StandardError {
	return newError(ErrCodeInvalidMessage, "Invalid message format", details, false)
}

// NewAccessDeniedError carries the caller's role and region in Metadata.
func NewAccessDeniedError(role, region string) *StandardError {
	e := newError(ErrCodeAccessDenied, "Access denied to requested data",
		fmt.Sprintf("role: %s, region: %s", role, region), false)
	e.Metadata = map[string]interface{}{"role": role, "region": region}
	return e
}

func NewUnknownQueryTypeError(queryType string) *StandardError {
	return newError(ErrCodeUnknownQueryType, "Unknown query type",
		fmt.Sprintf("queryType: %s", queryType), false)
}

func NewQueryBuildFailedError(err error) *StandardError {
	return newError(ErrCodeQueryBuildFailed, "Error building query", err.Error(), false)
}

func NewResponseFormatFailedError(err error) *StandardError {
	return newError(ErrCodeResponseFormatFailed, "Error formatting response", err.Error(), false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout",
		fmt.Sprintf("queryType: %s", queryType), true)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false)
}

func NewAccountLockedError(minutes int) *StandardError {
	e := newError(ErrCodeAccountLocked, "Account locked",
		fmt.Sprintf("minutes remaining: %d", minutes), false)
	e.Metadata = map[string]interface{}{"minutes": minutes}
	return e
}

func NewRateLimitedError(limit int) *StandardError {
	return newError(ErrCodeRateLimited, "Too many requests",
		fmt.Sprintf("limit: %d per minute", limit), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed:
		return 3

	case ErrCodeQueryTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.HasPrefix(codeStr, "QUERY_EXECUTION") || strings.HasPrefix(codeStr, "QUERY_TIMEOUT"):
		return "DATABASE"
	case strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "FORMAT"):
		return "PIPELINE"
	case strings.Contains(codeStr, "ACCESS") || strings.Contains(codeStr, "AUTH") || strings.Contains(codeStr, "LOCKED"):
		return "SECURITY"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "RATE"):
		return "REQUEST"
	default:
		return "OTHER"
	}
}
