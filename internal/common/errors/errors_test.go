package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		retries int
	}{
		{ErrCodeQueryExecutionFailed, 3},
		{ErrCodeDatabaseConnectionFailed, 3},
		{ErrCodeDatabaseInsertFailed, 3},
		{ErrCodeQueryTimeout, 2},
		{ErrCodeAccessDenied, 0},
		{ErrCodeInvalidMessage, 0},
		{ErrCodeQueryBuildFailed, 0},
		{ErrCodeInternal, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.retries, GetRetryCount(tt.code))
			assert.Equal(t, tt.retries > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable execution failure", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewQueryExecutionFailedError("registration/count", fmt.Errorf("connection reset")))

		assert.Equal(t, "QUERY_EXECUTION_FAILED", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.True(t, bpmn.Retryable)
		assert.Contains(t, bpmn.Details, "registration/count")
	})

	t.Run("access denied keeps metadata", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewAccessDeniedError("district_officer", "Maharashtra - Pune"))

		assert.Equal(t, 0, bpmn.Retries)
		vars := bpmn.ToErrorVariables()
		assert.Equal(t, "ACCESS_DENIED", vars["errorCode"])
		assert.Equal(t, "ACCESS_DENIED", vars["originalErrorCode"])
		assert.Equal(t, "Maharashtra - Pune", vars["region"])
	})

	t.Run("non retryable overrides table", func(t *testing.T) {
		stdErr := NewQueryTimeoutError("sales/count")
		stdErr.Retryable = false
		assert.Equal(t, 0, ConvertToBPMNError(stdErr).Retries)
	})
}

func TestNormalizeError(t *testing.T) {
	wrapped := fmt.Errorf("answer: %w", NewInvalidMessageError("question required"))
	stdErr := normalizeError(wrapped)
	assert.Equal(t, ErrCodeInvalidMessage, stdErr.Code)

	plain := normalizeError(fmt.Errorf("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "PIPELINE", GetErrorCategory(ErrCodeQueryBuildFailed))
	assert.Equal(t, "PIPELINE", GetErrorCategory(ErrCodeResponseFormatFailed))
	assert.Equal(t, "SECURITY", GetErrorCategory(ErrCodeAccessDenied))
	assert.Equal(t, "SECURITY", GetErrorCategory(ErrCodeAccountLocked))
	assert.Equal(t, "REQUEST", GetErrorCategory(ErrCodeRateLimited))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
