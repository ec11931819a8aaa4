package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeInvalidSignature, http.StatusUnauthorized},
		{ErrCodeMalformedRequest, http.StatusBadRequest},
		{ErrCodeUnhandledInteraction, http.StatusBadRequest},
		{ErrCodeServerMisconfigured, http.StatusInternalServerError},
		{ErrCodeChannelLookupFailed, http.StatusInternalServerError},
		{ErrCodeDispatchQueueFull, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestGetRetryCount_BackgroundFailuresAreTerminal(t *testing.T) {
	for _, code := range []ErrorCode{
		ErrCodeChannelNotLinked,
		ErrCodeClassificationFailed,
		ErrCodeClassificationParseFailed,
		ErrCodeTaskPersistFailed,
		ErrCodeDuplicateTask,
		ErrCodeNotificationSendFailed,
		ErrCodeEventPublishFailed,
	} {
		assert.Equal(t, 0, GetRetryCount(code), code)
		assert.False(t, IsRetryableErrorCode(code), code)
	}
	assert.True(t, IsRetryableErrorCode(ErrCodeChannelLookupFailed))
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewTaskPersistFailedError(fmt.Errorf("connection reset"))
	bpmn := ConvertToBPMNError(stdErr)

	assert.Equal(t, "TASK_PERSIST_FAILED", bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "TASK_PERSIST_FAILED", vars["errorCode"])
	assert.Equal(t, "connection reset", vars["errorDetails"])
	assert.Equal(t, "TASK_PERSIST_FAILED", vars["originalErrorCode"])
}

func TestConvertToBPMNError_NonRetryableOverridesCount(t *testing.T) {
	stdErr := NewChannelLookupFailedError("C1", fmt.Errorf("timeout"))
	stdErr.Retryable = false
	assert.Equal(t, 0, ConvertToBPMNError(stdErr).Retries)
}

func TestAsStandardError_Unwraps(t *testing.T) {
	wrapped := fmt.Errorf("resolve: %w", NewChannelNotLinkedError("C999"))

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeChannelNotLinked, stdErr.Code)

	_, ok = AsStandardError(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeClassificationParseFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDuplicateTask))
	assert.Equal(t, "MAPPING", GetErrorCategory(ErrCodeChannelNotLinked))
	assert.Equal(t, "AUTH/CONFIG", GetErrorCategory(ErrCodeInvalidSignature))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}

func TestWithMetadata(t *testing.T) {
	err := NewDuplicateTaskError("C1", "1700000000.000100").WithMetadata("ventureId", "v-1")
	assert.Equal(t, "v-1", err.Metadata["ventureId"])
	assert.Contains(t, err.Error(), "DUPLICATE_TASK")
}
