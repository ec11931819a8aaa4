// Package errors provides standardized error handling for the webhook and the
// background ingestion jobs, with mappings to HTTP statuses and BPMN errors.
package errors

import (
	stderrors "errors"
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

// Synchronous (webhook) failures
const (
	ErrCodeInvalidSignature     ErrorCode = "INVALID_SIGNATURE"
	ErrCodeMalformedRequest     ErrorCode = "MALFORMED_REQUEST"
	ErrCodeUnhandledInteraction ErrorCode = "UNHANDLED_INTERACTION"
	ErrCodeServerMisconfigured  ErrorCode = "SERVER_MISCONFIGURED"
	ErrCodeChannelLookupFailed  ErrorCode = "CHANNEL_LOOKUP_FAILED"
	ErrCodeDispatchQueueFull    ErrorCode = "DISPATCH_QUEUE_FULL"
)

// Background (post-acknowledgement) failures
const (
	ErrCodeChannelNotLinked          ErrorCode = "CHANNEL_NOT_LINKED"
	ErrCodeClassificationFailed      ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeClassificationParseFailed ErrorCode = "CLASSIFICATION_PARSE_FAILED"
	ErrCodeTaskPersistFailed         ErrorCode = "TASK_PERSIST_FAILED"
	ErrCodeDuplicateTask             ErrorCode = "DUPLICATE_TASK"
	ErrCodeNotificationSendFailed    ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeEventPublishFailed        ErrorCode = "EVENT_PUBLISH_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
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

func NewInvalidSignatureError(details string) *StandardError {
	return newError(ErrCodeInvalidSignature, "Invalid signature", details, false)
}

func NewMalformedRequestError(details string) *StandardError {
	return newError(ErrCodeMalformedRequest, "Malformed request", details, false)
}

func NewUnhandledInteractionError(interactionType string) *StandardError {
	return newError(ErrCodeUnhandledInteraction, "Unhandled interaction type",
		fmt.Sprintf("type: %s", interactionType), false)
}

func NewServerMisconfiguredError(details string) *StandardError {
	return newError(ErrCodeServerMisconfigured, "Server misconfigured", details, false)
}

func NewChannelLookupFailedError(channelID string, err error) *StandardError {
	return newError(ErrCodeChannelLookupFailed, "Failed to resolve channel",
		fmt.Sprintf("channelId: %s, error: %s", channelID, err.Error()), true)
}

func NewDispatchQueueFullError() *StandardError {
	return newError(ErrCodeDispatchQueueFull, "Server busy, try again",
		"background queue did not accept the job in time", true)
}

func NewChannelNotLinkedError(channelID string) *StandardError {
	return newError(ErrCodeChannelNotLinked, "Channel is not linked to a venture",
		fmt.Sprintf("channelId: %s", channelID), false)
}

func NewClassificationFailedError(err error) *StandardError {
	return newError(ErrCodeClassificationFailed, "Completion request failed", err.Error(), false)
}

func NewClassificationParseFailedError(err error) *StandardError {
	return newError(ErrCodeClassificationParseFailed, "Completion response could not be parsed", err.Error(), false)
}

func NewTaskPersistFailedError(err error) *StandardError {
	return newError(ErrCodeTaskPersistFailed, "Task insert failed", err.Error(), false)
}

func NewDuplicateTaskError(channelID, messageTs string) *StandardError {
	return newError(ErrCodeDuplicateTask, "Task already exists for this message",
		fmt.Sprintf("channelId: %s, messageTs: %s", channelID, messageTs), false)
}

func NewNotificationSendFailedError(channelID string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channelId: %s, error: %s", channelID, err.Error()), false)
}

func NewEventPublishFailedError(sink string, err error) *StandardError {
	return newError(ErrCodeEventPublishFailed, "Task event publish failed",
		fmt.Sprintf("sink: %s, error: %s", sink, err.Error()), false)
}

// ==========================
// 4. Error Conversion
// ==========================

// HTTPStatus maps an error code to the status the webhook answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidSignature:
		return http.StatusUnauthorized
	case ErrCodeMalformedRequest, ErrCodeUnhandledInteraction:
		return http.StatusBadRequest
	case ErrCodeDispatchQueueFull:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetRetryCount returns how many times the engine may retry a failed job.
// Everything after the webhook acknowledgement is terminal: the user has
// already been told the outcome in the thread.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeChannelLookupFailed:
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

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err looking for a StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SIGNATURE") || strings.Contains(codeStr, "MISCONFIGURED"):
		return "AUTH/CONFIG"
	case strings.Contains(codeStr, "REQUEST") || strings.Contains(codeStr, "INTERACTION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CHANNEL"):
		return "MAPPING"
	case strings.Contains(codeStr, "CLASSIFICATION"):
		return "AI"
	case strings.Contains(codeStr, "TASK"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "EVENT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "DISPATCH"):
		return "CAPACITY"
	default:
		return "OTHER"
	}
}
