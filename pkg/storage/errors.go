package storage

import (
	"encoding/json"
	"fmt"
)

// ErrorCode is one of the closed set of failure kinds this package reports.
// Every error that leaves the storage boundary carries exactly one code.
type ErrorCode string

const (
	CodeClientNotConfigured ErrorCode = "CLIENT_NOT_CONFIGURED"
	CodeInsufficientFunds   ErrorCode = "INSUFFICIENT_FUNDS"
	CodeUploadFailed        ErrorCode = "UPLOAD_FAILED"
	CodeUploadTimeout       ErrorCode = "UPLOAD_TIMEOUT"
	CodeFileTooLarge        ErrorCode = "FILE_TOO_LARGE"
	CodeEmptyFile           ErrorCode = "EMPTY_FILE"
	CodeRetrievalFailed     ErrorCode = "RETRIEVAL_FAILED"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeRetrievalTimeout    ErrorCode = "RETRIEVAL_TIMEOUT"
	CodeDealFailed          ErrorCode = "DEAL_FAILED"
	CodeDealTimeout         ErrorCode = "DEAL_TIMEOUT"
	CodeInvalidCID          ErrorCode = "INVALID_CID"
	CodeMissingCID          ErrorCode = "MISSING_CID"
	CodeInvalidData         ErrorCode = "INVALID_DATA"
	CodeNetworkError        ErrorCode = "NETWORK_ERROR"
	CodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	CodeUnknown             ErrorCode = "UNKNOWN"
)

// userMessages is the fixed, total mapping from code to the one user-safe
// message ever shown for it. It is never mutated at runtime.
var userMessages = map[ErrorCode]string{
	CodeClientNotConfigured: "Storage service is not configured. Please contact support.",
	CodeInsufficientFunds:   "Insufficient funds to complete the storage operation.",
	CodeUploadFailed:        "File upload failed. Please try again.",
	CodeUploadTimeout:       "File upload timed out. Please try again.",
	CodeFileTooLarge:        "File exceeds the maximum allowed size.",
	CodeEmptyFile:           "Cannot upload an empty file.",
	CodeRetrievalFailed:     "File retrieval failed. Please try again.",
	CodeNotFound:            "Requested file was not found.",
	CodeRetrievalTimeout:    "File retrieval timed out. Please try again.",
	CodeDealFailed:          "Storage deal could not be completed.",
	CodeDealTimeout:         "Storage deal timed out.",
	CodeInvalidCID:          "Invalid content identifier.",
	CodeMissingCID:          "Storage provider did not return a content identifier.",
	CodeInvalidData:         "Invalid file data.",
	CodeNetworkError:        "Network error. Please check your connection and try again.",
	CodeProviderUnavailable: "Storage provider is temporarily unavailable.",
	CodeUnknown:             "An unexpected error occurred. Please try again.",
}

// UserMessage returns the fixed user-safe message for code. Unrecognized
// codes fall back to the UNKNOWN message.
func UserMessage(code ErrorCode) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return userMessages[CodeUnknown]
}

// StorageError is the only error type surfaced by the storage boundary.
// UserMessage is safe to show to end users; TechnicalMessage and Details are
// operator diagnostics and must never appear in a response body.
//
// Instances are immutable after construction.
type StorageError struct {
	Code             ErrorCode
	UserMessage      string
	TechnicalMessage string
	Details          map[string]any
}

// NewError builds a StorageError for code using the fixed user message.
func NewError(code ErrorCode, technical string) *StorageError {
	return &StorageError{
		Code:             code,
		UserMessage:      UserMessage(code),
		TechnicalMessage: technical,
	}
}

// NewErrorWithDetails builds a StorageError carrying a structured diagnostic
// payload alongside the technical message.
func NewErrorWithDetails(code ErrorCode, technical string, details map[string]any) *StorageError {
	e := NewError(code, technical)
	e.Details = details
	return e
}

// NewErrorWithMessage builds a StorageError whose user message overrides the
// fixed mapping. The override must itself be user-safe; it is what clients see.
func NewErrorWithMessage(code ErrorCode, userMessage, technical string) *StorageError {
	return &StorageError{
		Code:             code,
		UserMessage:      userMessage,
		TechnicalMessage: technical,
	}
}

// Error implements the error interface with the diagnostic form.
func (e *StorageError) Error() string {
	if e.TechnicalMessage != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.TechnicalMessage)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.UserMessage)
}

// MarshalJSON renders the wire shape consumed by HTTP error handlers:
// {"error": code, "code": code, "message": userMessage}. TechnicalMessage
// and Details are deliberately omitted.
func (e *StorageError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error   ErrorCode `json:"error"`
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	}{
		Error:   e.Code,
		Code:    e.Code,
		Message: e.UserMessage,
	})
}
