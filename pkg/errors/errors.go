// Package errors provides structured error handling for the application.
// It defines AppError type with error codes so recoverable render failures
// can be logged and classified consistently.
package errors

import (
	"errors"
	"fmt"
)

// Error codes organized by category
const (
	// General errors (1000-1099)
	CodeSuccess       = 0
	CodeUnknown       = 1000
	CodeInvalidParams = 1001
	CodeNotFound      = 1002

	// Composition errors (1100-1199)
	CodeAssetDecode      = 1100
	CodeTextRender       = 1101
	CodeDurationMismatch = 1102
	CodeTransitionApply  = 1103
	CodeMux              = 1104
	CodeAudioMix         = 1105
	CodeSegmentRender    = 1106

	// Narration errors (1200-1299)
	CodeTTSFailed   = 1200
	CodeAssetFetch  = 1201
	CodeAssetSource = 1202

	// Job errors (1300-1399)
	CodeJobNotFound       = 1300
	CodeJobNotClaimable   = 1301
	CodeJobRetryExhausted = 1302
	CodeQueueFull         = 1303

	// Storage errors (1500-1599)
	CodeDBError        = 1500
	CodeFileNotFound   = 1501
	CodeFileWriteError = 1502
)

// AppError represents a structured application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetail wraps an error with additional detail
func WrapWithDetail(code int, message string, detail string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
	}
}

// Is checks if the target error is an AppError with the specified code
func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts error code from error, returns CodeUnknown if not AppError
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMessage extracts message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// IsRecoverable reports whether a failure of this code is handled locally
// by the compositor. Only mux failures and invalid input abort a render.
func IsRecoverable(err error) bool {
	switch GetCode(err) {
	case CodeAssetDecode, CodeTextRender, CodeDurationMismatch, CodeTransitionApply, CodeSegmentRender, CodeTTSFailed, CodeAssetFetch:
		return true
	default:
		return false
	}
}

// Predefined common errors
var (
	ErrInvalidParams = New(CodeInvalidParams, "Invalid parameters")
	ErrNotFound      = New(CodeNotFound, "Resource not found")

	// Composition
	ErrAssetDecode      = New(CodeAssetDecode, "Asset could not be decoded")
	ErrTextRender       = New(CodeTextRender, "Caption font could not be loaded")
	ErrDurationMismatch = New(CodeDurationMismatch, "Narration and asset counts differ")
	ErrTransitionApply  = New(CodeTransitionApply, "Transition could not be applied")
	ErrMux              = New(CodeMux, "Final mux failed")

	// Narration
	ErrTTSFailed = New(CodeTTSFailed, "TTS failed")

	// Jobs
	ErrJobNotFound       = New(CodeJobNotFound, "Render job not found")
	ErrJobNotClaimable   = New(CodeJobNotClaimable, "Render job is not pending")
	ErrJobRetryExhausted = New(CodeJobRetryExhausted, "Render job retry limit reached")
	ErrQueueFull         = New(CodeQueueFull, "Render queue is full")

	// Storage
	ErrDBError      = New(CodeDBError, "Database error")
	ErrFileNotFound = New(CodeFileNotFound, "File not found")
)
