package entity

import (
	"errors"
	"fmt"
)

const (
	ErrCodeValidation string = "VALIDATION_ERROR"
	ErrCodeNotFound   string = "NOT_FOUND"
	ErrCodeConflict   string = "CONFLICT"
	ErrCodeLocalIO    string = "LOCAL_IO_ERROR"
	ErrCodeRemoteCall string = "REMOTE_CALL_ERROR"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(code, msg string, cause error) *AppError {
	return &AppError{Code: code, Message: msg, Cause: cause}
}

// LocalIOError reports a failure to read or write the staged file.
func LocalIOError(msg string, cause error) *AppError {
	return NewAppError(ErrCodeLocalIO, msg, cause)
}

// RemoteCallError collapses network, auth, malformed-response and service
// failures of the inference call into one user-visible message.
func RemoteCallError(reason string, cause error) *AppError {
	return NewAppError(ErrCodeRemoteCall, "analysis failed: "+reason, cause)
}

// ErrorCode returns the code of the first AppError in err's chain.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

var (
	ErrUploadNotFound     = NewAppError(ErrCodeNotFound, "upload not found or expired", nil)
	ErrAnalysisInProgress = NewAppError(ErrCodeConflict, "analysis already in progress", nil)
	ErrNoImageProvided    = NewAppError(ErrCodeValidation, "no image file provided", nil)
	ErrUnsupportedFormat  = NewAppError(ErrCodeValidation, "invalid image type. Supported: jpg, jpeg, png", nil)
	ErrUndecodableImage   = NewAppError(ErrCodeValidation, "file is not a readable JPEG or PNG image", nil)
)
