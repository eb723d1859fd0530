package models

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
	CodeTooLarge        = "PAYLOAD_TOO_LARGE"
	CodeUploadIO        = "UPLOAD_IO_ERROR"
	CodeUploadNetwork   = "UPLOAD_NETWORK_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
	internalMessageText = "Internal Server Error"
)

// AppError represents a failure that can be reported to a client.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError names the missing resource, e.g. "user" or "post".
func NewNotFoundError(resource string) *AppError {
	msg := "Not found!"
	switch resource {
	case "user":
		msg = "User not found!"
	case "post":
		msg = "Post not found!"
	}
	return &AppError{Code: CodeNotFound, Message: msg}
}

func NewValidationError(message string, err error) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Err: err}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func NewTooLargeError(limit int64) *AppError {
	return &AppError{Code: CodeTooLarge, Message: fmt.Sprintf("Upload exceeds %d bytes", limit)}
}

func NewUploadIOError(err error) *AppError {
	return &AppError{Code: CodeUploadIO, Message: "Failed to store cover locally", Err: err}
}

func NewUploadNetworkError(err error) *AppError {
	return &AppError{Code: CodeUploadNetwork, Message: "Failed to upload cover to remote storage", Err: err}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: internalMessageText, Err: err}
}

// IsCode reports whether err carries an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusFor maps an error to its HTTP status and client-safe message.
// Unknown errors are reported as internal.
func StatusFor(err error) (int, string) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, internalMessageText
	}
	switch appErr.Code {
	case CodeValidation:
		return http.StatusBadRequest, appErr.Message
	case CodeNotFound:
		return http.StatusNotFound, appErr.Message
	case CodeForbidden:
		return http.StatusForbidden, appErr.Message
	case CodeTooLarge:
		return http.StatusRequestEntityTooLarge, appErr.Message
	case CodeUploadIO, CodeUploadNetwork:
		return http.StatusInternalServerError, appErr.Message
	default:
		return http.StatusInternalServerError, internalMessageText
	}
}
