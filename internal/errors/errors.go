// Package errors defines the structured application errors used across the
// certmailer pipeline and their mapping helpers.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeValidation indicates invalid input data, rejected before any job is created.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUnauthenticated indicates no stored credential exists or required fields are missing.
	ErrCodeUnauthenticated ErrorCode = "unauthenticated"
	// ErrCodeReauthRequired indicates the stored credential could not be refreshed
	// and the delegated grant must be established again.
	ErrCodeReauthRequired ErrorCode = "reauth_required"
	// ErrCodeRender indicates a document could not be produced (image decode or embed failure).
	ErrCodeRender ErrorCode = "render"
	// ErrCodeDelivery indicates the mail transport rejected a send.
	ErrCodeDelivery ErrorCode = "delivery"
	// ErrCodeCorruptJob indicates a stored job could not be read back.
	ErrCodeCorruptJob ErrorCode = "corrupt_job"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and
// optional cause. It supports error wrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Unauthenticated creates a new Unauthenticated error.
func Unauthenticated(message string) *AppError {
	return &AppError{Code: ErrCodeUnauthenticated, Message: message}
}

// ReauthRequired creates a new ReauthRequired error wrapping the refresh failure.
func ReauthRequired(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeReauthRequired, Message: message, Cause: cause}
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsUnauthenticated checks if an error is an Unauthenticated error.
func IsUnauthenticated(err error) bool {
	return isCode(err, ErrCodeUnauthenticated)
}

// IsReauthRequired checks if an error is a ReauthRequired error.
func IsReauthRequired(err error) bool {
	return isCode(err, ErrCodeReauthRequired)
}

// IsAuthFailure reports whether an error means the mailing identity is not
// usable, for either reason.
func IsAuthFailure(err error) bool {
	return IsUnauthenticated(err) || IsReauthRequired(err)
}

// IsRender checks if an error is a Render error.
func IsRender(err error) bool {
	return isCode(err, ErrCodeRender)
}

// IsDelivery checks if an error is a Delivery error.
func IsDelivery(err error) bool {
	return isCode(err, ErrCodeDelivery)
}

// IsCorruptJob checks if an error is a CorruptJob error.
func IsCorruptJob(err error) bool {
	return isCode(err, ErrCodeCorruptJob)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}
