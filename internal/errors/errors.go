package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"

	// Ingestion
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	ErrCodeFileTooLarge      ErrorCode = "FILE_TOO_LARGE"
	ErrCodeParseError        ErrorCode = "PARSE_ERROR"

	// Mapping & session lifecycle
	ErrCodeMappingIncomplete ErrorCode = "MAPPING_INCOMPLETE"
	ErrCodeSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionConflict   ErrorCode = "SESSION_CONFLICT"

	// Validation
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeMissingRequired ErrorCode = "MISSING_REQUIRED"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func InvalidToken(message string) *AppError {
	return New(ErrCodeInvalidToken, message)
}

func UnsupportedFormat(filename string) *AppError {
	return New(ErrCodeUnsupportedFormat, fmt.Sprintf("Unsupported file format: %s", filename))
}

func FileTooLarge(limit int64) *AppError {
	return New(ErrCodeFileTooLarge, fmt.Sprintf("File exceeds the %d MB limit", limit>>20))
}

func ParseError(reason string, cause error) *AppError {
	return Wrap(ErrCodeParseError, fmt.Sprintf("Could not read file: %s", reason), cause)
}

func MappingIncomplete(field string) *AppError {
	return New(ErrCodeMappingIncomplete, fmt.Sprintf("Mapping must include the %s field", field))
}

func SessionNotFound() *AppError {
	return New(ErrCodeSessionNotFound, "Import session not found")
}

func SessionConflict() *AppError {
	return New(ErrCodeSessionConflict, "Import session was modified by a concurrent request")
}

func SessionAlreadyReady() *AppError {
	return New(ErrCodeSessionConflict, "Import session is already ready; cancel it and upload again to change the mapping")
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func MissingRequired(field string) *AppError {
	return New(ErrCodeMissingRequired, fmt.Sprintf("%s is required", field))
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, fmt.Sprintf("External service error: %s", service), cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
