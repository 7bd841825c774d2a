package httputil

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/habitra/import-server-go/internal/errors"
)

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string              `json:"error"`
	Code    apperrors.ErrorCode `json:"code"`
	Details any                 `json:"details,omitempty"`
}

// WriteError writes an AppError as an HTTP response with appropriate status code
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		// Wrap unknown errors as internal errors
		appErr = apperrors.Internal("An unexpected error occurred")
	}

	status := statusFromCode(appErr.Code)
	response := ErrorResponse{
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	}

	WriteJSON(w, status, response)
}

// WriteErrorWithStatus writes an error with a specific HTTP status code
func WriteErrorWithStatus(w http.ResponseWriter, status int, err *apperrors.AppError) {
	response := ErrorResponse{
		Error:   err.Message,
		Code:    err.Code,
		Details: err.Details,
	}
	WriteJSON(w, status, response)
}

// statusFromCode maps ErrorCode to HTTP status code
func statusFromCode(code apperrors.ErrorCode) int {
	switch code {
	// 400 Bad Request
	case apperrors.ErrCodeValidation,
		apperrors.ErrCodeInvalidInput,
		apperrors.ErrCodeMissingRequired,
		apperrors.ErrCodeUnsupportedFormat,
		apperrors.ErrCodeParseError,
		apperrors.ErrCodeMappingIncomplete:
		return http.StatusBadRequest

	// 401 Unauthorized
	case apperrors.ErrCodeUnauthorized,
		apperrors.ErrCodeInvalidToken:
		return http.StatusUnauthorized

	// 403 Forbidden
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden

	// 404 Not Found
	case apperrors.ErrCodeSessionNotFound:
		return http.StatusNotFound

	// 409 Conflict
	case apperrors.ErrCodeSessionConflict:
		return http.StatusConflict

	// 413 Payload Too Large
	case apperrors.ErrCodeFileTooLarge:
		return http.StatusRequestEntityTooLarge

	// 429 Too Many Requests
	case apperrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests

	// 502 Bad Gateway
	case apperrors.ErrCodeExternal:
		return http.StatusBadGateway

	// 500 Internal Server Error
	case apperrors.ErrCodeInternal,
		apperrors.ErrCodeDatabase:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
