package constants

import "net/http"

// APIError represents a standardized API error with code, message, and HTTP status.
// Use these predefined errors for consistent API responses across the application.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// WithMessage returns a copy of the APIError with a custom message.
// Useful for validation errors or other dynamic messages.
func (e APIError) WithMessage(message string) APIError {
	return APIError{
		Code:    e.Code,
		Message: message,
		Status:  e.Status,
	}
}

// Common errors - shared across multiple modules
var (
	ErrInvalidRequestBody = APIError{
		Code:    CodeInvalidRequest,
		Message: MsgInvalidRequestBody,
		Status:  http.StatusBadRequest,
	}
	ErrInternalError = APIError{
		Code:    CodeInternalError,
		Message: MsgInternalError,
		Status:  http.StatusInternalServerError,
	}
	ErrUnauthorized = APIError{
		Code:    CodeUnauthorized,
		Message: MsgUnauthorized,
		Status:  http.StatusUnauthorized,
	}
	ErrForbidden = APIError{
		Code:    CodeForbidden,
		Message: MsgForbidden,
		Status:  http.StatusForbidden,
	}
	ErrRateLimited = APIError{
		Code:    CodeRateLimited,
		Message: "Too many requests",
		Status:  http.StatusTooManyRequests,
	}
)

// Shortener-specific errors. Alias conflicts surface as 400, expiry as 410.
var (
	ErrInvalidURL = APIError{
		Code:    CodeInvalidURL,
		Message: MsgInvalidURL,
		Status:  http.StatusBadRequest,
	}
	ErrUnreachableURL = APIError{
		Code:    CodeUnreachableURL,
		Message: MsgUnreachableURL,
		Status:  http.StatusBadRequest,
	}
	ErrAliasConflict = APIError{
		Code:    CodeAliasConflict,
		Message: MsgAliasConflict,
		Status:  http.StatusBadRequest,
	}
	ErrLinkExpired = APIError{
		Code:    CodeLinkExpired,
		Message: MsgLinkExpired,
		Status:  http.StatusGone,
	}
	ErrLinkNotFound = APIError{
		Code:    CodeLinkNotFound,
		Message: MsgLinkNotFound,
		Status:  http.StatusNotFound,
	}
)

// Auth-specific errors
var (
	ErrEmailTaken = APIError{
		Code:    CodeEmailTaken,
		Message: MsgEmailTaken,
		Status:  http.StatusBadRequest,
	}
	ErrInvalidCredentials = APIError{
		Code:    CodeUnauthorized,
		Message: MsgInvalidCredentials,
		Status:  http.StatusUnauthorized,
	}
)
