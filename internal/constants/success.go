package constants

import "net/http"

// APISuccess represents a standardized API success response with code and HTTP status.
// Use these predefined success constants for consistent API responses across the application.
type APISuccess struct {
	Code   string
	Status int
}

// Link-related success responses
var (
	SuccessLinkCreated = APISuccess{
		Code:   CodeLinkCreated,
		Status: http.StatusCreated,
	}
	SuccessLinkUpdated = APISuccess{
		Code:   CodeLinkUpdated,
		Status: http.StatusOK,
	}
	SuccessLinkDeleted = APISuccess{
		Code:   CodeLinkDeleted,
		Status: http.StatusOK,
	}
	SuccessStatsFound = APISuccess{
		Code:   CodeStatsFound,
		Status: http.StatusOK,
	}
	SuccessLinksFound = APISuccess{
		Code:   CodeLinksFound,
		Status: http.StatusOK,
	}
)

// Auth-related success responses
var (
	SuccessUserRegistered = APISuccess{
		Code:   CodeUserRegistered,
		Status: http.StatusCreated,
	}
	SuccessLoginOK = APISuccess{
		Code:   CodeLoginOK,
		Status: http.StatusOK,
	}
	SuccessUserFound = APISuccess{
		Code:   CodeUserFound,
		Status: http.StatusOK,
	}
)
