package constants

// Error codes used in API responses.
// These are the machine-readable codes returned in the "error" field.
const (
	// Common error codes
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeForbidden      = "FORBIDDEN"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeRateLimited    = "RATE_LIMITED"

	// Shortener-specific codes
	CodeInvalidURL     = "INVALID_URL"
	CodeUnreachableURL = "UNREACHABLE_URL"
	CodeAliasConflict  = "ALIAS_CONFLICT"
	CodeLinkExpired    = "LINK_EXPIRED"
	CodeLinkNotFound   = "LINK_NOT_FOUND"

	// Auth-specific codes
	CodeEmailTaken = "EMAIL_TAKEN"

	// Success codes
	CodeLinkCreated    = "LINK_CREATED"
	CodeLinkUpdated    = "LINK_UPDATED"
	CodeLinkDeleted    = "LINK_DELETED"
	CodeStatsFound     = "STATS_FOUND"
	CodeLinksFound     = "LINKS_FOUND"
	CodeUserRegistered = "USER_REGISTERED"
	CodeLoginOK        = "LOGIN_OK"
	CodeUserFound      = "USER_FOUND"
)
