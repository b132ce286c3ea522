package constants

// Error messages used in API responses.
// These are the human-readable messages returned in the "message" field.
const (
	// Common messages
	MsgInvalidRequestBody = "Invalid request body"
	MsgInternalError      = "An internal error occurred"
	MsgUnauthorized       = "Unauthorized"
	MsgForbidden          = "You do not own this link"

	// Shortener-specific messages
	MsgInvalidURL     = "Invalid URL (must be http or https)"
	MsgUnreachableURL = "Target URL did not respond"
	MsgAliasConflict  = "Alias is already taken, pick another one"
	MsgLinkExpired    = "Link has expired"
	MsgLinkNotFound   = "Link not found"

	// Auth-specific messages
	MsgEmailTaken         = "Email is already registered"
	MsgInvalidCredentials = "Invalid email or password"
)
