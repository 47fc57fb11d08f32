package handlers

const (
	ErrInvalidRequest      = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrInternalServerError = "Internal server error"
	ErrLoadFailed          = "Load failed"
	ErrSaveFailed          = "Save failed"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests"
	NoticeSignInRequired   = "Please sign in to continue."
	NoticeCoachOnly        = "This page is for coach accounts only."
	NoticeSessionExpired   = "Your session has expired. Please sign in again."
	NoticeSignedOut        = "You are signed out."
	maxRequestBodyBytes    = 1 << 16
	oauthStateCookie       = "oauth_state"
	oauthProviderCookie    = "oauth_provider"
)

// Error codes carried in the JSON error envelope
const (
	CodeInvalidRequest     = "invalid_request"
	CodeValidation         = "validation_failed"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeLoadFailed         = "load_failed"
	CodeSaveFailed         = "save_failed"
	CodeSubmitInFlight     = "submit_in_flight"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal_error"
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailTaken         = "email_taken"
	CodeOAuthFailed        = "oauth_failed"
)
