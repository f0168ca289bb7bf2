package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")

	// API and service errors
	ErrNetwork    = fmt.Errorf("could not connect to the server")
	ErrValidation = fmt.Errorf("validation failed")
	ErrNotFound   = fmt.Errorf("resource not found")
	ErrServer     = fmt.Errorf("operation failed")
	ErrAPIRequest = fmt.Errorf("API request failed")

	// Collection errors
	ErrInstanceNotFound = fmt.Errorf("card instance not found")
	ErrGroupNotFound    = fmt.Errorf("card group not found")
	ErrInvalidFilter    = fmt.Errorf("invalid expansion filter")
	ErrStaleResponse    = fmt.Errorf("response superseded by a newer request")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
