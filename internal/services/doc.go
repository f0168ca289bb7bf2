// Package services implements typed clients for the collection backend's REST API.
//
// # Raw transport
//
// [APIService] performs requests against the configured base URL and returns [APIResponse]
// values. Authentication is not its concern: the [http.Client] it is given carries an
// auth.Transport that attaches the bearer token and clears the session on 401.
// Reads that hit 429 are retried with exponential backoff; writes are sent exactly once.
//
// # Typed endpoints
//
//   - [CollectionService] : grouped and flat collection reads, user expansions, add/update/delete, catalog
//   - [AuthService] : login, token refresh and registration
//
// # Error Handling
//
// Non-2xx responses become [*APIError], which unwraps to the class sentinel from the shared package:
//   - [shared.ErrValidation] : 400, 409, 422 (details in [APIError.Detail])
//   - [shared.ErrNotAuthenticated] : 401
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrServer] : 5xx
//
// Transport failures wrap [shared.ErrNetwork].
package services
