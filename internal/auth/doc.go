// Package auth holds the client's authentication context.
//
// A [Session] is created once at startup from the token pair in local storage and injected
// into the HTTP client through [Transport]. The transport attaches the bearer token to every
// request and clears the session when the backend answers 401. Holding an access token is the
// only "logged in" signal; the token's JWT claims are read (never verified) to report expiry.
package auth
