package auth

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tcgtrack/internal/shared"
)

// RequestIDHeader carries a per-request uuid for correlating client and server logs.
const RequestIDHeader = "X-Request-ID"

// Transport is an [http.RoundTripper] that authenticates requests with the session's bearer token.
//
// Any 401 response clears the session, whatever endpoint produced it.
type Transport struct {
	Session *Session
	Base    http.RoundTripper
	Logger  *log.Logger
}

// NewClient returns an [http.Client] whose transport is bound to session.
func NewClient(session *Session, base http.RoundTripper, logger *log.Logger) *http.Client {
	return &http.Client{Transport: &Transport{Session: session, Base: base, Logger: logger}}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	if tok := t.Session.Token(); tok != nil {
		tok.SetAuthHeader(r)
	}
	if r.Header.Get(RequestIDHeader) == "" {
		r.Header.Set(RequestIDHeader, shared.GenerateID())
	}

	resp, err := t.base().RoundTrip(r)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && t.Session.IsAuthenticated() {
		if t.Logger != nil {
			t.Logger.Warn("backend rejected token, logging out", "path", r.URL.Path, "request_id", r.Header.Get(RequestIDHeader))
		}
		if err := t.Session.Clear(); err != nil && t.Logger != nil {
			t.Logger.Error("failed to clear session", "error", err)
		}
	}

	return resp, nil
}
