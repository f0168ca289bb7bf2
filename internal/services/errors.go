package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/desertthunder/tcgtrack/internal/shared"
)

// APIError is a non-2xx response from the backend.
//
// It unwraps to the sentinel for its class, so callers can use errors.Is with
// [shared.ErrValidation], [shared.ErrNotAuthenticated], [shared.ErrNotFound] or [shared.ErrServer].
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%v: %s %s returned %d", e.Unwrap(), e.Method, e.Path, e.StatusCode)
	if d := e.Detail(); d != "" {
		msg += ": " + d
	}
	return msg
}

// Unwrap maps the status code onto its error class.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusConflict, e.StatusCode == http.StatusUnprocessableEntity:
		return shared.ErrValidation
	case e.StatusCode == http.StatusUnauthorized:
		return shared.ErrNotAuthenticated
	case e.StatusCode == http.StatusForbidden:
		return shared.ErrAuthFailed
	case e.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case e.StatusCode >= 500:
		return shared.ErrServer
	default:
		return shared.ErrAPIRequest
	}
}

// Detail extracts a human readable message from a Django REST framework error body.
//
// Handles {"detail": "..."}, field maps like {"quantity": ["..."]} and bare lists.
func (e *APIError) Detail() string {
	if len(e.Body) == 0 {
		return ""
	}

	var raw any
	if err := json.Unmarshal(e.Body, &raw); err != nil {
		s := strings.TrimSpace(string(e.Body))
		if len(s) > 200 || strings.HasPrefix(s, "<") {
			return ""
		}
		return s
	}

	switch v := raw.(type) {
	case map[string]any:
		if d, ok := v["detail"].(string); ok {
			return d
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var parts []string
		for _, k := range keys {
			msg := flatten(v[k])
			if msg == "" {
				continue
			}
			if k == "non_field_errors" {
				parts = append(parts, msg)
			} else {
				parts = append(parts, k+": "+msg)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return flatten(v)
	}
}

func flatten(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		var msgs []string
		for _, item := range t {
			if s := flatten(item); s != "" {
				msgs = append(msgs, s)
			}
		}
		return strings.Join(msgs, " ")
	default:
		return ""
	}
}

// checkResponse returns an [*APIError] for non-2xx responses.
func checkResponse(resp *APIResponse, method, path string) error {
	if resp.OK() {
		return nil
	}
	return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: resp.Body}
}
