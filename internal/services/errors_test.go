package services

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/tcgtrack/internal/shared"
)

func TestAPIError(t *testing.T) {
	t.Run("Classification", func(t *testing.T) {
		tc := []struct {
			status int
			want   error
		}{
			{status: http.StatusBadRequest, want: shared.ErrValidation},
			{status: http.StatusConflict, want: shared.ErrValidation},
			{status: http.StatusUnprocessableEntity, want: shared.ErrValidation},
			{status: http.StatusUnauthorized, want: shared.ErrNotAuthenticated},
			{status: http.StatusForbidden, want: shared.ErrAuthFailed},
			{status: http.StatusNotFound, want: shared.ErrNotFound},
			{status: http.StatusInternalServerError, want: shared.ErrServer},
			{status: http.StatusBadGateway, want: shared.ErrServer},
			{status: http.StatusTooManyRequests, want: shared.ErrAPIRequest},
		}

		for _, tt := range tc {
			t.Run(http.StatusText(tt.status), func(t *testing.T) {
				err := error(&APIError{Method: "GET", Path: "/x/", StatusCode: tt.status})
				if !errors.Is(err, tt.want) {
					t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
				}
			})
		}
	})

	t.Run("Detail", func(t *testing.T) {
		tc := []struct {
			name string
			body string
			want string
		}{
			{name: "detail", body: `{"detail": "Not found."}`, want: "Not found."},
			{name: "field errors sorted", body: `{"quantity": ["Must be positive."], "card": ["Invalid pk."]}`, want: "card: Invalid pk.; quantity: Must be positive."},
			{name: "non field errors", body: `{"non_field_errors": ["Duplicate card."]}`, want: "Duplicate card."},
			{name: "bare list", body: `["first", "second"]`, want: "first second"},
			{name: "plain text", body: "upstream timeout", want: "upstream timeout"},
			{name: "html page", body: "<html><body>Server Error</body></html>", want: ""},
			{name: "empty", body: "", want: ""},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				e := &APIError{StatusCode: 400, Body: []byte(tt.body)}
				if got := e.Detail(); got != tt.want {
					t.Errorf("Detail() = %q, want %q", got, tt.want)
				}
			})
		}
	})

	t.Run("Error message", func(t *testing.T) {
		e := &APIError{Method: "PATCH", Path: "/user-cards/4/", StatusCode: 500, Body: []byte(`{"detail":"boom"}`)}
		msg := e.Error()
		for _, want := range []string{"operation failed", "PATCH /user-cards/4/", "500", "boom"} {
			if !strings.Contains(msg, want) {
				t.Errorf("expected %q in %q", want, msg)
			}
		}
	})

	t.Run("checkResponse", func(t *testing.T) {
		if err := checkResponse(&APIResponse{StatusCode: 204}, "DELETE", "/x/"); err != nil {
			t.Errorf("2xx should not error: %v", err)
		}

		err := checkResponse(&APIResponse{StatusCode: 404}, "DELETE", "/x/")
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
			t.Errorf("expected *APIError with 404, got %v", err)
		}
	})
}
