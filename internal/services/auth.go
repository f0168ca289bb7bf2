package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/shared"
)

// AuthService wraps the token and registration endpoints.
type AuthService struct {
	api *APIService
}

// NewAuthService creates an AuthService over api.
func NewAuthService(api *APIService) *AuthService {
	return &AuthService{api: api}
}

// Login exchanges credentials for a token pair at POST /token/.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (models.TokenPair, error) {
	if err := creds.Validate(); err != nil {
		return models.TokenPair{}, err
	}

	pair, err := sendJSON[models.TokenPair](ctx, s.api, http.MethodPost, "/token/", creds)
	if errors.Is(err, shared.ErrNotAuthenticated) {
		return models.TokenPair{}, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if err != nil {
		return models.TokenPair{}, err
	}
	if pair.Access == "" {
		return models.TokenPair{}, fmt.Errorf("%w: server returned no access token", shared.ErrAuthFailed)
	}
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token at POST /token/refresh/.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	if refresh == "" {
		return models.TokenPair{}, shared.ErrNoRefreshToken
	}

	pair, err := sendJSON[models.TokenPair](ctx, s.api, http.MethodPost, "/token/refresh/", map[string]string{"refresh": refresh})
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if pair.Access == "" {
		return models.TokenPair{}, fmt.Errorf("%w: server returned no access token", shared.ErrRefreshFailed)
	}
	return pair, nil
}

// Register creates an account at POST /register/.
func (s *AuthService) Register(ctx context.Context, reg models.Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	_, err := sendJSON[map[string]any](ctx, s.api, http.MethodPost, "/register/", reg)
	return err
}
