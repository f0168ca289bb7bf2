package auth

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/repositories"
	"github.com/desertthunder/tcgtrack/internal/shared"
)

// TokenStore persists the token pair between runs. [repositories.LocalStorage] implements it.
type TokenStore interface {
	Get(key string) (string, bool, error)
	SetMany(pairs map[string]string) error
	Remove(keys ...string) error
}

// Claims are the fields read from an access token's payload.
type Claims struct {
	UserID    string
	TokenType string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is the authentication context shared by every backend call.
type Session struct {
	mu      sync.RWMutex
	store   TokenStore
	token   *oauth2.Token
	logger  *log.Logger
	onClear []func()
}

// NewSession loads any stored token pair into a new session.
func NewSession(store TokenStore, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Session{store: store, logger: logger}

	access, ok, err := store.Get(repositories.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !ok || access == "" {
		return s, nil
	}

	refresh, _, err := store.Get(repositories.KeyRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	s.token = newToken(access, refresh)
	return s, nil
}

func newToken(access, refresh string) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}
	if claims, err := parseClaims(access); err == nil {
		tok.Expiry = claims.ExpiresAt
	}
	return tok
}

// IsAuthenticated reports whether an access token is held.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != nil && s.token.AccessToken != ""
}

// Token returns a copy of the current token, or nil when logged out.
func (s *Session) Token() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil
	}
	tok := *s.token
	return &tok
}

// RefreshToken returns the stored refresh token.
func (s *Session) RefreshToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil || s.token.RefreshToken == "" {
		return "", shared.ErrNoRefreshToken
	}
	return s.token.RefreshToken, nil
}

// SetTokens stores a token pair. An empty Refresh keeps the current refresh token.
func (s *Session) SetTokens(pair models.TokenPair) error {
	if pair.Access == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrAuthFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	refresh := pair.Refresh
	if refresh == "" && s.token != nil {
		refresh = s.token.RefreshToken
	}

	pairs := map[string]string{repositories.KeyAccessToken: pair.Access}
	if refresh != "" {
		pairs[repositories.KeyRefreshToken] = refresh
	}
	if err := s.store.SetMany(pairs); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}

	s.token = newToken(pair.Access, refresh)
	return nil
}

// Clear drops both tokens from memory and storage, then runs the OnClear hooks.
func (s *Session) Clear() error {
	s.mu.Lock()
	hadToken := s.token != nil
	s.token = nil
	hooks := append([]func(){}, s.onClear...)
	err := s.store.Remove(repositories.KeyAccessToken, repositories.KeyRefreshToken)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	if hadToken {
		s.logger.Info("session cleared")
		for _, fn := range hooks {
			fn()
		}
	}
	return nil
}

// OnClear registers fn to run after the session is cleared (logout or a 401 response).
func (s *Session) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClear = append(s.onClear, fn)
}

// Expired reports whether the access token carries an expiry that has passed.
//
// Tokens without a readable exp claim never report expired; the server decides.
func (s *Session) Expired() bool {
	tok := s.Token()
	if tok == nil || tok.Expiry.IsZero() {
		return false
	}
	return !tok.Valid()
}

// Claims decodes the access token's payload without verifying its signature.
func (s *Session) Claims() (Claims, error) {
	tok := s.Token()
	if tok == nil {
		return Claims{}, shared.ErrNotAuthenticated
	}
	return parseClaims(tok.AccessToken)
}

func parseClaims(access string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, mc); err != nil {
		return Claims{}, fmt.Errorf("failed to read token claims: %w", err)
	}

	var c Claims
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	switch uid := mc["user_id"].(type) {
	case string:
		c.UserID = uid
	case float64:
		c.UserID = fmt.Sprintf("%.0f", uid)
	}
	if tt, ok := mc["token_type"].(string); ok {
		c.TokenType = tt
	}
	if c.ExpiresAt.IsZero() && c.UserID == "" {
		return c, errors.New("token carries no recognizable claims")
	}
	return c, nil
}
