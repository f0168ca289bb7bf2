package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tcgtrack/internal/models"
)

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	credentialFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Account username",
				Sources:  cli.EnvVars("TCGTRACK_USERNAME"),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Aliases:  []string{"p"},
				Usage:    "Account password",
				Sources:  cli.EnvVars("TCGTRACK_PASSWORD"),
				Required: true,
			},
		}
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Log in and store the token pair",
				Flags:  credentialFlags(),
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create a backend account",
				Flags: append(credentialFlags(), &cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Usage:    "Email address",
					Required: true,
				}),
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored tokens",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the current session",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the refresh token for a new access token",
				Action: r.AuthRefresh,
			},
		},
	}
}

// AuthLogin exchanges credentials for a token pair and saves it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := models.Credentials{Username: cmd.String("username"), Password: cmd.String("password")}

	r.logger.Info("logging in", "username", creds.Username, "backend", r.api.BaseURL())
	pair, err := r.auth.Login(ctx, creds)
	if err != nil {
		return err
	}
	if err := r.session.SetTokens(pair); err != nil {
		return err
	}

	return r.writePlain("✓ Logged in as %s\n", creds.Username)
}

// AuthRegister creates an account. It does not log in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	reg := models.Registration{
		Username: cmd.String("username"),
		Email:    cmd.String("email"),
		Password: cmd.String("password"),
	}

	if err := r.auth.Register(ctx, reg); err != nil {
		return err
	}

	return r.writePlain("✓ Account %s created. Run `tcgtrack auth login` to sign in.\n", reg.Username)
}

// AuthLogout clears the session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if !r.session.IsAuthenticated() {
		return r.writePlain("Not logged in\n")
	}
	if err := r.session.Clear(); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

type authStatus struct {
	Authenticated bool       `json:"authenticated"`
	Backend       string     `json:"backend"`
	UserID        string     `json:"user_id,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Expired       bool       `json:"expired"`
}

// AuthStatus reports whether a token is held and what its claims say.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status := authStatus{
		Authenticated: r.session.IsAuthenticated(),
		Backend:       r.api.BaseURL(),
		Expired:       r.session.Expired(),
	}
	if status.Authenticated {
		if claims, err := r.session.Claims(); err != nil {
			r.logger.Debug("token claims unavailable", "error", err)
		} else {
			status.UserID = claims.UserID
			if !claims.ExpiresAt.IsZero() {
				status.ExpiresAt = &claims.ExpiresAt
			}
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlain("Backend: %s\n", status.Backend)
	if !status.Authenticated {
		return r.writePlain("✗ Not logged in\n")
	}
	r.writePlain("✓ Logged in\n")
	if status.UserID != "" {
		r.writePlain("User ID: %s\n", status.UserID)
	}
	if status.ExpiresAt != nil {
		state := "valid"
		if status.Expired {
			state = "expired, run `tcgtrack auth refresh`"
		}
		r.writePlain("Access token expires: %s (%s)\n", status.ExpiresAt.Local().Format(time.RFC1123), state)
	}
	return nil
}

// AuthRefresh replaces the access token using the stored refresh token.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	refresh, err := r.session.RefreshToken()
	if err != nil {
		return fmt.Errorf("%w: log in first", err)
	}

	pair, err := r.auth.Refresh(ctx, refresh)
	if err != nil {
		return err
	}
	if err := r.session.SetTokens(pair); err != nil {
		return err
	}

	r.writePlain("✓ Access token refreshed\n")
	if claims, err := r.session.Claims(); err == nil && !claims.ExpiresAt.IsZero() {
		r.writePlain("Expires: %s\n", claims.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}
