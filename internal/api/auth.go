package api

import (
	"context"
	"net/http"

	"inkwell/internal/models"
)

// tokenResponse is the body returned by both auth endpoints. The server also
// includes the user record, but the session layer loads the profile from the
// token's subject claim instead, so only the token is read here.
type tokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, "login", http.MethodPost, "/auth/login", nil, creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", models.NewAuthenticationError("auth endpoint returned no token")
	}
	return resp.Token, nil
}

// Register creates an account and returns its first bearer token.
func (c *Client) Register(ctx context.Context, reg models.Registration) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, "register", http.MethodPost, "/auth/register", nil, reg, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", models.NewAuthenticationError("auth endpoint returned no token")
	}
	return resp.Token, nil
}
