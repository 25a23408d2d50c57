package api

import (
	"context"
	"net/http"
)

// AuthClient covers login and token introspection
type AuthClient struct{ c *Client }

func (c *Client) Auth() *AuthClient { return &AuthClient{c: c} }

// LoginResponse is returned by a successful login
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
}

// Identity is what the backend knows about the token's owner
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Login exchanges credentials for a bearer token and persists it
func (a *AuthClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResponse
	if err := a.c.do(ctx, "auth.login", http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	if out.AccessToken != "" {
		if err := a.c.tokens.SetToken(out.AccessToken); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// Me validates the stored token
func (a *AuthClient) Me(ctx context.Context) (*Identity, error) {
	var out Identity
	if err := a.c.do(ctx, "auth.me", http.MethodGet, "/api/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
