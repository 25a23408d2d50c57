package api

import (
	"context"
	"net/http"

	"github.com/tgienger/coreterra/internal/models"
)

// UsersClient covers the signed-in user's profile
type UsersClient struct{ c *Client }

func (c *Client) Users() *UsersClient { return &UsersClient{c: c} }

func (u *UsersClient) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := u.c.do(ctx, "users.me", http.MethodGet, "/api/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *UsersClient) UpdateMe(ctx context.Context, patch models.UserPatch) (*models.User, error) {
	var out models.User
	if err := u.c.do(ctx, "users.update", http.MethodPut, "/api/users/me", nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
