package api

import (
	"context"
	"fmt"
	"net/http"

	"inkwell/internal/models"
)

// GetUser fetches a user profile by id.
func (c *Client) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	path := fmt.Sprintf("/users/%d", id)
	if err := c.do(ctx, "get_user", http.MethodGet, path, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile updates the authenticated user's profile and returns the
// record as the server now holds it.
func (c *Client) UpdateProfile(ctx context.Context, in models.ProfileUpdate) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "update_profile", http.MethodPut, "/users/me", nil, in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
