// Package models contains data structures for the application's domain records.
//
// Everything here is a client-side copy of a record owned by the remote
// Inkwell API; the only client-computed field is Comment.Replies.
package models

import "time"

// User roles as reported by the remote API.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// User represents a user profile fetched from the remote API.
type User struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CanModerate reports whether the user may approve or reject comments.
func (u *User) CanModerate() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}
