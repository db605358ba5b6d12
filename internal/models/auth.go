package models

// Credentials is the login payload sent to the remote auth endpoint.
type Credentials struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

// Registration is the signup payload sent to the remote auth endpoint.
type Registration struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// ProfileUpdate is the payload for the profile-update endpoint. Nil fields
// are left unchanged server-side.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}
