// Package validation checks form input before it goes over the wire. The
// server re-validates everything; these checks exist so the UI can reject
// bad input without a round trip.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxCommentLength = 10000
	maxTitleLength   = 200
	maxContentLength = 100000
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	digitRegex    = regexp.MustCompile(`[0-9]`)
	specialRegex  = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`)
)

// ValidateUsername checks if a username meets requirements.
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}
	if username[0] == '_' || username[0] == '-' || username[len(username)-1] == '_' || username[len(username)-1] == '-' {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}
	return nil
}

// ValidateEmail checks basic email format.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	return nil
}

// ValidatePassword checks if a password meets security requirements.
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return fmt.Errorf("password must be at least 12 characters long")
	}
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	hasUpper := false
	hasLower := false
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}
	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !digitRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}
	if !specialRegex.MatchString(password) {
		return fmt.Errorf("password must contain at least one special character (!@#$%%^&*)")
	}
	return nil
}

// ValidatePostTitle checks a post title before submission.
func ValidatePostTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if len(trimmed) > maxTitleLength {
		return fmt.Errorf("title must not exceed %d characters", maxTitleLength)
	}
	return nil
}

// ValidatePostContent checks a post body before submission.
func ValidatePostContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content cannot be empty")
	}
	if len(content) > maxContentLength {
		return fmt.Errorf("content must not exceed %d characters", maxContentLength)
	}
	return nil
}

// ValidateCommentContent checks a comment body before submission.
func ValidateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("comment cannot be empty")
	}
	if len(content) > maxCommentLength {
		return fmt.Errorf("comment must not exceed %d characters", maxCommentLength)
	}
	return nil
}
