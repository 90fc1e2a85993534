// Package models - user.go defines the User model for accounts with email,
// display name, and OIDC subject.
package models

import "time"

// User represents a user in the system
type User struct {
	ID          string
	Username    string
	Email       string
	DisplayName string
	OIDCSub     *string // OIDC subject identifier (unique per provider)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileURL returns the path of the user's public profile page.
func (u *User) ProfileURL() string {
	return "/profiles/" + u.Username
}

// Name returns the display name, falling back to the username when unset.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
