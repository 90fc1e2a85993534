// Package models - organization.go defines the Organization model representing a tenant
// that groups projects, teams, and owners under a URL-safe slug.
package models

import "time"

// Organization represents an organization in the system
type Organization struct {
	ID          string
	Slug        string // URL-safe identifier (used in page and API paths)
	Name        string // Human-readable display name
	Email       string // Contact email, also drives the owners' gravatar fallback
	URL         string // Optional homepage; empty means not set
	Description string // Optional free-form description; empty means not set
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
