// team.go defines the Team model and access levels for organization teams.
package models

import "time"

// Team access levels
const (
	TeamAccessReadOnly = "readonly"
	TeamAccessAdmin    = "admin"
)

// Team represents a named group of users inside an organization
type Team struct {
	ID             string
	OrganizationID string
	Slug           string
	Name           string
	Access         string // "readonly" or "admin"
	MemberCount    int    // populated by list queries, not a column
	CreatedAt      time.Time
}

// URL returns the path of the team's detail page inside its organization.
func (t *Team) URL(orgSlug string) string {
	return "/orgs/" + orgSlug + "/teams/" + t.Slug
}
