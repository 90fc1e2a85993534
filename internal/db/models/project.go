// project.go defines the Project and ProjectVersion models for hosted documentation
// projects and their buildable version slugs. These carry db tags because the
// project repository loads them through sqlx.
package models

import "time"

// Project represents a documentation project owned by an organization
type Project struct {
	ID             string    `db:"id"`
	OrganizationID string    `db:"organization_id"`
	Slug           string    `db:"slug"`
	Name           string    `db:"name"`
	RepoURL        string    `db:"repo_url"`
	Language       string    `db:"language"`
	DefaultVersion string    `db:"default_version"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// URL returns the path of the project's detail page.
func (p *Project) URL() string {
	return "/projects/" + p.Slug
}

// DocsURL returns the path where the project's default version is served.
func (p *Project) DocsURL() string {
	return "/docs/" + p.Slug + "/" + p.DefaultVersion + "/"
}

// ProjectVersion represents one version slug of a project (e.g. "latest", "v2.1.0")
type ProjectVersion struct {
	ID        string    `db:"id"`
	ProjectID string    `db:"project_id"`
	Slug      string    `db:"slug"`
	Active    bool      `db:"active"`
	Built     bool      `db:"built"`
	CreatedAt time.Time `db:"created_at"`
}

// ProjectWithUsers pairs a project with its maintainers for list rendering
type ProjectWithUsers struct {
	Project
	Users []User
}
