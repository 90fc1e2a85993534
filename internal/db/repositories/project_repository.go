// project_repository.go implements ProjectRepository, providing database queries for
// documentation projects, their versions, and their maintainers.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/docshost/docshost/internal/db/models"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// GetBySlug retrieves a project by its URL slug
func (r *ProjectRepository) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	var project models.Project
	query := `SELECT * FROM projects WHERE slug = $1`
	err := r.db.GetContext(ctx, &project, query, slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// ListByOrganization retrieves an organization's projects ordered by name
func (r *ProjectRepository) ListByOrganization(ctx context.Context, orgID string) ([]*models.Project, error) {
	var projects []*models.Project
	query := `SELECT * FROM projects WHERE organization_id = $1 ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &projects, query, orgID); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	if projects == nil {
		projects = make([]*models.Project, 0)
	}
	return projects, nil
}

// CountByOrganization returns the number of projects in an organization
func (r *ProjectRepository) CountByOrganization(ctx context.Context, orgID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM projects WHERE organization_id = $1`
	if err := r.db.GetContext(ctx, &count, query, orgID); err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (organization_id, slug, name, repo_url, language, default_version)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		project.OrganizationID, project.Slug, project.Name,
		project.RepoURL, project.Language, project.DefaultVersion,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// Update updates a project's mutable fields
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET name = $2, repo_url = $3, language = $4, default_version = $5, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query,
		project.ID, project.Name, project.RepoURL, project.Language, project.DefaultVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// Delete deletes a project
func (r *ProjectRepository) Delete(ctx context.Context, projectID string) error {
	query := `DELETE FROM projects WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// === Versions ===

// ListVersions retrieves all active versions of a project in insertion order.
// Callers that need semver ordering sort with the versions package afterwards.
func (r *ProjectRepository) ListVersions(ctx context.Context, projectID string) ([]*models.ProjectVersion, error) {
	var versions []*models.ProjectVersion
	query := `SELECT * FROM project_versions WHERE project_id = $1 AND active = true ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &versions, query, projectID); err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	if versions == nil {
		versions = make([]*models.ProjectVersion, 0)
	}
	return versions, nil
}

// GetVersion retrieves one version of a project by slug
func (r *ProjectRepository) GetVersion(ctx context.Context, projectID, slug string) (*models.ProjectVersion, error) {
	var version models.ProjectVersion
	query := `SELECT * FROM project_versions WHERE project_id = $1 AND slug = $2`
	err := r.db.GetContext(ctx, &version, query, projectID, slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return &version, nil
}

// CreateVersion adds a version slug to a project
func (r *ProjectRepository) CreateVersion(ctx context.Context, version *models.ProjectVersion) error {
	query := `
		INSERT INTO project_versions (project_id, slug, active, built)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		version.ProjectID, version.Slug, version.Active, version.Built,
	).Scan(&version.ID, &version.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create version: %w", err)
	}
	return nil
}

// MarkVersionBuilt flags a version as having built documentation available
func (r *ProjectRepository) MarkVersionBuilt(ctx context.Context, versionID string, built bool) error {
	query := `UPDATE project_versions SET built = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, versionID, built); err != nil {
		return fmt.Errorf("failed to mark version built: %w", err)
	}
	return nil
}

// === Maintainers ===

// ListUsers retrieves a project's maintainers ordered by username
func (r *ProjectRepository) ListUsers(ctx context.Context, projectID string) ([]*models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.display_name, u.oidc_sub, u.created_at, u.updated_at
		FROM users u
		INNER JOIN project_users pu ON u.id = pu.user_id
		WHERE pu.project_id = $1
		ORDER BY u.username ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.DisplayName,
			&user.OIDCSub,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// AddUser adds a maintainer to a project
func (r *ProjectRepository) AddUser(ctx context.Context, projectID, userID string) error {
	query := `INSERT INTO project_users (project_id, user_id, created_at) VALUES ($1, $2, NOW())`
	if _, err := r.db.ExecContext(ctx, query, projectID, userID); err != nil {
		return fmt.Errorf("failed to add project user: %w", err)
	}
	return nil
}

// RemoveUser removes a maintainer from a project
func (r *ProjectRepository) RemoveUser(ctx context.Context, projectID, userID string) error {
	query := `DELETE FROM project_users WHERE project_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, projectID, userID); err != nil {
		return fmt.Errorf("failed to remove project user: %w", err)
	}
	return nil
}
