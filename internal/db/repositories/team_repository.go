// team_repository.go implements TeamRepository, providing database queries for
// organization teams and team membership.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docshost/docshost/internal/db/models"
)

// TeamRepository handles database operations for teams
type TeamRepository struct {
	db *sql.DB
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// GetBySlug retrieves a team by organization and slug
func (r *TeamRepository) GetBySlug(ctx context.Context, orgID, slug string) (*models.Team, error) {
	query := `
		SELECT id, organization_id, slug, name, access, created_at
		FROM teams
		WHERE organization_id = $1 AND slug = $2
	`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, orgID, slug).Scan(
		&team.ID,
		&team.OrganizationID,
		&team.Slug,
		&team.Name,
		&team.Access,
		&team.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return team, nil
}

// ListByOrganization retrieves an organization's teams ordered by name, each
// annotated with its member count for list rendering
func (r *TeamRepository) ListByOrganization(ctx context.Context, orgID string) ([]*models.Team, error) {
	query := `
		SELECT t.id, t.organization_id, t.slug, t.name, t.access, t.created_at,
		       COUNT(tm.user_id) AS member_count
		FROM teams t
		LEFT JOIN team_members tm ON t.id = tm.team_id
		WHERE t.organization_id = $1
		GROUP BY t.id, t.organization_id, t.slug, t.name, t.access, t.created_at
		ORDER BY t.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		team := &models.Team{}
		err := rows.Scan(
			&team.ID,
			&team.OrganizationID,
			&team.Slug,
			&team.Name,
			&team.Access,
			&team.CreatedAt,
			&team.MemberCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, team)
	}

	return teams, rows.Err()
}

// Create creates a new team
func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (organization_id, slug, name, access)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		team.OrganizationID, team.Slug, team.Name, team.Access,
	).Scan(&team.ID, &team.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}

	return nil
}

// Delete deletes a team
func (r *TeamRepository) Delete(ctx context.Context, teamID string) error {
	query := `DELETE FROM teams WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, teamID); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	return nil
}

// === Membership ===

// AddMember adds a user to a team
func (r *TeamRepository) AddMember(ctx context.Context, teamID, userID string) error {
	query := `INSERT INTO team_members (team_id, user_id, created_at) VALUES ($1, $2, NOW())`
	if _, err := r.db.ExecContext(ctx, query, teamID, userID); err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}

	return nil
}

// RemoveMember removes a user from a team
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, teamID, userID); err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}

	return nil
}

// ListMembers retrieves a team's members ordered by username
func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]*models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.display_name, u.oidc_sub, u.created_at, u.updated_at
		FROM users u
		INNER JOIN team_members tm ON u.id = tm.user_id
		WHERE tm.team_id = $1
		ORDER BY u.username ASC
	`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
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
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
