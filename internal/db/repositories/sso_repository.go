// sso_repository.go implements SSORepository, providing database queries for
// per-organization single sign-on integrations. Client secrets are stored
// encrypted; this layer never sees plaintext.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/docshost/docshost/internal/db/models"
)

// SSORepository handles database operations for SSO integrations
type SSORepository struct {
	db *sql.DB
}

// NewSSORepository creates a new SSO repository
func NewSSORepository(db *sql.DB) *SSORepository {
	return &SSORepository{db: db}
}

// GetByOrganizationAndProvider retrieves an organization's integration for one provider
func (r *SSORepository) GetByOrganizationAndProvider(ctx context.Context, orgID, provider string) (*models.SSOIntegration, error) {
	query := `
		SELECT id, organization_id, provider, issuer_url, client_id, client_secret_encrypted, enabled, created_at
		FROM sso_integrations
		WHERE organization_id = $1 AND provider = $2
	`

	integration := &models.SSOIntegration{}
	err := r.db.QueryRowContext(ctx, query, orgID, provider).Scan(
		&integration.ID,
		&integration.OrganizationID,
		&integration.Provider,
		&integration.IssuerURL,
		&integration.ClientID,
		&integration.ClientSecretEncrypted,
		&integration.Enabled,
		&integration.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get sso integration: %w", err)
	}

	return integration, nil
}

// IsEnabled reports whether the organization has an enabled integration for the provider
func (r *SSORepository) IsEnabled(ctx context.Context, orgID, provider string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM sso_integrations
			WHERE organization_id = $1 AND provider = $2 AND enabled = true
		)
	`
	err := r.db.QueryRowContext(ctx, query, orgID, provider).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check sso integration: %w", err)
	}

	return exists, nil
}

// ListByOrganization retrieves all integrations of an organization
func (r *SSORepository) ListByOrganization(ctx context.Context, orgID string) ([]*models.SSOIntegration, error) {
	query := `
		SELECT id, organization_id, provider, issuer_url, client_id, client_secret_encrypted, enabled, created_at
		FROM sso_integrations
		WHERE organization_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sso integrations: %w", err)
	}
	defer rows.Close()

	integrations := make([]*models.SSOIntegration, 0)
	for rows.Next() {
		integration := &models.SSOIntegration{}
		err := rows.Scan(
			&integration.ID,
			&integration.OrganizationID,
			&integration.Provider,
			&integration.IssuerURL,
			&integration.ClientID,
			&integration.ClientSecretEncrypted,
			&integration.Enabled,
			&integration.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sso integration: %w", err)
		}
		integrations = append(integrations, integration)
	}

	return integrations, rows.Err()
}

// Create creates a new SSO integration
func (r *SSORepository) Create(ctx context.Context, integration *models.SSOIntegration) error {
	query := `
		INSERT INTO sso_integrations (organization_id, provider, issuer_url, client_id, client_secret_encrypted, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		integration.OrganizationID, integration.Provider, integration.IssuerURL,
		integration.ClientID, integration.ClientSecretEncrypted, integration.Enabled,
	).Scan(&integration.ID, &integration.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create sso integration: %w", err)
	}

	return nil
}

// SetEnabled toggles an integration on or off
func (r *SSORepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE sso_integrations SET enabled = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, enabled); err != nil {
		return fmt.Errorf("failed to toggle sso integration: %w", err)
	}

	return nil
}

// Delete deletes an SSO integration
func (r *SSORepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sso_integrations WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete sso integration: %w", err)
	}

	return nil
}
