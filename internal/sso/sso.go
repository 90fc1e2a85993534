// Package sso answers questions about an organization's single sign-on
// integrations: whether membership is managed by an external identity
// provider, and decrypting stored client secrets for provider setup.
package sso

import (
	"context"
	"fmt"

	"github.com/docshost/docshost/internal/crypto"
	"github.com/docshost/docshost/internal/db/models"
)

// IntegrationStore is the subset of the SSO repository the service needs.
type IntegrationStore interface {
	ListByOrganization(ctx context.Context, orgID string) ([]*models.SSOIntegration, error)
	GetByOrganizationAndProvider(ctx context.Context, orgID, provider string) (*models.SSOIntegration, error)
}

// Service evaluates SSO state for organizations
type Service struct {
	store  IntegrationStore
	cipher *crypto.SecretCipher
}

// NewService creates an SSO service. The cipher decrypts stored client secrets.
func NewService(store IntegrationStore, cipher *crypto.SecretCipher) *Service {
	return &Service{store: store, cipher: cipher}
}

// MembershipManagedExternally reports whether the organization has any enabled
// SSO integration. When true, teams and membership are owned by the identity
// provider and must not be edited (or shown as editable) in the docs host.
func (s *Service) MembershipManagedExternally(ctx context.Context, orgID string) (bool, error) {
	integrations, err := s.store.ListByOrganization(ctx, orgID)
	if err != nil {
		return false, fmt.Errorf("failed to check sso integrations: %w", err)
	}

	for _, integration := range integrations {
		if integration.Enabled {
			return true, nil
		}
	}

	return false, nil
}

// ClientSecret returns the decrypted client secret for an organization's
// provider integration. Returns ("", nil) when no integration exists.
func (s *Service) ClientSecret(ctx context.Context, orgID, provider string) (string, error) {
	integration, err := s.store.GetByOrganizationAndProvider(ctx, orgID, provider)
	if err != nil {
		return "", err
	}
	if integration == nil {
		return "", nil
	}

	secret, err := s.cipher.Open(integration.ClientSecretEncrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt client secret: %w", err)
	}

	return secret, nil
}
