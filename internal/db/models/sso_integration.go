// sso_integration.go defines the per-organization single sign-on integration model.
// The client secret is stored encrypted (AES-GCM via internal/crypto); the model
// carries only the ciphertext.
package models

import "time"

// SSOIntegration represents an organization's single sign-on configuration
type SSOIntegration struct {
	ID                    string
	OrganizationID        string
	Provider              string // e.g. "allauth", "okta", "azuread"
	IssuerURL             string
	ClientID              string
	ClientSecretEncrypted string
	Enabled               bool
	CreatedAt             time.Time
}
