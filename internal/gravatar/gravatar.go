// Package gravatar builds avatar image URLs for user email addresses
// following the Gravatar URL convention: an MD5 hex digest of the
// trimmed, lowercased address.
package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/docshost/docshost/internal/config"
)

// Service builds avatar URLs from the configured base URL, default
// image style, and pixel size.
type Service struct {
	baseURL      string
	defaultStyle string
	size         int
}

// New creates a gravatar service from configuration
func New(cfg config.GravatarConfig) *Service {
	return &Service{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		defaultStyle: cfg.DefaultStyle,
		size:         cfg.Size,
	}
}

// URL returns the avatar URL for an email address at the configured size
func (s *Service) URL(email string) string {
	return s.URLWithSize(email, s.size)
}

// URLWithSize returns the avatar URL for an email address at a specific
// pixel size, for surfaces that need larger renderings than the default.
func (s *Service) URLWithSize(email string, size int) string {
	if size <= 0 {
		size = s.size
	}
	return fmt.Sprintf("%s/%s?d=%s&s=%d", s.baseURL, Hash(email), s.defaultStyle, size)
}

// Origin returns the scheme://host portion of the configured base URL, the
// form Content-Security-Policy source lists expect. Returns "" when the base
// URL cannot be parsed into an origin.
func (s *Service) Origin() string {
	u, err := url.Parse(s.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Hash returns the MD5 hex digest of the normalized email address.
// Addresses are trimmed and lowercased before hashing so the same
// mailbox always maps to the same avatar.
func Hash(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
