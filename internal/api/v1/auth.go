// auth.go implements HTTP handlers for password sign-in, OIDC single sign-on,
// session introspection, and logout. Successful sign-ins set the session cookie
// so browser page loads are authenticated transparently; API clients can use
// the returned JWT as a Bearer token instead.
package v1

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docshost/docshost/internal/auth"
	"github.com/docshost/docshost/internal/auth/oidc"
	"github.com/docshost/docshost/internal/config"
	"github.com/docshost/docshost/internal/db/models"
	"github.com/docshost/docshost/internal/db/repositories"
	"github.com/docshost/docshost/internal/middleware"
)

// AuthHandlers handles authentication endpoints
type AuthHandlers struct {
	cfg          *config.Config
	userRepo     *repositories.UserRepository
	oidcProvider atomic.Pointer[oidc.OIDCProvider]

	mu           sync.Mutex
	sessionStore map[string]*oauthState
}

// oauthState represents OAuth state during the authorization code flow
type oauthState struct {
	State     string
	CreatedAt time.Time
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(cfg *config.Config, db *sql.DB) (*AuthHandlers, error) {
	h := &AuthHandlers{
		cfg:          cfg,
		userRepo:     repositories.NewUserRepository(db),
		sessionStore: make(map[string]*oauthState),
	}

	if cfg.Auth.OIDC.Enabled {
		provider, err := oidc.NewOIDCProvider(&cfg.Auth.OIDC)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
		}
		h.oidcProvider.Store(provider)
	}

	return h, nil
}

// SetOIDCProvider atomically swaps the active OIDC provider so sign-in config
// changes take effect without a server restart.
func (h *AuthHandlers) SetOIDCProvider(provider *oidc.OIDCProvider) {
	h.oidcProvider.Store(provider)
	slog.Info("OIDC provider swapped at runtime")
}

// generateState generates a random state string for OAuth
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (h *AuthHandlers) sessionTTL() time.Duration {
	if h.cfg.Auth.Sessions.TTL > 0 {
		return h.cfg.Auth.Sessions.TTL
	}
	return 24 * time.Hour
}

// setSessionCookie attaches the session JWT as an HTTP-only cookie.
func (h *AuthHandlers) setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(
		h.cfg.Auth.Sessions.CookieName,
		token,
		int(h.sessionTTL().Seconds()),
		"/",
		"",
		h.cfg.Auth.Sessions.CookieSecure,
		true,
	)
}

// clearSessionCookie removes the session cookie.
func (h *AuthHandlers) clearSessionCookie(c *gin.Context) {
	c.SetCookie(h.cfg.Auth.Sessions.CookieName, "", -1, "/", "", h.cfg.Auth.Sessions.CookieSecure, true)
}

// LoginRequest represents a password sign-in request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler signs a user in with username and password
// POST /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		user, err := h.userRepo.VerifyPassword(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to verify credentials",
			})
			return
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid username or password",
			})
			return
		}

		token, err := auth.GenerateJWT(user.ID, user.Username, user.Email, h.sessionTTL())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate session token",
			})
			return
		}

		h.setSessionCookie(c, token)
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user": gin.H{
				"id":       user.ID,
				"username": user.Username,
				"name":     user.Name(),
			},
		})
	}
}

// OIDCLoginHandler initiates the OIDC authorization code flow
// GET /api/v1/auth/oidc/login
func (h *AuthHandlers) OIDCLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := h.oidcProvider.Load()
		if provider == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "OIDC sign-in is not configured",
			})
			return
		}

		state, err := generateState()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate state",
			})
			return
		}

		h.mu.Lock()
		h.sessionStore[state] = &oauthState{State: state, CreatedAt: time.Now()}
		h.mu.Unlock()

		c.Redirect(http.StatusFound, provider.GetAuthURL(state))
	}
}

// consumeState validates and removes a pending OAuth state. Returns false when
// the state is unknown or older than five minutes.
func (h *AuthHandlers) consumeState(state string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	pending, ok := h.sessionStore[state]
	if !ok {
		return false
	}
	delete(h.sessionStore, state)
	return time.Since(pending.CreatedAt) <= 5*time.Minute
}

// OIDCCallbackHandler completes the OIDC authorization code flow, provisions
// the user on first sign-in, sets the session cookie, and redirects home.
// GET /api/v1/auth/oidc/callback?code=...&state=...
func (h *AuthHandlers) OIDCCallbackHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := h.oidcProvider.Load()
		if provider == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "OIDC sign-in is not configured",
			})
			return
		}

		if !h.consumeState(c.Query("state")) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid or expired state parameter. Please try signing in again.",
			})
			return
		}

		ctx := c.Request.Context()

		token, err := provider.ExchangeCode(ctx, c.Query("code"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Failed to exchange authorization code",
			})
			return
		}

		rawIDToken, ok := token.Extra("id_token").(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "The identity provider did not return an ID token",
			})
			return
		}

		idToken, err := provider.VerifyIDToken(ctx, rawIDToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "The ID token could not be verified",
			})
			return
		}

		sub, email, name, err := provider.ExtractUserInfo(idToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Failed to extract user information from the ID token",
			})
			return
		}

		user, err := h.getOrCreateOIDCUser(ctx, sub, email, name)
		if err != nil {
			slog.Error("failed to provision OIDC user", "sub", sub, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to look up or create your account",
			})
			return
		}

		jwtToken, err := auth.GenerateJWT(user.ID, user.Username, user.Email, h.sessionTTL())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate session token",
			})
			return
		}

		h.setSessionCookie(c, jwtToken)
		c.Redirect(http.StatusFound, "/")
	}
}

// getOrCreateOIDCUser resolves the account for an OIDC identity. Matching
// order: OIDC subject, then email (linking the subject to an existing account),
// then a fresh account with a username derived from the email local part.
func (h *AuthHandlers) getOrCreateOIDCUser(ctx context.Context, sub, email, name string) (*models.User, error) {
	user, err := h.userRepo.GetUserByOIDCSub(ctx, sub)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user, err = h.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		user.OIDCSub = &sub
		if err := h.userRepo.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	username := email
	if at := strings.Index(email, "@"); at > 0 {
		username = email[:at]
	}

	user = &models.User{
		Username:    username,
		Email:       email,
		DisplayName: name,
		OIDCSub:     &sub,
	}
	if err := h.userRepo.CreateUser(ctx, user, ""); err != nil {
		return nil, err
	}
	return user, nil
}

// LogoutHandler clears the session cookie and, when OIDC is active, redirects
// the browser to the provider's end_session_endpoint so the SSO session is
// terminated too. Without that redirect, signing in again silently
// re-authenticates via the still-active IdP session cookie.
// GET /api/v1/auth/logout
func (h *AuthHandlers) LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.clearSessionCookie(c)

		postLogoutRedirect := strings.TrimRight(h.cfg.Server.GetPublicURL(), "/") + "/"

		provider := h.oidcProvider.Load()
		if provider != nil {
			if endSessionURL := provider.GetEndSessionEndpoint(); endSessionURL != "" {
				logoutURL, err := url.Parse(endSessionURL)
				if err == nil {
					q := logoutURL.Query()
					q.Set("post_logout_redirect_uri", postLogoutRedirect)
					q.Set("client_id", h.cfg.Auth.OIDC.ClientID)
					logoutURL.RawQuery = q.Encode()
					c.Redirect(http.StatusFound, logoutURL.String())
					return
				}
			}
		}

		c.Redirect(http.StatusFound, postLogoutRedirect)
	}
}

// MeHandler returns the signed-in user's own account
// GET /api/v1/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := middleware.CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id":          user.ID,
				"username":    user.Username,
				"email":       user.Email,
				"name":        user.Name(),
				"profile_url": user.ProfileURL(),
			},
		})
	}
}
