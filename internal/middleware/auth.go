// Package middleware provides Gin HTTP middleware for authentication,
// rate limiting, security headers, request IDs, and metrics.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → Auth → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB work.
// Auth populates the user identity; handlers read it from the Gin context.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docshost/docshost/internal/auth"
	"github.com/docshost/docshost/internal/config"
	"github.com/docshost/docshost/internal/db/models"
	"github.com/docshost/docshost/internal/db/repositories"
)

// sessionToken extracts the session JWT from the request: the session cookie
// for browser page loads, or a Bearer Authorization header for API clients.
func sessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return ""
}

// AuthMiddleware validates the session token and aborts unauthenticated requests
func AuthMiddleware(cfg *config.Config, userRepo *repositories.UserRepository) gin.HandlerFunc {
	cookieName := cfg.Auth.Sessions.CookieName

	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired session",
			})
			return
		}

		user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
			})
			return
		}

		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Set("auth_method", "session")

		c.Next()
	}
}

// OptionalAuthMiddleware resolves the viewer when a valid session is present
// but never aborts. Public pages use this so they can personalize output
// (e.g. omit the current viewer from project maintainer lists) while still
// serving anonymous visitors.
func OptionalAuthMiddleware(cfg *config.Config, userRepo *repositories.UserRepository) gin.HandlerFunc {
	cookieName := cfg.Auth.Sessions.CookieName

	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			c.Next()
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			// Invalid session on a public page: serve anonymously
			c.Next()
			return
		}

		user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err == nil && user != nil {
			c.Set("user", user)
			c.Set("user_id", user.ID)
			c.Set("auth_method", "session")
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated user from the Gin context, or nil
// when the request is anonymous.
func CurrentUser(c *gin.Context) *models.User {
	val, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}
