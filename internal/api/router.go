// Package api wires the HTTP surface of the documentation host: the
// server-rendered organization pages, the JSON API under /api/v1, the built
// documentation file server under /docs, and the system endpoints (/health,
// /ready, /version).
//
// NewRouter also owns construction of the shared infrastructure the handlers
// need (storage backend, repositories, secret cipher, message registry) and
// starts the background jobs, returning them in BackgroundServices so
// cmd/server can stop them during graceful shutdown.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	v1 "github.com/docshost/docshost/internal/api/v1"
	"github.com/docshost/docshost/internal/config"
	"github.com/docshost/docshost/internal/crypto"
	"github.com/docshost/docshost/internal/db/repositories"
	"github.com/docshost/docshost/internal/gravatar"
	"github.com/docshost/docshost/internal/jobs"
	"github.com/docshost/docshost/internal/middleware"
	"github.com/docshost/docshost/internal/notifications"
	"github.com/docshost/docshost/internal/safego"
	"github.com/docshost/docshost/internal/sso"
	"github.com/docshost/docshost/internal/storage"
	"github.com/docshost/docshost/internal/storage/local"
	"github.com/docshost/docshost/internal/web"
)

// secretCipherSalt is the fixed PBKDF2 salt for deriving the SSO secret cipher
// from security.secrets_passphrase. Changing it invalidates every client
// secret already stored encrypted in the database.
var secretCipherSalt = []byte("docshost-sso-secrets-v1")

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	notificationJanitor *jobs.NotificationJanitor
	rateLimiters        []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.notificationJanitor != nil {
		bg.notificationJanitor.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize storage backend for built documentation files
	storageBackend, err := local.New(&cfg.Storage.Local, cfg.Server.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	notifRepo := repositories.NewNotificationRepository(db)
	orgRepo := repositories.NewOrganizationRepository(db)
	teamRepo := repositories.NewTeamRepository(db)
	ssoRepo := repositories.NewSSORepository(db)

	// Wrap *sql.DB with sqlx for the project repository
	sqlxDB := sqlx.NewDb(db, "postgres")
	projectRepo := repositories.NewProjectRepository(sqlxDB)

	// Initialize the cipher that protects SSO client secrets at rest
	secretCipher, err := crypto.DeriveSecretCipher(cfg.Security.SecretsPassphrase, secretCipherSalt, 100000)
	if err != nil {
		log.Fatalf("Failed to initialize secret cipher: %v", err)
	}
	ssoSvc := sso.NewService(ssoRepo, secretCipher)

	// Shared page/API services
	registry := notifications.Default()
	avatars := gravatar.New(cfg.Gravatar)

	// Initialize and start the notification retention janitor
	janitor := jobs.NewNotificationJanitor(notifRepo, &cfg.Notifications)
	safego.Go(func() { janitor.Start(context.Background()) })

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	// Owner avatars are hot-linked from the gravatar host, so its origin must
	// be allowed by the CSP img-src directive.
	router.Use(middleware.SecurityHeadersMiddleware(middleware.DefaultSecurityHeadersConfig(avatars.Origin())))

	// System endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db, storageBackend))
	router.GET("/version", versionHandler())

	// Server-rendered pages. Optional auth resolves the viewer so the page can
	// personalize output while still serving anonymous visitors.
	webHandler, err := web.NewHandler(orgRepo, projectRepo, teamRepo, notifRepo, ssoSvc, avatars, registry, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize web handler: %v", err)
	}
	pages := router.Group("")
	pages.Use(middleware.OptionalAuthMiddleware(cfg, userRepo))
	{
		pages.GET("/orgs/:slug", webHandler.OrganizationDetail)
	}

	// Built documentation files (public)
	router.GET("/docs/:project/:version/*filepath", v1.ServeDocsHandler(storageBackend))

	// JSON API handlers
	orgHandlers := v1.NewOrganizationHandlers(cfg, db, sqlxDB, ssoSvc, registry, avatars)
	projectHandlers := v1.NewProjectHandlers(sqlxDB, storageBackend, avatars)
	notifHandlers := v1.NewNotificationHandlers(db)
	authHandlers, err := v1.NewAuthHandlers(cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize auth handlers: %v", err)
	}

	// Initialize rate limiters
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	uploadRateLimiter := middleware.NewRateLimiter(middleware.UploadRateLimitConfig())

	apiV1 := router.Group("/api/v1")
	// JSON responses embed nothing, so the API surface gets the locked-down
	// policy instead of the page one.
	apiV1.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))
	{
		// Public authentication endpoints (no auth required, but rate limited)
		authGroup := apiV1.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		{
			authGroup.POST("/login", authHandlers.LoginHandler())
			authGroup.GET("/oidc/login", authHandlers.OIDCLoginHandler())
			authGroup.GET("/oidc/callback", authHandlers.OIDCCallbackHandler())
			authGroup.GET("/logout", authHandlers.LogoutHandler())
		}

		// Public read endpoints — optional auth populates the viewer so
		// maintainer lists can omit the signed-in user.
		publicGroup := apiV1.Group("")
		publicGroup.Use(middleware.OptionalAuthMiddleware(cfg, userRepo))
		publicGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		{
			publicGroup.GET("/organizations", orgHandlers.ListOrganizationsHandler())
			publicGroup.GET("/organizations/:slug", orgHandlers.GetOrganizationHandler())
			publicGroup.GET("/organizations/:slug/projects", orgHandlers.ListProjectsHandler())
			publicGroup.GET("/organizations/:slug/notifications", orgHandlers.ListNotificationsHandler())
			publicGroup.GET("/organizations/:slug/teams", orgHandlers.ListTeamsHandler())
			publicGroup.GET("/organizations/:slug/owners", orgHandlers.ListOwnersHandler())
			publicGroup.GET("/projects/:slug", projectHandlers.GetProjectHandler())
			publicGroup.GET("/projects/:slug/versions", projectHandlers.ListVersionsHandler())
		}

		// Authenticated-only endpoints
		authenticatedGroup := apiV1.Group("")
		authenticatedGroup.Use(middleware.AuthMiddleware(cfg, userRepo))
		authenticatedGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		{
			authenticatedGroup.GET("/auth/me", authHandlers.MeHandler())

			// Organization management
			authenticatedGroup.POST("/organizations", orgHandlers.CreateOrganizationHandler())
			authenticatedGroup.PUT("/organizations/:slug", orgHandlers.UpdateOrganizationHandler())
			authenticatedGroup.DELETE("/organizations/:slug", orgHandlers.DeleteOrganizationHandler())
			authenticatedGroup.POST("/organizations/:slug/owners", orgHandlers.AddOwnerHandler())
			authenticatedGroup.DELETE("/organizations/:slug/owners/:user_id", orgHandlers.RemoveOwnerHandler())

			// Notification state transitions
			authenticatedGroup.PATCH("/notifications/:id", notifHandlers.UpdateStateHandler())

			// Version management and built-docs upload
			authenticatedGroup.POST("/projects/:slug/versions", projectHandlers.CreateVersionHandler())
			authenticatedGroup.PUT("/projects/:slug/versions/:version/files/*filepath",
				middleware.RateLimitMiddleware(uploadRateLimiter), // Stricter rate limit for uploads
				projectHandlers.UploadDocsHandler())
		}
	}

	bg := &BackgroundServices{
		notificationJanitor: janitor,
		rateLimiters:        []*middleware.RateLimiter{authRateLimiter, generalRateLimiter, uploadRateLimiter},
	}

	return router, bg
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service.
// Unlike the liveness probe (/health), this also checks the storage backend so
// that a Kubernetes readiness gate fails when docs serving would error.
func readinessHandler(db *sql.DB, storageBackend storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		// Check database connection
		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		// Check storage backend — probe with a known-absent sentinel path.
		// Exists() exercises the backend without creating any state.
		if _, err := storageBackend.Exists(c.Request.Context(), ".readiness-probe"); err != nil {
			checks["storage"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "storage backend not ready",
			})
			return
		}
		checks["storage"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		// Log the request
		if cfg.Logging.Format == "json" {
			logJSON(c, latency, path, query)
		} else {
			logText(c, latency, path, query)
		}
	}
}

// logJSON logs a request as a JSON-structured slog record.
func logJSON(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", fmt.Sprintf("%v", requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// logText logs a request as a human-readable slog text record.
func logText(c *gin.Context, latency time.Duration, path, query string) {
	// reuse the same structured output; slog will emit text format when the global
	// handler is a TextHandler (configured in telemetry.SetupLogger).
	logJSON(c, latency, path, query)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
