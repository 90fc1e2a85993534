// projects.go implements handlers for project lookup, version listing, and
// uploading built documentation files into storage.
package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/docshost/docshost/internal/db/models"
	"github.com/docshost/docshost/internal/db/repositories"
	"github.com/docshost/docshost/internal/gravatar"
	"github.com/docshost/docshost/internal/middleware"
	"github.com/docshost/docshost/internal/storage"
	"github.com/docshost/docshost/internal/versions"
)

// ProjectHandlers handles project endpoints
type ProjectHandlers struct {
	projectRepo *repositories.ProjectRepository
	storage     storage.Storage
	avatars     *gravatar.Service
}

// NewProjectHandlers creates a new ProjectHandlers instance
func NewProjectHandlers(sqlxDB *sqlx.DB, storageBackend storage.Storage, avatars *gravatar.Service) *ProjectHandlers {
	return &ProjectHandlers{
		projectRepo: repositories.NewProjectRepository(sqlxDB),
		storage:     storageBackend,
		avatars:     avatars,
	}
}

// versionResponse is the JSON shape of a project version
type versionResponse struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Active bool   `json:"active"`
	Built  bool   `json:"built"`
}

func toVersionResponses(list []*models.ProjectVersion) []versionResponse {
	out := make([]versionResponse, 0, len(list))
	for _, v := range list {
		out = append(out, versionResponse{
			ID:     v.ID,
			Slug:   v.Slug,
			Active: v.Active,
			Built:  v.Built,
		})
	}
	return out
}

// getProjectBySlug loads the project for the :slug route parameter, writing the
// error response itself. Returns nil when the caller should stop.
func (h *ProjectHandlers) getProjectBySlug(c *gin.Context) *models.Project {
	project, err := h.projectRepo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve project",
		})
		return nil
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Project not found",
		})
		return nil
	}
	return project
}

// GetProjectHandler retrieves a project with its maintainers. The signed-in
// viewer is omitted from the maintainer list, matching the organization page.
// GET /api/v1/projects/:slug
func (h *ProjectHandlers) GetProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		project := h.getProjectBySlug(c)
		if project == nil {
			return
		}

		users, err := h.projectRepo.ListUsers(c.Request.Context(), project.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list project maintainers",
			})
			return
		}

		viewer := middleware.CurrentUser(c)
		maintainers := make([]userResponse, 0, len(users))
		for _, user := range users {
			if viewer != nil && user.ID == viewer.ID {
				continue
			}
			maintainers = append(maintainers, userResponse{
				ID:         user.ID,
				Username:   user.Username,
				Name:       user.Name(),
				ProfileURL: user.ProfileURL(),
				AvatarURL:  h.avatars.URL(user.Email),
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"project": projectResponse{
				ID:             project.ID,
				Slug:           project.Slug,
				Name:           project.Name,
				URL:            project.URL(),
				DocsURL:        project.DocsURL(),
				DefaultVersion: project.DefaultVersion,
				Maintainers:    maintainers,
			},
		})
	}
}

// ListVersionsHandler lists a project's versions, newest semantic version
// first with non-semver slugs (e.g. "latest", "stable") after them.
// GET /api/v1/projects/:slug/versions
func (h *ProjectHandlers) ListVersionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		project := h.getProjectBySlug(c)
		if project == nil {
			return
		}

		list, err := h.projectRepo.ListVersions(c.Request.Context(), project.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list versions",
			})
			return
		}

		versions.Sort(list)

		resp := gin.H{
			"versions": toVersionResponses(list),
		}
		if latest := versions.Latest(list); latest != nil {
			resp["latest"] = latest.Slug
		}

		c.JSON(http.StatusOK, resp)
	}
}

// CreateVersionRequest represents the request to register a new version slug
type CreateVersionRequest struct {
	Slug   string `json:"slug" binding:"required"`
	Active bool   `json:"active"`
}

// CreateVersionHandler registers a new version slug for a project. Version
// slugs are not required to be semantic versions ("latest" and "stable" are
// common); semver slugs sort ahead of the rest in listings.
// POST /api/v1/projects/:slug/versions
func (h *ProjectHandlers) CreateVersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateVersionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		project := h.getProjectBySlug(c)
		if project == nil {
			return
		}

		existing, err := h.projectRepo.GetVersion(c.Request.Context(), project.ID, req.Slug)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check existing version",
			})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Version already exists",
			})
			return
		}

		version := &models.ProjectVersion{
			ProjectID: project.ID,
			Slug:      req.Slug,
			Active:    req.Active,
		}
		if err := h.projectRepo.CreateVersion(c.Request.Context(), version); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create version",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"version": versionResponse{
				ID:     version.ID,
				Slug:   version.Slug,
				Active: version.Active,
				Built:  version.Built,
			},
		})
	}
}

// UploadDocsHandler stores one built documentation file for a version and
// marks the version as built. The request body is streamed straight into the
// storage backend.
// PUT /api/v1/projects/:slug/versions/:version/files/*filepath
func (h *ProjectHandlers) UploadDocsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		project := h.getProjectBySlug(c)
		if project == nil {
			return
		}

		version, err := h.projectRepo.GetVersion(c.Request.Context(), project.ID, c.Param("version"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve version",
			})
			return
		}
		if version == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Version not found",
			})
			return
		}

		file := strings.TrimPrefix(c.Param("filepath"), "/")
		if file == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "File path is required",
			})
			return
		}

		path := storage.DocsPath(project.Slug, version.Slug, file)
		result, err := h.storage.Upload(c.Request.Context(), path, c.Request.Body, c.Request.ContentLength)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to store file",
			})
			return
		}

		if !version.Built {
			if err := h.projectRepo.MarkVersionBuilt(c.Request.Context(), version.ID, true); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to mark version built",
				})
				return
			}
		}

		c.JSON(http.StatusCreated, gin.H{
			"path":     result.Path,
			"size":     result.Size,
			"checksum": result.Checksum,
		})
	}
}
