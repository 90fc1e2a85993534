// organizations.go implements JSON handlers for organization lookup, CRUD, owner
// management, and the organization-scoped sub-resources (projects, teams,
// notifications). The JSON responses mirror the semantics of the server-rendered
// organization page: pending notifications are rendered through the message
// registry, the signed-in viewer is omitted from project maintainer lists, and
// the team list is withheld when membership is managed by an external identity
// provider.
package v1

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/docshost/docshost/internal/config"
	"github.com/docshost/docshost/internal/db/models"
	"github.com/docshost/docshost/internal/db/repositories"
	"github.com/docshost/docshost/internal/gravatar"
	"github.com/docshost/docshost/internal/middleware"
	"github.com/docshost/docshost/internal/notifications"
	"github.com/docshost/docshost/internal/sso"
)

// OrganizationHandlers handles organization endpoints
type OrganizationHandlers struct {
	cfg         *config.Config
	orgRepo     *repositories.OrganizationRepository
	projectRepo *repositories.ProjectRepository
	teamRepo    *repositories.TeamRepository
	notifRepo   *repositories.NotificationRepository
	ssoSvc      *sso.Service
	registry    *notifications.Registry
	avatars     *gravatar.Service
}

// NewOrganizationHandlers creates a new OrganizationHandlers instance
func NewOrganizationHandlers(
	cfg *config.Config,
	db *sql.DB,
	sqlxDB *sqlx.DB,
	ssoSvc *sso.Service,
	registry *notifications.Registry,
	avatars *gravatar.Service,
) *OrganizationHandlers {
	return &OrganizationHandlers{
		cfg:         cfg,
		orgRepo:     repositories.NewOrganizationRepository(db),
		projectRepo: repositories.NewProjectRepository(sqlxDB),
		teamRepo:    repositories.NewTeamRepository(db),
		notifRepo:   repositories.NewNotificationRepository(db),
		ssoSvc:      ssoSvc,
		registry:    registry,
		avatars:     avatars,
	}
}

// organizationResponse is the JSON shape of an organization
type organizationResponse struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toOrganizationResponse(org *models.Organization) organizationResponse {
	return organizationResponse{
		ID:          org.ID,
		Slug:        org.Slug,
		Name:        org.Name,
		Email:       org.Email,
		URL:         org.URL,
		Description: org.Description,
		CreatedAt:   org.CreatedAt,
		UpdatedAt:   org.UpdatedAt,
	}
}

// userResponse is the JSON shape of a user in owner and maintainer lists
type userResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	AvatarURL  string `json:"avatar_url"`
}

func (h *OrganizationHandlers) toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Name:       u.Name(),
		ProfileURL: u.ProfileURL(),
		AvatarURL:  h.avatars.URL(u.Email),
	}
}

// ListOrganizationsHandler lists all organizations with pagination
// GET /api/v1/organizations?page=1&per_page=20&q=acme
func (h *OrganizationHandlers) ListOrganizationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

		if page < 1 {
			page = 1
		}
		if perPage < 1 || perPage > 100 {
			perPage = 20
		}

		offset := (page - 1) * perPage

		var orgs []*models.Organization
		var err error
		if q := c.Query("q"); q != "" {
			orgs, err = h.orgRepo.Search(c.Request.Context(), q, perPage, offset)
		} else {
			orgs, err = h.orgRepo.List(c.Request.Context(), perPage, offset)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list organizations",
			})
			return
		}

		total, err := h.orgRepo.Count(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to count organizations",
			})
			return
		}

		out := make([]organizationResponse, 0, len(orgs))
		for _, org := range orgs {
			out = append(out, toOrganizationResponse(org))
		}

		c.JSON(http.StatusOK, gin.H{
			"organizations": out,
			"pagination": gin.H{
				"page":     page,
				"per_page": perPage,
				"total":    total,
			},
		})
	}
}

// getOrgBySlug loads the organization for the :slug route parameter, writing the
// error response itself. Returns nil when the caller should stop.
func (h *OrganizationHandlers) getOrgBySlug(c *gin.Context) *models.Organization {
	org, err := h.orgRepo.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve organization",
		})
		return nil
	}
	if org == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Organization not found",
		})
		return nil
	}
	return org
}

// GetOrganizationHandler retrieves a specific organization by slug
// GET /api/v1/organizations/:slug
func (h *OrganizationHandlers) GetOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		org := h.getOrgBySlug(c)
		if org == nil {
			return
		}

		owners, err := h.orgRepo.ListOwners(c.Request.Context(), org.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve organization owners",
			})
			return
		}

		ownerList := make([]userResponse, 0, len(owners))
		for _, owner := range owners {
			ownerList = append(ownerList, h.toUserResponse(owner))
		}

		c.JSON(http.StatusOK, gin.H{
			"organization": toOrganizationResponse(org),
			"owners":       ownerList,
		})
	}
}

// projectResponse is the JSON shape of a project with its maintainers
type projectResponse struct {
	ID             string         `json:"id"`
	Slug           string         `json:"slug"`
	Name           string         `json:"name"`
	URL            string         `json:"url"`
	DocsURL        string         `json:"docs_url"`
	DefaultVersion string         `json:"default_version"`
	Maintainers    []userResponse `json:"maintainers"`
}

// ListProjectsHandler lists the organization's projects with maintainers.
// The signed-in viewer is omitted from each maintainer list, matching the
// rendered page.
// GET /api/v1/organizations/:slug/projects
func (h *OrganizationHandlers) ListProjectsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		org := h.getOrgBySlug(c)
		if org == nil {
			return
		}

		projects, err := h.projectRepo.ListByOrganization(c.Request.Context(), org.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list projects",
			})
			return
		}

		viewer := middleware.CurrentUser(c)

		out := make([]projectResponse, 0, len(projects))
		for _, project := range projects {
			users, err := h.projectRepo.ListUsers(c.Request.Context(), project.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Failed to list project maintainers",
				})
				return
			}

			maintainers := make([]userResponse, 0, len(users))
			for _, user := range users {
				if viewer != nil && user.ID == viewer.ID {
					continue
				}
				maintainers = append(maintainers, h.toUserResponse(user))
			}

			out = append(out, projectResponse{
				ID:             project.ID,
				Slug:           project.Slug,
				Name:           project.Name,
				URL:            project.URL(),
				DocsURL:        project.DocsURL(),
				DefaultVersion: project.DefaultVersion,
				Maintainers:    maintainers,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"projects": out,
		})
	}
}

// notificationResponse is the JSON shape of a rendered pending notification
type notificationResponse struct {
	ID          string    `json:"id"`
	MessageID   string    `json:"message_id"`
	State       string    `json:"state"`
	Dismissable bool      `json:"dismissable"`
	Header      string    `json:"header"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListNotificationsHandler lists the organization's pending notifications with
// their rendered header and HTML body.
// GET /api/v1/organizations/:slug/notifications
func (h *OrganizationHandlers) ListNotificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		org := h.getOrgBySlug(c)
		if org == nil {
			return
		}

		pending, err := h.notifRepo.ListPendingByOrganization(c.Request.Context(), org.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list notifications",
			})
			return
		}

		out := make([]notificationResponse, 0, len(pending))
		for _, n := range pending {
			data := map[string]string{"Email": org.Email}
			for k, v := range n.FormatValues {
				data[k] = v
			}
			rendered := h.registry.Render(n.MessageID, data)
			out = append(out, notificationResponse{
				ID:          n.ID,
				MessageID:   n.MessageID,
				State:       n.State,
				Dismissable: n.Dismissable,
				Header:      rendered.Header,
				Body:        string(rendered.Body),
				CreatedAt:   n.CreatedAt,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"notifications": out,
		})
	}
}

// teamResponse is the JSON shape of a team
type teamResponse struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Access      string `json:"access"`
	MemberCount int    `json:"member_count"`
}

// ListTeamsHandler lists the organization's teams with member counts. When
// membership is managed by an external identity provider the team list is
// withheld and sso_managed is true.
// GET /api/v1/organizations/:slug/teams
func (h *OrganizationHandlers) ListTeamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		org := h.getOrgBySlug(c)
		if org == nil {
			return
		}

		ssoManaged, err := h.ssoSvc.MembershipManagedExternally(c.Request.Context(), org.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check single sign-on state",
			})
			return
		}

		if ssoManaged {
			c.JSON(http.StatusOK, gin.H{
				"sso_managed": true,
				"teams":       []teamResponse{},
			})
			return
		}

		teams, err := h.teamRepo.ListByOrganization(c.Request.Context(), org.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list teams",
			})
			return
		}

		out := make([]teamResponse, 0, len(teams))
		for _, team := range teams {
			out = append(out, teamResponse{
				ID:          team.ID,
				Slug:        team.Slug,
				Name:        team.Name,
				URL:         team.URL(org.Slug),
				Access:      team.Access,
				MemberCount: team.MemberCount,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"sso_managed": false,
			"teams":       out,
		})
	}
}

// CreateOrganizationRequest represents the request to create a new organization
type CreateOrganizationRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// CreateOrganizationHandler creates a new organization
// POST /api/v1/organizations
func (h *OrganizationHandlers) CreateOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		existing, err := h.orgRepo.GetBySlug(c.Request.Context(), req.Slug)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to check existing organization",
			})
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Organization with this slug already exists",
			})
			return
		}

		org := &models.Organization{
			Slug:        req.Slug,
			Name:        req.Name,
			Email:       req.Email,
			URL:         req.URL,
			Description: req.Description,
		}

		if err := h.orgRepo.Create(c.Request.Context(), org); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to create organization",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"organization": toOrganizationResponse(org),
		})
	}
}

// UpdateOrganizationRequest represents the request to update an organization
type UpdateOrganizationRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// UpdateOrganizationHandler updates an organization's details
// PUT /api/v1/organizations/:slug
func (h *OrganizationHandlers) UpdateOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOrganizationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		org := h.getOrgBySlug(c)
		if org == nil {
			return
		}

		org.Name = req.Name
		org.Email = req.Email
		org.URL = req.URL
		org.Description = req.Description

		if err := h.orgRepo.Update(c.Request.Context(), org); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update organization",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"organization": toOrganizationResponse(org),
		})
	}
}

// DeleteOrganizationHandler deletes an organization
// DELETE /api/v1/organizations/:slug
func (h *OrganizationHandlers) DeleteOrganizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		org := h.getOrgBySlug(c)
		if org == nil {
			return
		}

		if err := h.orgRepo.Delete(c.Request.Context(), org.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to delete organization",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Organization deleted",
		})
	}
}

// ListOwnersHandler lists the organization's owners
// GET /api/v1/organizations/:slug/owners
func (h *OrganizationHandlers) ListOwnersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		org := h.getOrgBySlug(c)
		if org == nil {
			return
		}

		owners, err := h.orgRepo.ListOwners(c.Request.Context(), org.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to list owners",
			})
			return
		}

		out := make([]userResponse, 0, len(owners))
		for _, owner := range owners {
			out = append(out, h.toUserResponse(owner))
		}

		c.JSON(http.StatusOK, gin.H{
			"owners": out,
		})
	}
}

// AddOwnerRequest represents the request to add an owner to an organization
type AddOwnerRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// AddOwnerHandler adds a user as an owner of the organization
// POST /api/v1/organizations/:slug/owners
func (h *OrganizationHandlers) AddOwnerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddOwnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request: " + err.Error(),
			})
			return
		}

		org := h.getOrgBySlug(c)
		if org == nil {
			return
		}

		if err := h.orgRepo.AddOwner(c.Request.Context(), org.ID, req.UserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to add owner",
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"message": "Owner added",
		})
	}
}

// RemoveOwnerHandler removes a user from the organization's owners
// DELETE /api/v1/organizations/:slug/owners/:user_id
func (h *OrganizationHandlers) RemoveOwnerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		org := h.getOrgBySlug(c)
		if org == nil {
			return
		}

		if err := h.orgRepo.RemoveOwner(c.Request.Context(), org.ID, c.Param("user_id")); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to remove owner",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Owner removed",
		})
	}
}
