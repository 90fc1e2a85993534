// Package web renders server-side HTML pages. Templates are embedded in the
// binary and parsed once at construction; handlers assemble view data from
// the data layer and execute into a buffer so template errors surface as a
// 500 instead of a half-written response.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/docshost/docshost/internal/config"
	"github.com/docshost/docshost/internal/db/models"
	"github.com/docshost/docshost/internal/gravatar"
	"github.com/docshost/docshost/internal/i18n"
	"github.com/docshost/docshost/internal/middleware"
	"github.com/docshost/docshost/internal/notifications"
	"github.com/docshost/docshost/internal/telemetry"
)

//go:embed templates/*.html
var templateFS embed.FS

// OrganizationStore loads organizations and their owners.
type OrganizationStore interface {
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
	ListOwners(ctx context.Context, orgID string) ([]*models.User, error)
}

// ProjectStore loads an organization's projects and their maintainers.
type ProjectStore interface {
	ListByOrganization(ctx context.Context, orgID string) ([]*models.Project, error)
	ListUsers(ctx context.Context, projectID string) ([]*models.User, error)
}

// TeamStore loads an organization's teams with member counts.
type TeamStore interface {
	ListByOrganization(ctx context.Context, orgID string) ([]*models.Team, error)
}

// NotificationStore loads an organization's pending notifications.
type NotificationStore interface {
	ListPendingByOrganization(ctx context.Context, orgID string) ([]*models.Notification, error)
}

// SSOChecker reports whether organization membership is managed by an
// external identity provider.
type SSOChecker interface {
	MembershipManagedExternally(ctx context.Context, orgID string) (bool, error)
}

// Handler serves the HTML pages
type Handler struct {
	orgs     OrganizationStore
	projects ProjectStore
	teams    TeamStore
	notifs   NotificationStore
	sso      SSOChecker
	avatars  *gravatar.Service
	messages *notifications.Registry
	cfg      *config.Config
	tmpl     *template.Template
}

// NewHandler creates the web handler and parses the embedded templates
func NewHandler(
	orgs OrganizationStore,
	projects ProjectStore,
	teams TeamStore,
	notifs NotificationStore,
	ssoChecker SSOChecker,
	avatars *gravatar.Service,
	messages *notifications.Registry,
	cfg *config.Config,
) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Handler{
		orgs:     orgs,
		projects: projects,
		teams:    teams,
		notifs:   notifs,
		sso:      ssoChecker,
		avatars:  avatars,
		messages: messages,
		cfg:      cfg,
		tmpl:     tmpl,
	}, nil
}

// ownerView is one avatar entry in the owners section
type ownerView struct {
	Name       string
	ProfileURL string
	AvatarURL  string
}

// projectView is one entry in the project list partial
type projectView struct {
	Name        string
	URL         string
	DocsURL     string
	DocsLabel   string
	Maintainers []ownerView
}

// teamView is one entry in the teams section
type teamView struct {
	Name         string
	URL          string
	MembersLabel string
}

// pageStrings carries the localized labels a page needs
type pageStrings struct {
	NotificationsHeading string
	ProjectsHeading      string
	TeamsHeading         string
	TeamsEmpty           string
	OwnersHeading        string
	OnboardingTitle      string
	OnboardingBody       string
	OnboardingCTA        string
}

// organizationPage is the template data for the organization detail page
type organizationPage struct {
	Lang          string
	Org           *models.Organization
	Owners        []ownerView
	Projects      []projectView
	Notifications []notifications.Rendered
	Teams         []teamView
	SSOManaged    bool
	ImportURL     string
	L             pageStrings
}

// OrganizationDetail handles GET /orgs/:slug
func (h *Handler) OrganizationDetail(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()
	slug := c.Param("slug")

	org, err := h.orgs.GetBySlug(ctx, slug)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	if org == nil {
		c.String(http.StatusNotFound, "Organization not found")
		return
	}

	tag, persist := i18n.ResolveTag(c.Request)
	if persist {
		i18n.SetLanguageCookie(c.Writer, tag)
	}

	viewer := middleware.CurrentUser(c)

	page, err := h.buildOrganizationPage(ctx, org, viewer, tag)
	if err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "organization", page); err != nil {
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	telemetry.PageRenderDuration.WithLabelValues("organization_detail").Observe(time.Since(start).Seconds())
}

func (h *Handler) buildOrganizationPage(ctx context.Context, org *models.Organization, viewer *models.User, tag language.Tag) (*organizationPage, error) {
	printer := i18n.Printer(tag)

	owners, err := h.orgs.ListOwners(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owners: %w", err)
	}

	ownerViews := make([]ownerView, 0, len(owners))
	for _, owner := range owners {
		ownerViews = append(ownerViews, ownerView{
			Name:       owner.Name(),
			ProfileURL: owner.ProfileURL(),
			AvatarURL:  h.avatars.URL(owner.Email),
		})
	}

	projects, err := h.projects.ListByOrganization(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}

	projectViews := make([]projectView, 0, len(projects))
	for _, project := range projects {
		users, err := h.projects.ListUsers(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load project users: %w", err)
		}

		// The signed-in viewer is omitted from maintainer lists: the page
		// answers "who else works on this", not "do I".
		maintainers := make([]ownerView, 0, len(users))
		for _, user := range users {
			if viewer != nil && user.ID == viewer.ID {
				continue
			}
			maintainers = append(maintainers, ownerView{
				Name:       user.Name(),
				ProfileURL: user.ProfileURL(),
				AvatarURL:  h.avatars.URL(user.Email),
			})
		}

		projectViews = append(projectViews, projectView{
			Name:        project.Name,
			URL:         project.URL(),
			DocsURL:     project.DocsURL(),
			DocsLabel:   project.DefaultVersion,
			Maintainers: maintainers,
		})
	}

	pending, err := h.notifs.ListPendingByOrganization(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}

	rendered := make([]notifications.Rendered, 0, len(pending))
	for _, n := range pending {
		// Organization-level values first, so a row can override them.
		data := map[string]string{"Email": org.Email}
		for k, v := range n.FormatValues {
			data[k] = v
		}
		rendered = append(rendered, h.messages.Render(n.MessageID, data))
	}

	ssoManaged, err := h.sso.MembershipManagedExternally(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check sso state: %w", err)
	}

	var teamViews []teamView
	if !ssoManaged {
		teams, err := h.teams.ListByOrganization(ctx, org.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load teams: %w", err)
		}
		teamViews = make([]teamView, 0, len(teams))
		for _, team := range teams {
			teamViews = append(teamViews, teamView{
				Name:         team.Name,
				URL:          team.URL(org.Slug),
				MembersLabel: printer.Sprintf("org.teams.members", team.MemberCount),
			})
		}
	}

	return &organizationPage{
		Lang:          tag.String(),
		Org:           org,
		Owners:        ownerViews,
		Projects:      projectViews,
		Notifications: rendered,
		Teams:         teamViews,
		SSOManaged:    ssoManaged,
		ImportURL:     h.cfg.Onboarding.ImportURL,
		L: pageStrings{
			NotificationsHeading: printer.Sprintf("org.notifications.heading"),
			ProjectsHeading:      printer.Sprintf("org.projects.heading"),
			TeamsHeading:         printer.Sprintf("org.teams.heading"),
			TeamsEmpty:           printer.Sprintf("org.teams.empty"),
			OwnersHeading:        printer.Sprintf("org.owners.heading"),
			OnboardingTitle:      printer.Sprintf("org.projects.empty.title"),
			OnboardingBody:       printer.Sprintf("org.projects.empty.body"),
			OnboardingCTA:        printer.Sprintf("org.projects.empty.cta"),
		},
	}, nil
}
