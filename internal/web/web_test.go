package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/docshost/docshost/internal/config"
	"github.com/docshost/docshost/internal/db/models"
	"github.com/docshost/docshost/internal/gravatar"
	"github.com/docshost/docshost/internal/notifications"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeOrgStore struct {
	org    *models.Organization
	owners []*models.User
	err    error
}

func (f *fakeOrgStore) GetBySlug(_ context.Context, slug string) (*models.Organization, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.org != nil && f.org.Slug == slug {
		return f.org, nil
	}
	return nil, nil
}

func (f *fakeOrgStore) ListOwners(_ context.Context, _ string) ([]*models.User, error) {
	return f.owners, nil
}

type fakeProjectStore struct {
	projects []*models.Project
	users    map[string][]*models.User
}

func (f *fakeProjectStore) ListByOrganization(_ context.Context, _ string) ([]*models.Project, error) {
	return f.projects, nil
}

func (f *fakeProjectStore) ListUsers(_ context.Context, projectID string) ([]*models.User, error) {
	return f.users[projectID], nil
}

type fakeTeamStore struct {
	teams []*models.Team
}

func (f *fakeTeamStore) ListByOrganization(_ context.Context, _ string) ([]*models.Team, error) {
	return f.teams, nil
}

type fakeNotificationStore struct {
	pending []*models.Notification
}

func (f *fakeNotificationStore) ListPendingByOrganization(_ context.Context, _ string) ([]*models.Notification, error) {
	return f.pending, nil
}

type fakeSSOChecker struct {
	managed bool
	err     error
}

func (f *fakeSSOChecker) MembershipManagedExternally(_ context.Context, _ string) (bool, error) {
	return f.managed, f.err
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func sampleOrg() *models.Organization {
	return &models.Organization{
		ID:    "org-1",
		Slug:  "acme",
		Name:  "Acme Corporation",
		Email: "ops@acme.example",
	}
}

type fixtures struct {
	orgs     *fakeOrgStore
	projects *fakeProjectStore
	teams    *fakeTeamStore
	notifs   *fakeNotificationStore
	sso      *fakeSSOChecker
}

func defaultFixtures() *fixtures {
	return &fixtures{
		orgs:     &fakeOrgStore{org: sampleOrg()},
		projects: &fakeProjectStore{users: map[string][]*models.User{}},
		teams:    &fakeTeamStore{},
		notifs:   &fakeNotificationStore{},
		sso:      &fakeSSOChecker{},
	}
}

func newTestHandler(t *testing.T, f *fixtures) *Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.Onboarding.ImportURL = "/projects/import"

	avatars := gravatar.New(config.GravatarConfig{
		BaseURL:      "https://www.gravatar.com/avatar",
		DefaultStyle: "mp",
		Size:         32,
	})

	h, err := NewHandler(f.orgs, f.projects, f.teams, f.notifs, f.sso, avatars, notifications.Default(), cfg)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return h
}

// servePage renders GET /orgs/acme and returns the response. When viewer is
// non-nil it is injected into the request context the way the optional auth
// middleware would.
func servePage(t *testing.T, h *Handler, viewer *models.User, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/orgs/:slug", func(c *gin.Context) {
		if viewer != nil {
			c.Set("user", viewer)
		}
	}, h.OrganizationDetail)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/orgs/acme", nil)
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

// ---------------------------------------------------------------------------
// Header section
// ---------------------------------------------------------------------------

func TestOrganizationDetail_NameAndEmailAlwaysShown(t *testing.T) {
	h := newTestHandler(t, defaultFixtures())
	w := servePage(t, h, nil, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Acme Corporation") {
		t.Error("page missing organization name")
	}
	if !strings.Contains(body, "mailto:ops@acme.example") {
		t.Error("page missing organization email link")
	}
}

func TestOrganizationDetail_URLAndDescriptionOmittedWhenEmpty(t *testing.T) {
	h := newTestHandler(t, defaultFixtures())
	body := servePage(t, h, nil, nil).Body.String()

	if strings.Contains(body, `class="org-url"`) {
		t.Error("empty URL must not render the url element")
	}
	if strings.Contains(body, `class="org-description"`) {
		t.Error("empty description must not render the description element")
	}
}

func TestOrganizationDetail_URLAndDescriptionShownWhenSet(t *testing.T) {
	f := defaultFixtures()
	f.orgs.org.URL = "https://acme.example"
	f.orgs.org.Description = "We make everything."
	h := newTestHandler(t, f)
	body := servePage(t, h, nil, nil).Body.String()

	if !strings.Contains(body, "https://acme.example") {
		t.Error("page missing organization url")
	}
	if !strings.Contains(body, "We make everything.") {
		t.Error("page missing organization description")
	}
}

func TestOrganizationDetail_UnknownSlug404(t *testing.T) {
	h := newTestHandler(t, defaultFixtures())

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/orgs/:slug", h.OrganizationDetail)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/orgs/nope", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestOrganizationDetail_StoreError500(t *testing.T) {
	f := defaultFixtures()
	f.sso.err = errors.New("db down")
	h := newTestHandler(t, f)

	if w := servePage(t, h, nil, nil); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---------------------------------------------------------------------------
// Notifications section
// ---------------------------------------------------------------------------

func TestOrganizationDetail_PendingNotificationsListed(t *testing.T) {
	f := defaultFixtures()
	f.notifs.pending = []*models.Notification{
		{ID: "n-1", MessageID: notifications.MessageOrgPaymentFailed, State: models.NotificationStateUnread},
		{ID: "n-2", MessageID: "org:unknown:legacy", State: models.NotificationStateRead},
	}
	h := newTestHandler(t, f)
	body := servePage(t, h, nil, nil).Body.String()

	if got := strings.Count(body, `class="notification"`); got != 2 {
		t.Errorf("notification items = %d, want 2", got)
	}
	if !strings.Contains(body, "Payment failed") {
		t.Error("known message header missing")
	}
	// Unknown IDs render the generic message instead of breaking the page
	if !strings.Contains(body, "You have a new notification.") {
		t.Error("unknown message should render generic copy")
	}
	// Registered markup survives rendering
	if !strings.Contains(body, `<a href="/settings/billing">`) {
		t.Error("notification body markup was escaped")
	}
}

func TestOrganizationDetail_NotificationValuesInterpolated(t *testing.T) {
	f := defaultFixtures()
	f.notifs.pending = []*models.Notification{
		{
			ID:           "n-1",
			MessageID:    notifications.MessageOrgTrialEnding,
			State:        models.NotificationStateUnread,
			FormatValues: models.FormatValues{"EndDate": "September 1, 2026"},
		},
	}
	h := newTestHandler(t, f)
	body := servePage(t, h, nil, nil).Body.String()

	if !strings.Contains(body, "September 1, 2026") {
		t.Error("stored notification values missing from rendered body")
	}
}

func TestOrganizationDetail_NoNotificationsSectionWhenEmpty(t *testing.T) {
	h := newTestHandler(t, defaultFixtures())
	body := servePage(t, h, nil, nil).Body.String()

	if strings.Contains(body, `class="org-notifications"`) {
		t.Error("empty notification list must not render the section")
	}
}

// ---------------------------------------------------------------------------
// Projects section
// ---------------------------------------------------------------------------

func TestOrganizationDetail_OnboardingPromptWhenNoProjects(t *testing.T) {
	h := newTestHandler(t, defaultFixtures())
	body := servePage(t, h, nil, nil).Body.String()

	if !strings.Contains(body, `class="onboarding"`) {
		t.Error("expected onboarding prompt with zero projects")
	}
	if !strings.Contains(body, `href="/projects/import"`) {
		t.Error("onboarding prompt missing import link")
	}
	if strings.Contains(body, `class="project-list"`) {
		t.Error("project list must not render with zero projects")
	}
}

func TestOrganizationDetail_ProjectListWhenProjectsExist(t *testing.T) {
	f := defaultFixtures()
	f.projects.projects = []*models.Project{
		{ID: "p-1", Slug: "acme-docs", Name: "Acme Docs", DefaultVersion: "latest"},
	}
	h := newTestHandler(t, f)
	body := servePage(t, h, nil, nil).Body.String()

	if !strings.Contains(body, `class="project-list"`) {
		t.Error("expected project list")
	}
	if strings.Contains(body, `class="onboarding"`) {
		t.Error("onboarding prompt must not render when projects exist")
	}
	if !strings.Contains(body, `href="/projects/acme-docs"`) {
		t.Error("project link missing")
	}
	if !strings.Contains(body, `href="/docs/acme-docs/latest/"`) {
		t.Error("project docs link missing")
	}
}

func TestOrganizationDetail_ViewerOmittedFromMaintainers(t *testing.T) {
	viewer := &models.User{ID: "user-1", Username: "ada", Email: "ada@acme.example"}
	other := &models.User{ID: "user-2", Username: "grace", Email: "grace@acme.example"}

	f := defaultFixtures()
	f.projects.projects = []*models.Project{
		{ID: "p-1", Slug: "acme-docs", Name: "Acme Docs", DefaultVersion: "latest"},
	}
	f.projects.users = map[string][]*models.User{
		"p-1": {viewer, other},
	}
	h := newTestHandler(t, f)
	body := servePage(t, h, viewer, nil).Body.String()

	if strings.Contains(body, "/profiles/ada") {
		t.Error("viewer must be omitted from maintainer lists")
	}
	if !strings.Contains(body, "/profiles/grace") {
		t.Error("other maintainers must still be listed")
	}
}

func TestOrganizationDetail_AnonymousSeesAllMaintainers(t *testing.T) {
	f := defaultFixtures()
	f.projects.projects = []*models.Project{
		{ID: "p-1", Slug: "acme-docs", Name: "Acme Docs", DefaultVersion: "latest"},
	}
	f.projects.users = map[string][]*models.User{
		"p-1": {
			{ID: "user-1", Username: "ada", Email: "ada@acme.example"},
			{ID: "user-2", Username: "grace", Email: "grace@acme.example"},
		},
	}
	h := newTestHandler(t, f)
	body := servePage(t, h, nil, nil).Body.String()

	if !strings.Contains(body, "/profiles/ada") || !strings.Contains(body, "/profiles/grace") {
		t.Error("anonymous viewers see the full maintainer list")
	}
}

// ---------------------------------------------------------------------------
// Teams section
// ---------------------------------------------------------------------------

func TestOrganizationDetail_TeamsSuppressedWhenSSOManaged(t *testing.T) {
	f := defaultFixtures()
	f.sso.managed = true
	f.teams.teams = []*models.Team{{ID: "t-1", Slug: "backend", Name: "Backend"}}
	h := newTestHandler(t, f)
	body := servePage(t, h, nil, nil).Body.String()

	if strings.Contains(body, `class="org-teams"`) {
		t.Error("teams section must be suppressed entirely under SSO")
	}
	if strings.Contains(body, `class="teams-empty"`) {
		t.Error("the empty-teams message must not render under SSO either")
	}
}

func TestOrganizationDetail_TeamItemsWhenNotSSOManaged(t *testing.T) {
	f := defaultFixtures()
	f.teams.teams = []*models.Team{
		{ID: "t-1", Slug: "backend", Name: "Backend", MemberCount: 4},
		{ID: "t-2", Slug: "docs", Name: "Docs", MemberCount: 2},
	}
	h := newTestHandler(t, f)
	body := servePage(t, h, nil, nil).Body.String()

	if got := strings.Count(body, `class="team"`); got != 2 {
		t.Errorf("team items = %d, want 2", got)
	}
	if !strings.Contains(body, `href="/orgs/acme/teams/backend"`) {
		t.Error("team link missing")
	}
	if !strings.Contains(body, "4 members") {
		t.Error("team member count missing")
	}
}

func TestOrganizationDetail_NoTeamsMessageLocalized(t *testing.T) {
	h := newTestHandler(t, defaultFixtures())

	t.Run("english default", func(t *testing.T) {
		body := servePage(t, h, nil, nil).Body.String()
		if !strings.Contains(body, "No teams found for this organization.") {
			t.Error("missing english empty-teams message")
		}
	})

	t.Run("spanish via accept-language", func(t *testing.T) {
		header := http.Header{}
		header.Set("Accept-Language", "es-ES,es;q=0.9")
		body := servePage(t, h, nil, header).Body.String()
		if !strings.Contains(body, "No se encontraron equipos para esta organización.") {
			t.Error("missing spanish empty-teams message")
		}
	})
}

// ---------------------------------------------------------------------------
// Owners section
// ---------------------------------------------------------------------------

func TestOrganizationDetail_OneAvatarPerOwner(t *testing.T) {
	f := defaultFixtures()
	f.orgs.owners = []*models.User{
		{ID: "user-1", Username: "ada", Email: "Ada@Acme.Example", DisplayName: "Ada"},
		{ID: "user-2", Username: "grace", Email: "grace@acme.example"},
	}
	h := newTestHandler(t, f)
	body := servePage(t, h, nil, nil).Body.String()

	if got := strings.Count(body, `class="owner-avatar"`); got != 2 {
		t.Errorf("owner avatars = %d, want 2", got)
	}
	// Avatar sources are gravatar URLs derived from the normalized email
	if !strings.Contains(body, "https://www.gravatar.com/avatar/"+gravatar.Hash("ada@acme.example")) {
		t.Error("owner avatar is not a gravatar URL of the normalized email")
	}
	// Each avatar links to the owner's profile
	if !strings.Contains(body, `href="/profiles/ada"`) || !strings.Contains(body, `href="/profiles/grace"`) {
		t.Error("owner avatars must link to profile pages")
	}
	// Display name falls back to username for alt text
	if !strings.Contains(body, `alt="Ada"`) || !strings.Contains(body, `alt="grace"`) {
		t.Error("owner alt text missing")
	}
}
