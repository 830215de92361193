package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loftsec/wicket/internal/adapters/memory"
	domainauth "github.com/loftsec/wicket/internal/domain/auth"
	"github.com/loftsec/wicket/internal/service"
)

// newGuardStack builds a real guard over in-memory sessions with the
// application's two capabilities defined.
func newGuardStack(t *testing.T) (*service.Guard, *service.SessionManager) {
	t.Helper()

	manager, err := service.NewSessionManager(service.SessionManagerOptions{Store: memory.NewSessionStore()})
	require.NoError(t, err)

	gates := service.NewGateRegistry()
	gates.Define(domainauth.CapabilityArticlesView, service.AnyAuthenticated())
	gates.Define(domainauth.CapabilityArticlesEdit, service.RequireRole(domainauth.RolePrivileged))

	guard, err := service.NewGuard(service.GuardOptions{Sessions: manager, Gates: gates})
	require.NoError(t, err)
	return guard, manager
}

func mustCreateSession(t *testing.T, manager *service.SessionManager, role domainauth.Role) domainauth.Session {
	t.Helper()
	session, err := manager.Create(context.Background(), domainauth.Identity{
		UserID:      "user-" + string(role),
		DisplayName: "Test User",
		Role:        role,
	})
	require.NoError(t, err)
	return session
}

func TestRequireCapability_AllowCarriesSessionAndToken(t *testing.T) {
	guard, manager := newGuardStack(t)
	session := mustCreateSession(t, manager, domainauth.RolePrivileged)

	var gotSession *domainauth.Session
	var gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = GetSessionFromContext(r.Context())
		gotToken = GetCSRFToken(r)
		w.WriteHeader(http.StatusOK)
	})

	mw := RequireCapability(CapabilityParams{Guard: guard, Capability: domainauth.CapabilityArticlesEdit})
	r := httptest.NewRequest(http.MethodGet, "/articles/new", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
	w := httptest.NewRecorder()
	mw(next).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotSession)
	assert.Equal(t, session.UserID, gotSession.UserID)
	assert.Equal(t, session.CSRFToken, gotToken, "templates read the session-bound anti-forgery token from context")
}

func TestRequireCapability_AnonymousBrowserRedirects(t *testing.T) {
	guard, _ := newGuardStack(t)

	mw := RequireCapability(CapabilityParams{Guard: guard, Capability: domainauth.CapabilityArticlesView})
	r := httptest.NewRequest(http.MethodGet, "/articles?page=2", nil)
	r.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	mw(failIfCalled(t)).ServeHTTP(w, r)

	require.Equal(t, http.StatusSeeOther, w.Code)
	loc := w.Header().Get("Location")
	assert.Contains(t, loc, "/login?redirect_uri=")
	assert.Contains(t, loc, "%2Farticles%3Fpage%3D2", "the original URL survives the round trip")
}

func TestRequireCapability_AnonymousAPI401(t *testing.T) {
	guard, _ := newGuardStack(t)

	mw := RequireCapability(CapabilityParams{Guard: guard, Capability: domainauth.CapabilityArticlesView})
	r := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	w := httptest.NewRecorder()
	mw(failIfCalled(t)).ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication_required")
}

func TestRequireCapability_ForbiddenBrowserUsesHandler(t *testing.T) {
	guard, manager := newGuardStack(t)
	session := mustCreateSession(t, manager, domainauth.RoleStandard)

	forbidden := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The denied page still knows who the caller is.
		s := GetSessionFromContext(r.Context())
		require.NotNil(t, s)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("custom denied page"))
	})

	mw := RequireCapability(CapabilityParams{
		Guard:      guard,
		Capability: domainauth.CapabilityArticlesEdit,
		Forbidden:  forbidden,
	})
	r := httptest.NewRequest(http.MethodGet, "/articles/new", nil)
	r.Header.Set("Accept", "text/html")
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
	w := httptest.NewRecorder()
	mw(failIfCalled(t)).ServeHTTP(w, r)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "custom denied page")
}

func TestRequireCapability_ForbiddenAPI403(t *testing.T) {
	guard, manager := newGuardStack(t)
	session := mustCreateSession(t, manager, domainauth.RoleStandard)

	mw := RequireCapability(CapabilityParams{Guard: guard, Capability: domainauth.CapabilityArticlesEdit})
	r := httptest.NewRequest(http.MethodPost, "/api/articles", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
	w := httptest.NewRecorder()
	mw(failIfCalled(t)).ServeHTTP(w, r)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "insufficient_permissions")
}

func TestRequireCapability_EmptyCapabilityIsAuthenticationOnly(t *testing.T) {
	guard, manager := newGuardStack(t)
	session := mustCreateSession(t, manager, domainauth.RoleStandard)

	mw := RequireCapability(CapabilityParams{Guard: guard})
	r := httptest.NewRequest(http.MethodPost, "/logout", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
	w := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireCapability_UnknownCapability500(t *testing.T) {
	guard, manager := newGuardStack(t)
	session := mustCreateSession(t, manager, domainauth.RolePrivileged)

	// An unregistered name reaching the guard is a wiring fault, not a denial.
	mw := RequireCapability(CapabilityParams{Guard: guard, Capability: "articles.unknown"})
	r := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
	w := httptest.NewRecorder()
	mw(failIfCalled(t)).ServeHTTP(w, r)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "access_check_failed")
}

func TestIsBrowserRequest(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		want   bool
	}{
		{"api path", "/api/articles", "text/html", false},
		{"html accept", "/articles", "text/html,application/xhtml+xml", true},
		{"json accept", "/articles", "application/json", false},
		{"no accept", "/articles", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			assert.Equal(t, tt.want, isBrowserRequest(r))
		})
	}
}

func failIfCalled(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}
