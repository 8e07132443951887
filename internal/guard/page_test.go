package guard

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"careergate/internal/authz"
	"careergate/internal/identity"
	"careergate/internal/roles"
	"careergate/internal/session"
)

const sessionSecret = "page-guard-test-secret-0123456789"

func pageRequest(t *testing.T, store *session.CookieStore, values session.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if values == nil {
		return req
	}
	rec := httptest.NewRecorder()
	require.NoError(t, store.Save(rec, values))
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestPageGuard(t *testing.T) {
	store, err := session.NewCookieStore(sessionSecret)
	require.NoError(t, err)
	cfg := PageConfig{Capability: authz.CapabilityAdminDashboard, LoginPath: "/login", LandingPath: "/dashboard"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("no session redirects to login without body", func(t *testing.T) {
		checker := new(MockChecker)
		checker.On("Check", mock.Anything, identity.Credential{}, cfg.Capability).
			Return(authz.Unauthenticated(authz.ReasonMissingCredential))
		next := &recordingHandler{}

		rec := httptest.NewRecorder()
		Page(checker, store, cfg, logger)(next).ServeHTTP(rec, pageRequest(t, store, nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.False(t, next.called)
		assert.NotContains(t, rec.Body.String(), "success")
	})

	t.Run("user on admin page goes to landing", func(t *testing.T) {
		checker := new(MockChecker)
		checker.On("Check", mock.Anything, identity.FromToken("tok"), cfg.Capability).
			Return(authz.Forbidden(authz.ReasonRoleMismatch))
		next := &recordingHandler{}

		rec := httptest.NewRecorder()
		Page(checker, store, cfg, logger)(next).ServeHTTP(rec, pageRequest(t, store, session.Values{session.KeyAccessToken: "tok"}))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
		assert.False(t, next.called)
	})

	t.Run("admin renders", func(t *testing.T) {
		checker := new(MockChecker)
		checker.On("Check", mock.Anything, identity.FromToken("tok"), cfg.Capability).
			Return(authz.Authorized(identity.Identity{SubjectID: subjectID}, roles.RoleAdmin))
		next := &recordingHandler{}

		rec := httptest.NewRecorder()
		Page(checker, store, cfg, logger)(next).ServeHTTP(rec, pageRequest(t, store, session.Values{session.KeyAccessToken: "tok"}))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, next.called)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		checker.AssertExpectations(t)
	})

	t.Run("tampered cookie is treated as no session", func(t *testing.T) {
		checker := new(MockChecker)
		checker.On("Check", mock.Anything, identity.Credential{}, cfg.Capability).
			Return(authz.Unauthenticated(authz.ReasonMissingCredential))
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "garbage"})

		rec := httptest.NewRecorder()
		Page(checker, store, cfg, logger)(&recordingHandler{}).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}
