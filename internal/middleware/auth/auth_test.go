package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/revocation"
	"github.com/Skotchmaster/agency_site/internal/tokens"
)

type memAuditor struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (m *memAuditor) Record(e models.AuditLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

type env struct {
	e       *echo.Echo
	issuer  *tokens.Issuer
	revoked *revocation.Memory
	audit   *memAuditor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	issuer := tokens.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	revoked := revocation.NewMemory()
	audit := &memAuditor{}
	a := &Authenticator{
		Issuer:    issuer,
		Revoked:   revoked,
		Audit:     audit,
		SkipAudit: map[string]struct{}{"/check": {}},
	}

	e := echo.New()
	whoami := func(c echo.Context) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.JSON(http.StatusOK, p)
	}
	e.GET("/check", whoami, a.Authenticate)
	e.GET("/me", whoami, a.Authenticate)
	e.GET("/admin", whoami, a.Authenticate, Authorize(models.RoleAdmin))
	e.DELETE("/things", whoami, a.Authenticate, RequirePermission(models.PermDelete))
	e.GET("/unguarded", whoami, Authorize(models.RoleAdmin))
	e.GET("/unguarded-perm", whoami, RequirePermission(models.PermDelete))

	return &env{e: e, issuer: issuer, revoked: revoked, audit: audit}
}

func (env *env) token(t *testing.T, role string, perms ...string) tokens.Issued {
	t.Helper()
	out, err := env.issuer.Issue(models.User{ID: 9, Email: "u@x.com", Role: role, Permissions: perms})
	require.NoError(t, err)
	return out
}

func (env *env) do(method, path string, setup func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func withCookie(tok string) func(r *http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: tokens.CookieName, Value: tok}) }
}

func withBearer(tok string) func(r *http.Request) {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+tok) }
}

func TestAuthenticate_MissingOrInvalid(t *testing.T) {
	env := newEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/me", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/me", withCookie("garbage")).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/me", withBearer("garbage")).Code)
	assert.Empty(t, env.audit.entries)
}

func TestAuthenticate_CookieAndBearer(t *testing.T) {
	env := newEnv(t)
	tok := env.token(t, models.RoleUser)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/me", withCookie(tok.Token)).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/me", withBearer(tok.Token)).Code)

	// the cookie wins even when the header carries a valid token
	rec := env.do(http.MethodGet, "/me", func(r *http.Request) {
		withCookie("garbage")(r)
		withBearer(tok.Token)(r)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_Revoked(t *testing.T) {
	env := newEnv(t)
	tok := env.token(t, models.RoleUser)
	require.NoError(t, env.revoked.Revoke(context.Background(), tok.ID, tok.ExpiresAt))

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/me", withCookie(tok.Token)).Code)
}

func TestAuthenticate_AuditsExceptCheck(t *testing.T) {
	env := newEnv(t)
	tok := env.token(t, models.RoleUser)

	env.do(http.MethodGet, "/check", withCookie(tok.Token))
	assert.Empty(t, env.audit.entries)

	env.do(http.MethodGet, "/me", func(r *http.Request) {
		withCookie(tok.Token)(r)
		r.Header.Set("User-Agent", "test-agent")
	})
	require.Len(t, env.audit.entries, 1)
	entry := env.audit.entries[0]
	assert.EqualValues(t, 9, entry.UserID)
	assert.Equal(t, "GET /me", entry.Action)
	assert.Equal(t, "test-agent", entry.UserAgent)
	assert.NotContains(t, entry.Details, "token")
}

func TestAuthorize(t *testing.T) {
	env := newEnv(t)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/admin", withCookie(env.token(t, models.RoleUser).Token)).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/admin", withCookie(env.token(t, models.RoleAdmin).Token)).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/admin", nil).Code)

	// no Authenticate in front: a missing principal is an authentication failure
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/unguarded", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/unguarded-perm", nil).Code)
}

func TestRequirePermission(t *testing.T) {
	env := newEnv(t)

	cases := []struct {
		name  string
		tok   tokens.Issued
		wants int
	}{
		{"admin without explicit permission", env.token(t, models.RoleAdmin), http.StatusOK},
		{"manager with permission", env.token(t, models.RoleManager, models.PermDelete), http.StatusOK},
		{"manager without permission", env.token(t, models.RoleManager, models.PermManageOrders), http.StatusForbidden},
		{"user", env.token(t, models.RoleUser), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wants, env.do(http.MethodDelete, "/things", withCookie(tc.tok.Token)).Code)
		})
	}
}
