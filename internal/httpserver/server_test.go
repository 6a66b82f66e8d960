package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/agency_site/internal/audit"
	"github.com/Skotchmaster/agency_site/internal/hash"
	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/metrics"
	"github.com/Skotchmaster/agency_site/internal/middleware/auth"
	"github.com/Skotchmaster/agency_site/internal/middleware/ratelimit"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/revocation"
	"github.com/Skotchmaster/agency_site/internal/service"
	"github.com/Skotchmaster/agency_site/internal/tokens"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

const (
	adminEmail    = "admin@agency.local"
	adminPassword = "admin-secret"
)

type testEnv struct {
	e       *echo.Echo
	store   repo.Store
	metrics *metrics.Metrics
}

type envConfig struct {
	wrap      func(repo.Store) repo.Store
	perMinute int
	events    mykafka.Publisher
}

type envOption func(*envConfig)

// withStore hands the services a wrapped store; seeding still goes to the memory repo underneath.
func withStore(wrap func(repo.Store) repo.Store) envOption {
	return func(c *envConfig) { c.wrap = wrap }
}

func withLimiter(perMinute int) envOption {
	return func(c *envConfig) { c.perMinute = perMinute }
}

func withEvents(pub mykafka.Publisher) envOption {
	return func(c *envConfig) { c.events = pub }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	ctx := context.Background()

	mem := repo.NewMemoryRepo(hash.NewBcrypt(bcrypt.MinCost))
	require.NoError(t, repo.Seed(ctx, mem, repo.SeedConfig{
		AdminEmail:    adminEmail,
		AdminPassword: adminPassword,
		AdminName:     "Admin",
	}))

	var cfg envConfig
	for _, o := range opts {
		o(&cfg)
	}
	var store repo.Store = mem
	if cfg.wrap != nil {
		store = cfg.wrap(mem)
	}

	log := logging.Discard()
	d := &Deps{}
	if cfg.perMinute > 0 {
		d.Limiter = ratelimit.PerMinute(cfg.perMinute)
	}

	m := metrics.New()
	issuer := tokens.NewIssuer([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	revoked := revocation.NewMemory()
	var events mykafka.Publisher = mykafka.Nop{}
	if cfg.events != nil {
		events = cfg.events
	}
	rec := audit.NewRecorder(store, events, log, 64)
	t.Cleanup(func() { _ = rec.Close(context.Background()) })

	catalog := &service.CatalogService{Store: store, Events: events}
	d.AuthHandler = &AuthHTTP{Svc: &service.AuthService{Store: store, Tokens: issuer, Revoked: revoked, Events: events, Metrics: m}}
	d.UsersHandler = &UsersHTTP{Svc: &service.UserService{Store: store, Events: events, Audit: rec}}
	d.CatalogHandler = &CatalogHTTP{Svc: catalog}
	d.AdminCatalogHandler = &CatalogHTTP{Svc: catalog, Admin: true}
	d.CartHandler = &CartHTTP{Svc: &service.CartService{Store: store, Events: events}}
	d.OrdersHandler = &OrdersHTTP{Svc: &service.OrderService{Store: store, Events: events, Metrics: m}}
	d.SubmissionsHandler = &SubmissionsHTTP{Svc: &service.SubmissionService{Store: store, Events: events, Audit: rec, Metrics: m}}
	d.AuditHandler = &AuditHTTP{Svc: &service.AuditService{Store: store}}
	d.Authenticator = &auth.Authenticator{
		Issuer:    issuer,
		Revoked:   revoked,
		Audit:     rec,
		SkipAudit: map[string]struct{}{CheckPath: {}},
	}
	d.Metrics = m
	d.Ready = store.Ping

	return &testEnv{e: New(log, d), store: store, metrics: m}
}

type reqOpt func(*http.Request)

func bearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) }
}

func cookie(ck *http.Cookie) reqOpt {
	return func(r *http.Request) { r.AddCookie(ck) }
}

func (env *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, rec)["message"].(string)
}

func (env *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/auth/login", transport.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[transport.LoginResponse](t, rec).Token
}

func (env *testEnv) register(t *testing.T, name, email, password string) transport.UserResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/auth/register", transport.RegisterRequest{
		Name: name, Email: email, Password: password, ConfirmPassword: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[struct {
		User transport.UserResponse `json:"user"`
	}](t, rec).User
}

func (env *testEnv) adminToken(t *testing.T) string {
	return env.login(t, adminEmail, adminPassword)
}
