package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

type failingStore struct {
	repo.Store
	createProduct error
	ping          error
}

func (f *failingStore) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	if f.createProduct != nil {
		return models.Product{}, f.createProduct
	}
	return f.Store.CreateProduct(ctx, p)
}

func (f *failingStore) Ping(ctx context.Context) error {
	if f.ping != nil {
		return f.ping
	}
	return f.Store.Ping(ctx)
}

type page[T any] struct {
	Data []T           `json:"data"`
	Meta map[string]any `json:"meta"`
}

func (env *testEnv) createUser(t *testing.T, adminTok string, req transport.CreateUserRequest) transport.UserResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/admin/users", req, bearer(adminTok))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[transport.UserResponse](t, rec)
}

func TestAdminProducts(t *testing.T) {
	env := newTestEnv(t)
	adminTok := env.adminToken(t)
	env.register(t, "Bob", "bob@example.com", "secret1")
	userTok := env.login(t, "bob@example.com", "secret1")

	widget := transport.ProductRequest{Name: "Widget", Description: "A widget", Price: 500, Category: "misc"}

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/admin/products", widget).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/admin/products", widget, bearer(userTok)).Code)

	rec := env.do(t, http.MethodPost, "/api/admin/products", widget, bearer(adminTok))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Product](t, rec)
	assert.True(t, created.IsActive)
	assert.EqualValues(t, 500, created.Price)

	rec = env.do(t, http.MethodGet, "/api/products?size=100", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[page[models.Product]](t, rec)
	var found bool
	for _, p := range list.Data {
		if p.ID == created.ID {
			found = true
			assert.Equal(t, "Widget", p.Name)
			assert.True(t, p.IsActive)
		}
	}
	assert.True(t, found)

	// hidden products vanish from the storefront but stay visible to admins
	off := false
	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/products/%d", created.ID), transport.PatchProductRequest{IsActive: &off}, bearer(adminTok))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", created.ID), nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/products/%d", created.ID), nil, bearer(adminTok)).Code)

	rec = env.do(t, http.MethodPost, "/api/admin/products", transport.ProductRequest{Price: 10}, bearer(adminTok))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/products/abc", nil).Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/products/%d", created.ID), nil, bearer(adminTok)).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/products/%d", created.ID), nil, bearer(adminTok)).Code)
}

func TestAdminProducts_StorageFailureIsOpaque(t *testing.T) {
	env := newTestEnv(t, withStore(func(s repo.Store) repo.Store {
		return &failingStore{Store: s, createProduct: errors.New("dial tcp 10.0.0.5:5432: connection refused")}
	}))
	adminTok := env.adminToken(t)

	rec := env.do(t, http.MethodPost, "/api/admin/products", transport.ProductRequest{Name: "Widget", Price: 500}, bearer(adminTok))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", errMessage(t, rec))
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestAdminUsers(t *testing.T) {
	env := newTestEnv(t)
	adminTok := env.adminToken(t)

	manager := env.createUser(t, adminTok, transport.CreateUserRequest{
		Name: "Mia", Email: "mia@agency.local", Password: "secret1",
		Role: models.RoleManager, Permissions: []string{models.PermManageOrders},
	})
	assert.Equal(t, []string{models.PermManageOrders}, manager.Permissions)

	rec := env.do(t, http.MethodGet, "/api/admin/users", nil, bearer(adminTok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")
	assert.Len(t, decode[[]transport.UserResponse](t, rec), 2)

	rec = env.do(t, http.MethodDelete, "/api/admin/users/1", nil, bearer(adminTok))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cannot delete your own account", errMessage(t, rec))

	env.createUser(t, adminTok, transport.CreateUserRequest{
		Name: "Second Admin", Email: "second@agency.local", Password: "secret1", Role: models.RoleAdmin,
	})
	secondTok := env.login(t, "second@agency.local", "secret1")
	rec = env.do(t, http.MethodDelete, "/api/admin/users/1", nil, bearer(secondTok))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "main admin cannot be deleted", errMessage(t, rec))

	role := models.RoleUser
	rec = env.do(t, http.MethodPatch, "/api/admin/users/1", transport.PatchUserRequest{Role: &role}, bearer(secondTok))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// managers reach their own area only
	managerTok := env.login(t, "mia@agency.local", "secret1")
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/admin/users", nil, bearer(managerTok)).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/admin/audit-logs", nil, bearer(managerTok)).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/admin/submissions", nil, bearer(managerTok)).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/admin/orders", nil, bearer(managerTok)).Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", manager.ID), nil, bearer(adminTok)).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, fmt.Sprintf("/api/admin/users/%d", manager.ID), nil, bearer(adminTok)).Code)
}

func TestAuditLogs(t *testing.T) {
	env := newTestEnv(t)
	adminTok := env.adminToken(t)

	env.createUser(t, adminTok, transport.CreateUserRequest{
		Name: "Mia", Email: "mia@agency.local", Password: "secret1", Role: models.RoleManager,
	})

	// entries are written in the background
	var logs page[models.AuditLog]
	require.Eventually(t, func() bool {
		rec := env.do(t, http.MethodGet, "/api/admin/audit-logs?size=100", nil, bearer(adminTok))
		if rec.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &logs); err != nil {
			return false
		}
		for _, l := range logs.Data {
			if l.Action == "user.create" {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)

	for _, l := range logs.Data {
		assert.EqualValues(t, 1, l.UserID)
	}

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/admin/audit-logs?userId=x", nil, bearer(adminTok)).Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/metrics", nil).Code)

	down := newTestEnv(t, withStore(func(s repo.Store) repo.Store {
		return &failingStore{Store: s, ping: errors.New("db down")}
	}))
	rec := down.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "storage unavailable", errMessage(t, rec))
}
