package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

func TestCatalogBrowseAndSearch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/products?size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	products := decode[page[models.Product]](t, rec)
	assert.Len(t, products.Data, 2)
	assert.EqualValues(t, 4, products.Meta["total"])
	assert.Equal(t, true, products.Meta["has_next"])

	rec = env.do(t, http.MethodGet, "/api/products?category=seo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	seo := decode[page[models.Product]](t, rec)
	require.Len(t, seo.Data, 1)
	assert.Equal(t, "SEO Audit", seo.Data[0].Name)

	rec = env.do(t, http.MethodGet, "/api/addons", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[page[models.AddonProduct]](t, rec).Data, 3)

	rec = env.do(t, http.MethodGet, "/api/products/search?q=website", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	hits := decode[page[transport.SearchHit]](t, rec)
	require.NotEmpty(t, hits.Data)
	assert.Equal(t, "Starter Website", hits.Data[0].Name)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/products/search", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/products/999", nil).Code)
}

func TestCartCheckoutAndRevisions(t *testing.T) {
	env := newTestEnv(t)
	adminTok := env.adminToken(t)
	env.register(t, "Bob", "bob@example.com", "secret1")
	env.register(t, "Alice", "alice@example.com", "secret1")
	bob := bearer(env.login(t, "bob@example.com", "secret1"))
	alice := bearer(env.login(t, "alice@example.com", "secret1"))

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/cart", nil).Code)

	rec := env.do(t, http.MethodPost, "/api/orders", transport.CheckoutRequest{}, bob)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cart is empty", errMessage(t, rec))

	rec = env.do(t, http.MethodPost, "/api/cart", transport.AddCartItemRequest{ProductID: 1, Quantity: 2}, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	line := decode[models.CartItem](t, rec)

	rec = env.do(t, http.MethodPost, "/api/cart", transport.AddCartItemRequest{ProductID: 1, IsAddon: true, Quantity: 1}, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/cart", transport.AddCartItemRequest{ProductID: 999, Quantity: 1}, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/cart", transport.AddCartItemRequest{ProductID: 1, Quantity: 0}, bob)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/cart", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[transport.CartResponse](t, rec)
	assert.Len(t, cart.Items, 2)
	assert.InDelta(t, 3300, cart.Total, 0.001)

	// another user's cart line is invisible
	path := fmt.Sprintf("/api/cart/%d", line.ID)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPatch, path, transport.UpdateCartItemRequest{Quantity: 5}, alice).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, path, nil, alice).Code)

	rec = env.do(t, http.MethodPost, "/api/orders", transport.CheckoutRequest{Company: "Bob & Co"}, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[transport.OrderDetail](t, rec)
	assert.Equal(t, models.OrderStatusNew, order.Status)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assert.InDelta(t, 3300, order.TotalAmount, 0.001)
	assert.Equal(t, "Bob", order.ContactName)
	assert.Equal(t, "bob@example.com", order.ContactEmail)
	assert.Equal(t, "Bob & Co", order.Company)
	assert.Len(t, order.Items, 2)

	rec = env.do(t, http.MethodGet, "/api/cart", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[transport.CartResponse](t, rec).Items)

	orderPath := fmt.Sprintf("/api/orders/%d", order.ID)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, orderPath, nil, bob).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, orderPath, nil, alice).Code)

	rec = env.do(t, http.MethodGet, "/api/orders", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[page[models.Order]](t, rec).Data)

	revise := transport.RevisionRequest{Description: "Bigger logo please"}
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, orderPath+"/revisions", revise, bob).Code)

	adminPath := fmt.Sprintf("/api/admin/orders/%d", order.ID)
	setStatus := func(status string) int {
		return env.do(t, http.MethodPatch, adminPath, transport.PatchOrderRequest{Status: &status}, bearer(adminTok)).Code
	}
	assert.Equal(t, http.StatusConflict, setStatus(models.OrderStatusCompleted))
	assert.Equal(t, http.StatusOK, setStatus(models.OrderStatusInProgress))
	assert.Equal(t, http.StatusOK, setStatus(models.OrderStatusCompleted))

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, orderPath+"/revisions", revise, alice).Code)
	rec = env.do(t, http.MethodPost, orderPath+"/revisions", revise, bob)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, adminPath, nil, bearer(adminTok))
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[transport.OrderDetail](t, rec)
	require.Len(t, detail.Revisions, 1)
	assert.Equal(t, "Bigger logo please", detail.Revisions[0].Description)
	assert.Equal(t, models.OrderStatusCompleted, detail.Status)

	rec = env.do(t, http.MethodGet, "/api/admin/orders?status=completed", nil, bearer(adminTok))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[page[models.Order]](t, rec).Data, 1)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/admin/orders?status=bogus", nil, bearer(adminTok)).Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, adminPath, nil, bearer(adminTok)).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, orderPath, nil, bob).Code)
}

func TestSubmissions(t *testing.T) {
	env := newTestEnv(t)
	admin := bearer(env.adminToken(t))

	rec := env.do(t, http.MethodPost, "/api/submissions", transport.SubmissionRequest{
		Name: "Dana", Email: "dana@example.com", Service: "seo", Message: "Need an audit",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode[models.Submission](t, rec)
	assert.Equal(t, models.SubmissionStatusNew, sub.Status)

	rec = env.do(t, http.MethodPost, "/api/submissions", transport.SubmissionRequest{Name: "Dana", Email: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/admin/submissions", nil).Code)

	rec = env.do(t, http.MethodGet, "/api/admin/submissions?status=new", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Submission](t, rec), 1)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/admin/submissions?startDate=yesterday", nil, admin).Code)
	rec = env.do(t, http.MethodGet, "/api/admin/submissions?startDate=2000-01-01&endDate=2000-01-02", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Submission](t, rec))

	path := fmt.Sprintf("/api/admin/submissions/%d", sub.ID)
	delivered := models.SubmissionStatusDelivered
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPatch, path, transport.PatchSubmissionRequest{Status: &delivered}, admin).Code)

	working := models.SubmissionStatusInProgress
	rec = env.do(t, http.MethodPatch, path, transport.PatchSubmissionRequest{Status: &working}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, working, decode[models.Submission](t, rec).Status)

	rec = env.do(t, http.MethodPost, path+"/notes", transport.NoteRequest{Content: "Called back"}, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode[models.Note](t, rec).UserID)

	rec = env.do(t, http.MethodGet, path, nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[transport.SubmissionDetail](t, rec)
	require.Len(t, detail.Notes, 1)
	assert.Equal(t, "Called back", detail.Notes[0].Content)

	rec = env.do(t, http.MethodGet, path+"/notes", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Note](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, path, nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, path, nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, path+"/notes", transport.NoteRequest{Content: "late"}, admin).Code)
}

func TestCart_DeletedUserTokenCannotAddLines(t *testing.T) {
	env := newTestEnv(t)
	adminTok := env.adminToken(t)
	bob := env.register(t, "Bob", "bob@example.com", "secret1")
	bobTok := bearer(env.login(t, "bob@example.com", "secret1"))

	rec := env.do(t, http.MethodPost, "/api/cart", transport.AddCartItemRequest{ProductID: 1, Quantity: 1}, bobTok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", bob.ID), nil, bearer(adminTok))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/cart", transport.AddCartItemRequest{ProductID: 1, Quantity: 1}, bobTok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", errMessage(t, rec))

	lines, err := env.store.ListCartItems(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}
