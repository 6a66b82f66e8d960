package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/service"
	"github.com/Skotchmaster/agency_site/internal/transport"
	"github.com/Skotchmaster/agency_site/internal/util"
)

type OrdersHTTP struct {
	Svc *service.OrderService
}

func (h *OrdersHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.checkout")

	p, err := caller(c)
	if err != nil {
		return err
	}
	var req transport.CheckoutRequest
	if err := bindOrWarn(c, l, "checkout_failed", &req); err != nil {
		return err
	}

	order, err := h.Svc.Checkout(ctx, p.ID, req)
	if err != nil {
		return fail(l, "checkout_failed", err)
	}

	l.Info("checkout_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrdersHTTP) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list_mine")

	p, err := caller(c)
	if err != nil {
		return err
	}
	orders, err := h.Svc.ListMine(ctx, p.ID)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, paginate(c, orders))
}

func (h *OrdersHTTP) GetMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get_mine")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "get_order_failed")
	if err != nil {
		return err
	}
	order, err := h.Svc.GetMine(ctx, p.ID, id)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrdersHTTP) AddRevision(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.add_revision")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "add_revision_failed")
	if err != nil {
		return err
	}
	var req transport.RevisionRequest
	if err := bindOrWarn(c, l, "add_revision_failed", &req); err != nil {
		return err
	}

	rev, err := h.Svc.AddRevision(ctx, p.ID, id, req)
	if err != nil {
		return fail(l, "add_revision_failed", err)
	}

	l.Info("add_revision_success", "order_id", id, "revision_id", rev.ID)
	return c.JSON(http.StatusCreated, rev)
}

func (h *OrdersHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list")

	f := repo.OrderFilter{Status: c.QueryParam("status")}
	if raw := c.QueryParam("userId"); raw != "" {
		uid, ok := util.ParseID(raw)
		if !ok {
			l.Warn("list_orders_failed", "status", 400, "reason", "invalid userId")
			return echo.NewHTTPError(http.StatusBadRequest, "invalid userId")
		}
		f.UserID = uid
	}

	orders, err := h.Svc.List(ctx, f)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, paginate(c, orders))
}

func (h *OrdersHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get")

	id, err := pathID(c, l, "get_order_failed")
	if err != nil {
		return err
	}
	order, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrdersHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.patch")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "patch_order_failed")
	if err != nil {
		return err
	}
	var req transport.PatchOrderRequest
	if err := bindOrWarn(c, l, "patch_order_failed", &req); err != nil {
		return err
	}

	order, err := h.Svc.Update(ctx, p.ID, id, req)
	if err != nil {
		return fail(l, "patch_order_failed", err)
	}

	l.Info("patch_order_success", "order_id", id, "order_status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrdersHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.delete")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "delete_order_failed")
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(ctx, p.ID, id); err != nil {
		return fail(l, "delete_order_failed", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}
