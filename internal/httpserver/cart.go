package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/service"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

// CartHTTP only ever touches the caller's own cart.
type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	p, err := caller(c)
	if err != nil {
		return err
	}
	cart, err := h.Svc.Cart(ctx, p.ID)
	if err != nil {
		return fail(l, "get_cart_failed", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	p, err := caller(c)
	if err != nil {
		return err
	}
	var req transport.AddCartItemRequest
	if err := bindOrWarn(c, l, "add_to_cart_failed", &req); err != nil {
		return err
	}

	item, err := h.Svc.Add(ctx, p.ID, req)
	if err != nil {
		return fail(l, "add_to_cart_failed", err)
	}

	l.Info("add_to_cart_success", "cart_item_id", item.ID)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "update_cart_failed")
	if err != nil {
		return err
	}
	var req transport.UpdateCartItemRequest
	if err := bindOrWarn(c, l, "update_cart_failed", &req); err != nil {
		return err
	}

	item, err := h.Svc.Update(ctx, p.ID, id, req.Quantity)
	if err != nil {
		return fail(l, "update_cart_failed", err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "remove_from_cart_failed")
	if err != nil {
		return err
	}
	if err := h.Svc.Remove(ctx, p.ID, id); err != nil {
		return fail(l, "remove_from_cart_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	p, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Clear(ctx, p.ID); err != nil {
		return fail(l, "clear_cart_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
