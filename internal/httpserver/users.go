package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/service"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

type UsersHTTP struct {
	Svc *service.UserService
}

func (h *UsersHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list")

	users, err := h.Svc.List(ctx)
	if err != nil {
		return fail(l, "list_users_failed", err)
	}
	return c.JSON(http.StatusOK, transport.UserViews(users))
}

func (h *UsersHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.get")

	id, err := pathID(c, l, "get_user_failed")
	if err != nil {
		return err
	}
	u, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_user_failed", err)
	}
	return c.JSON(http.StatusOK, transport.UserView(u))
}

func (h *UsersHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.create")

	p, err := caller(c)
	if err != nil {
		return err
	}
	var req transport.CreateUserRequest
	if err := bindOrWarn(c, l, "create_user_failed", &req); err != nil {
		return err
	}

	u, err := h.Svc.Create(ctx, p, req)
	if err != nil {
		return fail(l, "create_user_failed", err)
	}

	l.Info("create_user_success", "target_id", u.ID)
	return c.JSON(http.StatusCreated, transport.UserView(u))
}

func (h *UsersHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.patch")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "patch_user_failed")
	if err != nil {
		return err
	}
	var req transport.PatchUserRequest
	if err := bindOrWarn(c, l, "patch_user_failed", &req); err != nil {
		return err
	}

	u, err := h.Svc.Update(ctx, p, id, req)
	if err != nil {
		return fail(l, "patch_user_failed", err)
	}

	l.Info("patch_user_success", "target_id", id)
	return c.JSON(http.StatusOK, transport.UserView(u))
}

func (h *UsersHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.delete")

	p, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, l, "delete_user_failed")
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, p, id); err != nil {
		return fail(l, "delete_user_failed", err)
	}

	l.Info("delete_user_success", "target_id", id)
	return c.NoContent(http.StatusNoContent)
}
