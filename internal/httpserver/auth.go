package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/middleware/auth"
	"github.com/Skotchmaster/agency_site/internal/service"
	"github.com/Skotchmaster/agency_site/internal/tokens"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bindOrWarn(c, l, "register_failed", &req); err != nil {
		return err
	}

	u, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_failed", err)
	}

	l.Info("register_success", "user_id", u.ID)
	return c.JSON(http.StatusCreated, echo.Map{"user": transport.UserView(u)})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bindOrWarn(c, l, "login_failed", &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	c.SetCookie(tokens.CreateCookie(res.Token.Token, res.Token.ExpiresAt, h.CookieSecure))
	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		User:  transport.UserView(res.User),
		Token: res.Token.Token,
	})
}

// LogOut always clears the cookie, even when there is no session to end.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	err := h.Svc.LogOut(ctx, auth.TokenFrom(c))
	c.SetCookie(tokens.DeleteCookie(h.CookieSecure))
	if err != nil {
		l.Error("logout_failed", "status", 500, "reason", "cannot revoke token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Check(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.check")

	p, err := caller(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.Profile(ctx, p.ID)
	if errors.Is(err, service.ErrNotFound) {
		l.Warn("check_failed", "status", 401, "reason", "user no longer exists")
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if err != nil {
		return fail(l, "check_failed", err)
	}

	return c.JSON(http.StatusOK, transport.CheckResponse{Authenticated: true, User: transport.UserView(u)})
}

func (h *AuthHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.profile")

	p, err := caller(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.Profile(ctx, p.ID)
	if err != nil {
		return fail(l, "get_profile_failed", err)
	}
	return c.JSON(http.StatusOK, transport.UserView(u))
}

func (h *AuthHTTP) PatchProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.patch_profile")

	p, err := caller(c)
	if err != nil {
		return err
	}
	var req transport.PatchProfileRequest
	if err := bindOrWarn(c, l, "patch_profile_failed", &req); err != nil {
		return err
	}

	u, err := h.Svc.UpdateProfile(ctx, p.ID, req)
	if err != nil {
		return fail(l, "patch_profile_failed", err)
	}

	l.Info("patch_profile_success")
	return c.JSON(http.StatusOK, transport.UserView(u))
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.change_password")

	p, err := caller(c)
	if err != nil {
		return err
	}
	var req transport.ChangePasswordRequest
	if err := bindOrWarn(c, l, "change_password_failed", &req); err != nil {
		return err
	}

	if err := h.Svc.ChangePassword(ctx, p.ID, req); err != nil {
		return fail(l, "change_password_failed", err)
	}

	l.Info("change_password_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}
