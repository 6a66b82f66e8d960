package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/agency_site/internal/middleware/auth"
	"github.com/Skotchmaster/agency_site/internal/session"
	"github.com/Skotchmaster/agency_site/internal/util"
)

func caller(c echo.Context) (session.Principal, error) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return session.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return p, nil
}

func pathID(c echo.Context, l *slog.Logger, event string) (uint, error) {
	id, ok := util.ParseID(c.Param("id"))
	if !ok {
		l.Warn(event, "status", 400, "reason", "invalid id", "id", c.Param("id"))
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func bindOrWarn(c echo.Context, l *slog.Logger, event string, dst any) error {
	if err := bind(c, dst); err != nil {
		l.Warn(event, "status", 400, "reason", "invalid body", "error", err)
		return err
	}
	return nil
}
