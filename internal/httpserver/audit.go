package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/service"
	"github.com/Skotchmaster/agency_site/internal/util"
)

type AuditHTTP struct {
	Svc *service.AuditService
}

func (h *AuditHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "audit.list")

	var userID uint
	if raw := c.QueryParam("userId"); raw != "" {
		id, ok := util.ParseID(raw)
		if !ok {
			l.Warn("list_audit_failed", "status", 400, "reason", "invalid userId")
			return echo.NewHTTPError(http.StatusBadRequest, "invalid userId")
		}
		userID = id
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, logs, err := h.Svc.List(ctx, userID, offset, limit)
	if err != nil {
		return fail(l, "list_audit_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": logs,
		"meta": util.Meta(page, limit, total),
	})
}
