package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/revocation"
	"github.com/Skotchmaster/agency_site/internal/session"
	"github.com/Skotchmaster/agency_site/internal/tokens"
)

const principalKey = "principal"

var (
	errAuthRequired = echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	errForbidden    = echo.NewHTTPError(http.StatusForbidden, "forbidden")
)

type Auditor interface {
	Record(entry models.AuditLog)
}

type Authenticator struct {
	Issuer  *tokens.Issuer
	Revoked revocation.Store
	Audit   Auditor
	// requests to these route paths are not audited
	SkipAudit map[string]struct{}
}

// TokenFrom prefers the session cookie over the Authorization header.
func TokenFrom(c echo.Context) string {
	if ck, err := c.Cookie(tokens.CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func (a *Authenticator) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "authenticate")

		raw := TokenFrom(c)
		if raw == "" {
			return errAuthRequired
		}

		p, _, err := a.Issuer.Parse(raw)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "invalid token", "error", err)
			return errAuthRequired
		}

		if a.Revoked != nil {
			revoked, err := a.Revoked.IsRevoked(ctx, p.TokenID)
			if err != nil {
				l.Error("auth_failed", "status", 401, "reason", "cannot check revocation", "error", err)
				return errAuthRequired
			}
			if revoked {
				l.Warn("auth_failed", "status", 401, "reason", "token revoked", "user_id", p.ID)
				return errAuthRequired
			}
		}

		ctx = session.WithPrincipal(ctx, p)
		ctx = logging.With(ctx, "user_id", p.ID)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Set(principalKey, p)

		a.record(c, p)
		return next(c)
	}
}

func (a *Authenticator) record(c echo.Context, p session.Principal) {
	if a.Audit == nil {
		return
	}
	if _, skip := a.SkipAudit[c.Path()]; skip {
		return
	}
	req := c.Request()
	a.Audit.Record(models.AuditLog{
		UserID:    p.ID,
		Action:    req.Method + " " + req.URL.Path,
		IPAddress: c.RealIP(),
		UserAgent: req.UserAgent(),
		Details: map[string]any{
			"email": p.Email,
			"role":  p.Role,
			"route": c.Path(),
		},
	})
}

// PrincipalFrom returns the principal attached by Authenticate.
func PrincipalFrom(c echo.Context) (session.Principal, bool) {
	if p, ok := c.Get(principalKey).(session.Principal); ok {
		return p, true
	}
	return session.FromContext(c.Request().Context())
}

// Authorize lets the request through only for the given roles.
func Authorize(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return errAuthRequired
			}
			if !p.HasRole(roles...) {
				logging.FromContext(c.Request().Context()).Warn("authorize_failed", "status", 403, "role", p.Role)
				return errForbidden
			}
			return next(c)
		}
	}
}

func RequirePermission(name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFrom(c)
			if !ok {
				return errAuthRequired
			}
			if !p.HasCapability(name) {
				logging.FromContext(c.Request().Context()).Warn("permission_denied", "status", 403, "permission", name)
				return errForbidden
			}
			return next(c)
		}
	}
}
