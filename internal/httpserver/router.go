package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/agency_site/internal/metrics"
	"github.com/Skotchmaster/agency_site/internal/middleware/auth"
	"github.com/Skotchmaster/agency_site/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/agency_site/internal/middleware/logging"
	"github.com/Skotchmaster/agency_site/internal/middleware/ratelimit"
	"github.com/Skotchmaster/agency_site/internal/models"
)

const CheckPath = "/api/auth/check"

type Deps struct {
	AuthHandler         *AuthHTTP
	UsersHandler        *UsersHTTP
	CatalogHandler      *CatalogHTTP
	AdminCatalogHandler *CatalogHTTP
	CartHandler         *CartHTTP
	OrdersHandler       *OrdersHTTP
	SubmissionsHandler  *SubmissionsHTTP
	AuditHandler        *AuditHTTP

	Authenticator *auth.Authenticator
	// Limiter throttles login, registration and the contact form; nil disables it.
	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics
	// Ready reports whether the storage backend answers.
	Ready func(ctx context.Context) error

	CORSOrigins []string
	CSRF        *csrf.Config
}

// New builds the echo instance with the shared middleware stack and all routes.
func New(log *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler(e)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(loggingmw.RequestLogger(log))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	if len(d.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     d.CORSOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-CSRF-Token"},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		}))
	}
	if d.CSRF != nil {
		e.Use(csrf.Middleware(*d.CSRF))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "storage unavailable")
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	authn := d.Authenticator.Authenticate
	limited := []echo.MiddlewareFunc{}
	if d.Limiter != nil {
		limited = append(limited, d.Limiter.Middleware())
	}

	api := e.Group("/api")

	a := api.Group("/auth")
	a.POST("/register", d.AuthHandler.Register, limited...)
	a.POST("/login", d.AuthHandler.Login, limited...)
	a.POST("/logout", d.AuthHandler.LogOut)
	a.GET("/check", d.AuthHandler.Check, authn)
	a.GET("/profile", d.AuthHandler.Profile, authn)
	a.PATCH("/profile", d.AuthHandler.PatchProfile, authn)
	a.POST("/change-password", d.AuthHandler.ChangePassword, authn)

	api.GET("/products", d.CatalogHandler.ListProducts)
	api.GET("/products/search", d.CatalogHandler.Search)
	api.GET("/products/:id", d.CatalogHandler.GetProduct)
	api.GET("/addons", d.CatalogHandler.ListAddons)
	api.GET("/addons/:id", d.CatalogHandler.GetAddon)

	api.POST("/submissions", d.SubmissionsHandler.Create, limited...)

	cart := api.Group("/cart", authn)
	cart.GET("", d.CartHandler.Get)
	cart.POST("", d.CartHandler.Add)
	cart.DELETE("", d.CartHandler.Clear)
	cart.PATCH("/:id", d.CartHandler.Update)
	cart.DELETE("/:id", d.CartHandler.Remove)

	orders := api.Group("/orders", authn)
	orders.POST("", d.OrdersHandler.Checkout)
	orders.GET("", d.OrdersHandler.ListMine)
	orders.GET("/:id", d.OrdersHandler.GetMine)
	orders.POST("/:id/revisions", d.OrdersHandler.AddRevision)

	admin := api.Group("/admin", authn, auth.Authorize(models.RoleAdmin, models.RoleManager))

	products := admin.Group("/products", auth.RequirePermission(models.PermManageProducts))
	products.GET("", d.AdminCatalogHandler.ListProducts)
	products.POST("", d.AdminCatalogHandler.CreateProduct)
	products.GET("/:id", d.AdminCatalogHandler.GetProduct)
	products.PATCH("/:id", d.AdminCatalogHandler.PatchProduct)
	products.DELETE("/:id", d.AdminCatalogHandler.DeleteProduct)

	addons := admin.Group("/addons", auth.RequirePermission(models.PermManageProducts))
	addons.GET("", d.AdminCatalogHandler.ListAddons)
	addons.POST("", d.AdminCatalogHandler.CreateAddon)
	addons.GET("/:id", d.AdminCatalogHandler.GetAddon)
	addons.PATCH("/:id", d.AdminCatalogHandler.PatchAddon)
	addons.DELETE("/:id", d.AdminCatalogHandler.DeleteAddon)

	adminOrders := admin.Group("/orders", auth.RequirePermission(models.PermManageOrders))
	adminOrders.GET("", d.OrdersHandler.List)
	adminOrders.GET("/:id", d.OrdersHandler.Get)
	adminOrders.PATCH("/:id", d.OrdersHandler.Patch)
	adminOrders.DELETE("/:id", d.OrdersHandler.Delete, auth.RequirePermission(models.PermDelete))

	subs := admin.Group("/submissions", auth.RequirePermission(models.PermManageSubmissions))
	subs.GET("", d.SubmissionsHandler.List)
	subs.GET("/:id", d.SubmissionsHandler.Get)
	subs.PATCH("/:id", d.SubmissionsHandler.Patch)
	subs.DELETE("/:id", d.SubmissionsHandler.Delete, auth.RequirePermission(models.PermDelete))
	subs.GET("/:id/notes", d.SubmissionsHandler.Notes)
	subs.POST("/:id/notes", d.SubmissionsHandler.AddNote)

	users := admin.Group("/users", auth.Authorize(models.RoleAdmin))
	users.GET("", d.UsersHandler.List)
	users.POST("", d.UsersHandler.Create)
	users.GET("/:id", d.UsersHandler.Get)
	users.PATCH("/:id", d.UsersHandler.Patch)
	users.DELETE("/:id", d.UsersHandler.Delete)

	admin.GET("/audit-logs", d.AuditHandler.List, auth.Authorize(models.RoleAdmin))
}
