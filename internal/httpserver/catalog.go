package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/service"
	"github.com/Skotchmaster/agency_site/internal/transport"
	"github.com/Skotchmaster/agency_site/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
	// Admin handlers see inactive items too.
	Admin bool
}

func paginate[T any](c echo.Context, items []T) echo.Map {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	start := min(offset, len(items))
	end := min(offset+limit, len(items))
	return echo.Map{
		"data": items[start:end],
		"meta": util.Meta(page, limit, int64(len(items))),
	}
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_products")

	items, err := h.Svc.ListProducts(ctx, c.QueryParam("category"), h.Admin)
	if err != nil {
		return fail(l, "list_products_failed", err)
	}
	return c.JSON(http.StatusOK, paginate(c, items))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_product")

	id, err := pathID(c, l, "get_product_failed")
	if err != nil {
		return err
	}
	p, err := h.Svc.GetProduct(ctx, id, h.Admin)
	if err != nil {
		return fail(l, "get_product_failed", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_product")

	var req transport.ProductRequest
	if err := bindOrWarn(c, l, "create_product_failed", &req); err != nil {
		return err
	}
	p, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "create_product_failed", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_product")

	id, err := pathID(c, l, "patch_product_failed")
	if err != nil {
		return err
	}
	var req transport.PatchProductRequest
	if err := bindOrWarn(c, l, "patch_product_failed", &req); err != nil {
		return err
	}
	p, err := h.Svc.UpdateProduct(ctx, id, req)
	if err != nil {
		return fail(l, "patch_product_failed", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_product")

	id, err := pathID(c, l, "delete_product_failed")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "delete_product_failed", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) ListAddons(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list_addons")

	items, err := h.Svc.ListAddons(ctx, c.QueryParam("category"), h.Admin)
	if err != nil {
		return fail(l, "list_addons_failed", err)
	}
	return c.JSON(http.StatusOK, paginate(c, items))
}

func (h *CatalogHTTP) GetAddon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get_addon")

	id, err := pathID(c, l, "get_addon_failed")
	if err != nil {
		return err
	}
	a, err := h.Svc.GetAddon(ctx, id, h.Admin)
	if err != nil {
		return fail(l, "get_addon_failed", err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *CatalogHTTP) CreateAddon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.create_addon")

	var req transport.ProductRequest
	if err := bindOrWarn(c, l, "create_addon_failed", &req); err != nil {
		return err
	}
	a, err := h.Svc.CreateAddon(ctx, req)
	if err != nil {
		return fail(l, "create_addon_failed", err)
	}

	l.Info("create_addon_success", "addon_id", a.ID)
	return c.JSON(http.StatusCreated, a)
}

func (h *CatalogHTTP) PatchAddon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.patch_addon")

	id, err := pathID(c, l, "patch_addon_failed")
	if err != nil {
		return err
	}
	var req transport.PatchProductRequest
	if err := bindOrWarn(c, l, "patch_addon_failed", &req); err != nil {
		return err
	}
	a, err := h.Svc.UpdateAddon(ctx, id, req)
	if err != nil {
		return fail(l, "patch_addon_failed", err)
	}

	l.Info("patch_addon_success", "addon_id", id)
	return c.JSON(http.StatusOK, a)
}

func (h *CatalogHTTP) DeleteAddon(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.delete_addon")

	id, err := pathID(c, l, "delete_addon_failed")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteAddon(ctx, id); err != nil {
		return fail(l, "delete_addon_failed", err)
	}

	l.Info("delete_addon_success", "addon_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, hits, err := h.Svc.SearchCatalog(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_failed", err)
	}

	l.Info("search_success", "total", total)
	return c.JSON(http.StatusOK, echo.Map{
		"data": hits,
		"meta": util.Meta(page, limit, total),
	})
}
