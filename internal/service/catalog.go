package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/search"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

type SearchIndex interface {
	Upsert(ctx context.Context, doc search.Doc) error
	Delete(ctx context.Context, kind string, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []search.Doc, error)
}

// CatalogService owns products and add-ons. Search is optional; without it
// queries run as a substring match over the store.
type CatalogService struct {
	Store  repo.Store
	Search SearchIndex
	Events mykafka.Publisher
}

func productDoc(p models.Product) search.Doc {
	return search.Doc{Kind: search.KindProduct, ID: p.ID, Name: p.Name, Description: p.Description,
		Category: p.Category, Price: p.Price, IsActive: p.IsActive}
}

func addonDoc(a models.AddonProduct) search.Doc {
	return search.Doc{Kind: search.KindAddon, ID: a.ID, Name: a.Name, Description: a.Description,
		Category: a.Category, Price: a.Price, IsActive: a.IsActive}
}

func (s *CatalogService) index(ctx context.Context, doc search.Doc) {
	if s.Search == nil {
		return
	}
	if err := s.Search.Upsert(ctx, doc); err != nil {
		logging.FromContext(ctx).Warn("index_failed", "kind", doc.Kind, "id", doc.ID, "error", err)
	}
}

func (s *CatalogService) unindex(ctx context.Context, kind string, id uint) {
	if s.Search == nil {
		return
	}
	if err := s.Search.Delete(ctx, kind, id); err != nil {
		logging.FromContext(ctx).Warn("unindex_failed", "kind", kind, "id", id, "error", err)
	}
}

// Reindex pushes the whole catalog to the search index: active items are upserted,
// inactive ones removed. Rows created while search was off or before startup become
// searchable this way. Per-item failures do not stop the pass.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Search == nil {
		return 0, nil
	}
	l := logging.FromContext(ctx).With("svc", "catalog.reindex")

	products, err := s.Store.ListProducts(ctx, repo.ProductFilter{})
	if err != nil {
		return 0, fmt.Errorf("list products: %w", err)
	}
	addons, err := s.Store.ListAddons(ctx, repo.ProductFilter{})
	if err != nil {
		return 0, fmt.Errorf("list addons: %w", err)
	}

	docs := make([]search.Doc, 0, len(products)+len(addons))
	for _, p := range products {
		docs = append(docs, productDoc(p))
	}
	for _, a := range addons {
		docs = append(docs, addonDoc(a))
	}

	var (
		indexed int
		errs    []error
	)
	for _, d := range docs {
		if d.IsActive {
			err = s.Search.Upsert(ctx, d)
		} else {
			err = s.Search.Delete(ctx, d.Kind, d.ID)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %d: %w", d.Kind, d.ID, err))
			continue
		}
		if d.IsActive {
			indexed++
		}
	}

	l.Info("reindex_done", "indexed", indexed, "failed", len(errs))
	return indexed, errors.Join(errs...)
}

func validateProduct(req transport.ProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("name is required")
	}
	if req.Price < 0 {
		return invalid("price cannot be negative")
	}
	return nil
}

func validateProductPatch(req transport.PatchProductRequest) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return invalid("name cannot be empty")
	}
	if req.Price != nil && *req.Price < 0 {
		return invalid("price cannot be negative")
	}
	return nil
}

func productPatch(req transport.PatchProductRequest) models.ProductPatch {
	return models.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		IsActive:    req.IsActive,
	}
}

func activeOrDefault(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

func (s *CatalogService) ListProducts(ctx context.Context, category string, includeInactive bool) ([]models.Product, error) {
	return s.Store.ListProducts(ctx, repo.ProductFilter{ActiveOnly: !includeInactive, Category: category})
}

// GetProduct hides inactive products unless includeInactive is set.
func (s *CatalogService) GetProduct(ctx context.Context, id uint, includeInactive bool) (models.Product, error) {
	p, err := s.Store.GetProduct(ctx, id)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive && !includeInactive) {
		return models.Product{}, notFound("product")
	}
	return p, err
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest) (models.Product, error) {
	if err := validateProduct(req); err != nil {
		return models.Product{}, err
	}
	p, err := s.Store.CreateProduct(ctx, models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		IsActive:    activeOrDefault(req.IsActive),
	})
	if err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.index(ctx, productDoc(p))
	publish(ctx, s.Events, mykafka.TopicProduct, mykafka.NewEvent("product_created", p.ID, 0, map[string]any{"name": p.Name, "price": p.Price}))
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (models.Product, error) {
	if err := validateProductPatch(req); err != nil {
		return models.Product{}, err
	}
	p, err := s.Store.UpdateProduct(ctx, id, productPatch(req))
	if errors.Is(err, repo.ErrNotFound) {
		return models.Product{}, notFound("product")
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}

	s.index(ctx, productDoc(p))
	publish(ctx, s.Events, mykafka.TopicProduct, mykafka.NewEvent("product_updated", p.ID, 0, map[string]any{"name": p.Name, "price": p.Price}))
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	ok, err := s.Store.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if !ok {
		return notFound("product")
	}
	s.unindex(ctx, search.KindProduct, id)
	publish(ctx, s.Events, mykafka.TopicProduct, mykafka.NewEvent("product_deleted", id, 0, nil))
	return nil
}

func (s *CatalogService) ListAddons(ctx context.Context, category string, includeInactive bool) ([]models.AddonProduct, error) {
	return s.Store.ListAddons(ctx, repo.ProductFilter{ActiveOnly: !includeInactive, Category: category})
}

func (s *CatalogService) GetAddon(ctx context.Context, id uint, includeInactive bool) (models.AddonProduct, error) {
	a, err := s.Store.GetAddon(ctx, id)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !a.IsActive && !includeInactive) {
		return models.AddonProduct{}, notFound("addon")
	}
	return a, err
}

func (s *CatalogService) CreateAddon(ctx context.Context, req transport.ProductRequest) (models.AddonProduct, error) {
	if err := validateProduct(req); err != nil {
		return models.AddonProduct{}, err
	}
	a, err := s.Store.CreateAddon(ctx, models.AddonProduct{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		IsActive:    activeOrDefault(req.IsActive),
	})
	if err != nil {
		return models.AddonProduct{}, fmt.Errorf("create addon: %w", err)
	}

	s.index(ctx, addonDoc(a))
	publish(ctx, s.Events, mykafka.TopicProduct, mykafka.NewEvent("addon_created", a.ID, 0, map[string]any{"name": a.Name, "price": a.Price}))
	return a, nil
}

func (s *CatalogService) UpdateAddon(ctx context.Context, id uint, req transport.PatchProductRequest) (models.AddonProduct, error) {
	if err := validateProductPatch(req); err != nil {
		return models.AddonProduct{}, err
	}
	a, err := s.Store.UpdateAddon(ctx, id, productPatch(req))
	if errors.Is(err, repo.ErrNotFound) {
		return models.AddonProduct{}, notFound("addon")
	}
	if err != nil {
		return models.AddonProduct{}, fmt.Errorf("update addon: %w", err)
	}

	s.index(ctx, addonDoc(a))
	publish(ctx, s.Events, mykafka.TopicProduct, mykafka.NewEvent("addon_updated", a.ID, 0, map[string]any{"name": a.Name, "price": a.Price}))
	return a, nil
}

func (s *CatalogService) DeleteAddon(ctx context.Context, id uint) error {
	ok, err := s.Store.DeleteAddon(ctx, id)
	if err != nil {
		return fmt.Errorf("delete addon: %w", err)
	}
	if !ok {
		return notFound("addon")
	}
	s.unindex(ctx, search.KindAddon, id)
	publish(ctx, s.Events, mykafka.TopicProduct, mykafka.NewEvent("addon_deleted", id, 0, nil))
	return nil
}

// SearchCatalog looks through active products and add-ons. An index failure
// falls back to the store so search keeps answering.
func (s *CatalogService) SearchCatalog(ctx context.Context, query string, offset, limit int) (int64, []transport.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, invalid("query is required")
	}

	if s.Search != nil {
		total, docs, err := s.Search.Search(ctx, query, offset, limit)
		if err == nil {
			hits := make([]transport.SearchHit, 0, len(docs))
			for _, d := range docs {
				hits = append(hits, hitFromDoc(d))
			}
			return total, hits, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to store", "error", err)
	}
	return s.searchStore(ctx, query, offset, limit)
}

func hitFromDoc(d search.Doc) transport.SearchHit {
	return transport.SearchHit{Kind: d.Kind, ID: d.ID, Name: d.Name, Description: d.Description, Category: d.Category, Price: d.Price}
}

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (s *CatalogService) searchStore(ctx context.Context, query string, offset, limit int) (int64, []transport.SearchHit, error) {
	q := strings.ToLower(query)
	products, err := s.Store.ListProducts(ctx, repo.ProductFilter{ActiveOnly: true})
	if err != nil {
		return 0, nil, err
	}
	addons, err := s.Store.ListAddons(ctx, repo.ProductFilter{ActiveOnly: true})
	if err != nil {
		return 0, nil, err
	}

	var hits []transport.SearchHit
	for _, p := range products {
		if matches(q, p.Name, p.Description, p.Category) {
			hits = append(hits, hitFromDoc(productDoc(p)))
		}
	}
	for _, a := range addons {
		if matches(q, a.Name, a.Description, a.Category) {
			hits = append(hits, hitFromDoc(addonDoc(a)))
		}
	}

	total := int64(len(hits))
	if offset >= len(hits) {
		return total, []transport.SearchHit{}, nil
	}
	end := min(offset+limit, len(hits))
	return total, hits[offset:end], nil
}
