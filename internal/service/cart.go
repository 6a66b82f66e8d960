package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

type CartService struct {
	Store  repo.Store
	Events mykafka.Publisher
}

type catalogItem struct {
	Name     string
	Price    float64
	IsActive bool
}

func lookupItem(ctx context.Context, store repo.Store, productID uint, isAddon bool) (catalogItem, error) {
	if isAddon {
		a, err := store.GetAddon(ctx, productID)
		if err != nil {
			return catalogItem{}, err
		}
		return catalogItem{Name: a.Name, Price: a.Price, IsActive: a.IsActive}, nil
	}
	p, err := store.GetProduct(ctx, productID)
	if err != nil {
		return catalogItem{}, err
	}
	return catalogItem{Name: p.Name, Price: p.Price, IsActive: p.IsActive}, nil
}

func (s *CartService) Cart(ctx context.Context, userID uint) (transport.CartResponse, error) {
	items, err := s.Store.ListCartItems(ctx, userID)
	if err != nil {
		return transport.CartResponse{}, err
	}

	out := transport.CartResponse{Items: make([]transport.CartLine, 0, len(items))}
	for _, it := range items {
		ci, err := lookupItem(ctx, s.Store, it.ProductID, it.IsAddon)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return transport.CartResponse{}, err
		}
		line := transport.CartLine{CartItem: it, Name: ci.Name, Price: ci.Price, LineTotal: ci.Price * float64(it.Quantity)}
		out.Items = append(out.Items, line)
		out.Total += line.LineTotal
	}
	return out, nil
}

func (s *CartService) Add(ctx context.Context, userID uint, req transport.AddCartItemRequest) (models.CartItem, error) {
	if req.ProductID == 0 {
		return models.CartItem{}, invalid("productId is required")
	}
	if req.Quantity < 1 {
		return models.CartItem{}, invalid("quantity must be at least 1")
	}

	// a deleted account keeps a valid token until expiry; its cart must stay empty
	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.CartItem{}, notFound("user")
		}
		return models.CartItem{}, err
	}

	ci, err := lookupItem(ctx, s.Store, req.ProductID, req.IsAddon)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !ci.IsActive) {
		return models.CartItem{}, notFound("product")
	}
	if err != nil {
		return models.CartItem{}, err
	}

	item, err := s.Store.AddCartItem(ctx, models.CartItem{
		UserID:    userID,
		ProductID: req.ProductID,
		IsAddon:   req.IsAddon,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return models.CartItem{}, fmt.Errorf("add cart item: %w", err)
	}
	publish(ctx, s.Events, mykafka.TopicCart, mykafka.NewEvent("cart_item_added", item.ID, userID,
		map[string]any{"productId": item.ProductID, "isAddon": item.IsAddon, "quantity": item.Quantity}))
	return item, nil
}

// owned returns the cart line only when it belongs to userID; foreign lines look missing.
func (s *CartService) owned(ctx context.Context, userID, id uint) (models.CartItem, error) {
	item, err := s.Store.GetCartItem(ctx, id)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && item.UserID != userID) {
		return models.CartItem{}, notFound("cart item")
	}
	return item, err
}

func (s *CartService) Update(ctx context.Context, userID, id uint, quantity int) (models.CartItem, error) {
	if quantity < 1 {
		return models.CartItem{}, invalid("quantity must be at least 1")
	}
	if _, err := s.owned(ctx, userID, id); err != nil {
		return models.CartItem{}, err
	}
	item, err := s.Store.UpdateCartItem(ctx, id, quantity)
	if errors.Is(err, repo.ErrNotFound) {
		return models.CartItem{}, notFound("cart item")
	}
	return item, err
}

func (s *CartService) Remove(ctx context.Context, userID, id uint) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	ok, err := s.Store.DeleteCartItem(ctx, id)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if !ok {
		return notFound("cart item")
	}
	publish(ctx, s.Events, mykafka.TopicCart, mykafka.NewEvent("cart_item_removed", id, userID, nil))
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	if err := s.Store.ClearCart(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	publish(ctx, s.Events, mykafka.TopicCart, mykafka.NewEvent("cart_cleared", userID, userID, nil))
	return nil
}
