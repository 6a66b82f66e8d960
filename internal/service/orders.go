package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/metrics"
	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

type OrderService struct {
	Store   repo.Store
	Events  mykafka.Publisher
	Metrics *metrics.Metrics
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Checkout turns the caller's cart into an order and empties the cart.
// Item names and prices are copied so later catalog edits leave the order intact.
func (s *OrderService) Checkout(ctx context.Context, userID uint, req transport.CheckoutRequest) (transport.OrderDetail, error) {
	l := logging.FromContext(ctx).With("svc", "orders.checkout")

	u, err := s.Store.GetUser(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return transport.OrderDetail{}, notFound("user")
	}
	if err != nil {
		return transport.OrderDetail{}, err
	}

	lines, err := s.Store.ListCartItems(ctx, userID)
	if err != nil {
		return transport.OrderDetail{}, err
	}
	if len(lines) == 0 {
		return transport.OrderDetail{}, invalid("cart is empty")
	}

	var total float64
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		ci, err := lookupItem(ctx, s.Store, line.ProductID, line.IsAddon)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && !ci.IsActive) {
			return transport.OrderDetail{}, invalid("cart item %d is no longer available", line.ID)
		}
		if err != nil {
			return transport.OrderDetail{}, err
		}
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			IsAddon:   line.IsAddon,
			Name:      ci.Name,
			Price:     ci.Price,
			Quantity:  line.Quantity,
		})
		total += ci.Price * float64(line.Quantity)
	}

	order, created, err := s.Store.CreateOrder(ctx, models.Order{
		UserID:        userID,
		ContactName:   orDefault(req.ContactName, u.Name),
		ContactEmail:  orDefault(req.ContactEmail, u.Email),
		ContactPhone:  orDefault(req.ContactPhone, u.Phone),
		Company:       req.Company,
		Notes:         req.Notes,
		Status:        models.OrderStatusNew,
		TotalAmount:   roundCents(total),
		PaymentStatus: models.PaymentUnpaid,
	}, items)
	if err != nil {
		return transport.OrderDetail{}, fmt.Errorf("create order: %w", err)
	}

	if err := s.Store.ClearCart(ctx, userID); err != nil {
		l.Error("clear_cart_failed", "order_id", order.ID, "error", err)
	}

	s.Metrics.OrderCreated()
	publish(ctx, s.Events, mykafka.TopicOrder, mykafka.NewEvent("order_created", order.ID, userID,
		map[string]any{"totalAmount": order.TotalAmount, "items": len(created)}))
	l.Info("checkout_success", "order_id", order.ID, "total", order.TotalAmount)
	return transport.OrderDetail{Order: order, Items: created, Revisions: []models.OrderRevision{}}, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Store.ListOrders(ctx, repo.OrderFilter{UserID: userID})
}

// GetMine answers not found for orders of other users.
func (s *OrderService) GetMine(ctx context.Context, userID, id uint) (transport.OrderDetail, error) {
	o, err := s.Store.GetOrder(ctx, id)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && o.UserID != userID) {
		return transport.OrderDetail{}, notFound("order")
	}
	if err != nil {
		return transport.OrderDetail{}, err
	}
	return s.detail(ctx, o)
}

func (s *OrderService) detail(ctx context.Context, o models.Order) (transport.OrderDetail, error) {
	items, err := s.Store.ListOrderItems(ctx, o.ID)
	if err != nil {
		return transport.OrderDetail{}, err
	}
	revs, err := s.Store.ListOrderRevisions(ctx, o.ID)
	if err != nil {
		return transport.OrderDetail{}, err
	}
	return transport.OrderDetail{Order: o, Items: items, Revisions: revs}, nil
}

// AddRevision is accepted only once the order is completed.
func (s *OrderService) AddRevision(ctx context.Context, userID, id uint, req transport.RevisionRequest) (models.OrderRevision, error) {
	if strings.TrimSpace(req.Description) == "" {
		return models.OrderRevision{}, invalid("description is required")
	}
	o, err := s.Store.GetOrder(ctx, id)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && o.UserID != userID) {
		return models.OrderRevision{}, notFound("order")
	}
	if err != nil {
		return models.OrderRevision{}, err
	}
	if o.Status != models.OrderStatusCompleted {
		return models.OrderRevision{}, newErr(ErrInvalidTransition, "revisions are only accepted for completed orders")
	}

	rev, err := s.Store.CreateOrderRevision(ctx, models.OrderRevision{OrderID: id, UserID: userID, Description: req.Description})
	if errors.Is(err, repo.ErrNotFound) {
		return models.OrderRevision{}, notFound("order")
	}
	if err != nil {
		return models.OrderRevision{}, fmt.Errorf("create revision: %w", err)
	}
	publish(ctx, s.Events, mykafka.TopicOrder, mykafka.NewEvent("order_revision_requested", id, userID, map[string]any{"revisionId": rev.ID}))
	return rev, nil
}

func (s *OrderService) List(ctx context.Context, f repo.OrderFilter) ([]models.Order, error) {
	if f.Status != "" && !models.ValidOrderStatus(f.Status) {
		return nil, invalid("unknown status %q", f.Status)
	}
	return s.Store.ListOrders(ctx, f)
}

func (s *OrderService) Get(ctx context.Context, id uint) (transport.OrderDetail, error) {
	o, err := s.Store.GetOrder(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return transport.OrderDetail{}, notFound("order")
	}
	if err != nil {
		return transport.OrderDetail{}, err
	}
	return s.detail(ctx, o)
}

func (s *OrderService) Update(ctx context.Context, actorID, id uint, req transport.PatchOrderRequest) (models.Order, error) {
	cur, err := s.Store.GetOrder(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Order{}, notFound("order")
	}
	if err != nil {
		return models.Order{}, err
	}

	if req.Status != nil && !models.CanTransitionOrder(cur.Status, *req.Status) {
		return models.Order{}, newErr(ErrInvalidTransition, "cannot move order from %s to %s", cur.Status, *req.Status)
	}
	if req.PaymentStatus != nil && !models.ValidPaymentStatus(*req.PaymentStatus) {
		return models.Order{}, invalid("unknown payment status %q", *req.PaymentStatus)
	}
	if req.TotalAmount != nil && *req.TotalAmount < 0 {
		return models.Order{}, invalid("totalAmount cannot be negative")
	}

	o, err := s.Store.UpdateOrder(ctx, id, models.OrderPatch{
		ContactName:   req.ContactName,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		Company:       req.Company,
		Notes:         req.Notes,
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
		TotalAmount:   req.TotalAmount,
		ExpectStatus:  cur.Status,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return models.Order{}, notFound("order")
	}
	if errors.Is(err, repo.ErrStaleStatus) {
		return models.Order{}, newErr(ErrInvalidTransition, "order status changed, reload and retry")
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("update order: %w", err)
	}

	if o.Status != cur.Status || o.PaymentStatus != cur.PaymentStatus {
		publish(ctx, s.Events, mykafka.TopicOrder, mykafka.NewEvent("order_status_changed", o.ID, actorID,
			map[string]any{"from": cur.Status, "to": o.Status, "paymentStatus": o.PaymentStatus}))
	}
	return o, nil
}

func (s *OrderService) Delete(ctx context.Context, actorID, id uint) error {
	ok, err := s.Store.DeleteOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if !ok {
		return notFound("order")
	}
	publish(ctx, s.Events, mykafka.TopicOrder, mykafka.NewEvent("order_deleted", id, actorID, nil))
	return nil
}
