package repo

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/Skotchmaster/agency_site/internal/hash"
	"github.com/Skotchmaster/agency_site/internal/models"
)

// table is one collection; ids start at 1 and are never handed out twice.
type table[T any] struct {
	nextID uint
	rows   map[uint]T
}

func newTable[T any]() *table[T] {
	return &table[T]{nextID: 1, rows: make(map[uint]T)}
}

func (t *table[T]) insert(build func(id uint) T) T {
	id := t.nextID
	t.nextID++
	row := build(id)
	t.rows[id] = row
	return row
}

func (t *table[T]) remove(id uint) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

func (t *table[T]) removeWhere(match func(T) bool) {
	for id, row := range t.rows {
		if match(row) {
			delete(t.rows, id)
		}
	}
}

// filter returns matching rows in ascending id order.
func (t *table[T]) filter(keep func(T) bool) []T {
	out := make([]T, 0, len(t.rows))
	for _, id := range slices.Sorted(maps.Keys(t.rows)) {
		row := t.rows[id]
		if keep == nil || keep(row) {
			out = append(out, row)
		}
	}
	return out
}

// MemoryRepo keeps every collection in process memory behind one RWMutex.
type MemoryRepo struct {
	mu     sync.RWMutex
	hasher hash.Hasher
	cfg    settings
	creds  *credentialChecker

	users       *table[models.User]
	emails      map[string]uint
	products    *table[models.Product]
	addons      *table[models.AddonProduct]
	cart        *table[models.CartItem]
	orders      *table[models.Order]
	orderItems  *table[models.OrderItem]
	revisions   *table[models.OrderRevision]
	submissions *table[models.Submission]
	notes       *table[models.Note]
	auditLogs   *table[models.AuditLog]
}

var _ Store = (*MemoryRepo)(nil)

func NewMemoryRepo(hasher hash.Hasher, opts ...Option) *MemoryRepo {
	return &MemoryRepo{
		hasher:      hasher,
		cfg:         buildSettings(opts),
		creds:       &credentialChecker{hasher: hasher},
		users:       newTable[models.User](),
		emails:      make(map[string]uint),
		products:    newTable[models.Product](),
		addons:      newTable[models.AddonProduct](),
		cart:        newTable[models.CartItem](),
		orders:      newTable[models.Order](),
		orderItems:  newTable[models.OrderItem](),
		revisions:   newTable[models.OrderRevision](),
		submissions: newTable[models.Submission](),
		notes:       newTable[models.Note](),
		auditLogs:   newTable[models.AuditLog](),
	}
}

func (r *MemoryRepo) Ping(ctx context.Context) error { return nil }

// users

func (r *MemoryRepo) CreateUser(ctx context.Context, nu models.NewUser) (models.User, error) {
	pwHash, err := r.hasher.Hash(nu.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	row := newUserRow(nu, pwHash, r.cfg.stamp())

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.emails[row.EmailKey]; taken {
		return models.User{}, ErrEmailTaken
	}
	u := r.users.insert(func(id uint) models.User {
		row.ID = id
		return row
	})
	r.emails[u.EmailKey] = u.ID
	return u.Clone(), nil
}

func (r *MemoryRepo) GetUser(ctx context.Context, id uint) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users.rows[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emails[models.NormalizeEmail(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return r.users.rows[id].Clone(), nil
}

func (r *MemoryRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.users.filter(nil)
	for i := range rows {
		rows[i] = rows[i].Clone()
	}
	return rows, nil
}

func (r *MemoryRepo) UpdateUser(ctx context.Context, id uint, p models.UserPatch) (models.User, error) {
	var pwHash string
	if p.Password != nil {
		h, err := r.hasher.Hash(*p.Password)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		pwHash = h
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users.rows[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	oldKey := u.EmailKey
	p.ApplyProfile(&u)
	if u.EmailKey != oldKey {
		if owner, taken := r.emails[u.EmailKey]; taken && owner != id {
			return models.User{}, ErrEmailTaken
		}
		delete(r.emails, oldKey)
		r.emails[u.EmailKey] = id
	}
	if pwHash != "" {
		u.PasswordHash = pwHash
	}
	u.ID = id
	u.UpdatedAt = r.cfg.touch(u.UpdatedAt)
	r.users.rows[id] = u
	return u.Clone(), nil
}

// DeleteUser also drops the user's cart; orders, notes and audit logs stay as history.
func (r *MemoryRepo) DeleteUser(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users.rows[id]
	if !ok {
		return false, nil
	}
	r.users.remove(id)
	delete(r.emails, u.EmailKey)
	r.cart.removeWhere(func(c models.CartItem) bool { return c.UserID == id })
	return true, nil
}

func (r *MemoryRepo) ValidateCredentials(ctx context.Context, email, password string) (models.User, error) {
	u, err := r.GetUserByEmail(ctx, email)
	if err != nil {
		r.creds.verify(nil, password)
		return models.User{}, ErrInvalidCredentials
	}
	if !r.creds.verify(&u, password) {
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// catalog

func matchCatalog(f ProductFilter, active bool, category string) bool {
	if f.ActiveOnly && !active {
		return false
	}
	return f.Category == "" || f.Category == category
}

func (r *MemoryRepo) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.cfg.stamp()
	return r.products.insert(func(id uint) models.Product {
		p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
		return p
	}), nil
}

func (r *MemoryRepo) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products.rows[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.products.filter(func(p models.Product) bool {
		return matchCatalog(f, p.IsActive, p.Category)
	}), nil
}

func (r *MemoryRepo) UpdateProduct(ctx context.Context, id uint, patch models.ProductPatch) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products.rows[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	patch.ApplyProduct(&p)
	p.UpdatedAt = r.cfg.touch(p.UpdatedAt)
	r.products.rows[id] = p
	return p, nil
}

func (r *MemoryRepo) DeleteProduct(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.products.remove(id) {
		return false, nil
	}
	r.cart.removeWhere(func(c models.CartItem) bool { return !c.IsAddon && c.ProductID == id })
	return true, nil
}

func (r *MemoryRepo) CreateAddon(ctx context.Context, a models.AddonProduct) (models.AddonProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.cfg.stamp()
	return r.addons.insert(func(id uint) models.AddonProduct {
		a.ID, a.CreatedAt, a.UpdatedAt = id, now, now
		return a
	}), nil
}

func (r *MemoryRepo) GetAddon(ctx context.Context, id uint) (models.AddonProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.addons.rows[id]
	if !ok {
		return models.AddonProduct{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) ListAddons(ctx context.Context, f ProductFilter) ([]models.AddonProduct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.addons.filter(func(a models.AddonProduct) bool {
		return matchCatalog(f, a.IsActive, a.Category)
	}), nil
}

func (r *MemoryRepo) UpdateAddon(ctx context.Context, id uint, patch models.ProductPatch) (models.AddonProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.addons.rows[id]
	if !ok {
		return models.AddonProduct{}, ErrNotFound
	}
	patch.ApplyAddon(&a)
	a.UpdatedAt = r.cfg.touch(a.UpdatedAt)
	r.addons.rows[id] = a
	return a, nil
}

func (r *MemoryRepo) DeleteAddon(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.addons.remove(id) {
		return false, nil
	}
	r.cart.removeWhere(func(c models.CartItem) bool { return c.IsAddon && c.ProductID == id })
	return true, nil
}

// cart

func (r *MemoryRepo) AddCartItem(ctx context.Context, item models.CartItem) (models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, line := range r.cart.rows {
		if line.UserID == item.UserID && line.ProductID == item.ProductID && line.IsAddon == item.IsAddon {
			line.Quantity += item.Quantity
			line.UpdatedAt = r.cfg.touch(line.UpdatedAt)
			r.cart.rows[id] = line
			return line, nil
		}
	}
	now := r.cfg.stamp()
	return r.cart.insert(func(id uint) models.CartItem {
		item.ID, item.CreatedAt, item.UpdatedAt = id, now, now
		return item
	}), nil
}

func (r *MemoryRepo) GetCartItem(ctx context.Context, id uint) (models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cart.rows[id]
	if !ok {
		return models.CartItem{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ListCartItems(ctx context.Context, userID uint) ([]models.CartItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cart.filter(func(c models.CartItem) bool { return c.UserID == userID }), nil
}

func (r *MemoryRepo) UpdateCartItem(ctx context.Context, id uint, quantity int) (models.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cart.rows[id]
	if !ok {
		return models.CartItem{}, ErrNotFound
	}
	c.Quantity = quantity
	c.UpdatedAt = r.cfg.touch(c.UpdatedAt)
	r.cart.rows[id] = c
	return c, nil
}

func (r *MemoryRepo) DeleteCartItem(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cart.remove(id), nil
}

func (r *MemoryRepo) ClearCart(ctx context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cart.removeWhere(func(c models.CartItem) bool { return c.UserID == userID })
	return nil
}

// orders

func (r *MemoryRepo) CreateOrder(ctx context.Context, o models.Order, items []models.OrderItem) (models.Order, []models.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.cfg.stamp()
	order := r.orders.insert(func(id uint) models.Order {
		o.ID, o.CreatedAt, o.UpdatedAt = id, now, now
		return o
	})
	stored := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		stored = append(stored, r.orderItems.insert(func(id uint) models.OrderItem {
			it.ID, it.OrderID, it.CreatedAt, it.UpdatedAt = id, order.ID, now, now
			return it
		}))
	}
	return order, stored, nil
}

func (r *MemoryRepo) GetOrder(ctx context.Context, id uint) (models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders.rows[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return o, nil
}

func (r *MemoryRepo) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.orders.filter(func(o models.Order) bool {
		if f.UserID != 0 && o.UserID != f.UserID {
			return false
		}
		return f.Status == "" || o.Status == f.Status
	}), nil
}

func (r *MemoryRepo) UpdateOrder(ctx context.Context, id uint, p models.OrderPatch) (models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders.rows[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	if p.ExpectStatus != "" && o.Status != p.ExpectStatus {
		return models.Order{}, ErrStaleStatus
	}
	p.Apply(&o)
	o.UpdatedAt = r.cfg.touch(o.UpdatedAt)
	r.orders.rows[id] = o
	return o, nil
}

func (r *MemoryRepo) DeleteOrder(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.orders.remove(id) {
		return false, nil
	}
	r.orderItems.removeWhere(func(it models.OrderItem) bool { return it.OrderID == id })
	r.revisions.removeWhere(func(rev models.OrderRevision) bool { return rev.OrderID == id })
	return true, nil
}

func (r *MemoryRepo) ListOrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.orderItems.filter(func(it models.OrderItem) bool { return it.OrderID == orderID }), nil
}

func (r *MemoryRepo) CreateOrderRevision(ctx context.Context, rev models.OrderRevision) (models.OrderRevision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders.rows[rev.OrderID]; !ok {
		return models.OrderRevision{}, ErrNotFound
	}
	now := r.cfg.stamp()
	return r.revisions.insert(func(id uint) models.OrderRevision {
		rev.ID, rev.CreatedAt, rev.UpdatedAt = id, now, now
		return rev
	}), nil
}

func (r *MemoryRepo) ListOrderRevisions(ctx context.Context, orderID uint) ([]models.OrderRevision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.revisions.filter(func(rev models.OrderRevision) bool { return rev.OrderID == orderID }), nil
}

// submissions

func (r *MemoryRepo) CreateSubmission(ctx context.Context, s models.Submission) (models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.cfg.stamp()
	return r.submissions.insert(func(id uint) models.Submission {
		s.ID, s.CreatedAt, s.UpdatedAt = id, now, now
		return s
	}), nil
}

func (r *MemoryRepo) GetSubmission(ctx context.Context, id uint) (models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.submissions.rows[id]
	if !ok {
		return models.Submission{}, ErrNotFound
	}
	return s, nil
}

func (r *MemoryRepo) ListSubmissions(ctx context.Context, f SubmissionFilter) ([]models.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.submissions.filter(func(s models.Submission) bool { return inSubmissionRange(s, f) }), nil
}

func (r *MemoryRepo) UpdateSubmission(ctx context.Context, id uint, p models.SubmissionPatch) (models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.submissions.rows[id]
	if !ok {
		return models.Submission{}, ErrNotFound
	}
	if p.ExpectStatus != "" && s.Status != p.ExpectStatus {
		return models.Submission{}, ErrStaleStatus
	}
	p.Apply(&s)
	s.UpdatedAt = r.cfg.touch(s.UpdatedAt)
	r.submissions.rows[id] = s
	return s, nil
}

func (r *MemoryRepo) DeleteSubmission(ctx context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.submissions.remove(id) {
		return false, nil
	}
	r.notes.removeWhere(func(n models.Note) bool { return n.SubmissionID == id })
	return true, nil
}

func (r *MemoryRepo) CreateNote(ctx context.Context, n models.Note) (models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.submissions.rows[n.SubmissionID]; !ok {
		return models.Note{}, ErrNotFound
	}
	now := r.cfg.stamp()
	return r.notes.insert(func(id uint) models.Note {
		n.ID, n.CreatedAt, n.UpdatedAt = id, now, now
		return n
	}), nil
}

func (r *MemoryRepo) ListNotes(ctx context.Context, submissionID uint) ([]models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.notes.filter(func(n models.Note) bool { return n.SubmissionID == submissionID }), nil
}

// audit

func (r *MemoryRepo) CreateAuditLog(ctx context.Context, a models.AuditLog) (models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.cfg.stamp()
	row := r.auditLogs.insert(func(id uint) models.AuditLog {
		a = a.Clone()
		a.ID, a.CreatedAt = id, now
		return a
	})
	return row.Clone(), nil
}

// ListAuditLogs returns newest first together with the unpaginated total.
func (r *MemoryRepo) ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.auditLogs.filter(func(a models.AuditLog) bool {
		return f.UserID == 0 || a.UserID == f.UserID
	})
	slices.Reverse(rows)
	total := int64(len(rows))

	start := min(max(f.Offset, 0), len(rows))
	end := len(rows)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(rows))
	}
	page := make([]models.AuditLog, 0, end-start)
	for _, a := range rows[start:end] {
		page = append(page, a.Clone())
	}
	return page, total, nil
}
