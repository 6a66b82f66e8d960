package repo

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Skotchmaster/agency_site/internal/hash"
	"github.com/Skotchmaster/agency_site/internal/models"
)

var (
	// ErrNotFound is the absent marker every getter, updater and child-creator returns
	// for an id that does not exist.
	ErrNotFound           = errors.New("record not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStaleStatus means another writer changed the status since the caller read it.
	ErrStaleStatus = errors.New("status changed concurrently")
)

type ProductFilter struct {
	ActiveOnly bool
	Category   string
}

type OrderFilter struct {
	UserID uint
	Status string
}

// SubmissionFilter bounds are inclusive; nil means unbounded.
type SubmissionFilter struct {
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

type AuditFilter struct {
	UserID uint
	Offset int
	Limit  int
}

// Store is the storage contract. Every returned value is a copy owned by the caller.
type Store interface {
	CreateUser(ctx context.Context, nu models.NewUser) (models.User, error)
	GetUser(ctx context.Context, id uint) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id uint, p models.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id uint) (bool, error)
	ValidateCredentials(ctx context.Context, email, password string) (models.User, error)

	CreateProduct(ctx context.Context, p models.Product) (models.Product, error)
	GetProduct(ctx context.Context, id uint) (models.Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id uint, p models.ProductPatch) (models.Product, error)
	DeleteProduct(ctx context.Context, id uint) (bool, error)

	CreateAddon(ctx context.Context, a models.AddonProduct) (models.AddonProduct, error)
	GetAddon(ctx context.Context, id uint) (models.AddonProduct, error)
	ListAddons(ctx context.Context, f ProductFilter) ([]models.AddonProduct, error)
	UpdateAddon(ctx context.Context, id uint, p models.ProductPatch) (models.AddonProduct, error)
	DeleteAddon(ctx context.Context, id uint) (bool, error)

	// AddCartItem merges into an existing line for the same user and catalog item.
	AddCartItem(ctx context.Context, item models.CartItem) (models.CartItem, error)
	GetCartItem(ctx context.Context, id uint) (models.CartItem, error)
	ListCartItems(ctx context.Context, userID uint) ([]models.CartItem, error)
	UpdateCartItem(ctx context.Context, id uint, quantity int) (models.CartItem, error)
	DeleteCartItem(ctx context.Context, id uint) (bool, error)
	ClearCart(ctx context.Context, userID uint) error

	CreateOrder(ctx context.Context, o models.Order, items []models.OrderItem) (models.Order, []models.OrderItem, error)
	GetOrder(ctx context.Context, id uint) (models.Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error)
	UpdateOrder(ctx context.Context, id uint, p models.OrderPatch) (models.Order, error)
	DeleteOrder(ctx context.Context, id uint) (bool, error)
	ListOrderItems(ctx context.Context, orderID uint) ([]models.OrderItem, error)
	CreateOrderRevision(ctx context.Context, rev models.OrderRevision) (models.OrderRevision, error)
	ListOrderRevisions(ctx context.Context, orderID uint) ([]models.OrderRevision, error)

	CreateSubmission(ctx context.Context, s models.Submission) (models.Submission, error)
	GetSubmission(ctx context.Context, id uint) (models.Submission, error)
	ListSubmissions(ctx context.Context, f SubmissionFilter) ([]models.Submission, error)
	UpdateSubmission(ctx context.Context, id uint, p models.SubmissionPatch) (models.Submission, error)
	DeleteSubmission(ctx context.Context, id uint) (bool, error)
	CreateNote(ctx context.Context, n models.Note) (models.Note, error)
	ListNotes(ctx context.Context, submissionID uint) ([]models.Note, error)

	CreateAuditLog(ctx context.Context, a models.AuditLog) (models.AuditLog, error)
	ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, int64, error)

	Ping(ctx context.Context) error
}

type Option func(*settings)

type settings struct {
	now func() time.Time
}

// WithClock replaces time.Now for timestamping.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func buildSettings(opts []Option) settings {
	s := settings{now: time.Now}
	for _, o := range opts {
		o(&s)
	}
	return s
}

func (s settings) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// touch returns a timestamp strictly after prev.
func (s settings) touch(prev time.Time) time.Time {
	now := s.stamp()
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}

func newUserRow(nu models.NewUser, pwHash string, now time.Time) models.User {
	role := nu.Role
	if role == "" {
		role = models.RoleUser
	}
	perms := slices.Clone(nu.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return models.User{
		Name:         strings.TrimSpace(nu.Name),
		Email:        strings.TrimSpace(nu.Email),
		EmailKey:     models.NormalizeEmail(nu.Email),
		Phone:        nu.Phone,
		Website:      nu.Website,
		PasswordHash: pwHash,
		Role:         role,
		Permissions:  perms,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func inSubmissionRange(s models.Submission, f SubmissionFilter) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.StartDate != nil && s.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && s.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}

// credentialChecker compares against a throwaway hash when the email is unknown,
// so both failure paths cost one hash comparison.
type credentialChecker struct {
	hasher hash.Hasher
	once   sync.Once
	dummy  string
}

func (c *credentialChecker) verify(u *models.User, password string) bool {
	if u == nil {
		c.once.Do(func() {
			c.dummy, _ = c.hasher.Hash("not-a-real-password")
		})
		c.hasher.Compare(c.dummy, password)
		return false
	}
	return c.hasher.Compare(u.PasswordHash, password)
}
