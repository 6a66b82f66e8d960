package models

import (
	"maps"
	"slices"
	"strings"
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// MainAdminID is the bootstrap admin; it can never be deleted.
const MainAdminID uint = 1

const (
	PermManageProducts    = "manage_products"
	PermManageOrders      = "manage_orders"
	PermManageSubmissions = "manage_submissions"
	PermDelete            = "delete"
	PermViewAudit         = "view_audit"
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name         string    `gorm:"not null"                  json:"name"`
	Email        string    `gorm:"not null"                  json:"email"`
	EmailKey     string    `gorm:"uniqueIndex;not null"      json:"-"`
	Phone        string    `                                 json:"phone,omitempty"`
	Website      string    `                                 json:"website,omitempty"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         string    `gorm:"not null;index"            json:"role"`
	Permissions  []string  `gorm:"serializer:json"           json:"permissions"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"      json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"      json:"updatedAt"`
}

func (u User) Clone() User {
	u.Permissions = slices.Clone(u.Permissions)
	return u
}

// NewUser carries the plaintext password only until the store hashes it.
type NewUser struct {
	Name        string
	Email       string
	Phone       string
	Website     string
	Password    string
	Role        string
	Permissions []string
}

type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Description string    `gorm:"not null"                  json:"description"`
	Price       float64   `gorm:"not null"                  json:"price"`
	Category    string    `gorm:"index"                     json:"category"`
	IsActive    bool      `gorm:"not null"                  json:"isActive"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"      json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"      json:"updatedAt"`
}

type AddonProduct struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Description string    `gorm:"not null"                  json:"description"`
	Price       float64   `gorm:"not null"                  json:"price"`
	Category    string    `gorm:"index"                     json:"category"`
	IsActive    bool      `gorm:"not null"                  json:"isActive"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"      json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"      json:"updatedAt"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID    uint      `gorm:"index;not null"            json:"userId"`
	ProductID uint      `gorm:"not null"                  json:"productId"`
	IsAddon   bool      `gorm:"not null"                  json:"isAddon"`
	Quantity  int       `gorm:"not null;check:quantity>0" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"      json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"      json:"updatedAt"`
}

type Order struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID        uint      `gorm:"index;not null"            json:"userId"`
	ContactName   string    `gorm:"not null"                  json:"contactName"`
	ContactEmail  string    `gorm:"not null"                  json:"contactEmail"`
	ContactPhone  string    `                                 json:"contactPhone,omitempty"`
	Company       string    `                                 json:"company,omitempty"`
	Notes         string    `                                 json:"notes,omitempty"`
	Status        string    `gorm:"not null;index"            json:"status"`
	TotalAmount   float64   `gorm:"not null"                  json:"totalAmount"`
	PaymentStatus string    `gorm:"not null"                  json:"paymentStatus"`
	CreatedAt     time.Time `gorm:"autoCreateTime:false"      json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false"      json:"updatedAt"`
}

type OrderItem struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	OrderID   uint      `gorm:"index;not null"            json:"orderId"`
	ProductID uint      `gorm:"not null"                  json:"productId"`
	IsAddon   bool      `gorm:"not null"                  json:"isAddon"`
	Name      string    `gorm:"not null"                  json:"name"`
	Price     float64   `gorm:"not null"                  json:"price"`
	Quantity  int       `gorm:"not null"                  json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"      json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"      json:"updatedAt"`
}

type OrderRevision struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	OrderID     uint      `gorm:"index;not null"            json:"orderId"`
	UserID      uint      `gorm:"not null"                  json:"userId"`
	Description string    `gorm:"not null"                  json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"      json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"      json:"updatedAt"`
}

// Submission is a contact-form lead.
type Submission struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name      string    `gorm:"not null"                  json:"name"`
	Email     string    `gorm:"not null"                  json:"email"`
	Phone     string    `                                 json:"phone,omitempty"`
	Website   string    `                                 json:"website,omitempty"`
	Company   string    `                                 json:"company,omitempty"`
	Service   string    `                                 json:"service,omitempty"`
	Message   string    `                                 json:"message"`
	Status    string    `gorm:"not null;index"            json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"      json:"updatedAt"`
}

type Note struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	SubmissionID uint      `gorm:"index;not null"            json:"submissionId"`
	UserID       uint      `gorm:"not null"                  json:"userId"`
	Content      string    `gorm:"not null"                  json:"content"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"      json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"      json:"updatedAt"`
}

// AuditLog rows are append-only.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID    uint           `gorm:"index;not null"            json:"userId"`
	Action    string         `gorm:"not null"                  json:"action"`
	IPAddress string         `                                 json:"ipAddress,omitempty"`
	UserAgent string         `                                 json:"userAgent,omitempty"`
	Details   map[string]any `gorm:"serializer:json"           json:"details,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime:false;index" json:"createdAt"`
}

func (a AuditLog) Clone() AuditLog {
	a.Details = maps.Clone(a.Details)
	return a
}
