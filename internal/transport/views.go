package transport

import (
	"time"

	"github.com/Skotchmaster/agency_site/internal/models"
)

// UserResponse is the only shape a user leaves the API in; it has no password field.
type UserResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Website     string    `json:"website,omitempty"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func UserView(u models.User) UserResponse {
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Website:     u.Website,
		Role:        u.Role,
		Permissions: perms,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func UserViews(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserView(u))
	}
	return out
}

type LoginResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type CheckResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          UserResponse `json:"user"`
}

type CartLine struct {
	models.CartItem
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	LineTotal float64 `json:"lineTotal"`
}

type CartResponse struct {
	Items []CartLine `json:"items"`
	Total float64    `json:"total"`
}

type OrderDetail struct {
	models.Order
	Items     []models.OrderItem     `json:"items"`
	Revisions []models.OrderRevision `json:"revisions"`
}

type SubmissionDetail struct {
	models.Submission
	Notes []models.Note `json:"notes"`
}

type SearchHit struct {
	Kind        string  `json:"kind"`
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}
