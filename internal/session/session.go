package session

import (
	"context"
	"slices"

	"github.com/Skotchmaster/agency_site/internal/models"
)

// Principal is the identity attached to an authenticated request.
type Principal struct {
	ID          uint     `json:"id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	TokenID     string   `json:"-"`
}

// HasCapability is the single place where admins bypass explicit permissions.
func (p Principal) HasCapability(capability string) bool {
	if p.Role == models.RoleAdmin {
		return true
	}
	return slices.Contains(p.Permissions, capability)
}

func (p Principal) HasRole(roles ...string) bool {
	return slices.Contains(roles, p.Role)
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
