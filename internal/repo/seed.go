package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/agency_site/internal/models"
)

type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

var AllPermissions = []string{
	models.PermManageProducts,
	models.PermManageOrders,
	models.PermManageSubmissions,
	models.PermDelete,
	models.PermViewAudit,
}

var seedProducts = []models.Product{
	{Name: "Starter Website", Description: "Five page responsive site with contact form", Price: 1500, Category: "web", IsActive: true},
	{Name: "E-commerce Store", Description: "Online shop with catalog, cart and checkout", Price: 4500, Category: "web", IsActive: true},
	{Name: "SEO Audit", Description: "Technical and content audit with action plan", Price: 500, Category: "seo", IsActive: true},
	{Name: "Social Media Management", Description: "Monthly content calendar and posting", Price: 800, Category: "marketing", IsActive: true},
}

var seedAddons = []models.AddonProduct{
	{Name: "Extra Landing Page", Description: "One additional conversion focused page", Price: 300, Category: "web", IsActive: true},
	{Name: "Copywriting Pack", Description: "Copy for up to five pages", Price: 250, Category: "content", IsActive: true},
	{Name: "Monthly Analytics Report", Description: "Traffic and conversion report", Price: 150, Category: "marketing", IsActive: true},
}

// Seed creates the bootstrap admin and the starter catalog when they are missing.
// It checks existing rows each time, so repeated calls never duplicate anything.
func Seed(ctx context.Context, s Store, cfg SeedConfig) error {
	if err := seedAdmin(ctx, s, cfg); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	products, err := s.ListProducts(ctx, ProductFilter{})
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if len(products) == 0 {
		for _, p := range seedProducts {
			if _, err := s.CreateProduct(ctx, p); err != nil {
				return fmt.Errorf("seed products: %w", err)
			}
		}
	}

	addons, err := s.ListAddons(ctx, ProductFilter{})
	if err != nil {
		return fmt.Errorf("seed addons: %w", err)
	}
	if len(addons) == 0 {
		for _, a := range seedAddons {
			if _, err := s.CreateAddon(ctx, a); err != nil {
				return fmt.Errorf("seed addons: %w", err)
			}
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, s Store, cfg SeedConfig) error {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			return nil
		}
	}

	name := cfg.AdminName
	if name == "" {
		name = "Administrator"
	}
	_, err = s.CreateUser(ctx, models.NewUser{
		Name:        name,
		Email:       cfg.AdminEmail,
		Password:    cfg.AdminPassword,
		Role:        models.RoleAdmin,
		Permissions: AllPermissions,
	})
	if !errors.Is(err, ErrEmailTaken) {
		return err
	}

	// the configured address already belongs to a regular account
	existing, err := s.GetUserByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		return err
	}
	role := models.RoleAdmin
	perms := AllPermissions
	_, err = s.UpdateUser(ctx, existing.ID, models.UserPatch{Role: &role, Permissions: &perms})
	return err
}
