package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/metrics"
	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/revocation"
	"github.com/Skotchmaster/agency_site/internal/tokens"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

type AuthService struct {
	Store   repo.Store
	Tokens  *tokens.Issuer
	Revoked revocation.Store
	Events  mykafka.Publisher
	Metrics *metrics.Metrics
}

type LoginResult struct {
	User  models.User
	Token tokens.Issued
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return models.User{}, invalid("name, email and password are required")
	}
	if req.Password != req.ConfirmPassword {
		return models.User{}, invalid("passwords do not match")
	}

	u, err := s.Store.CreateUser(ctx, models.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Website:  req.Website,
		Password: req.Password,
		Role:     models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			l.Warn("register_failed", "status", 409, "reason", "email already registered")
			return models.User{}, newErr(ErrConflict, "email already registered")
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	s.Metrics.Registered()
	publish(ctx, s.Events, mykafka.TopicUser, mykafka.NewEvent("user_registered", u.ID, u.ID, map[string]any{"email": u.Email}))
	l.Info("register_success", "user_id", u.ID)
	return u, nil
}

// Login does not tell an unknown email apart from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, invalid("email and password are required")
	}

	u, err := s.Store.ValidateCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			s.Metrics.LoginFailed()
			l.Warn("login_failed", "status", 401, "reason", "invalid credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("validate credentials: %w", err)
	}

	issued, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	l.Info("login_success", "user_id", u.ID)
	return &LoginResult{User: u, Token: issued}, nil
}

// LogOut revokes the presented token until it would have expired anyway.
// Missing or already invalid tokens need no revocation.
func (s *AuthService) LogOut(ctx context.Context, rawToken string) error {
	if rawToken == "" || s.Revoked == nil {
		return nil
	}
	p, exp, err := s.Tokens.Parse(rawToken)
	if err != nil {
		return nil
	}
	if err := s.Revoked.Revoke(ctx, p.TokenID, exp); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (models.User, error) {
	u, err := s.Store.GetUser(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, notFound("user")
	}
	return u, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, req transport.PatchProfileRequest) (models.User, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return models.User{}, invalid("name cannot be empty")
	}

	u, err := s.Store.UpdateUser(ctx, userID, models.UserPatch{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Website: req.Website,
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return models.User{}, notFound("user")
	case errors.Is(err, repo.ErrEmailTaken):
		return models.User{}, newErr(ErrConflict, "email already registered")
	case err != nil:
		return models.User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uint, req transport.ChangePasswordRequest) error {
	l := logging.FromContext(ctx).With("svc", "auth.change_password")

	if req.NewPassword != req.ConfirmPassword {
		return invalid("passwords do not match")
	}

	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.Store.ValidateCredentials(ctx, u.Email, req.CurrentPassword); err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			l.Warn("change_password_failed", "status", 400, "reason", "current password incorrect")
			return newErr(ErrWrongPassword, "current password incorrect")
		}
		return fmt.Errorf("validate credentials: %w", err)
	}

	if _, err := s.Store.UpdateUser(ctx, userID, models.UserPatch{Password: &req.NewPassword}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	l.Info("change_password_success", "user_id", userID)
	return nil
}
