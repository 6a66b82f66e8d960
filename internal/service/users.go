package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/agency_site/internal/logging"
	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
	"github.com/Skotchmaster/agency_site/internal/repo"
	"github.com/Skotchmaster/agency_site/internal/session"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

// UserService is the admin side of user management.
type UserService struct {
	Store  repo.Store
	Events mykafka.Publisher
	Audit  Auditor
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.Store.ListUsers(ctx)
}

func (s *UserService) Get(ctx context.Context, id uint) (models.User, error) {
	u, err := s.Store.GetUser(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, notFound("user")
	}
	return u, err
}

func (s *UserService) Create(ctx context.Context, caller session.Principal, req transport.CreateUserRequest) (models.User, error) {
	if !models.ValidRole(req.Role) {
		return models.User{}, invalid("unknown role %q", req.Role)
	}

	u, err := s.Store.CreateUser(ctx, models.NewUser{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
		Password:    req.Password,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		if errors.Is(err, repo.ErrEmailTaken) {
			return models.User{}, newErr(ErrConflict, "email already registered")
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	record(s.Audit, caller.ID, "user.create", map[string]any{"targetId": u.ID, "role": u.Role})
	publish(ctx, s.Events, mykafka.TopicUser, mykafka.NewEvent("user_created", u.ID, caller.ID, map[string]any{"role": u.Role}))
	return u, nil
}

func (s *UserService) Update(ctx context.Context, caller session.Principal, id uint, req transport.PatchUserRequest) (models.User, error) {
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			return models.User{}, invalid("unknown role %q", *req.Role)
		}
		if id == models.MainAdminID && *req.Role != models.RoleAdmin {
			return models.User{}, newErr(ErrProtectedUser, "main admin role cannot be changed")
		}
	}

	u, err := s.Store.UpdateUser(ctx, id, models.UserPatch{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Website:     req.Website,
		Password:    req.Password,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return models.User{}, notFound("user")
	case errors.Is(err, repo.ErrEmailTaken):
		return models.User{}, newErr(ErrConflict, "email already registered")
	case err != nil:
		return models.User{}, fmt.Errorf("update user: %w", err)
	}

	details := map[string]any{"targetId": id}
	if req.Role != nil {
		details["role"] = *req.Role
	}
	if req.Password != nil {
		details["passwordChanged"] = true
	}
	record(s.Audit, caller.ID, "user.update", details)
	publish(ctx, s.Events, mykafka.TopicUser, mykafka.NewEvent("user_updated", u.ID, caller.ID, nil))
	return u, nil
}

// Delete refuses the caller's own account before anything else, then the main admin.
func (s *UserService) Delete(ctx context.Context, caller session.Principal, id uint) error {
	l := logging.FromContext(ctx).With("svc", "users.delete")

	if id == caller.ID {
		l.Warn("delete_user_failed", "status", 400, "reason", "self delete")
		return invalid("cannot delete your own account")
	}
	if id == models.MainAdminID {
		l.Warn("delete_user_failed", "status", 403, "reason", "main admin")
		return newErr(ErrProtectedUser, "main admin cannot be deleted")
	}

	ok, err := s.Store.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !ok {
		return notFound("user")
	}

	record(s.Audit, caller.ID, "user.delete", map[string]any{"targetId": id})
	publish(ctx, s.Events, mykafka.TopicUser, mykafka.NewEvent("user_deleted", id, caller.ID, nil))
	return nil
}
