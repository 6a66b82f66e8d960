package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/mykafka"
	"github.com/Skotchmaster/agency_site/internal/transport"
)

func bob() transport.RegisterRequest {
	return transport.RegisterRequest{
		Name:            "Bob",
		Email:           "bob@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(newStore())

	u, err := svc.Register(ctx, bob())
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Equal(t, []string{"user_registered"}, svc.Events.(*recPublisher).types(mykafka.TopicUser))

	res, err := svc.Login(ctx, "BOB@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	require.NotEmpty(t, res.Token.Token)

	p, _, err := svc.Tokens.Parse(res.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.ID)
	assert.Equal(t, "bob@x.com", p.Email)
	assert.Equal(t, models.RoleUser, p.Role)
}

func TestAuthService_LoginFailuresLookAlike(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(newStore())
	_, err := svc.Register(ctx, bob())
	require.NoError(t, err)

	_, wrongPass := svc.Login(ctx, "bob@x.com", "wrongpass")
	_, noUser := svc.Login(ctx, "nobody@x.com", "secret1")

	assert.ErrorIs(t, wrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, noUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPass.Error(), noUser.Error())

	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_Register_Rejects(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	svc := newAuthService(store)

	req := bob()
	req.ConfirmPassword = "different"
	_, err := svc.Register(ctx, req)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "passwords do not match", Message(err))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = svc.Register(ctx, bob())
	require.NoError(t, err)

	dup := bob()
	dup.Email = "Bob@X.com"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAuthService_LogOut(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(newStore())
	_, err := svc.Register(ctx, bob())
	require.NoError(t, err)
	res, err := svc.Login(ctx, "bob@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.LogOut(ctx, ""))
	require.NoError(t, svc.LogOut(ctx, "not-a-token"))
	require.NoError(t, svc.LogOut(ctx, res.Token.Token))

	revoked, err := svc.Revoked.IsRevoked(ctx, res.Token.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(newStore())
	u, err := svc.Register(ctx, bob())
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.ID, transport.ChangePasswordRequest{
		CurrentPassword: "nope", NewPassword: "secret2", ConfirmPassword: "secret2",
	})
	require.ErrorIs(t, err, ErrWrongPassword)
	assert.Equal(t, "current password incorrect", Message(err))

	err = svc.ChangePassword(ctx, u.ID, transport.ChangePasswordRequest{
		CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "secret3",
	})
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, transport.ChangePasswordRequest{
		CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "secret2",
	}))

	_, err = svc.Login(ctx, "bob@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "bob@x.com", "secret2")
	assert.NoError(t, err)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	store := newStore()
	svc := newAuthService(store)
	mustUser(t, store, "taken@x.com", models.RoleUser)
	u, err := svc.Register(ctx, bob())
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, u.ID, transport.PatchProfileRequest{
		Name:  ptr("Robert"),
		Phone: ptr("+1 555"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Robert", updated.Name)
	assert.Equal(t, "+1 555", updated.Phone)
	assert.Equal(t, "bob@x.com", updated.Email)

	_, err = svc.UpdateProfile(ctx, u.ID, transport.PatchProfileRequest{Email: ptr("TAKEN@x.com")})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.UpdateProfile(ctx, 999, transport.PatchProfileRequest{Name: ptr("Ghost")})
	assert.ErrorIs(t, err, ErrNotFound)
}
