package services

import (
	"context"
	"encoding/json"
	"testing"

	"invite-portal/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.userService.CreateUser(ctx, &CreateUserInput{
		Email:    " new@example.com ",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, "new", user.Username)
	assert.Equal(t, domain.TierPending, user.Tier)
	assert.NotZero(t, user.ID)

	stored, err := env.users.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "secret1", stored.PasswordDigest)

	_, err = env.userService.CreateUser(ctx, &CreateUserInput{Email: "new@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestCreateUser_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.userService.CreateUser(context.Background(), &CreateUserInput{
		Email:    "nope",
		Password: "123",
		Username: "ab",
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{
		"Invalid email address",
		"Password must be at least 6 characters long",
		"Username must be at least 3 characters long",
	}, verr.Reasons)
}

func TestUserResponses_NeverCarryDigest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.database.Init(ctx))

	users, err := env.userService.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	raw, err := json.Marshal(users)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "passwordDigest")
	assert.NotContains(t, string(raw), "$2a$")
}

func TestUpdateAndDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.userService.CreateUser(ctx, &CreateUserInput{Email: "u@example.com", Password: "secret1", Username: "someone"})
	require.NoError(t, err)

	bogus := domain.Tier("royalty")
	_, err = env.userService.UpdateUser(ctx, created.ID, &UpdateUserInput{Tier: &bogus})
	assert.ErrorIs(t, err, domain.ErrInvalidTier)

	premium := domain.TierPremium
	name := "renamed"
	updated, err := env.userService.UpdateUser(ctx, created.ID, &UpdateUserInput{Tier: &premium, Username: &name})
	require.NoError(t, err)
	assert.Equal(t, domain.TierPremium, updated.Tier)
	assert.Equal(t, "renamed", updated.Username)
	assert.Equal(t, created.ID, updated.ID)

	missing, err := env.userService.UpdateUser(ctx, 999, &UpdateUserInput{Tier: &premium})
	require.NoError(t, err)
	assert.Nil(t, missing)

	byEmail, err := env.userService.GetUserByEmail(ctx, "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	deleted, err := env.userService.DeleteUser(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, "u@example.com", deleted.Email)

	gone, err := env.userService.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	again, err := env.userService.DeleteUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
}
