package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	"github.com/oksasatya/rbac-dashboard/internal/domain/repository"
	"github.com/oksasatya/rbac-dashboard/internal/infrastructure/memory"
	"github.com/oksasatya/rbac-dashboard/pkg/helpers"
)

var admin = seedInput{FullName: "Admin", Email: "admin@x.com", Username: "admin", Password: "Adm1nP@ss"}

func TestSeedAdmin_Creates(t *testing.T) {
	repo := memory.NewUserRepository()
	u, created, err := seedAdmin(context.Background(), repo, admin)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, entity.RoleAdmin, u.Role)
	assert.True(t, u.IsVerified)
	assert.True(t, helpers.CompareHashAndPassword(u.Password, admin.Password))
}

func TestSeedAdmin_PromotesExisting(t *testing.T) {
	repo := memory.NewUserRepository()
	_, err := repo.Save(context.Background(), &entity.User{Email: "admin@x.com", Username: "admin", Password: "keep"})
	require.NoError(t, err)

	u, created, err := seedAdmin(context.Background(), repo, admin)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, entity.RoleAdmin, u.Role)
	assert.True(t, u.IsVerified)
	assert.Equal(t, "keep", u.Password)
	assert.Equal(t, 1, repo.Len())
}

func TestSeedAdmin_Errors(t *testing.T) {
	repo := memory.NewUserRepository()
	_, _, err := seedAdmin(context.Background(), repo, seedInput{Username: "admin", Email: "a@x.com", Password: "short"})
	assert.Error(t, err)

	_, err = repo.Save(context.Background(), &entity.User{Email: "admin@x.com", Username: "someone"})
	require.NoError(t, err)
	_, _, err = seedAdmin(context.Background(), repo, admin)
	assert.ErrorIs(t, err, repository.ErrConflict)
}
