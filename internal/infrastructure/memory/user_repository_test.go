package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	"github.com/oksasatya/rbac-dashboard/internal/domain/repository"
)

func TestUserRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	saved, err := repo.Save(ctx, &entity.User{FullName: "Jane Doe", Email: "jane@x.com", Username: "jane", Password: "h"})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, entity.RoleUser, saved.Role)
	assert.False(t, saved.CreatedAt.IsZero())

	byID, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", byID.Username)

	byEmail, err := repo.FindByEmail(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byEmail.ID)

	byUsername, err := repo.FindByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byUsername.ID)

	either, err := repo.FindByEmailOrUsername(ctx, "nobody@x.com", "jane")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, either.ID)

	_, err = repo.FindByEmail(ctx, "JANE@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound, "email match is case-sensitive")
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	saved, err := repo.Save(ctx, &entity.User{Email: "a@x.com", Username: "a"})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	got.IsVerified = true

	again, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, again.IsVerified)
}

func TestUserRepository_Conflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	_, err := repo.Save(ctx, &entity.User{Email: "jane@x.com", Username: "jane"})
	require.NoError(t, err)

	_, err = repo.Save(ctx, &entity.User{Email: "jane@x.com", Username: "other"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = repo.Save(ctx, &entity.User{Email: "other@x.com", Username: "jane"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = repo.Save(ctx, &entity.User{ID: "missing", Email: "m@x.com", Username: "m"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdateKeepsOwnIdentity(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	saved, err := repo.Save(ctx, &entity.User{Email: "jane@x.com", Username: "jane"})
	require.NoError(t, err)

	saved.IsVerified = true
	_, err = repo.Save(ctx, saved)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, got.IsVerified)
}

func TestUserRepository_ConcurrentDuplicateRegistration(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	const n = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Save(ctx, &entity.User{Email: "race@x.com", Username: fmt.Sprintf("racer%d", i)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, repository.ErrConflict):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, conflicts)
	assert.Equal(t, 1, repo.Len())
}
