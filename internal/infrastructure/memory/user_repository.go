// Package memory is an in-process credential store for local runs and tests.
// It keeps the same uniqueness guarantees as the Postgres store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	"github.com/oksasatya/rbac-dashboard/internal/domain/repository"
)

type UserRepository struct {
	mu   sync.RWMutex
	byID map[string]*entity.User
	now  func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{byID: make(map[string]*entity.User), now: time.Now}
}

func (r *UserRepository) FindByEmailOrUsername(_ context.Context, email, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email || u.Username == username })
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username })
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Email == email })
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) find(match func(*entity.User) bool) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byID {
		if match(u) {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

// Save checks uniqueness and writes under one lock, so two racing
// registrations for the same email cannot both succeed.
func (r *UserRepository) Save(_ context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID != "" {
		if _, ok := r.byID[u.ID]; !ok {
			return nil, repository.ErrNotFound
		}
	}
	for id, other := range r.byID {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email || other.Username == u.Username {
			return nil, repository.ErrConflict
		}
	}

	now := r.now()
	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	r.byID[u.ID] = u.Clone()
	return u, nil
}

// Len returns the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

var _ repository.UserRepository = (*UserRepository)(nil)
