package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
)

var (
	// ErrNotFound means no record matched; it signals absence, not failure.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the email or username is already taken.
	ErrConflict = errors.New("email or username already exists")
)

// UserRepository defines the credential store operations.
// Save inserts when ID is empty and updates otherwise; the store alone enforces
// unique email and username.
type UserRepository interface {
	FindByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	Save(ctx context.Context, u *entity.User) (*entity.User, error)
}
