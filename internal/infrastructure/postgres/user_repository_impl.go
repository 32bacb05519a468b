package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	"github.com/oksasatya/rbac-dashboard/internal/domain/repository"
)

const selectUser = `
		SELECT id, full_name, email, username, password_hash, role, is_verified,
		       password_changed_at, created_at, updated_at
		FROM users
`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error) {
	return r.findOne(ctx, "find user by email or username",
		selectUser+`WHERE email = $1 OR username = $2 LIMIT 1`, email, username)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, "find user by username", selectUser+`WHERE username = $1`, username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, "find user by email", selectUser+`WHERE email = $1`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, "find user by id", selectUser+`WHERE id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, op, query string, args ...any) (*entity.User, error) {
	u := &entity.User{}
	var (
		role      string
		changedAt *time.Time
	)
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.FullName, &u.Email, &u.Username, &u.Password, &role, &u.IsVerified,
		&changedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, repository.ErrNotFound
		}
		return nil, oops.In("postgres").With("operation", op).Wrap(err)
	}
	u.Role = entity.Role(role)
	if changedAt != nil {
		u.PasswordChangedAt = *changedAt
	}
	return u, nil
}

// Save inserts a new user (empty ID) or updates an existing one. Unique
// constraints on email and username turn concurrent duplicates into ErrConflict.
func (r *UserRepository) Save(ctx context.Context, u *entity.User) (*entity.User, error) {
	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	if u.ID == "" {
		return r.insert(ctx, u)
	}
	return r.update(ctx, u)
}

func (r *UserRepository) insert(ctx context.Context, u *entity.User) (*entity.User, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (full_name, email, username, password_hash, role, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, u.FullName, u.Email, u.Username, u.Password, string(u.Role), u.IsVerified).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, oops.In("postgres").With("operation", "insert user").With("email", u.Email).Wrap(err)
	}
	return u, nil
}

func (r *UserRepository) update(ctx context.Context, u *entity.User) (*entity.User, error) {
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET full_name = $1, email = $2, username = $3, password_hash = $4, role = $5,
		    is_verified = $6, password_changed_at = $7, updated_at = now()
		WHERE id = $8
		RETURNING updated_at
	`, u.FullName, u.Email, u.Username, u.Password, string(u.Role), u.IsVerified,
		nullableTime(u.PasswordChangedAt), u.ID).
		Scan(&u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows), isInvalidText(err):
			return nil, repository.ErrNotFound
		case isUniqueViolation(err):
			return nil, repository.ErrConflict
		}
		return nil, oops.In("postgres").With("operation", "update user").With("user_id", u.ID).Wrap(err)
	}
	return u, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var _ repository.UserRepository = (*UserRepository)(nil)
