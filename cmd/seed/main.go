package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-dashboard/config"
	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	"github.com/oksasatya/rbac-dashboard/internal/domain/repository"
	pginfra "github.com/oksasatya/rbac-dashboard/internal/infrastructure/postgres"
	"github.com/oksasatya/rbac-dashboard/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), 2, 0, cfg.DBMaxConnLife)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	in := seedInput{
		FullName: cfg.SeedAdminName,
		Email:    cfg.SeedAdminEmail,
		Username: cfg.SeedAdminUsername,
		Password: cfg.SeedAdminPassword,
	}
	u, created, err := seedAdmin(ctx, pginfra.NewUserRepository(pool), in)
	if err != nil {
		logger.WithError(err).Error("failed to seed admin")
		os.Exit(1)
	}
	logger.WithFields(logrus.Fields{"id": u.ID, "username": u.Username, "created": created}).Info("admin account ready")
}

type seedInput struct {
	FullName string
	Email    string
	Username string
	Password string
}

// seedAdmin creates a verified admin, or promotes and verifies an existing
// account with the same username. The password of an existing account is kept.
func seedAdmin(ctx context.Context, users repository.UserRepository, in seedInput) (*entity.User, bool, error) {
	if in.Email == "" || in.Username == "" || len(in.Password) < 8 {
		return nil, false, errors.New("SEED_ADMIN_EMAIL, SEED_ADMIN_USERNAME and an 8+ character SEED_ADMIN_PASSWORD are required")
	}

	existing, err := users.FindByUsername(ctx, in.Username)
	switch {
	case err == nil:
		existing.Role = entity.RoleAdmin
		existing.IsVerified = true
		u, err := users.Save(ctx, existing)
		return u, false, err
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, false, err
	}
	u, err := users.Save(ctx, &entity.User{
		FullName:   in.FullName,
		Email:      in.Email,
		Username:   in.Username,
		Password:   hash,
		Role:       entity.RoleAdmin,
		IsVerified: true,
	})
	if errors.Is(err, repository.ErrConflict) {
		return nil, false, fmt.Errorf("email %s belongs to another account: %w", in.Email, err)
	}
	return u, err == nil, err
}
