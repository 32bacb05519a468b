package router

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/oksasatya/rbac-dashboard/internal/application"
	"github.com/oksasatya/rbac-dashboard/internal/container"
	"github.com/oksasatya/rbac-dashboard/internal/infrastructure/memory"
	"github.com/oksasatya/rbac-dashboard/internal/infrastructure/search"
	handlers "github.com/oksasatya/rbac-dashboard/internal/interface/http"
	"github.com/oksasatya/rbac-dashboard/internal/router/modules"
	"github.com/oksasatya/rbac-dashboard/pkg/helpers"
	"github.com/oksasatya/rbac-dashboard/pkg/mailer"
)

type AuthModuleDeps struct {
	Service   *application.AuthService
	Dashboard *application.DashboardService
	Auth      *handlers.AuthHandler
	Users     *handlers.DashboardHandler
	Health    *handlers.HealthHandler
}

func buildDeps() AuthModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	repo := container.GetUserRepo()
	if repo == nil {
		repo = memory.NewUserRepository()
		container.SetUserRepo(repo)
	}
	transport := container.GetMailTransport()
	if transport == nil {
		transport = mailer.LogTransport{Logger: logger}
	}
	dispatcher := mailer.NewDispatcher(mailer.Config{
		AppName:     cfg.AppName,
		CompanyName: cfg.CompanyName,
		SupportURL:  cfg.SupportURL,
	}, transport)

	index := search.NewUserIndex(container.GetES(), cfg.ESUsersIndex)

	service := application.NewAuthService(
		repo,
		container.GetTokens(),
		dispatcher,
		index,
		application.Links{
			VerifyEmailURL:   cfg.VerifyEmailURL(),
			ResetPasswordURL: cfg.ResetPasswordURL(),
		},
		logger,
	)
	dashboards := application.NewDashboardService(index, logger)

	return AuthModuleDeps{
		Service:   service,
		Dashboard: dashboards,
		Auth:      handlers.NewAuthHandler(service, container.GetAuditRepo(), logger),
		Users:     handlers.NewDashboardHandler(dashboards),
		Health:    handlers.NewHealthHandler(healthChecks()),
	}
}

// metricsRegistry returns the process registry, creating it with the runtime
// collectors and the handler metrics on first use.
func metricsRegistry() *prometheus.Registry {
	if reg := container.GetMetrics(); reg != nil {
		return reg
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handlers.RegisterMetrics(reg)
	container.SetMetrics(reg)
	return reg
}

// healthChecks checks whichever backing services were configured at startup.
func healthChecks() map[string]handlers.Check {
	checks := map[string]handlers.Check{}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pool.Ping
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	if es := container.GetES(); es != nil {
		checks["elasticsearch"] = func(ctx context.Context) error { return helpers.ESReady(ctx, es) }
	}
	if pub := container.GetRabbitPub(); pub != nil {
		checks["rabbitmq"] = func(context.Context) error {
			if !pub.Healthy() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	return checks
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildDeps()
	rdb := container.GetRedis()

	r.Add(
		modules.NewAuthModule(deps.Auth, rdb),
		modules.NewUserModule(deps.Users, container.GetTokens(), rdb),
		modules.NewHealthModule(deps.Health),
	)
	if cfg := container.GetConfig(); cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb, metricsRegistry()))
	}
}
