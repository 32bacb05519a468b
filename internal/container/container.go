package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-dashboard/config"
	"github.com/oksasatya/rbac-dashboard/internal/domain/repository"
	"github.com/oksasatya/rbac-dashboard/pkg/helpers"
	"github.com/oksasatya/rbac-dashboard/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client

	tokenManager *helpers.TokenManager

	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository

	mailTransport mailer.Transport
	rabbitPub     *helpers.RabbitPublisher
	esClient      *elasticsearch.Client

	metrics *prometheus.Registry
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger
}
func SetPGPool(p *pgxpool.Pool) { pgPool = p }
func GetPGPool() *pgxpool.Pool  { return pgPool }
func SetRedis(r *redis.Client)  { redisClient = r }
func GetRedis() *redis.Client   { return redisClient }

func SetTokens(m *helpers.TokenManager) { tokenManager = m }
func GetTokens() *helpers.TokenManager {
	if tokenManager == nil && cfg != nil {
		tokenManager = helpers.NewTokenManager(cfg.JWTSecret)
	}
	return tokenManager
}

func SetUserRepo(r repository.UserRepository)   { userRepo = r }
func GetUserRepo() repository.UserRepository    { return userRepo }
func SetAuditRepo(r repository.AuditRepository) { auditRepo = r }
func GetAuditRepo() repository.AuditRepository  { return auditRepo }

func SetMailTransport(t mailer.Transport)     { mailTransport = t }
func GetMailTransport() mailer.Transport      { return mailTransport }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

func SetMetrics(r *prometheus.Registry) { metrics = r }
func GetMetrics() *prometheus.Registry  { return metrics }

// Reset clears every singleton. Tests use it between cases.
func Reset() {
	cfg, logger, pgPool, redisClient = nil, nil, nil, nil
	tokenManager = nil
	userRepo, auditRepo = nil, nil
	mailTransport, rabbitPub, esClient = nil, nil, nil
	metrics = nil
}
