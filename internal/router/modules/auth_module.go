package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/rbac-dashboard/internal/interface/http"
	"github.com/oksasatya/rbac-dashboard/internal/interface/middleware"
)

// AuthModule wires the public account endpoints under /auth.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Redis   *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, Redis: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Public endpoints with IP-based rate limits
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIP(), nil)
	mailLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	confirmLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	auth := rg.Group("/auth")
	auth.POST("/register", mailLimiter, m.Handler.Register)
	auth.GET("/verify-email", confirmLimiter, m.Handler.VerifyEmail)
	auth.POST("/login", loginLimiter, m.Handler.Login)
	auth.POST("/resend-verification", mailLimiter, m.Handler.ResendVerification)
	auth.POST("/forgot-password", mailLimiter, m.Handler.ForgotPassword)
	auth.POST("/reset-password", confirmLimiter, m.Handler.ResetPassword)
}
