package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	handlers "github.com/oksasatya/rbac-dashboard/internal/interface/http"
	"github.com/oksasatya/rbac-dashboard/internal/interface/middleware"
	"github.com/oksasatya/rbac-dashboard/pkg/helpers"
)

// UserModule wires the role dashboards. Every route needs a session token:
//
//	GET /users/admin    admin
//	GET /users/manager  admin, manager
//	GET /users/user     admin, manager, user
type UserModule struct {
	Handler *handlers.DashboardHandler
	Tokens  *helpers.TokenManager
	Redis   *redis.Client
}

func NewUserModule(h *handlers.DashboardHandler, tokens *helpers.TokenManager, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Tokens: tokens, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.Auth(m.Tokens))
	users.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		users.GET("/admin", middleware.RequireRoles(entity.RoleAdmin), m.Handler.View(entity.RoleAdmin))
		users.GET("/manager", middleware.RequireRoles(entity.RoleAdmin, entity.RoleManager), m.Handler.View(entity.RoleManager))
		users.GET("/user", middleware.RequireRoles(entity.Roles...), m.Handler.View(entity.RoleUser))
	}
}
