package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/rbac-dashboard/internal/interface/http"
	"github.com/oksasatya/rbac-dashboard/internal/interface/middleware"
)

// HealthModule serves readiness for load balancers. It is only reachable from
// private networks.
type HealthModule struct {
	Handler *handlers.HealthHandler
}

func NewHealthModule(h *handlers.HealthHandler) *HealthModule { return &HealthModule{Handler: h} }

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", middleware.OnlyPrivateIP(), m.Handler.Health)
}
