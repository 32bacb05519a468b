package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/rbac-dashboard/internal/interface/middleware"
)

// DebugModule serves runtime diagnostics: expvar at /debug/vars and the
// Prometheus registry at /debug/metrics.
type DebugModule struct {
	Redis    *redis.Client
	Registry *prometheus.Registry
}

func NewDebugModule(rdb *redis.Client, reg *prometheus.Registry) *DebugModule {
	return &DebugModule{Redis: rdb, Registry: reg}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// rate-limited per IP; private networks are not limited
	rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	if m.Registry != nil {
		rg.GET("/debug/metrics", rl, gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
