package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/rbac-dashboard/internal/application"
	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	"github.com/oksasatya/rbac-dashboard/internal/interface/middleware"
	"github.com/oksasatya/rbac-dashboard/pkg/response"
)

type DashboardHandler struct {
	Svc *application.DashboardService
}

func NewDashboardHandler(svc *application.DashboardService) *DashboardHandler {
	return &DashboardHandler{Svc: svc}
}

// View serves GET /api/users/<view>. Role checks happen in middleware.RequireRoles.
func (h *DashboardHandler) View(view entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c.Request.Context())
		if !ok {
			response.Error[any](c, http.StatusUnauthorized, middleware.MsgNoToken, nil)
			return
		}
		d := h.Svc.Build(c.Request.Context(), view, id.UserID, id.Role, c.Query("q"))
		response.Success(c, http.StatusOK, d, "Welcome to the "+string(view)+" dashboard", nil)
	}
}
