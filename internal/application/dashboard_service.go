package application

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/rbac-dashboard/internal/domain/entity"
	"github.com/oksasatya/rbac-dashboard/internal/infrastructure/search"
)

// UserSearcher is implemented by search.UserIndex.
type UserSearcher interface {
	Search(ctx context.Context, q string, size int) ([]search.UserDoc, error)
}

type Viewer struct {
	ID   string      `json:"id"`
	Role entity.Role `json:"role"`
}

// Dashboard is the role-scoped payload behind /users/{admin,manager,user}.
type Dashboard struct {
	View    entity.Role      `json:"view"`
	User    Viewer           `json:"user"`
	Query   string           `json:"query,omitempty"`
	Results []search.UserDoc `json:"results,omitempty"`
}

type DashboardService struct {
	Search UserSearcher
	Logger logrus.FieldLogger
}

func NewDashboardService(s UserSearcher, logger logrus.FieldLogger) *DashboardService {
	return &DashboardService{Search: s, Logger: logger}
}

// Build returns the dashboard for view as seen by the caller. Only the admin
// view runs searches; a failing index yields an empty result list.
func (s *DashboardService) Build(ctx context.Context, view entity.Role, userID string, role entity.Role, q string) Dashboard {
	d := Dashboard{View: view, User: Viewer{ID: userID, Role: role}}
	q = strings.TrimSpace(q)
	if view != entity.RoleAdmin || q == "" || s.Search == nil {
		return d
	}
	d.Query = q
	hits, err := s.Search.Search(ctx, q, 20)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("query", q).Warn("user search failed")
		}
		hits = []search.UserDoc{}
	}
	d.Results = hits
	return d
}
