package postgres

import (
	"context"
	"encoding/json"

	"github.com/samber/oops"

	"github.com/oksasatya/rbac-dashboard/internal/domain/repository"
)

type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, e repository.AuditEntry) error {
	md := e.Metadata
	if md == nil {
		md = map[string]any{}
	}
	b, err := json.Marshal(md)
	if err != nil {
		return oops.In("postgres").With("operation", "encode audit metadata").Wrap(err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_logs (user_id, email, action, ip, user_agent, metadata)
		VALUES (NULLIF($1, '')::uuid, NULLIF($2, ''), $3, NULLIF($4, ''), NULLIF($5, ''), $6)
	`, e.UserID, e.Email, e.Action, e.IP, e.UserAgent, b)
	if err != nil {
		return oops.In("postgres").With("operation", "insert audit log").With("action", e.Action).Wrap(err)
	}
	return nil
}

var _ repository.AuditRepository = (*AuditRepository)(nil)
