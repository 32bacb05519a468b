package memory

import (
	"context"
	"sync"

	"github.com/oksasatya/rbac-dashboard/internal/domain/repository"
)

type AuditRepository struct {
	mu      sync.Mutex
	entries []repository.AuditEntry
}

func NewAuditRepository() *AuditRepository { return &AuditRepository{} }

func (r *AuditRepository) Insert(_ context.Context, e repository.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

// Entries returns a copy of the recorded entries.
func (r *AuditRepository) Entries() []repository.AuditEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]repository.AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

var _ repository.AuditRepository = (*AuditRepository)(nil)
