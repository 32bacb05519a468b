package repository

import "context"

// AuditEntry is one authentication event.
type AuditEntry struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
}

// AuditRepository appends audit entries. Writes are best-effort.
type AuditRepository interface {
	Insert(ctx context.Context, e AuditEntry) error
}
