package ports

import (
	"context"

	"github.com/bactolab/lims/internal/core/domain"
)

// AuditRepository persists the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	// List returns the most recent entries, newest first.
	List(ctx context.Context, filter AuditFilter) ([]*domain.AuditEntry, error)
}

// AuditFilter narrows List. Zero fields do not filter.
type AuditFilter struct {
	Event domain.AuditEvent
	Actor string
	Limit int // capped at 200 by the repository
}

// AuditRecorder accepts entries without blocking the request that produced
// them.
type AuditRecorder interface {
	Record(entry domain.AuditEntry)
}
