package ports

import (
	"context"

	"github.com/ednar28/user-admin/internal/core/domain"
)

// AuditLog accepts audit events without blocking the caller.
type AuditLog interface {
	Record(event domain.AuditEvent)
}

// AuditRepository is the durable sink behind AuditLog.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.AuditEvent) error
}

// AuditReader reads back the trail of one user.
type AuditReader interface {
	ForTarget(ctx context.Context, targetID int64, limit int64) ([]domain.AuditEvent, error)
}
