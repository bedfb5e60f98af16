package inbound

import (
	"context"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
)

type AuditUseCase interface {
	// Record publishes an event onto the audit queue, best effort. The
	// return value only says whether the event reached the queue.
	Record(ctx context.Context, event *entity.AuditEvent) bool

	FailedLogins(ctx context.Context, tenantID string) ([]*entity.AuditEvent, error)

	// AllFailedLogins aggregates failed logins across every registered
	// tenant plus the control-plane store, newest first. A tenant whose
	// store cannot be reached is skipped, not fatal.
	AllFailedLogins(ctx context.Context) ([]*entity.AuditEvent, error)

	TenantLogs(ctx context.Context, tenantID string, filter outbound.LogFilter) ([]*entity.AuditEvent, error)
}
