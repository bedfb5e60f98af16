package outbound

import (
	"context"

	"github.com/schoolyard/schoolyard/domain/entity"
)

// LogFilter narrows a tenant's audit log listing. Limit and Page are
// normalized to 100 and 1 when unset; offset pagination is (Page-1)*Limit.
type LogFilter struct {
	Action    string
	Status    entity.AuditStatus
	StartDate string
	EndDate   string
	Limit     int
	Page      int
}

func (f LogFilter) Normalize() LogFilter {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	return f
}

func (f LogFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// AuditStore is the write and read path for audit records. An empty tenant
// ID targets the control-plane store.
type AuditStore interface {
	// Write persists the event into the tenant store named by the event,
	// falling back to the control-plane store with the original tenant ID
	// annotated into details when the tenant store is unreachable. It only
	// fails when the control-plane store itself is unreachable.
	Write(ctx context.Context, event *entity.AuditEvent) error

	// FailedLogins returns failed login-flavored events for one tenant
	// (or the control-plane store when tenantID is empty), newest first.
	FailedLogins(ctx context.Context, tenantID string) ([]*entity.AuditEvent, error)

	// TenantLogs lists one tenant's audit log with filters, newest first.
	TenantLogs(ctx context.Context, tenantID string, filter LogFilter) ([]*entity.AuditEvent, error)
}

// AuditPublisher pushes an event onto the durable audit queue. Publish is
// fire-and-forget: it reports whether the event was enqueued and never
// returns an error to the caller.
type AuditPublisher interface {
	Publish(ctx context.Context, event *entity.AuditEvent) bool
}
