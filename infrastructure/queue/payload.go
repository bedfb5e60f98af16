package queue

import (
	"time"

	"github.com/schoolyard/schoolyard/domain/entity"
)

const (
	// QueueKey is the single logical audit channel.
	QueueKey = "audit-logs"
	// ProcessingKey holds messages between pop and ack so a crashed
	// consumer does not lose in-flight events.
	ProcessingKey = "audit-logs:processing"
	// DeadLetterKey receives messages that exhausted redelivery.
	DeadLetterKey = "audit-logs:dead"

	// PayloadVersion tags queued messages so the event shape can evolve
	// without breaking in-flight consumers during a deploy.
	PayloadVersion = 1
)

// auditPayload is the wire shape of a queued audit event: the flat AuditEvent
// fields plus a schema version and the delivery attempt count.
type auditPayload struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	TenantID  string    `json:"tenantId,omitempty"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Attempts  int       `json:"attempts,omitempty"`
}

func payloadFrom(event *entity.AuditEvent) auditPayload {
	return auditPayload{
		Version:   PayloadVersion,
		ID:        event.ID,
		UserID:    event.UserID,
		TenantID:  event.TenantID,
		Action:    event.Action,
		Status:    string(event.Status),
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		Details:   event.Details,
		CreatedAt: event.CreatedAt,
	}
}

func (p auditPayload) toEvent() *entity.AuditEvent {
	return &entity.AuditEvent{
		ID:        p.ID,
		UserID:    p.UserID,
		TenantID:  p.TenantID,
		Action:    p.Action,
		Status:    entity.AuditStatus(p.Status),
		IPAddress: p.IPAddress,
		UserAgent: p.UserAgent,
		Details:   p.Details,
		CreatedAt: p.CreatedAt,
	}
}
