package entity

import (
	"time"

	"github.com/google/uuid"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// Well-known audit action tags. Failed-login reporting matches any action
// containing "login", so new login-flavored actions are picked up without a
// schema change.
const (
	ActionUserLogin         = "user_login"
	ActionUserRegistration  = "user_registration"
	ActionTokenValidation   = "token_validation"
	ActionRateLimitExceeded = "rate_limit_exceeded"
	ActionTenantCreated     = "tenant_created"
	ActionTenantDeleted     = "tenant_deleted"
	ActionTenantAdminCreate = "tenant_admin_creation"
)

// AuditEvent is a single security-relevant occurrence. The ID is assigned by
// the producer at creation time, so a redelivered event carries the same
// idempotency key all the way to the store.
type AuditEvent struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id,omitempty"`
	TenantID  string      `json:"tenant_id,omitempty"` // empty means control-plane scope
	Action    string      `json:"action"`
	Status    AuditStatus `json:"status"`
	IPAddress string      `json:"ip_address,omitempty"`
	UserAgent string      `json:"user_agent,omitempty"`
	Details   string      `json:"details,omitempty"`
	CreatedAt time.Time   `json:"created_at"`

	// TenantName is filled in on the read path when aggregating across
	// tenants; it is never stored.
	TenantName string `json:"tenant_name,omitempty"`
}

func NewAuditEvent(userID, tenantID, action string, status AuditStatus) *AuditEvent {
	return &AuditEvent{
		ID:        uuid.New().String(),
		UserID:    userID,
		TenantID:  tenantID,
		Action:    action,
		Status:    status,
		CreatedAt: time.Now(),
	}
}
