package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
)

// auditStore writes audit records into the store named by the event's tenant
// ID, with the control-plane store as the durable fallback. Inserts key on
// the producer-assigned event ID, so a redelivered event is a no-op.
type auditStore struct {
	master *sql.DB
	router *Router
	logger *logrus.Logger
}

func NewAuditStore(master *sql.DB, router *Router, logger *logrus.Logger) outbound.AuditStore {
	return &auditStore{master: master, router: router, logger: logger}
}

func (s *auditStore) Write(ctx context.Context, event *entity.AuditEvent) error {
	if event.TenantID == "" {
		return s.insert(ctx, s.master, event)
	}

	db, err := s.router.Resolve(ctx, event.TenantID)
	if err == nil {
		err = s.insert(ctx, db, event)
		if err == nil {
			return nil
		}
	}

	s.logger.WithError(err).WithFields(logrus.Fields{
		"tenant_id": event.TenantID,
		"event_id":  event.ID,
	}).Warn("tenant store write failed, falling back to control plane")

	fallback := *event
	fallback.TenantID = ""
	details := event.Details
	if details == "" {
		details = "no details"
	}
	fallback.Details = fmt.Sprintf("tenant %s: %s (write failed: %v)", event.TenantID, details, err)

	return s.insert(ctx, s.master, &fallback)
}

func (s *auditStore) insert(ctx context.Context, db *sql.DB, event *entity.AuditEvent) error {
	query := `
		INSERT INTO audit_logs (id, user_id, action, status, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := db.ExecContext(ctx, query,
		event.ID,
		nullIfEmpty(event.UserID),
		event.Action,
		string(event.Status),
		nullIfEmpty(event.IPAddress),
		nullIfEmpty(event.UserAgent),
		nullIfEmpty(event.Details),
		event.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

func (s *auditStore) FailedLogins(ctx context.Context, tenantID string) ([]*entity.AuditEvent, error) {
	db := s.master
	if tenantID != "" {
		var err error
		db, err = s.router.Resolve(ctx, tenantID)
		if err != nil {
			return nil, err
		}
	}

	query := `
		SELECT id, user_id, action, status, ip_address, user_agent, details, created_at
		FROM audit_logs
		WHERE action LIKE '%login%' AND status = 'failure'
		ORDER BY created_at DESC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed logins: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows, tenantID)
}

func (s *auditStore) TenantLogs(ctx context.Context, tenantID string, filter outbound.LogFilter) ([]*entity.AuditEvent, error) {
	db, err := s.router.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	filter = filter.Normalize()

	query := `
		SELECT id, user_id, action, status, ip_address, user_agent, details, created_at
		FROM audit_logs
		WHERE 1=1
	`
	args := []interface{}{}
	argIndex := 1

	if filter.Action != "" {
		query += fmt.Sprintf(" AND action = $%d", argIndex)
		args = append(args, filter.Action)
		argIndex++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(filter.Status))
		argIndex++
	}
	if filter.StartDate != "" {
		query += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, filter.StartDate)
		argIndex++
	}
	if filter.EndDate != "" {
		query += fmt.Sprintf(" AND created_at <= $%d", argIndex)
		args = append(args, filter.EndDate)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset())

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows, tenantID)
}

func scanEvents(rows *sql.Rows, tenantID string) ([]*entity.AuditEvent, error) {
	var events []*entity.AuditEvent
	for rows.Next() {
		var (
			event     entity.AuditEvent
			userID    sql.NullString
			ipAddress sql.NullString
			userAgent sql.NullString
			details   sql.NullString
			status    string
		)

		err := rows.Scan(
			&event.ID,
			&userID,
			&event.Action,
			&status,
			&ipAddress,
			&userAgent,
			&details,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}

		event.TenantID = tenantID
		event.UserID = userID.String
		event.Status = entity.AuditStatus(status)
		event.IPAddress = ipAddress.String
		event.UserAgent = userAgent.String
		event.Details = details.String
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}

	return events, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTimeIfZero(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
