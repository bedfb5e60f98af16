package usecase

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/inbound"
	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/apperror"
	"github.com/schoolyard/schoolyard/domain/entity"
)

type auditUseCase struct {
	store     outbound.AuditStore
	publisher outbound.AuditPublisher
	tenants   outbound.TenantRepository
	logger    *logrus.Logger
}

func NewAuditUseCase(
	store outbound.AuditStore,
	publisher outbound.AuditPublisher,
	tenants outbound.TenantRepository,
	logger *logrus.Logger,
) inbound.AuditUseCase {
	return &auditUseCase{
		store:     store,
		publisher: publisher,
		tenants:   tenants,
		logger:    logger,
	}
}

func (uc *auditUseCase) Record(ctx context.Context, event *entity.AuditEvent) bool {
	return uc.publisher.Publish(ctx, event)
}

func (uc *auditUseCase) FailedLogins(ctx context.Context, tenantID string) ([]*entity.AuditEvent, error) {
	if tenantID == "" {
		return nil, apperror.InvalidArgument("tenant ID is required")
	}
	events, err := uc.store.FailedLogins(ctx, tenantID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return events, nil
}

// AllFailedLogins fans out across the control-plane store and every
// registered tenant. An unreachable tenant store is logged and skipped so a
// single degraded tenant never hides everyone else's data.
func (uc *auditUseCase) AllFailedLogins(ctx context.Context) ([]*entity.AuditEvent, error) {
	tenants, err := uc.tenants.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list tenants", err)
	}

	var all []*entity.AuditEvent

	masterLogs, err := uc.store.FailedLogins(ctx, "")
	if err != nil {
		uc.logger.WithError(err).Warn("failed to fetch control-plane failed logins")
	} else {
		for _, e := range masterLogs {
			e.TenantName = "Master"
			all = append(all, e)
		}
	}

	for _, tenant := range tenants {
		logs, err := uc.store.FailedLogins(ctx, tenant.ID)
		if err != nil {
			uc.logger.WithError(err).WithField("tenant_id", tenant.ID).
				Warn("failed to fetch failed logins for tenant, skipping")
			continue
		}
		for _, e := range logs {
			e.TenantID = tenant.ID
			e.TenantName = tenant.Name
			all = append(all, e)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	return all, nil
}

func (uc *auditUseCase) TenantLogs(ctx context.Context, tenantID string, filter outbound.LogFilter) ([]*entity.AuditEvent, error) {
	if tenantID == "" {
		return nil, apperror.InvalidArgument("tenant ID is required")
	}
	events, err := uc.store.TenantLogs(ctx, tenantID, filter.Normalize())
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return events, nil
}

func classifyStoreError(err error) error {
	switch err {
	case outbound.ErrTenantNotFound:
		return apperror.NotFound("tenant not found")
	case outbound.ErrTenantIDRequired:
		return apperror.InvalidArgument("tenant ID is required")
	default:
		return apperror.Internal("audit store query failed", err)
	}
}
