package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/inbound"
	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/apperror"
	"github.com/schoolyard/schoolyard/domain/entity"
)

type tenantUseCase struct {
	tenants     outbound.TenantRepository
	provisioner outbound.TenantProvisioner
	evictor     outbound.TenantPoolEvictor
	publisher   outbound.AuditPublisher
	logger      *logrus.Logger
}

func NewTenantUseCase(
	tenants outbound.TenantRepository,
	provisioner outbound.TenantProvisioner,
	evictor outbound.TenantPoolEvictor,
	publisher outbound.AuditPublisher,
	logger *logrus.Logger,
) inbound.TenantUseCase {
	return &tenantUseCase{
		tenants:     tenants,
		provisioner: provisioner,
		evictor:     evictor,
		publisher:   publisher,
		logger:      logger,
	}
}

func (uc *tenantUseCase) Create(ctx context.Context, name, domain string) (*inbound.TenantProvisionResult, error) {
	if name == "" || domain == "" {
		return nil, apperror.InvalidArgument("name and domain are required")
	}

	if _, err := uc.tenants.FindByDomain(ctx, domain); err == nil {
		return nil, apperror.Conflict("domain already in use")
	} else if !errors.Is(err, outbound.ErrTenantNotFound) {
		return nil, apperror.Internal("failed to check domain availability", err)
	}

	tenant := entity.NewTenant(uuid.New().String(), name, domain)

	if err := uc.tenants.Create(ctx, tenant); err != nil {
		if errors.Is(err, outbound.ErrDomainTaken) {
			return nil, apperror.Conflict("domain already in use")
		}
		return nil, apperror.Internal("failed to register tenant", err)
	}

	admin, err := uc.provisioner.CreateTenantStore(ctx, tenant.ID, tenant.Name)
	if err != nil {
		// Roll the registry row back so a failed provisioning does not
		// leave a tenant that can never resolve.
		if delErr := uc.tenants.Delete(ctx, tenant.ID); delErr != nil {
			uc.logger.WithError(delErr).WithField("tenant_id", tenant.ID).
				Error("failed to roll back tenant registration")
		}
		return nil, apperror.Internal("failed to provision tenant store", err)
	}

	uc.publisher.Publish(ctx, entity.NewAuditEvent("", "", entity.ActionTenantCreated, entity.AuditStatusSuccess))

	return &inbound.TenantProvisionResult{Tenant: tenant, BootstrapAdmin: admin}, nil
}

func (uc *tenantUseCase) List(ctx context.Context) ([]*entity.Tenant, error) {
	tenants, err := uc.tenants.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list tenants", err)
	}
	return tenants, nil
}

func (uc *tenantUseCase) Get(ctx context.Context, id string) (*entity.Tenant, error) {
	if id == "" {
		return nil, apperror.InvalidArgument("tenant ID is required")
	}
	tenant, err := uc.tenants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, outbound.ErrTenantNotFound) {
			return nil, apperror.NotFound("tenant not found")
		}
		return nil, apperror.Internal("failed to fetch tenant", err)
	}
	return tenant, nil
}

func (uc *tenantUseCase) Update(ctx context.Context, id, name, domain string) (*entity.Tenant, error) {
	tenant, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if domain != "" && domain != tenant.Domain {
		existing, err := uc.tenants.FindByDomain(ctx, domain)
		if err == nil && existing.ID != id {
			return nil, apperror.Conflict("domain already in use")
		}
		if err != nil && !errors.Is(err, outbound.ErrTenantNotFound) {
			return nil, apperror.Internal("failed to check domain availability", err)
		}
		tenant.Domain = domain
	}
	if name != "" {
		tenant.Name = name
	}

	if err := uc.tenants.Update(ctx, tenant); err != nil {
		return nil, apperror.Internal("failed to update tenant", err)
	}
	return tenant, nil
}

// Delete removes the registry row first, then drops the isolated store.
// There is no undo.
func (uc *tenantUseCase) Delete(ctx context.Context, id string) error {
	if _, err := uc.Get(ctx, id); err != nil {
		return err
	}

	if err := uc.tenants.Delete(ctx, id); err != nil {
		return apperror.Internal("failed to delete tenant", err)
	}

	// Close our own cached pool first; its idle connections would keep the
	// database open and make the drop fail.
	uc.evictor.Evict(id)

	if err := uc.provisioner.DropTenantStore(ctx, id); err != nil {
		return apperror.Internal("failed to drop tenant store", err)
	}

	uc.publisher.Publish(ctx, entity.NewAuditEvent("", "", entity.ActionTenantDeleted, entity.AuditStatusSuccess))

	return nil
}
