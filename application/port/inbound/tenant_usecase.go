package inbound

import (
	"context"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
)

// TenantProvisionResult is returned once on tenant creation; the bootstrap
// admin password is not recoverable afterwards.
type TenantProvisionResult struct {
	Tenant         *entity.Tenant           `json:"tenant"`
	BootstrapAdmin *outbound.BootstrapAdmin `json:"bootstrap_admin"`
}

type TenantUseCase interface {
	Create(ctx context.Context, name, domain string) (*TenantProvisionResult, error)
	List(ctx context.Context) ([]*entity.Tenant, error)
	Get(ctx context.Context, id string) (*entity.Tenant, error)
	Update(ctx context.Context, id, name, domain string) (*entity.Tenant, error)
	Delete(ctx context.Context, id string) error
}
