package outbound

import (
	"context"
	"errors"

	"github.com/schoolyard/schoolyard/domain/entity"
)

var (
	ErrTenantNotFound   = errors.New("tenant not found")
	ErrTenantIDRequired = errors.New("tenant ID is required")
	ErrDomainTaken      = errors.New("domain already in use")
)

// TenantRepository is the control-plane registry of tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant *entity.Tenant) error
	FindByID(ctx context.Context, id string) (*entity.Tenant, error)
	FindByDomain(ctx context.Context, domain string) (*entity.Tenant, error)
	FindAll(ctx context.Context) ([]*entity.Tenant, error)
	Update(ctx context.Context, tenant *entity.Tenant) error
	Delete(ctx context.Context, id string) error
}

// BootstrapAdmin is the admin account seeded into a freshly provisioned
// tenant store. The plain password is returned exactly once, at creation.
type BootstrapAdmin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TenantProvisioner creates and destroys a tenant's isolated store.
type TenantProvisioner interface {
	CreateTenantStore(ctx context.Context, tenantID, tenantName string) (*BootstrapAdmin, error)
	DropTenantStore(ctx context.Context, tenantID string) error
}

// TenantPoolEvictor drops a tenant's cached connection pool. Deleting a
// tenant must evict before dropping the store, or the pool's idle
// connections keep the database open.
type TenantPoolEvictor interface {
	Evict(tenantID string)
}
