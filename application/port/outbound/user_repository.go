package outbound

import (
	"context"
	"errors"

	"github.com/schoolyard/schoolyard/domain/entity"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already in use")
	ErrProfileNotFound = errors.New("student profile not found")
)

// UserRepository reads and writes users inside one tenant's isolated store.
// Every call is scoped by tenant ID; the implementation resolves the tenant
// connection and must never touch another tenant's rows.
type UserRepository interface {
	Create(ctx context.Context, tenantID string, user *entity.User) error
	FindByEmail(ctx context.Context, tenantID, email string) (*entity.User, error)
	FindByID(ctx context.Context, tenantID, id string) (*entity.User, error)
	FindAll(ctx context.Context, tenantID string) ([]*entity.User, error)
	Update(ctx context.Context, tenantID string, user *entity.User) error
	Delete(ctx context.Context, tenantID, id string) error
}

// StudentProfileRepository reads and writes the profile row that accompanies
// every student user. Profiles are created together with the user, so there
// is no standalone Create.
type StudentProfileRepository interface {
	FindByUserID(ctx context.Context, tenantID, userID string) (*entity.StudentProfile, error)
	Update(ctx context.Context, tenantID string, profile *entity.StudentProfile) error
}

// SuperAdminRepository reads platform admins from the control-plane store.
type SuperAdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.SuperAdmin, error)
}
