package inbound

import (
	"context"
	"time"

	"github.com/schoolyard/schoolyard/domain/entity"
)

// UpdateUserRequest carries only the fields the caller wants to change;
// empty fields leave the current value untouched.
type UpdateUserRequest struct {
	TenantID  string
	UserID    string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      entity.UserRole
}

type UpdateStudentProfileRequest struct {
	TenantID    string
	UserID      string
	Grade       string
	DateOfBirth time.Time
	Address     string
	PhoneNumber string
}

type CreateTenantAdminRequest struct {
	TenantID  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	IPAddress string
	UserAgent string
}

type UserUseCase interface {
	List(ctx context.Context, tenantID string) ([]*entity.User, error)
	Get(ctx context.Context, tenantID, userID string) (*entity.User, error)
	Update(ctx context.Context, req UpdateUserRequest) (*entity.User, error)
	Delete(ctx context.Context, tenantID, userID string) error
	StudentProfile(ctx context.Context, tenantID, userID string) (*entity.StudentProfile, error)
	UpdateStudentProfile(ctx context.Context, req UpdateStudentProfileRequest) (*entity.StudentProfile, error)
	CreateTenantAdmin(ctx context.Context, req CreateTenantAdminRequest) (*entity.User, error)
}
