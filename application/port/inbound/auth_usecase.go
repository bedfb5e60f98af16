package inbound

import (
	"context"

	"github.com/schoolyard/schoolyard/domain/entity"
)

type LoginRequest struct {
	TenantID  string // empty for super-admin login against the control plane
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"`
	User        *entity.User `json:"user,omitempty"`
}

type RegisterRequest struct {
	TenantID  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      entity.UserRole
	IPAddress string
	UserAgent string
}

type AuthUseCase interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*entity.User, error)
}
