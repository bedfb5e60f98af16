package entity

import (
	"time"
)

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleStudent    UserRole = "student"
	RoleSuperAdmin UserRole = "superAdmin"
)

type AuthProvider string

const (
	AuthProviderLocal   AuthProvider = "local"
	AuthProviderGoogle  AuthProvider = "google"
	AuthProviderOutlook AuthProvider = "outlook"
)

// User lives in a tenant's isolated store. Super admins live in the
// control-plane store and are represented by SuperAdmin instead.
type User struct {
	ID             string       `json:"id"`
	Email          string       `json:"email"`
	Password       string       `json:"-"`
	FirstName      string       `json:"first_name"`
	LastName       string       `json:"last_name"`
	Role           UserRole     `json:"role"`
	AuthProvider   AuthProvider `json:"auth_provider"`
	AuthProviderID string       `json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func NewUser(id, email, password string, role UserRole) *User {
	now := time.Now()
	return &User{
		ID:           id,
		Email:        email,
		Password:     password,
		Role:         role,
		AuthProvider: AuthProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

type SuperAdmin struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type StudentProfile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Grade       string    `json:"grade"`
	DateOfBirth time.Time `json:"date_of_birth"`
	Address     string    `json:"address"`
	PhoneNumber string    `json:"phone_number"`
}
