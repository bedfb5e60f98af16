package entity

import (
	"time"
)

// Tenant is a school with its own isolated database. The domain is
// globally unique and doubles as the tenant's login namespace.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewTenant(id, name, domain string) *Tenant {
	now := time.Now()
	return &Tenant{
		ID:        id,
		Name:      name,
		Domain:    domain,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
