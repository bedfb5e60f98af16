package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
)

func TestCanAccessUser(t *testing.T) {
	admin := &outbound.TokenClaims{UserID: "a1", TenantID: "t1", Role: string(entity.RoleAdmin)}
	superAdmin := &outbound.TokenClaims{UserID: "s1", Role: string(entity.RoleSuperAdmin)}
	student := &outbound.TokenClaims{UserID: "u1", TenantID: "t1", Role: string(entity.RoleStudent)}

	assert.True(t, canAccessUser(admin, "u1"), "admins may touch any user")
	assert.True(t, canAccessUser(superAdmin, "u1"))
	assert.True(t, canAccessUser(student, "u1"), "everyone may touch their own record")
	assert.False(t, canAccessUser(student, "u2"), "students must not touch other users")
	assert.False(t, canAccessUser(nil, "u1"))
}

func TestTenantScopeFallsBackToHeader(t *testing.T) {
	r := httptest.NewRequest("GET", "/users", nil)
	assert.Empty(t, tenantScope(r))

	r.Header.Set(tenantIDHeader, "t1")
	assert.Equal(t, "t1", tenantScope(r))
}
