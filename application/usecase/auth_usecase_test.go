package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolyard/schoolyard/application/port/inbound"
	"github.com/schoolyard/schoolyard/domain/apperror"
	"github.com/schoolyard/schoolyard/domain/entity"
)

func newAuthFixture(t *testing.T) (inbound.AuthUseCase, *mockUserRepository, *mockPublisher) {
	t.Helper()

	users := newMockUserRepository("t1")
	users.users["t1"]["alice@school.test"] = &entity.User{
		ID:       "u1",
		Email:    "alice@school.test",
		Password: "hashed:correct-horse",
		Role:     entity.RoleStudent,
	}

	admins := &mockSuperAdminRepository{admins: map[string]*entity.SuperAdmin{
		"root@platform.test": {ID: "sa1", Email: "root@platform.test", Password: "hashed:admin-pass"},
	}}

	publisher := &mockPublisher{}
	uc := NewAuthUseCase(users, admins, &mockTokenService{}, &mockPasswordService{}, publisher, 900, testLogger())
	return uc, users, publisher
}

func TestLoginSuccess(t *testing.T) {
	uc, _, publisher := newAuthFixture(t)

	resp, err := uc.Login(context.Background(), inbound.LoginRequest{
		TenantID:  "t1",
		Email:     "alice@school.test",
		Password:  "correct-horse",
		IPAddress: "203.0.113.9",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-u1", resp.AccessToken)
	assert.Equal(t, 900, resp.ExpiresIn)
	require.NotNil(t, resp.User)
	assert.Equal(t, "u1", resp.User.ID)

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, entity.ActionUserLogin, events[0].Action)
	assert.Equal(t, entity.AuditStatusSuccess, events[0].Status)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, "t1", events[0].TenantID)
	assert.Equal(t, "203.0.113.9", events[0].IPAddress)
	assert.Equal(t, "test-agent", events[0].UserAgent)
}

func TestLoginWrongPassword(t *testing.T) {
	uc, _, publisher := newAuthFixture(t)

	_, err := uc.Login(context.Background(), inbound.LoginRequest{
		TenantID: "t1",
		Email:    "alice@school.test",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeUnauthorized, apperror.CodeOf(err))

	events := publisher.published()
	require.Len(t, events, 1, "a failed login must still be audited")
	assert.Equal(t, entity.AuditStatusFailure, events[0].Status)
	assert.Equal(t, "invalid credentials", events[0].Details)
}

func TestLoginUnknownUser(t *testing.T) {
	uc, _, publisher := newAuthFixture(t)

	_, err := uc.Login(context.Background(), inbound.LoginRequest{
		TenantID: "t1",
		Email:    "nobody@school.test",
		Password: "whatever",
	})
	require.Error(t, err)
	// Same response as a wrong password, so callers cannot probe for accounts.
	assert.Equal(t, apperror.CodeUnauthorized, apperror.CodeOf(err))

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, "unknown user", events[0].Details)
}

func TestLoginUnknownTenant(t *testing.T) {
	uc, _, _ := newAuthFixture(t)

	_, err := uc.Login(context.Background(), inbound.LoginRequest{
		TenantID: "ghost",
		Email:    "alice@school.test",
		Password: "correct-horse",
	})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
}

func TestLoginSuperAdmin(t *testing.T) {
	uc, _, publisher := newAuthFixture(t)

	resp, err := uc.Login(context.Background(), inbound.LoginRequest{
		Email:    "root@platform.test",
		Password: "admin-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-sa1", resp.AccessToken)

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Empty(t, events[0].TenantID, "super-admin logins are control-plane scoped")
	assert.Equal(t, entity.AuditStatusSuccess, events[0].Status)
}

func TestLoginMissingCredentials(t *testing.T) {
	uc, _, publisher := newAuthFixture(t)

	_, err := uc.Login(context.Background(), inbound.LoginRequest{TenantID: "t1"})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))
	assert.Empty(t, publisher.published())
}

func TestRegisterSuccess(t *testing.T) {
	uc, users, publisher := newAuthFixture(t)

	user, err := uc.Register(context.Background(), inbound.RegisterRequest{
		TenantID:  "t1",
		Email:     "bob@school.test",
		Password:  "swordfish1",
		FirstName: "Bob",
		LastName:  "Bell",
		Role:      entity.RoleStudent,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "hashed:swordfish1", user.Password, "stored password must be hashed")

	stored, err := users.FindByEmail(context.Background(), "t1", "bob@school.test")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, entity.ActionUserRegistration, events[0].Action)
	assert.Equal(t, entity.AuditStatusSuccess, events[0].Status)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	uc, _, publisher := newAuthFixture(t)

	_, err := uc.Register(context.Background(), inbound.RegisterRequest{
		TenantID: "t1",
		Email:    "alice@school.test",
		Password: "swordfish1",
		Role:     entity.RoleStudent,
	})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConflict, apperror.CodeOf(err))

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, entity.AuditStatusFailure, events[0].Status)
}

func TestRegisterRejectsSuperAdminRole(t *testing.T) {
	uc, _, _ := newAuthFixture(t)

	_, err := uc.Register(context.Background(), inbound.RegisterRequest{
		TenantID: "t1",
		Email:    "eve@school.test",
		Password: "swordfish1",
		Role:     entity.RoleSuperAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))
}
