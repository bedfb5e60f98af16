package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolyard/schoolyard/domain/apperror"
	"github.com/schoolyard/schoolyard/domain/entity"
)

func TestCreateTenantProvisions(t *testing.T) {
	tenants := newMockTenantRepository()
	provisioner := &mockProvisioner{}
	publisher := &mockPublisher{}
	uc := NewTenantUseCase(tenants, provisioner, &mockEvictor{}, publisher, testLogger())

	result, err := uc.Create(context.Background(), "North High", "north.school.test")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Tenant.ID)
	assert.Equal(t, "North High", result.Tenant.Name)
	require.NotNil(t, result.BootstrapAdmin)
	assert.NotEmpty(t, result.BootstrapAdmin.Password)

	assert.Equal(t, []string{result.Tenant.ID}, provisioner.created)

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, entity.ActionTenantCreated, events[0].Action)
}

func TestCreateTenantDomainConflict(t *testing.T) {
	tenants := newMockTenantRepository(&entity.Tenant{ID: "t1", Name: "North High", Domain: "north.school.test"})
	uc := NewTenantUseCase(tenants, &mockProvisioner{}, &mockEvictor{}, &mockPublisher{}, testLogger())

	_, err := uc.Create(context.Background(), "Other School", "north.school.test")
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConflict, apperror.CodeOf(err))
}

func TestCreateTenantRollsBackOnProvisionFailure(t *testing.T) {
	tenants := newMockTenantRepository()
	provisioner := &mockProvisioner{createErr: errors.New("database host unreachable")}
	uc := NewTenantUseCase(tenants, provisioner, &mockEvictor{}, &mockPublisher{}, testLogger())

	_, err := uc.Create(context.Background(), "North High", "north.school.test")
	require.Error(t, err)

	all, err := tenants.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "a failed provisioning must not leave a registry row behind")
}

func TestCreateTenantRequiresNameAndDomain(t *testing.T) {
	uc := NewTenantUseCase(newMockTenantRepository(), &mockProvisioner{}, &mockEvictor{}, &mockPublisher{}, testLogger())

	_, err := uc.Create(context.Background(), "", "north.school.test")
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))

	_, err = uc.Create(context.Background(), "North High", "")
	assert.Equal(t, apperror.CodeInvalidArgument, apperror.CodeOf(err))
}

func TestGetTenantNotFound(t *testing.T) {
	uc := NewTenantUseCase(newMockTenantRepository(), &mockProvisioner{}, &mockEvictor{}, &mockPublisher{}, testLogger())

	_, err := uc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
}

func TestUpdateTenantDomainConflict(t *testing.T) {
	tenants := newMockTenantRepository(
		&entity.Tenant{ID: "t1", Name: "North High", Domain: "north.school.test"},
		&entity.Tenant{ID: "t2", Name: "South High", Domain: "south.school.test"},
	)
	uc := NewTenantUseCase(tenants, &mockProvisioner{}, &mockEvictor{}, &mockPublisher{}, testLogger())

	_, err := uc.Update(context.Background(), "t2", "", "north.school.test")
	require.Error(t, err)
	assert.Equal(t, apperror.CodeConflict, apperror.CodeOf(err))
}

func TestUpdateTenantRename(t *testing.T) {
	tenants := newMockTenantRepository(&entity.Tenant{ID: "t1", Name: "North High", Domain: "north.school.test"})
	uc := NewTenantUseCase(tenants, &mockProvisioner{}, &mockEvictor{}, &mockPublisher{}, testLogger())

	updated, err := uc.Update(context.Background(), "t1", "North Academy", "")
	require.NoError(t, err)
	assert.Equal(t, "North Academy", updated.Name)
	assert.Equal(t, "north.school.test", updated.Domain, "an empty domain must leave the current one untouched")
}

func TestDeleteTenantDropsStore(t *testing.T) {
	tenants := newMockTenantRepository(&entity.Tenant{ID: "t1", Name: "North High", Domain: "north.school.test"})
	provisioner := &mockProvisioner{}
	publisher := &mockPublisher{}
	uc := NewTenantUseCase(tenants, provisioner, &mockEvictor{}, publisher, testLogger())

	require.NoError(t, uc.Delete(context.Background(), "t1"))

	assert.Equal(t, []string{"t1"}, tenants.deleted)
	assert.Equal(t, []string{"t1"}, provisioner.dropped)

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, entity.ActionTenantDeleted, events[0].Action)
}

func TestDeleteTenantEvictsPoolBeforeDrop(t *testing.T) {
	tenants := newMockTenantRepository(&entity.Tenant{ID: "t1", Name: "North High", Domain: "north.school.test"})
	var calls []string
	provisioner := &mockProvisioner{log: &calls}
	evictor := &mockEvictor{log: &calls}
	uc := NewTenantUseCase(tenants, provisioner, evictor, &mockPublisher{}, testLogger())

	require.NoError(t, uc.Delete(context.Background(), "t1"))

	// An idle cached pool would keep the database open and fail the drop,
	// so eviction has to happen first.
	assert.Equal(t, []string{"evict:t1", "drop:t1"}, calls)
}

func TestDeleteTenantNotFound(t *testing.T) {
	uc := NewTenantUseCase(newMockTenantRepository(), &mockProvisioner{}, &mockEvictor{}, &mockPublisher{}, testLogger())

	err := uc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, apperror.CodeNotFound, apperror.CodeOf(err))
}
