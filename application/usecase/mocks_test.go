package usecase

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
)

func testLogger() *logrus.Logger {
	logg := logrus.New()
	logg.SetOutput(io.Discard)
	return logg
}

// Mock implementations

type mockTenantRepository struct {
	mu         sync.Mutex
	tenants    map[string]*entity.Tenant
	findAllErr error
	createErr  error
	deleted    []string
}

func newMockTenantRepository(tenants ...*entity.Tenant) *mockTenantRepository {
	m := &mockTenantRepository{tenants: make(map[string]*entity.Tenant)}
	for _, tenant := range tenants {
		m.tenants[tenant.ID] = tenant
	}
	return m
}

func (m *mockTenantRepository) Create(ctx context.Context, tenant *entity.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.tenants {
		if existing.Domain == tenant.Domain {
			return outbound.ErrDomainTaken
		}
	}
	m.tenants[tenant.ID] = tenant
	return nil
}

func (m *mockTenantRepository) FindByID(ctx context.Context, id string) (*entity.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tenant, ok := m.tenants[id]; ok {
		return tenant, nil
	}
	return nil, outbound.ErrTenantNotFound
}

func (m *mockTenantRepository) FindByDomain(ctx context.Context, domain string) (*entity.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tenant := range m.tenants {
		if tenant.Domain == domain {
			return tenant, nil
		}
	}
	return nil, outbound.ErrTenantNotFound
}

func (m *mockTenantRepository) FindAll(ctx context.Context) ([]*entity.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findAllErr != nil {
		return nil, m.findAllErr
	}
	var all []*entity.Tenant
	for _, tenant := range m.tenants {
		all = append(all, tenant)
	}
	return all, nil
}

func (m *mockTenantRepository) Update(ctx context.Context, tenant *entity.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[tenant.ID]; !ok {
		return outbound.ErrTenantNotFound
	}
	m.tenants[tenant.ID] = tenant
	return nil
}

func (m *mockTenantRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tenants[id]; !ok {
		return outbound.ErrTenantNotFound
	}
	delete(m.tenants, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockAuditStore struct {
	failedLogins map[string][]*entity.AuditEvent // keyed by tenant ID, "" = control plane
	errByTenant  map[string]error
	tenantLogs   []*entity.AuditEvent
	lastFilter   outbound.LogFilter
}

func newMockAuditStore() *mockAuditStore {
	return &mockAuditStore{
		failedLogins: make(map[string][]*entity.AuditEvent),
		errByTenant:  make(map[string]error),
	}
}

func (m *mockAuditStore) Write(ctx context.Context, event *entity.AuditEvent) error {
	return nil
}

func (m *mockAuditStore) FailedLogins(ctx context.Context, tenantID string) ([]*entity.AuditEvent, error) {
	if err, ok := m.errByTenant[tenantID]; ok {
		return nil, err
	}
	return m.failedLogins[tenantID], nil
}

// TenantLogs slices the configured rows the way the real store applies
// LIMIT/OFFSET over a newest-first ordering.
func (m *mockAuditStore) TenantLogs(ctx context.Context, tenantID string, filter outbound.LogFilter) ([]*entity.AuditEvent, error) {
	if err, ok := m.errByTenant[tenantID]; ok {
		return nil, err
	}
	m.lastFilter = filter
	start := filter.Offset()
	if start > len(m.tenantLogs) {
		start = len(m.tenantLogs)
	}
	end := start + filter.Limit
	if filter.Limit <= 0 || end > len(m.tenantLogs) {
		end = len(m.tenantLogs)
	}
	return m.tenantLogs[start:end], nil
}

type mockPublisher struct {
	mu      sync.Mutex
	events  []*entity.AuditEvent
	dropAll bool
}

func (m *mockPublisher) Publish(ctx context.Context, event *entity.AuditEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return !m.dropAll
}

func (m *mockPublisher) published() []*entity.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.AuditEvent(nil), m.events...)
}

type mockUserRepository struct {
	users map[string]map[string]*entity.User // tenant ID -> email -> user
}

func newMockUserRepository(tenantIDs ...string) *mockUserRepository {
	m := &mockUserRepository{users: make(map[string]map[string]*entity.User)}
	for _, id := range tenantIDs {
		m.users[id] = make(map[string]*entity.User)
	}
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, tenantID string, user *entity.User) error {
	tenant, ok := m.users[tenantID]
	if !ok {
		return outbound.ErrTenantNotFound
	}
	if _, exists := tenant[user.Email]; exists {
		return outbound.ErrEmailTaken
	}
	tenant[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, tenantID, email string) (*entity.User, error) {
	tenant, ok := m.users[tenantID]
	if !ok {
		return nil, outbound.ErrTenantNotFound
	}
	if user, exists := tenant[email]; exists {
		return user, nil
	}
	return nil, outbound.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.User, error) {
	tenant, ok := m.users[tenantID]
	if !ok {
		return nil, outbound.ErrTenantNotFound
	}
	for _, user := range tenant {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, outbound.ErrUserNotFound
}

func (m *mockUserRepository) FindAll(ctx context.Context, tenantID string) ([]*entity.User, error) {
	tenant, ok := m.users[tenantID]
	if !ok {
		return nil, outbound.ErrTenantNotFound
	}
	var all []*entity.User
	for _, user := range tenant {
		all = append(all, user)
	}
	return all, nil
}

func (m *mockUserRepository) Update(ctx context.Context, tenantID string, user *entity.User) error {
	tenant, ok := m.users[tenantID]
	if !ok {
		return outbound.ErrTenantNotFound
	}
	for email, existing := range tenant {
		if existing.ID == user.ID {
			delete(tenant, email)
			tenant[user.Email] = user
			return nil
		}
	}
	return outbound.ErrUserNotFound
}

func (m *mockUserRepository) Delete(ctx context.Context, tenantID, id string) error {
	tenant, ok := m.users[tenantID]
	if !ok {
		return outbound.ErrTenantNotFound
	}
	for email, existing := range tenant {
		if existing.ID == id {
			delete(tenant, email)
			return nil
		}
	}
	return outbound.ErrUserNotFound
}

type mockStudentProfileRepository struct {
	profiles map[string]*entity.StudentProfile // keyed by user ID
}

func newMockStudentProfileRepository(profiles ...*entity.StudentProfile) *mockStudentProfileRepository {
	m := &mockStudentProfileRepository{profiles: make(map[string]*entity.StudentProfile)}
	for _, profile := range profiles {
		m.profiles[profile.UserID] = profile
	}
	return m
}

func (m *mockStudentProfileRepository) FindByUserID(ctx context.Context, tenantID, userID string) (*entity.StudentProfile, error) {
	if profile, ok := m.profiles[userID]; ok {
		return profile, nil
	}
	return nil, outbound.ErrProfileNotFound
}

func (m *mockStudentProfileRepository) Update(ctx context.Context, tenantID string, profile *entity.StudentProfile) error {
	if _, ok := m.profiles[profile.UserID]; !ok {
		return outbound.ErrProfileNotFound
	}
	m.profiles[profile.UserID] = profile
	return nil
}

type mockSuperAdminRepository struct {
	admins map[string]*entity.SuperAdmin
}

func (m *mockSuperAdminRepository) FindByEmail(ctx context.Context, email string) (*entity.SuperAdmin, error) {
	if admin, ok := m.admins[email]; ok {
		return admin, nil
	}
	return nil, outbound.ErrUserNotFound
}

type mockTokenService struct {
	generateErr error
}

func (m *mockTokenService) GenerateAccessToken(claims outbound.TokenClaims) (string, error) {
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return "token-" + claims.UserID, nil
}

func (m *mockTokenService) ValidateAccessToken(token string) (*outbound.TokenClaims, error) {
	return nil, errors.New("not implemented")
}

// mockPasswordService hashes by prefixing, which keeps assertions readable.
type mockPasswordService struct{}

func (m *mockPasswordService) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (m *mockPasswordService) ComparePassword(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("password mismatch")
	}
	return nil
}

type mockProvisioner struct {
	createErr error
	created   []string
	dropped   []string
	log       *[]string
}

func (m *mockProvisioner) CreateTenantStore(ctx context.Context, tenantID, tenantName string) (*outbound.BootstrapAdmin, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, tenantID)
	return &outbound.BootstrapAdmin{Email: "admin@example.com", Password: "generated"}, nil
}

func (m *mockProvisioner) DropTenantStore(ctx context.Context, tenantID string) error {
	m.dropped = append(m.dropped, tenantID)
	if m.log != nil {
		*m.log = append(*m.log, "drop:"+tenantID)
	}
	return nil
}

type mockEvictor struct {
	evicted []string
	log     *[]string
}

func (m *mockEvictor) Evict(tenantID string) {
	m.evicted = append(m.evicted, tenantID)
	if m.log != nil {
		*m.log = append(*m.log, "evict:"+tenantID)
	}
}
