package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/outbound"
)

const (
	masterMaxOpenConns = 10
	// Tenant pools are deliberately smaller than the control-plane pool so
	// one tenant's load cannot starve the others.
	tenantMaxOpenConns = 5
)

// ConnSettings are the shared connection parameters for the control-plane
// and tenant stores; only the database name varies per tenant.
type ConnSettings struct {
	Host     string
	Port     string
	User     string
	Password string
	SSLMode  string
}

func (s ConnSettings) DSN(dbName string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		s.Host, s.Port, s.User, s.Password, dbName, s.SSLMode)
}

// StoreName derives a tenant's database name from its ID. Hyphens are not
// valid in database names, so they are replaced with underscores; the
// transform is stable and collision-free for UUID tenant IDs.
func StoreName(tenantID string) string {
	return "school_" + strings.ReplaceAll(tenantID, "-", "_")
}

// OpenMaster opens the control-plane pool with its connection cap applied.
func OpenMaster(settings ConnSettings, dbName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", settings.DSN(dbName))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(masterMaxOpenConns)
	return db, nil
}

type openFunc func(dsn string) (*sql.DB, error)

// Router maps a tenant ID to a pooled connection to that tenant's isolated
// database. Pools are created lazily on first resolution, cached for the
// process lifetime, and owned exclusively by the router.
type Router struct {
	settings ConnSettings
	registry outbound.TenantRepository
	logger   *logrus.Logger
	open     openFunc

	mu    sync.RWMutex
	pools map[string]*sql.DB
	locks map[string]*sync.Mutex
}

func NewRouter(settings ConnSettings, registry outbound.TenantRepository, logger *logrus.Logger) *Router {
	return &Router{
		settings: settings,
		registry: registry,
		logger:   logger,
		open:     openTenantPool,
		pools:    make(map[string]*sql.DB),
		locks:    make(map[string]*sync.Mutex),
	}
}

func openTenantPool(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(tenantMaxOpenConns)
	return db, nil
}

// Resolve returns the pooled connection for tenantID, creating it on first
// use. Concurrent first resolutions of the same tenant are serialized by a
// per-tenant lock so exactly one pool is ever created; unrelated tenants do
// not contend with each other.
func (r *Router) Resolve(ctx context.Context, tenantID string) (*sql.DB, error) {
	if tenantID == "" {
		return nil, outbound.ErrTenantIDRequired
	}

	r.mu.RLock()
	db, ok := r.pools[tenantID]
	r.mu.RUnlock()
	if ok {
		return db, nil
	}

	lock := r.creationLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have created the pool while we waited.
	r.mu.RLock()
	db, ok = r.pools[tenantID]
	r.mu.RUnlock()
	if ok {
		return db, nil
	}

	if _, err := r.registry.FindByID(ctx, tenantID); err != nil {
		return nil, err
	}

	db, err := r.open(r.settings.DSN(StoreName(tenantID)))
	if err != nil {
		return nil, fmt.Errorf("failed to open tenant pool: %w", err)
	}

	r.mu.Lock()
	r.pools[tenantID] = db
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"store":     StoreName(tenantID),
	}).Info("tenant connection pool created")

	return db, nil
}

func (r *Router) creationLock(tenantID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[tenantID] = lock
	}
	return lock
}

// Evict drops a tenant's cached pool and closes it. Used when a tenant is
// deleted so a stale pool does not outlive its store.
func (r *Router) Evict(tenantID string) {
	r.mu.Lock()
	db, ok := r.pools[tenantID]
	delete(r.pools, tenantID)
	delete(r.locks, tenantID)
	r.mu.Unlock()

	if ok {
		if err := db.Close(); err != nil {
			r.logger.WithError(err).WithField("tenant_id", tenantID).Warn("failed to close evicted tenant pool")
		}
	}
}

// Close closes every cached tenant pool.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for id, db := range r.pools {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.pools, id)
	}
	return firstErr
}
