package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
)

const tenantSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255),
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(20) NOT NULL,
		auth_provider VARCHAR(20) NOT NULL DEFAULT 'local',
		auth_provider_id VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS audit_logs (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36),
		action VARCHAR(255) NOT NULL,
		status VARCHAR(10) NOT NULL,
		ip_address VARCHAR(45),
		user_agent TEXT,
		details TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS student_profiles (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		grade VARCHAR(50),
		date_of_birth DATE,
		address TEXT,
		phone_number VARCHAR(20)
	);
`

const controlPlaneSchema = `
	CREATE TABLE IF NOT EXISTS tenants (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		domain VARCHAR(255) UNIQUE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS super_admins (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		password VARCHAR(255) NOT NULL,
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS audit_logs (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36),
		action VARCHAR(255) NOT NULL,
		status VARCHAR(10) NOT NULL,
		ip_address VARCHAR(45),
		user_agent TEXT,
		details TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
`

// Provisioner creates and drops tenant stores and bootstraps the control
// plane. The admin handle must be connected to a maintenance database with
// permission to create and drop databases.
type Provisioner struct {
	admin       *sql.DB
	settings    ConnSettings
	passwords   outbound.PasswordService
	environment string
	logger      *logrus.Logger
	open        openFunc
}

func NewProvisioner(admin *sql.DB, settings ConnSettings, passwords outbound.PasswordService, environment string, logger *logrus.Logger) *Provisioner {
	return &Provisioner{
		admin:       admin,
		settings:    settings,
		passwords:   passwords,
		environment: environment,
		logger:      logger,
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("postgres", dsn)
		},
	}
}

// CreateTenantStore creates the tenant's isolated database, installs its
// schema and seeds the bootstrap admin. The generated admin password is
// returned exactly once.
func (p *Provisioner) CreateTenantStore(ctx context.Context, tenantID, tenantName string) (*outbound.BootstrapAdmin, error) {
	dbName := StoreName(tenantID)

	if err := p.createDatabase(ctx, dbName); err != nil {
		return nil, err
	}

	db, err := p.open(p.settings.DSN(dbName))
	if err != nil {
		return nil, fmt.Errorf("failed to open tenant store %s: %w", dbName, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, tenantSchema); err != nil {
		return nil, fmt.Errorf("failed to install tenant schema: %w", err)
	}

	admin, err := p.seedTenantAdmin(ctx, db, tenantName)
	if err != nil {
		return nil, err
	}

	p.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"store":     dbName,
	}).Info("tenant store provisioned")

	return admin, nil
}

func (p *Provisioner) createDatabase(ctx context.Context, dbName string) error {
	var exists bool
	err := p.admin.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if exists {
		return nil
	}

	// CREATE DATABASE cannot take bind parameters.
	_, err = p.admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName))
	if err != nil {
		return fmt.Errorf("failed to create database %s: %w", dbName, err)
	}
	return nil
}

func (p *Provisioner) seedTenantAdmin(ctx context.Context, db *sql.DB, tenantName string) (*outbound.BootstrapAdmin, error) {
	password := p.bootstrapPassword("tenant123")
	hashed, err := p.passwords.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash bootstrap admin password: %w", err)
	}

	email := fmt.Sprintf("admin@%s.com", sanitizeName(tenantName))

	query := `
		INSERT INTO users (id, email, password, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = db.ExecContext(ctx, query,
		uuid.New().String(), email, hashed, "Tenant", "Admin", string(entity.RoleAdmin))
	if err != nil {
		return nil, fmt.Errorf("failed to seed bootstrap admin: %w", err)
	}

	return &outbound.BootstrapAdmin{Email: email, Password: password}, nil
}

// DropTenantStore drops the tenant's isolated database. Irreversible.
// FORCE terminates sessions other processes may still hold.
func (p *Provisioner) DropTenantStore(ctx context.Context, tenantID string) error {
	dbName := StoreName(tenantID)
	_, err := p.admin.ExecContext(ctx, "DROP DATABASE IF EXISTS "+pq.QuoteIdentifier(dbName)+" WITH (FORCE)")
	if err != nil {
		return fmt.Errorf("failed to drop database %s: %w", dbName, err)
	}

	p.logger.WithField("store", dbName).Info("tenant store dropped")
	return nil
}

// InitControlPlane installs the control-plane schema and seeds a default
// super admin when none exists yet.
func (p *Provisioner) InitControlPlane(ctx context.Context, master *sql.DB) error {
	if _, err := master.ExecContext(ctx, controlPlaneSchema); err != nil {
		return fmt.Errorf("failed to install control-plane schema: %w", err)
	}

	var count int
	if err := master.QueryRowContext(ctx, `SELECT COUNT(*) FROM super_admins`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count super admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := p.bootstrapPassword("admin123")
	hashed, err := p.passwords.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash super admin password: %w", err)
	}

	query := `
		INSERT INTO super_admins (id, email, password, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = master.ExecContext(ctx, query, uuid.New().String(), "admin@example.com", hashed, "Super", "Admin")
	if err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}

	p.logger.WithField("email", "admin@example.com").
		Warn("default super admin created, change this password immediately after first login")
	if p.environment == "development" {
		p.logger.WithField("password", password).Warn("development super admin password")
	}

	return nil
}

func (p *Provisioner) bootstrapPassword(devDefault string) string {
	if p.environment == "development" {
		return devDefault
	}
	return generateSecurePassword(16)
}

const passwordChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*()"

func generateSecurePassword(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}

	var sb strings.Builder
	for _, b := range buf {
		sb.WriteByte(passwordChars[int(b)%len(passwordChars)])
	}
	return sb.String()
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

func sanitizeName(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(name), "")
}
