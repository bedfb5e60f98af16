package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
)

type tenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) outbound.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *entity.Tenant) error {
	query := `
		INSERT INTO tenants (id, name, domain, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.Domain,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return outbound.ErrDomainTaken
		}
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	return nil
}

func (r *tenantRepository) FindByID(ctx context.Context, id string) (*entity.Tenant, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *tenantRepository) FindByDomain(ctx context.Context, domain string) (*entity.Tenant, error) {
	return r.findOne(ctx, "domain = $1", domain)
}

func (r *tenantRepository) findOne(ctx context.Context, where string, arg interface{}) (*entity.Tenant, error) {
	query := `
		SELECT id, name, domain, created_at, updated_at
		FROM tenants
		WHERE ` + where

	var tenant entity.Tenant
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Domain,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to find tenant: %w", err)
	}

	return &tenant, nil
}

func (r *tenantRepository) FindAll(ctx context.Context) ([]*entity.Tenant, error) {
	query := `
		SELECT id, name, domain, created_at, updated_at
		FROM tenants
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*entity.Tenant
	for rows.Next() {
		var tenant entity.Tenant
		err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.Domain,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &tenant)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenants: %w", err)
	}

	return tenants, nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant *entity.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, domain = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, tenant.ID, tenant.Name, tenant.Domain)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return outbound.ErrDomainTaken
		}
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return outbound.ErrTenantNotFound
	}

	return nil
}

func (r *tenantRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return outbound.ErrTenantNotFound
	}

	return nil
}
