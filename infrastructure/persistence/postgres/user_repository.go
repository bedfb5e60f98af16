package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
)

// userRepository reads and writes users inside tenant stores. Every call
// resolves the tenant connection through the router, so it can only ever see
// the one tenant's rows.
type userRepository struct {
	router *Router
}

func NewUserRepository(router *Router) outbound.UserRepository {
	return &userRepository{router: router}
}

// Create inserts the user and, for students, the accompanying profile row in
// the same transaction so a student never exists without a profile.
func (r *userRepository) Create(ctx context.Context, tenantID string, user *entity.User) error {
	db, err := r.router.Resolve(ctx, tenantID)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO users (id, email, password, first_name, last_name, role, auth_provider, auth_provider_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = tx.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Password,
		user.FirstName,
		user.LastName,
		string(user.Role),
		string(user.AuthProvider),
		nullIfEmpty(user.AuthProviderID),
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return outbound.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if user.Role == entity.RoleStudent {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO student_profiles (id, user_id) VALUES ($1, $2)`,
			uuid.New().String(), user.ID)
		if err != nil {
			return fmt.Errorf("failed to create student profile: %w", err)
		}
	}

	return tx.Commit()
}

func (r *userRepository) Update(ctx context.Context, tenantID string, user *entity.User) error {
	db, err := r.router.Resolve(ctx, tenantID)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET email = $1, password = $2, first_name = $3, last_name = $4, role = $5, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6
	`

	result, err := db.ExecContext(ctx, query,
		user.Email,
		user.Password,
		user.FirstName,
		user.LastName,
		string(user.Role),
		user.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return outbound.ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return outbound.ErrUserNotFound
	}
	return nil
}

// Delete removes the user row; the student profile goes with it through the
// foreign key's ON DELETE CASCADE.
func (r *userRepository) Delete(ctx context.Context, tenantID, id string) error {
	db, err := r.router.Resolve(ctx, tenantID)
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return outbound.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) FindAll(ctx context.Context, tenantID string) ([]*entity.User, error) {
	db, err := r.router.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, email, password, first_name, last_name, role, auth_provider, auth_provider_id, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, tenantID, email string) (*entity.User, error) {
	return r.findOne(ctx, tenantID, "email = $1", email)
}

func (r *userRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.User, error) {
	return r.findOne(ctx, tenantID, "id = $1", id)
}

func (r *userRepository) findOne(ctx context.Context, tenantID, where string, arg interface{}) (*entity.User, error) {
	db, err := r.router.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, email, password, first_name, last_name, role, auth_provider, auth_provider_id, created_at, updated_at
		FROM users
		WHERE ` + where

	user, err := scanUser(db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		user           entity.User
		password       sql.NullString
		role           string
		authProvider   string
		authProviderID sql.NullString
	)

	err := row.Scan(
		&user.ID,
		&user.Email,
		&password,
		&user.FirstName,
		&user.LastName,
		&role,
		&authProvider,
		&authProviderID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.Password = password.String
	user.Role = entity.UserRole(role)
	user.AuthProvider = entity.AuthProvider(authProvider)
	user.AuthProviderID = authProviderID.String

	return &user, nil
}

type superAdminRepository struct {
	db *sql.DB
}

func NewSuperAdminRepository(db *sql.DB) outbound.SuperAdminRepository {
	return &superAdminRepository{db: db}
}

func (r *superAdminRepository) FindByEmail(ctx context.Context, email string) (*entity.SuperAdmin, error) {
	query := `
		SELECT id, email, password, first_name, last_name, created_at, updated_at
		FROM super_admins
		WHERE email = $1
	`

	var admin entity.SuperAdmin
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&admin.ID,
		&admin.Email,
		&admin.Password,
		&admin.FirstName,
		&admin.LastName,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find super admin: %w", err)
	}

	return &admin, nil
}
