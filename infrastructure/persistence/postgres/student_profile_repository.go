package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
)

type studentProfileRepository struct {
	router *Router
}

func NewStudentProfileRepository(router *Router) outbound.StudentProfileRepository {
	return &studentProfileRepository{router: router}
}

func (r *studentProfileRepository) FindByUserID(ctx context.Context, tenantID, userID string) (*entity.StudentProfile, error) {
	db, err := r.router.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, grade, date_of_birth, address, phone_number
		FROM student_profiles
		WHERE user_id = $1
	`

	var (
		profile     entity.StudentProfile
		grade       sql.NullString
		dateOfBirth sql.NullTime
		address     sql.NullString
		phoneNumber sql.NullString
	)

	err = db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&grade,
		&dateOfBirth,
		&address,
		&phoneNumber,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find student profile: %w", err)
	}

	profile.Grade = grade.String
	profile.DateOfBirth = dateOfBirth.Time
	profile.Address = address.String
	profile.PhoneNumber = phoneNumber.String

	return &profile, nil
}

func (r *studentProfileRepository) Update(ctx context.Context, tenantID string, profile *entity.StudentProfile) error {
	db, err := r.router.Resolve(ctx, tenantID)
	if err != nil {
		return err
	}

	query := `
		UPDATE student_profiles
		SET grade = $1, date_of_birth = $2, address = $3, phone_number = $4
		WHERE user_id = $5
	`

	result, err := db.ExecContext(ctx, query,
		nullIfEmpty(profile.Grade),
		nullTimeIfZero(profile.DateOfBirth),
		nullIfEmpty(profile.Address),
		nullIfEmpty(profile.PhoneNumber),
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student profile: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return outbound.ErrProfileNotFound
	}
	return nil
}
