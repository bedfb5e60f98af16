package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/schoolyard/schoolyard/application/port/inbound"
	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/apperror"
	"github.com/schoolyard/schoolyard/domain/entity"
)

type userUseCase struct {
	users     outbound.UserRepository
	profiles  outbound.StudentProfileRepository
	passwords outbound.PasswordService
	publisher outbound.AuditPublisher
	logger    *logrus.Logger
}

func NewUserUseCase(
	users outbound.UserRepository,
	profiles outbound.StudentProfileRepository,
	passwords outbound.PasswordService,
	publisher outbound.AuditPublisher,
	logger *logrus.Logger,
) inbound.UserUseCase {
	return &userUseCase{
		users:     users,
		profiles:  profiles,
		passwords: passwords,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *userUseCase) List(ctx context.Context, tenantID string) ([]*entity.User, error) {
	if tenantID == "" {
		return nil, apperror.InvalidArgument("tenant ID is required")
	}
	users, err := uc.users.FindAll(ctx, tenantID)
	if err != nil {
		return nil, classifyUserError(err, "failed to list users")
	}
	return users, nil
}

func (uc *userUseCase) Get(ctx context.Context, tenantID, userID string) (*entity.User, error) {
	if tenantID == "" || userID == "" {
		return nil, apperror.InvalidArgument("tenant ID and user ID are required")
	}
	user, err := uc.users.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, classifyUserError(err, "failed to fetch user")
	}
	return user, nil
}

func (uc *userUseCase) Update(ctx context.Context, req inbound.UpdateUserRequest) (*entity.User, error) {
	user, err := uc.Get(ctx, req.TenantID, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Email != "" && req.Email != user.Email {
		existing, err := uc.users.FindByEmail(ctx, req.TenantID, req.Email)
		if err == nil && existing.ID != req.UserID {
			return nil, apperror.Conflict("email already in use")
		}
		if err != nil && !errors.Is(err, outbound.ErrUserNotFound) {
			return nil, apperror.Internal("failed to check email availability", err)
		}
		user.Email = req.Email
	}
	if req.Password != "" {
		hashed, err := uc.passwords.HashPassword(req.Password)
		if err != nil {
			return nil, apperror.Internal("failed to hash password", err)
		}
		user.Password = hashed
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.Role != "" && req.Role != user.Role {
		if req.Role != entity.RoleAdmin && req.Role != entity.RoleStudent {
			return nil, apperror.InvalidArgument(`role must be either "admin" or "student"`)
		}
		user.Role = req.Role
	}

	if err := uc.users.Update(ctx, req.TenantID, user); err != nil {
		return nil, classifyUserError(err, "failed to update user")
	}
	return user, nil
}

func (uc *userUseCase) Delete(ctx context.Context, tenantID, userID string) error {
	if tenantID == "" || userID == "" {
		return apperror.InvalidArgument("tenant ID and user ID are required")
	}
	if err := uc.users.Delete(ctx, tenantID, userID); err != nil {
		return classifyUserError(err, "failed to delete user")
	}
	return nil
}

func (uc *userUseCase) StudentProfile(ctx context.Context, tenantID, userID string) (*entity.StudentProfile, error) {
	if tenantID == "" || userID == "" {
		return nil, apperror.InvalidArgument("tenant ID and user ID are required")
	}
	profile, err := uc.profiles.FindByUserID(ctx, tenantID, userID)
	if err != nil {
		return nil, classifyUserError(err, "failed to fetch student profile")
	}
	return profile, nil
}

func (uc *userUseCase) UpdateStudentProfile(ctx context.Context, req inbound.UpdateStudentProfileRequest) (*entity.StudentProfile, error) {
	profile, err := uc.StudentProfile(ctx, req.TenantID, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Grade != "" {
		profile.Grade = req.Grade
	}
	if !req.DateOfBirth.IsZero() {
		profile.DateOfBirth = req.DateOfBirth
	}
	if req.Address != "" {
		profile.Address = req.Address
	}
	if req.PhoneNumber != "" {
		profile.PhoneNumber = req.PhoneNumber
	}

	if err := uc.profiles.Update(ctx, req.TenantID, profile); err != nil {
		return nil, classifyUserError(err, "failed to update student profile")
	}
	return profile, nil
}

// CreateTenantAdmin adds another admin to an existing tenant. Both outcomes
// are published to the audit queue under the tenant's scope.
func (uc *userUseCase) CreateTenantAdmin(ctx context.Context, req inbound.CreateTenantAdminRequest) (*entity.User, error) {
	if req.TenantID == "" {
		return nil, apperror.InvalidArgument("tenant ID is required")
	}
	if req.Email == "" || req.Password == "" {
		return nil, apperror.InvalidArgument("email and password are required")
	}

	hashed, err := uc.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	admin := entity.NewUser(uuid.New().String(), req.Email, hashed, entity.RoleAdmin)
	admin.FirstName = req.FirstName
	admin.LastName = req.LastName

	if err := uc.users.Create(ctx, req.TenantID, admin); err != nil {
		uc.auditTenantAdmin(ctx, req, "", entity.AuditStatusFailure, err.Error())
		return nil, classifyUserError(err, "failed to create tenant admin")
	}

	uc.auditTenantAdmin(ctx, req, admin.ID, entity.AuditStatusSuccess, "")

	return admin, nil
}

func (uc *userUseCase) auditTenantAdmin(ctx context.Context, req inbound.CreateTenantAdminRequest, userID string, status entity.AuditStatus, details string) {
	event := entity.NewAuditEvent(userID, req.TenantID, entity.ActionTenantAdminCreate, status)
	event.IPAddress = req.IPAddress
	event.UserAgent = req.UserAgent
	event.Details = details
	uc.publisher.Publish(ctx, event)
}

func classifyUserError(err error, fallback string) error {
	switch {
	case errors.Is(err, outbound.ErrUserNotFound):
		return apperror.NotFound("user not found")
	case errors.Is(err, outbound.ErrProfileNotFound):
		return apperror.NotFound("student profile not found")
	case errors.Is(err, outbound.ErrEmailTaken):
		return apperror.Conflict("email already in use")
	case errors.Is(err, outbound.ErrTenantNotFound):
		return apperror.NotFound("tenant not found")
	default:
		return apperror.Internal(fallback, err)
	}
}
