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

type authUseCase struct {
	users       outbound.UserRepository
	superAdmins outbound.SuperAdminRepository
	tokens      outbound.TokenService
	passwords   outbound.PasswordService
	publisher   outbound.AuditPublisher
	tokenTTL    int // seconds
	logger      *logrus.Logger
}

func NewAuthUseCase(
	users outbound.UserRepository,
	superAdmins outbound.SuperAdminRepository,
	tokens outbound.TokenService,
	passwords outbound.PasswordService,
	publisher outbound.AuditPublisher,
	tokenTTL int,
	logger *logrus.Logger,
) inbound.AuthUseCase {
	return &authUseCase{
		users:       users,
		superAdmins: superAdmins,
		tokens:      tokens,
		passwords:   passwords,
		publisher:   publisher,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// Login authenticates against the tenant store named by the request, or the
// control-plane super-admin table when no tenant is given. Every outcome is
// published to the audit queue, fire-and-forget.
func (uc *authUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*inbound.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperror.InvalidArgument("email and password are required")
	}

	if req.TenantID == "" {
		return uc.loginSuperAdmin(ctx, req)
	}

	user, err := uc.users.FindByEmail(ctx, req.TenantID, req.Email)
	if err != nil {
		uc.auditLogin(ctx, req, "", entity.AuditStatusFailure, loginFailureDetail(err))
		return nil, loginError(err)
	}

	if err := uc.passwords.ComparePassword(user.Password, req.Password); err != nil {
		uc.auditLogin(ctx, req, user.ID, entity.AuditStatusFailure, "invalid credentials")
		return nil, apperror.Unauthorized("invalid email or password")
	}

	token, err := uc.tokens.GenerateAccessToken(outbound.TokenClaims{
		UserID:   user.ID,
		TenantID: req.TenantID,
		Email:    user.Email,
		Role:     string(user.Role),
	})
	if err != nil {
		return nil, apperror.Internal("failed to generate access token", err)
	}

	uc.auditLogin(ctx, req, user.ID, entity.AuditStatusSuccess, "")

	return &inbound.LoginResponse{
		AccessToken: token,
		ExpiresIn:   uc.tokenTTL,
		User:        user,
	}, nil
}

func (uc *authUseCase) loginSuperAdmin(ctx context.Context, req inbound.LoginRequest) (*inbound.LoginResponse, error) {
	admin, err := uc.superAdmins.FindByEmail(ctx, req.Email)
	if err != nil {
		uc.auditLogin(ctx, req, "", entity.AuditStatusFailure, loginFailureDetail(err))
		return nil, loginError(err)
	}

	if err := uc.passwords.ComparePassword(admin.Password, req.Password); err != nil {
		uc.auditLogin(ctx, req, admin.ID, entity.AuditStatusFailure, "invalid credentials")
		return nil, apperror.Unauthorized("invalid email or password")
	}

	token, err := uc.tokens.GenerateAccessToken(outbound.TokenClaims{
		UserID: admin.ID,
		Email:  admin.Email,
		Role:   string(entity.RoleSuperAdmin),
	})
	if err != nil {
		return nil, apperror.Internal("failed to generate access token", err)
	}

	uc.auditLogin(ctx, req, admin.ID, entity.AuditStatusSuccess, "")

	return &inbound.LoginResponse{AccessToken: token, ExpiresIn: uc.tokenTTL}, nil
}

func (uc *authUseCase) Register(ctx context.Context, req inbound.RegisterRequest) (*entity.User, error) {
	if req.TenantID == "" {
		return nil, apperror.InvalidArgument("tenant ID is required")
	}
	if req.Email == "" || req.Password == "" {
		return nil, apperror.InvalidArgument("email and password are required")
	}
	if req.Role != entity.RoleAdmin && req.Role != entity.RoleStudent {
		return nil, apperror.InvalidArgument(`role must be either "admin" or "student"`)
	}

	hashed, err := uc.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	user := entity.NewUser(uuid.New().String(), req.Email, hashed, req.Role)
	user.FirstName = req.FirstName
	user.LastName = req.LastName

	if err := uc.users.Create(ctx, req.TenantID, user); err != nil {
		uc.auditRegistration(ctx, req, "", entity.AuditStatusFailure, err.Error())
		switch {
		case errors.Is(err, outbound.ErrEmailTaken):
			return nil, apperror.Conflict("email already in use")
		case errors.Is(err, outbound.ErrTenantNotFound):
			return nil, apperror.NotFound("tenant not found")
		default:
			return nil, apperror.Internal("failed to create user", err)
		}
	}

	uc.auditRegistration(ctx, req, user.ID, entity.AuditStatusSuccess, "")

	return user, nil
}

func (uc *authUseCase) auditLogin(ctx context.Context, req inbound.LoginRequest, userID string, status entity.AuditStatus, details string) {
	event := entity.NewAuditEvent(userID, req.TenantID, entity.ActionUserLogin, status)
	event.IPAddress = req.IPAddress
	event.UserAgent = req.UserAgent
	event.Details = details
	uc.publisher.Publish(ctx, event)
}

func (uc *authUseCase) auditRegistration(ctx context.Context, req inbound.RegisterRequest, userID string, status entity.AuditStatus, details string) {
	event := entity.NewAuditEvent(userID, req.TenantID, entity.ActionUserRegistration, status)
	event.IPAddress = req.IPAddress
	event.UserAgent = req.UserAgent
	event.Details = details
	uc.publisher.Publish(ctx, event)
}

func loginFailureDetail(err error) string {
	switch {
	case errors.Is(err, outbound.ErrUserNotFound):
		return "unknown user"
	case errors.Is(err, outbound.ErrTenantNotFound):
		return "unknown tenant"
	default:
		return err.Error()
	}
}

func loginError(err error) error {
	switch {
	case errors.Is(err, outbound.ErrUserNotFound):
		return apperror.Unauthorized("invalid email or password")
	case errors.Is(err, outbound.ErrTenantNotFound):
		return apperror.NotFound("tenant not found")
	default:
		return apperror.Internal("login failed", err)
	}
}
