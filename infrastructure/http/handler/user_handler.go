package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/schoolyard/schoolyard/application/port/inbound"
	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
	"github.com/schoolyard/schoolyard/infrastructure/http/middleware"
	"github.com/schoolyard/schoolyard/infrastructure/http/response"
	"github.com/schoolyard/schoolyard/infrastructure/http/validator"
)

type UserHandler struct {
	userUseCase inbound.UserUseCase
}

func NewUserHandler(userUseCase inbound.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

// tenantScope resolves which tenant store a request operates on: the caller's
// own tenant, or the X-Tenant-ID header for super admins, who have none.
func tenantScope(r *http.Request) string {
	claims := middleware.GetUserClaims(r.Context())
	if claims != nil && claims.TenantID != "" {
		return claims.TenantID
	}
	return r.Header.Get(tenantIDHeader)
}

// canAccessUser reports whether the caller may read or modify the given
// user's record: admins may touch anyone, everyone else only themselves.
func canAccessUser(claims *outbound.TokenClaims, userID string) bool {
	if claims == nil {
		return false
	}
	if claims.Role == string(entity.RoleAdmin) || claims.Role == string(entity.RoleSuperAdmin) {
		return true
	}
	return claims.UserID == userID
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userUseCase.List(r.Context(), tenantScope(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Users retrieved", users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if !canAccessUser(middleware.GetUserClaims(r.Context()), userID) {
		response.Forbidden(w, "Access denied. You can only access your own record.")
		return
	}

	user, err := h.userUseCase.Get(r.Context(), tenantScope(r), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "User retrieved", user)
}

type UpdateUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	claims := middleware.GetUserClaims(r.Context())
	if !canAccessUser(claims, userID) {
		response.Forbidden(w, "Access denied. You can only modify your own record.")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if req.Email != "" && !validator.ValidateEmail(req.Email) {
		response.BadRequest(w, "Invalid email format")
		return
	}
	if req.Password != "" && !validator.ValidatePassword(req.Password) {
		response.BadRequest(w, "Password must be at least 8 characters long")
		return
	}
	// Only admins may change a role; a student must not promote themselves.
	if req.Role != "" && claims.Role != string(entity.RoleAdmin) && claims.Role != string(entity.RoleSuperAdmin) {
		response.Forbidden(w, "Only admins can change roles")
		return
	}

	user, err := h.userUseCase.Update(r.Context(), inbound.UpdateUserRequest{
		TenantID:  tenantScope(r),
		UserID:    userID,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      entity.UserRole(req.Role),
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "User updated successfully", user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.userUseCase.Delete(r.Context(), tenantScope(r), mux.Vars(r)["userId"]); err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "User deleted successfully", nil)
}

func (h *UserHandler) StudentProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if !canAccessUser(middleware.GetUserClaims(r.Context()), userID) {
		response.Forbidden(w, "Access denied. You can only access your own profile.")
		return
	}

	profile, err := h.userUseCase.StudentProfile(r.Context(), tenantScope(r), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Student profile retrieved", profile)
}

type UpdateStudentProfileRequest struct {
	Grade       string `json:"grade"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
}

func (h *UserHandler) UpdateStudentProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if !canAccessUser(middleware.GetUserClaims(r.Context()), userID) {
		response.Forbidden(w, "Access denied. You can only modify your own profile.")
		return
	}

	var req UpdateStudentProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	var dateOfBirth time.Time
	if req.DateOfBirth != "" {
		var err error
		dateOfBirth, err = time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			response.BadRequest(w, "date_of_birth must be formatted as YYYY-MM-DD")
			return
		}
	}

	profile, err := h.userUseCase.UpdateStudentProfile(r.Context(), inbound.UpdateStudentProfileRequest{
		TenantID:    tenantScope(r),
		UserID:      userID,
		Grade:       req.Grade,
		DateOfBirth: dateOfBirth,
		Address:     req.Address,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Student profile updated successfully", profile)
}

type CreateTenantAdminRequest struct {
	TenantID  string `json:"tenant_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *UserHandler) CreateTenantAdmin(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateRequired(req.TenantID) {
		response.BadRequest(w, "Tenant ID is required")
		return
	}
	if !validator.ValidateEmail(req.Email) {
		response.BadRequest(w, "Invalid email format")
		return
	}
	if !validator.ValidatePassword(req.Password) {
		response.BadRequest(w, "Password must be at least 8 characters long")
		return
	}

	admin, err := h.userUseCase.CreateTenantAdmin(r.Context(), inbound.CreateTenantAdminRequest{
		TenantID:  req.TenantID,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "Tenant admin created successfully", admin)
}
