package handler

import (
	"encoding/json"
	"net/http"

	"github.com/schoolyard/schoolyard/application/port/inbound"
	"github.com/schoolyard/schoolyard/domain/entity"
	"github.com/schoolyard/schoolyard/infrastructure/http/middleware"
	"github.com/schoolyard/schoolyard/infrastructure/http/response"
	"github.com/schoolyard/schoolyard/infrastructure/http/validator"
)

const tenantIDHeader = "X-Tenant-ID"

type AuthHandler struct {
	authUseCase inbound.AuthUseCase
}

func NewAuthHandler(authUseCase inbound.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateEmail(req.Email) {
		response.BadRequest(w, "Invalid email format")
		return
	}
	if !validator.ValidateRequired(req.Password) {
		response.BadRequest(w, "Password is required")
		return
	}

	result, err := h.authUseCase.Login(r.Context(), inbound.LoginRequest{
		TenantID:  r.Header.Get(tenantIDHeader),
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusOK, "Login successful", result)
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
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

	user, err := h.authUseCase.Register(r.Context(), inbound.RegisterRequest{
		TenantID:  r.Header.Get(tenantIDHeader),
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      entity.UserRole(req.Role),
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "User registered successfully", user)
}
