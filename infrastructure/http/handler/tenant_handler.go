package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/schoolyard/schoolyard/application/port/inbound"
	"github.com/schoolyard/schoolyard/infrastructure/http/response"
	"github.com/schoolyard/schoolyard/infrastructure/http/validator"
)

type TenantHandler struct {
	tenantUseCase inbound.TenantUseCase
}

func NewTenantHandler(tenantUseCase inbound.TenantUseCase) *TenantHandler {
	return &TenantHandler{
		tenantUseCase: tenantUseCase,
	}
}

type CreateTenantRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if !validator.ValidateRequired(req.Name) || !validator.ValidateRequired(req.Domain) {
		response.BadRequest(w, "Name and domain are required")
		return
	}

	result, err := h.tenantUseCase.Create(r.Context(), req.Name, req.Domain)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Tenant created successfully", result)
}

func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenantUseCase.List(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Tenants retrieved", tenants)
}

func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenantUseCase.Get(r.Context(), mux.Vars(r)["tenantId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Tenant retrieved", tenant)
}

type UpdateTenantRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	tenant, err := h.tenantUseCase.Update(r.Context(), mux.Vars(r)["tenantId"], req.Name, req.Domain)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Tenant updated successfully", tenant)
}

func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.tenantUseCase.Delete(r.Context(), mux.Vars(r)["tenantId"]); err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Tenant deleted successfully", nil)
}
