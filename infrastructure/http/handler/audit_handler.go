package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/schoolyard/schoolyard/application/port/inbound"
	"github.com/schoolyard/schoolyard/application/port/outbound"
	"github.com/schoolyard/schoolyard/domain/entity"
	"github.com/schoolyard/schoolyard/infrastructure/http/middleware"
	"github.com/schoolyard/schoolyard/infrastructure/http/response"
)

type AuditHandler struct {
	auditUseCase inbound.AuditUseCase
}

func NewAuditHandler(auditUseCase inbound.AuditUseCase) *AuditHandler {
	return &AuditHandler{
		auditUseCase: auditUseCase,
	}
}

func (h *AuditHandler) AllFailedLogins(w http.ResponseWriter, r *http.Request) {
	logs, err := h.auditUseCase.AllFailedLogins(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Failed logins retrieved", logs)
}

func (h *AuditHandler) FailedLogins(w http.ResponseWriter, r *http.Request) {
	logs, err := h.auditUseCase.FailedLogins(r.Context(), mux.Vars(r)["tenantId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Failed logins retrieved", logs)
}

func (h *AuditHandler) TenantLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := outbound.LogFilter{
		Action:    query.Get("action"),
		Status:    entity.AuditStatus(query.Get("status")),
		StartDate: query.Get("startDate"),
		EndDate:   query.Get("endDate"),
	}
	if limit := query.Get("limit"); limit != "" {
		filter.Limit, _ = strconv.Atoi(limit)
	}
	if page := query.Get("page"); page != "" {
		filter.Page, _ = strconv.Atoi(page)
	}

	logs, err := h.auditUseCase.TenantLogs(r.Context(), mux.Vars(r)["tenantId"], filter)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Audit logs retrieved", logs)
}

type PublishLogRequest struct {
	UserID    string `json:"user_id"`
	TenantID  string `json:"tenant_id"`
	Action    string `json:"action"`
	Status    string `json:"status"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Details   string `json:"details"`
}

// Publish is the manual diagnostics entry point onto the audit queue.
func (h *AuditHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req PublishLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if req.Action == "" {
		response.BadRequest(w, "Action is required")
		return
	}
	status := entity.AuditStatus(req.Status)
	if status != entity.AuditStatusSuccess && status != entity.AuditStatusFailure {
		response.BadRequest(w, `Status must be either "success" or "failure"`)
		return
	}

	event := entity.NewAuditEvent(req.UserID, req.TenantID, req.Action, status)
	event.Details = req.Details
	event.IPAddress = req.IPAddress
	if event.IPAddress == "" {
		event.IPAddress = middleware.ClientIP(r)
	}
	event.UserAgent = req.UserAgent
	if event.UserAgent == "" {
		event.UserAgent = r.UserAgent()
	}

	enqueued := h.auditUseCase.Record(r.Context(), event)

	response.Success(w, http.StatusCreated, "Audit log created", map[string]interface{}{
		"id":       event.ID,
		"enqueued": enqueued,
	})
}
