package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/security/audit"
	"github.com/ash-sxn/Qorlia/internal/security/middleware"
	"github.com/ash-sxn/Qorlia/internal/service"
)

// ProvisioningHandler handles workspace provisioning job endpoints
type ProvisioningHandler struct {
	provisioning *service.ProvisioningService
	auditLog     *audit.Logger
	logger       *slog.Logger
}

// NewProvisioningHandler creates a new provisioning handler
func NewProvisioningHandler(provisioning *service.ProvisioningService, auditLog *audit.Logger, logger *slog.Logger) *ProvisioningHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	return &ProvisioningHandler{
		provisioning: provisioning,
		auditLog:     auditLog,
		logger:       logger,
	}
}

// RequestWorkspaceRequest represents a workspace provisioning request
type RequestWorkspaceRequest struct {
	SubscriptionID string `json:"subscriptionId"`
	Stack          string `json:"stack"`
	Region         string `json:"region"`
	Domain         string `json:"domain"`
}

type jobResponse struct {
	Job *domain.WorkspaceJob `json:"job"`
}

type jobsResponse struct {
	Jobs []*domain.WorkspaceJob `json:"jobs"`
}

// Request handles POST /api/provisioning/workspaces
func (h *ProvisioningHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req RequestWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode workspace request", slog.String("error", err.Error()))
		badRequest(w, "invalid request")
		return
	}

	if req.SubscriptionID == "" {
		badRequest(w, "subscriptionId is required")
		return
	}
	if !domain.ValidStack(domain.Stack(req.Stack)) {
		badRequest(w, "stack must be one of bahmni, erpnext, bundle")
		return
	}
	if len(req.Domain) < 4 {
		badRequest(w, "domain must be at least 4 characters")
		return
	}

	result, err := h.provisioning.Request(r.Context(), req.SubscriptionID, domain.Stack(req.Stack), req.Region, req.Domain)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

// Get handles GET /api/provisioning/workspaces/{id}
func (h *ProvisioningHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.provisioning.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, jobResponse{Job: job})
}

// List handles GET /api/provisioning/workspaces
func (h *ProvisioningHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.provisioning.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if jobs == nil {
		jobs = []*domain.WorkspaceJob{}
	}

	writeJSON(w, http.StatusOK, jobsResponse{Jobs: jobs})
}

// Destroy handles POST /api/provisioning/workspaces/{id}/destroy
func (h *ProvisioningHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	job, err := h.provisioning.Destroy(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// The route sits behind RequireAuth, so the caller's identity is on the
	// context.
	userID := ""
	if claims := middleware.GetClaimsFromContext(r.Context()); claims != nil {
		userID = claims.Subject
	}
	h.auditLog.LogWorkspaceDestroy(r.Context(), userID, job.ID, "success", string(job.Status))

	writeJSON(w, http.StatusOK, jobResponse{Job: job})
}
