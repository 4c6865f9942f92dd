package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/security/audit"
	"github.com/ash-sxn/Qorlia/internal/service"
)

// SubscriptionHandler handles plan catalog and subscription endpoints
type SubscriptionHandler struct {
	subscriptions *service.SubscriptionService
	auditLog      *audit.Logger
	logger        *slog.Logger
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptions *service.SubscriptionService, auditLog *audit.Logger, logger *slog.Logger) *SubscriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	return &SubscriptionHandler{
		subscriptions: subscriptions,
		auditLog:      auditLog,
		logger:        logger,
	}
}

// CreateSubscriptionRequest represents a subscription request
type CreateSubscriptionRequest struct {
	PlanID        string `json:"planId"`
	CustomerEmail string `json:"customerEmail"`
	CustomerName  string `json:"customerName"`
	WorkspaceName string `json:"workspaceName"`
}

type plansResponse struct {
	Plans []domain.Plan `json:"plans"`
}

type subscriptionResponse struct {
	Subscription *domain.Subscription `json:"subscription"`
}

// ListPlans handles GET /api/subscriptions/plans
func (h *SubscriptionHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, plansResponse{Plans: h.subscriptions.ListPlans()})
}

// Create handles POST /api/subscriptions
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode subscription request", slog.String("error", err.Error()))
		badRequest(w, "invalid request")
		return
	}

	if req.PlanID == "" || req.CustomerEmail == "" || req.CustomerName == "" || req.WorkspaceName == "" {
		badRequest(w, "planId, customerEmail, customerName, and workspaceName are required")
		return
	}
	if !strings.Contains(req.CustomerEmail, "@") {
		badRequest(w, "customerEmail is not valid")
		return
	}

	result, err := h.subscriptions.Create(r.Context(), req.PlanID, req.CustomerEmail, req.CustomerName, req.WorkspaceName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// 202: the subscription stays trialing until payment confirms.
	writeJSON(w, http.StatusAccepted, result)
}

// Get handles GET /api/subscriptions/{id}
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscriptions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, subscriptionResponse{Subscription: sub})
}

// Cancel handles POST /api/subscriptions/{id}/cancel
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscriptions.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.auditLog.LogSubscriptionCancel(r.Context(), "", sub.ID, "success", string(sub.Status))
	writeJSON(w, http.StatusOK, subscriptionResponse{Subscription: sub})
}

// Resume handles POST /api/subscriptions/{id}/resume
func (h *SubscriptionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscriptions.Resume(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, subscriptionResponse{Subscription: sub})
}
