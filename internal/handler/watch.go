package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/service"
)

// WatchHandler streams workspace job status changes over a WebSocket. The
// registry itself has no change feed, so the handler polls it and forwards a
// snapshot whenever the status or UpdatedAt moves. The stream ends once the
// job reaches destroyed.
type WatchHandler struct {
	provisioning   *service.ProvisioningService
	logger         *slog.Logger
	allowedOrigins []string
	pollInterval   time.Duration
}

// NewWatchHandler creates a new workspace watch handler.
func NewWatchHandler(provisioning *service.ProvisioningService, logger *slog.Logger, allowedOrigins []string) *WatchHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &WatchHandler{
		provisioning:   provisioning,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		pollInterval:   2 * time.Second,
	}
}

func (h *WatchHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no origin.
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/workspaces/{id}
func (h *WatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}

	job, err := h.provisioning.Get(r.Context(), jobID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	if err := ws.WriteJSON(job); err != nil {
		return
	}
	if job.Status == domain.WorkspaceDestroyed {
		return
	}

	lastUpdated := job.UpdatedAt
	lastStatus := job.Status

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := h.provisioning.Get(ctx, jobID)
			if err != nil {
				h.logger.Debug("watched job gone", slog.String("job_id", jobID))
				return
			}

			if job.Status == lastStatus && job.UpdatedAt.Equal(lastUpdated) {
				continue
			}
			lastStatus = job.Status
			lastUpdated = job.UpdatedAt

			if err := ws.WriteJSON(job); err != nil {
				h.logger.Debug("watch stream closed",
					slog.String("job_id", jobID),
					slog.String("reason", err.Error()),
				)
				return
			}
			if job.Status == domain.WorkspaceDestroyed {
				return
			}
		}
	}
}
