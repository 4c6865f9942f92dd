package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ash-sxn/Qorlia/internal/domain"
)

const genericServerError = "Something went wrong. Please try again later."

// ErrorResponse is the failure envelope every endpoint shares.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message})
}

// writeError maps a failure kind to its status code. Client-kind failures
// return their message as-is; anything internal returns a generic message and
// gets logged with full detail.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindConflict:
		status = http.StatusConflict
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindUnauthorized:
		status = http.StatusUnauthorized
	case domain.KindBadRequest:
		status = http.StatusBadRequest
	}

	message := err.Error()
	if status >= 500 {
		logger.Error("unhandled error", slog.String("error", err.Error()))
		message = genericServerError
	} else {
		logger.Warn("request failed", slog.Int("status", status), slog.String("error", err.Error()))
	}

	writeJSON(w, status, ErrorResponse{Error: message})
}
