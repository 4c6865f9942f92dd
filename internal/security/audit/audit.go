package audit

import (
	"context"
	"log/slog"
	"time"
)

// Logger records security-relevant actions (account creation, logins,
// workspace teardown) as structured log entries on a dedicated channel.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status, details string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("details", details),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogRegistration(ctx context.Context, userID, status, details string) {
	al.LogAction(ctx, userID, "register", "account", userID, status, details)
}

func (al *Logger) LogLogin(ctx context.Context, userID, status, details string) {
	al.LogAction(ctx, userID, "login", "account", userID, status, details)
}

func (al *Logger) LogWorkspaceDestroy(ctx context.Context, userID, jobID, status, details string) {
	al.LogAction(ctx, userID, "destroy", "workspace", jobID, status, details)
}

func (al *Logger) LogSubscriptionCancel(ctx context.Context, userID, subscriptionID, status, details string) {
	al.LogAction(ctx, userID, "cancel", "subscription", subscriptionID, status, details)
}
