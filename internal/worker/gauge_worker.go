package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/observability/metrics"
)

// GaugeWorker periodically recomputes the subscription and workspace job
// status gauges from the repositories so /metrics reflects current state
// even when no requests are flowing.
type GaugeWorker struct {
	subscriptions domain.SubscriptionRepository
	workspaces    domain.WorkspaceRepository
	logger        *slog.Logger
	interval      time.Duration
}

// NewGaugeWorker creates a new gauge refresh worker
func NewGaugeWorker(
	subscriptions domain.SubscriptionRepository,
	workspaces domain.WorkspaceRepository,
	logger *slog.Logger,
	interval time.Duration,
) *GaugeWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &GaugeWorker{
		subscriptions: subscriptions,
		workspaces:    workspaces,
		logger:        logger,
		interval:      interval,
	}
}

// Start begins the refresh loop. It runs until ctx is canceled.
func (w *GaugeWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("gauge worker started", slog.Duration("interval", w.interval))

	// Prime the gauges immediately so they exist before the first tick.
	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("gauge worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *GaugeWorker) refresh(ctx context.Context) {
	subs, err := w.subscriptions.List(ctx)
	if err != nil {
		w.logger.Error("failed to list subscriptions for gauges",
			slog.String("error", err.Error()),
		)
	} else {
		counts := make(map[domain.SubscriptionStatus]int, len(domain.SubscriptionStatuses))
		for _, s := range subs {
			counts[s.Status]++
		}
		// Publish every status, including zeroes, so absent series do not
		// read as missing data.
		for _, status := range domain.SubscriptionStatuses {
			metrics.SetSubscriptions(string(status), counts[status])
		}
	}

	jobs, err := w.workspaces.List(ctx)
	if err != nil {
		w.logger.Error("failed to list workspace jobs for gauges",
			slog.String("error", err.Error()),
		)
		return
	}
	counts := make(map[domain.WorkspaceStatus]int, len(domain.WorkspaceStatuses))
	for _, j := range jobs {
		counts[j.Status]++
	}
	for _, status := range domain.WorkspaceStatuses {
		metrics.SetWorkspaceJobs(string(status), counts[status])
	}
}
