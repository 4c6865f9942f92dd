package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/observability/metrics"
)

// ProvisioningService tracks workspace provisioning jobs. It only records
// intent: jobs enter queued and the queued->running->completed progression
// belongs to the Terraform executor, which is not part of this service.
// Destroy is the one transition it owns.
type ProvisioningService struct {
	repo          domain.WorkspaceRepository
	defaultRegion string
	logger        *slog.Logger
}

// NewProvisioningService creates a provisioning service. defaultRegion is
// used when a request leaves the region empty.
func NewProvisioningService(
	repo domain.WorkspaceRepository,
	defaultRegion string,
	logger *slog.Logger,
) *ProvisioningService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ProvisioningService{
		repo:          repo,
		defaultRegion: defaultRegion,
		logger:        logger,
	}
}

// RequestWorkspaceResult acknowledges a queued provisioning job.
type RequestWorkspaceResult struct {
	JobID   string                 `json:"jobId"`
	Status  domain.WorkspaceStatus `json:"status"`
	Message string                 `json:"message"`
}

// Request queues a new provisioning job. The subscription id is recorded as
// given; the subscription registry is deliberately not consulted, the two
// aggregates stay loosely coupled.
func (s *ProvisioningService) Request(ctx context.Context, subscriptionID string, stack domain.Stack, region, domainName string) (*RequestWorkspaceResult, error) {
	if region == "" {
		region = s.defaultRegion
	}

	now := time.Now().UTC()
	job := &domain.WorkspaceJob{
		ID:             uuid.NewString(),
		SubscriptionID: subscriptionID,
		Stack:          stack,
		Region:         region,
		Domain:         domainName,
		Status:         domain.WorkspaceQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}

	metrics.ObserveProvisionRequest(string(stack))
	s.logger.Info("workspace provisioning queued",
		slog.String("job_id", job.ID),
		slog.String("stack", string(stack)),
		slog.String("region", region),
	)

	return &RequestWorkspaceResult{
		JobID:   job.ID,
		Status:  job.Status,
		Message: "Workspace provisioning queued. Terraform execution pending.",
	}, nil
}

// Get returns a provisioning job by id.
func (s *ProvisioningService) Get(ctx context.Context, id string) (*domain.WorkspaceJob, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all provisioning jobs, in no particular order.
func (s *ProvisioningService) List(ctx context.Context) ([]*domain.WorkspaceJob, error) {
	return s.repo.List(ctx)
}

// Destroy tears a workspace down. No state forbids destruction, and
// destroying an already-destroyed job returns it unchanged.
func (s *ProvisioningService) Destroy(ctx context.Context, id string) (*domain.WorkspaceJob, error) {
	job, err := s.repo.Update(ctx, id, func(job *domain.WorkspaceJob) error {
		if job.Status == domain.WorkspaceDestroyed {
			return nil
		}
		job.Status = domain.WorkspaceDestroyed
		job.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workspace destroyed", slog.String("job_id", id))
	return job, nil
}
