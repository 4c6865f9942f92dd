package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ash-sxn/Qorlia/internal/domain"
)

// SubscriptionService owns the subscription lifecycle. States: trialing ->
// active -> canceled -> active (resume). The trialing->active transition is
// driven by a payment confirmation webhook that lives outside this service;
// until it fires, new subscriptions stay trialing.
type SubscriptionService struct {
	repo       domain.SubscriptionRepository
	plans      []domain.Plan
	paymentURL string
	logger     *slog.Logger
}

// NewSubscriptionService creates a subscription service over a static plan
// catalog. paymentURL is the placeholder checkout link returned on create.
func NewSubscriptionService(
	repo domain.SubscriptionRepository,
	plans []domain.Plan,
	paymentURL string,
	logger *slog.Logger,
) *SubscriptionService {
	if logger == nil {
		logger = slog.Default()
	}

	return &SubscriptionService{
		repo:       repo,
		plans:      plans,
		paymentURL: paymentURL,
		logger:     logger,
	}
}

// CreateSubscriptionResult is returned on create: the record plus the
// checkout link the customer must complete.
type CreateSubscriptionResult struct {
	Subscription *domain.Subscription `json:"subscription"`
	PaymentURL   string               `json:"paymentUrl"`
	Message      string               `json:"message"`
}

// ListPlans returns the static catalog unmodified.
func (s *SubscriptionService) ListPlans() []domain.Plan {
	return s.plans
}

// Create starts a new subscription in the trialing state. The plan must exist
// in the catalog.
func (s *SubscriptionService) Create(ctx context.Context, planID, customerEmail, customerName, workspaceName string) (*CreateSubscriptionResult, error) {
	plan, ok := s.findPlan(planID)
	if !ok {
		return nil, domain.BadRequest("Selected plan is not available.")
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:            uuid.NewString(),
		PlanID:        plan.ID,
		Status:        domain.SubscriptionTrialing,
		CustomerEmail: customerEmail,
		CustomerName:  customerName,
		WorkspaceName: workspaceName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("subscription created",
		slog.String("subscription_id", sub.ID),
		slog.String("plan_id", plan.ID),
	)

	return &CreateSubscriptionResult{
		Subscription: sub,
		PaymentURL:   s.paymentURL,
		Message:      "Subscription created. Complete payment to activate.",
	}, nil
}

// Get returns a subscription by id.
func (s *SubscriptionService) Get(ctx context.Context, id string) (*domain.Subscription, error) {
	return s.repo.GetByID(ctx, id)
}

// Cancel moves a subscription to canceled from any state. Canceling an
// already-canceled subscription is a no-op that returns the record unchanged.
func (s *SubscriptionService) Cancel(ctx context.Context, id string) (*domain.Subscription, error) {
	sub, err := s.repo.Update(ctx, id, func(sub *domain.Subscription) error {
		if sub.Status == domain.SubscriptionCanceled {
			return nil
		}
		sub.Status = domain.SubscriptionCanceled
		sub.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription canceled", slog.String("subscription_id", id))
	return sub, nil
}

// Resume reactivates a canceled subscription. Every other source state is an
// illegal resume target.
func (s *SubscriptionService) Resume(ctx context.Context, id string) (*domain.Subscription, error) {
	sub, err := s.repo.Update(ctx, id, func(sub *domain.Subscription) error {
		if sub.Status != domain.SubscriptionCanceled {
			return domain.BadRequest("Only canceled subscriptions can be resumed.")
		}
		sub.Status = domain.SubscriptionActive
		sub.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("subscription resumed", slog.String("subscription_id", id))
	return sub, nil
}

func (s *SubscriptionService) findPlan(planID string) (domain.Plan, bool) {
	for _, plan := range s.plans {
		if plan.ID == planID {
			return plan, true
		}
	}
	return domain.Plan{}, false
}
