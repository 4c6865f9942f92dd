package domain

import (
	"context"
	"time"
)

// SubscriptionStatus is the subscription lifecycle state.
type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

// SubscriptionStatuses lists every lifecycle state, for gauges and validation.
var SubscriptionStatuses = []SubscriptionStatus{
	SubscriptionTrialing,
	SubscriptionActive,
	SubscriptionCanceled,
	SubscriptionPastDue,
}

// Plan is a static catalog entry. Plans are loaded at process start and never
// mutated.
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Currency    string `json:"currency"`
	Price       int    `json:"price"`
	Interval    string `json:"interval"`
}

// DefaultPlans returns the Qorlia managed-hosting catalog.
func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:          "bahmni-managed",
			Name:        "Bahmni Managed",
			Description: "Managed Bahmni environment with localisation and support.",
			Currency:    "INR",
			Price:       32000,
			Interval:    "month",
		},
		{
			ID:          "erpnext-managed",
			Name:        "ERPNext Managed",
			Description: "Managed ERPNext environment with customisation support.",
			Currency:    "INR",
			Price:       28000,
			Interval:    "month",
		},
		{
			ID:          "full-suite",
			Name:        "Full Suite Bundle",
			Description: "Bahmni + ERPNext stack with shared data integrations.",
			Currency:    "INR",
			Price:       54000,
			Interval:    "month",
		},
	}
}

// Subscription is a customer's subscription to a plan. Records are only
// mutated through cancel/resume and are never deleted.
type Subscription struct {
	ID            string             `json:"id"`
	PlanID        string             `json:"planId"`
	Status        SubscriptionStatus `json:"status"`
	CustomerEmail string             `json:"customerEmail"`
	CustomerName  string             `json:"customerName"`
	WorkspaceName string             `json:"workspaceName"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// SubscriptionRepository defines data access for subscriptions. Update runs
// the mutator atomically with respect to concurrent calls on the same id;
// an error returned by the mutator aborts the update.
type SubscriptionRepository interface {
	Save(ctx context.Context, sub *Subscription) error
	GetByID(ctx context.Context, id string) (*Subscription, error)
	List(ctx context.Context) ([]*Subscription, error)
	Update(ctx context.Context, id string, fn func(*Subscription) error) (*Subscription, error)
}
