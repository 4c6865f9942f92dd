package domain

import (
	"context"
	"time"
)

// WorkspaceStatus is the provisioning job lifecycle state.
type WorkspaceStatus string

const (
	WorkspaceQueued    WorkspaceStatus = "queued"
	WorkspaceRunning   WorkspaceStatus = "running"
	WorkspaceCompleted WorkspaceStatus = "completed"
	WorkspaceFailed    WorkspaceStatus = "failed"
	WorkspaceDestroyed WorkspaceStatus = "destroyed"
)

// WorkspaceStatuses lists every lifecycle state, for gauges and validation.
var WorkspaceStatuses = []WorkspaceStatus{
	WorkspaceQueued,
	WorkspaceRunning,
	WorkspaceCompleted,
	WorkspaceFailed,
	WorkspaceDestroyed,
}

// Stack identifies the platform bundle a workspace provisions.
type Stack string

const (
	StackBahmni  Stack = "bahmni"
	StackERPNext Stack = "erpnext"
	StackBundle  Stack = "bundle"
)

// ValidStack reports whether s names a provisionable stack.
func ValidStack(s Stack) bool {
	switch s {
	case StackBahmni, StackERPNext, StackBundle:
		return true
	}
	return false
}

// WorkspaceJob tracks a workspace provisioning request. SubscriptionID is an
// advisory reference: it is not validated against the subscription registry.
// The queued->running->completed progression belongs to an external Terraform
// executor; this service only creates jobs and destroys them.
type WorkspaceJob struct {
	ID                 string          `json:"id"`
	SubscriptionID     string          `json:"subscriptionId"`
	Stack              Stack           `json:"stack"`
	Region             string          `json:"region"`
	Domain             string          `json:"domain"`
	Status             WorkspaceStatus `json:"status"`
	TerraformStatePath string          `json:"terraformStatePath,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// WorkspaceRepository defines data access for provisioning jobs. Update runs
// the mutator atomically with respect to concurrent calls on the same id.
type WorkspaceRepository interface {
	Save(ctx context.Context, job *WorkspaceJob) error
	GetByID(ctx context.Context, id string) (*WorkspaceJob, error)
	List(ctx context.Context) ([]*WorkspaceJob, error)
	Update(ctx context.Context, id string, fn func(*WorkspaceJob) error) (*WorkspaceJob, error)
}
