package repository

import (
	"context"
	"sync"

	"github.com/ash-sxn/Qorlia/internal/domain"
)

// MemoryWorkspaceRepository implements domain.WorkspaceRepository with an
// in-process keyed map, mirroring MemorySubscriptionRepository.
type MemoryWorkspaceRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.WorkspaceJob
}

// NewMemoryWorkspaceRepository creates an empty workspace job repository.
func NewMemoryWorkspaceRepository() *MemoryWorkspaceRepository {
	return &MemoryWorkspaceRepository{items: make(map[string]*domain.WorkspaceJob)}
}

// Save stores a new provisioning job.
func (r *MemoryWorkspaceRepository) Save(_ context.Context, job *domain.WorkspaceJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *job
	r.items[job.ID] = &stored
	return nil
}

// GetByID returns a copy of the job, or NotFound.
func (r *MemoryWorkspaceRepository) GetByID(_ context.Context, id string) (*domain.WorkspaceJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("Workspace provisioning job not found.")
	}
	cp := *job
	return &cp, nil
}

// List returns a snapshot of all jobs, in no particular order.
func (r *MemoryWorkspaceRepository) List(_ context.Context) ([]*domain.WorkspaceJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.WorkspaceJob, 0, len(r.items))
	for _, job := range r.items {
		cp := *job
		out = append(out, &cp)
	}
	return out, nil
}

// Update applies fn to the stored record under the write lock.
func (r *MemoryWorkspaceRepository) Update(_ context.Context, id string, fn func(*domain.WorkspaceJob) error) (*domain.WorkspaceJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("Workspace provisioning job not found.")
	}
	if err := fn(job); err != nil {
		return nil, err
	}
	cp := *job
	return &cp, nil
}
