package repository

import (
	"context"
	"sync"

	"github.com/ash-sxn/Qorlia/internal/domain"
)

// MemorySubscriptionRepository implements domain.SubscriptionRepository with
// an in-process keyed map. All read-modify-write sequences go through Update,
// which holds the write lock for the whole mutation.
type MemorySubscriptionRepository struct {
	mu    sync.RWMutex
	items map[string]*domain.Subscription
}

// NewMemorySubscriptionRepository creates an empty subscription repository.
func NewMemorySubscriptionRepository() *MemorySubscriptionRepository {
	return &MemorySubscriptionRepository{items: make(map[string]*domain.Subscription)}
}

// Save stores a new subscription record.
func (r *MemorySubscriptionRepository) Save(_ context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *sub
	r.items[sub.ID] = &stored
	return nil
}

// GetByID returns a copy of the subscription, or NotFound.
func (r *MemorySubscriptionRepository) GetByID(_ context.Context, id string) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("Subscription not found.")
	}
	cp := *sub
	return &cp, nil
}

// List returns a snapshot of all subscriptions, in no particular order.
func (r *MemorySubscriptionRepository) List(_ context.Context) ([]*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Subscription, 0, len(r.items))
	for _, sub := range r.items {
		cp := *sub
		out = append(out, &cp)
	}
	return out, nil
}

// Update applies fn to the stored record under the write lock. An error from
// fn aborts the update and is returned unchanged.
func (r *MemorySubscriptionRepository) Update(_ context.Context, id string, fn func(*domain.Subscription) error) (*domain.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.items[id]
	if !ok {
		return nil, domain.NotFound("Subscription not found.")
	}
	if err := fn(sub); err != nil {
		return nil, err
	}
	cp := *sub
	return &cp, nil
}
