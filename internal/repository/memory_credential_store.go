package repository

import (
	"context"
	"sync"

	"github.com/ash-sxn/Qorlia/internal/domain"
)

// MemoryCredentialStore implements domain.CredentialStore with an in-process
// map keyed by email. Accounts are write-once, so the store exposes no update
// or delete path.
type MemoryCredentialStore struct {
	mu      sync.RWMutex
	byEmail map[string]*domain.User
}

// NewMemoryCredentialStore creates an empty credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{byEmail: make(map[string]*domain.User)}
}

// Create inserts a new account, failing with Conflict if the email is taken.
func (s *MemoryCredentialStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return domain.Conflict("Account already exists with this email.")
	}

	stored := *user
	s.byEmail[user.Email] = &stored
	return nil
}

// GetByEmail returns the account for an email, or NotFound.
func (s *MemoryCredentialStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[email]
	if !ok {
		return nil, domain.NotFound("Account not found.")
	}
	cp := *user
	return &cp, nil
}

// GetByID scans for an account by id. A linear scan is fine at this scale; a
// durable store keeps a real secondary index instead.
func (s *MemoryCredentialStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.byEmail {
		if user.ID == id {
			cp := *user
			return &cp, nil
		}
	}
	return nil, domain.NotFound("Account not found.")
}
