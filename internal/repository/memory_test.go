package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ash-sxn/Qorlia/internal/domain"
)

func TestCredentialStoreUniqueEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()

	user := &domain.User{ID: "u1", Email: "a@x.com", Name: "A", PasswordHash: "h"}
	require.NoError(t, store.Create(ctx, user))

	dup := &domain.User{ID: "u2", Email: "a@x.com", Name: "B", PasswordHash: "h2"}
	err := store.Create(ctx, dup)
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	// First record untouched.
	got, err := store.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestCredentialStoreLookups(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()

	require.NoError(t, store.Create(ctx, &domain.User{ID: "u1", Email: "a@x.com"}))
	require.NoError(t, store.Create(ctx, &domain.User{ID: "u2", Email: "b@x.com"}))

	byID, err := store.GetByID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", byID.Email)

	_, err = store.GetByEmail(ctx, "c@x.com")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	_, err = store.GetByID(ctx, "u3")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestCredentialStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()
	require.NoError(t, store.Create(ctx, &domain.User{ID: "u1", Email: "a@x.com", Name: "A"}))

	got, err := store.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := store.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "A", again.Name)
}

func TestSubscriptionUpdateMissing(t *testing.T) {
	repo := NewMemorySubscriptionRepository()

	_, err := repo.Update(context.Background(), "missing", func(*domain.Subscription) error { return nil })
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestSubscriptionUpdateAborts(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySubscriptionRepository()
	require.NoError(t, repo.Save(ctx, &domain.Subscription{ID: "s1", Status: domain.SubscriptionTrialing}))

	boom := domain.BadRequest("no")
	_, err := repo.Update(ctx, "s1", func(*domain.Subscription) error { return boom })
	assert.Equal(t, boom, err)

	// Aborted mutators must not leak partial writes.
	got, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionTrialing, got.Status)
}

func TestWorkspaceConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryWorkspaceRepository()
	require.NoError(t, repo.Save(ctx, &domain.WorkspaceJob{ID: "j1", Status: domain.WorkspaceQueued}))

	// Concurrent read-modify-write on the same id must not lose updates.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(ctx, "j1", func(job *domain.WorkspaceJob) error {
				job.Region += "x"
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, "j1")
	require.NoError(t, err)
	assert.Len(t, got.Region, 50)
}

func TestWorkspaceListSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryWorkspaceRepository()

	now := time.Now()
	require.NoError(t, repo.Save(ctx, &domain.WorkspaceJob{ID: "j1", CreatedAt: now}))
	require.NoError(t, repo.Save(ctx, &domain.WorkspaceJob{ID: "j2", CreatedAt: now}))

	jobs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	// Mutating the snapshot must not touch stored records.
	jobs[0].Status = domain.WorkspaceFailed
	got, err := repo.GetByID(ctx, jobs[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, domain.WorkspaceFailed, got.Status)
}
