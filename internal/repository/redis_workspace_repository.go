package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/infrastructure/redis"
)

// maxTxRetries bounds optimistic-lock retries on contended job updates.
const maxTxRetries = 3

// RedisWorkspaceRepository implements domain.WorkspaceRepository on Redis,
// storing each job as JSON under workspace:{id}. Jobs keep no TTL: records
// survive until explicitly destroyed and beyond, as the registry never
// deletes them.
type RedisWorkspaceRepository struct {
	redis  *redis.Client
	logger *slog.Logger
}

// NewRedisWorkspaceRepository creates a Redis-backed workspace repository.
func NewRedisWorkspaceRepository(redisClient *redis.Client, logger *slog.Logger) *RedisWorkspaceRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &RedisWorkspaceRepository{
		redis:  redisClient,
		logger: logger,
	}
}

func workspaceKey(id string) string {
	return fmt.Sprintf("workspace:%s", id)
}

// Save stores a provisioning job.
func (r *RedisWorkspaceRepository) Save(ctx context.Context, job *domain.WorkspaceJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return domain.Internal("Failed to store provisioning job.", err)
	}

	if err := r.redis.Set(ctx, workspaceKey(job.ID), string(data), 0); err != nil {
		return domain.Internal("Failed to store provisioning job.", err)
	}

	r.logger.Debug("workspace job saved", slog.String("job_id", job.ID))
	return nil
}

// GetByID retrieves a job by id.
func (r *RedisWorkspaceRepository) GetByID(ctx context.Context, id string) (*domain.WorkspaceJob, error) {
	data, err := r.redis.Get(ctx, workspaceKey(id))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.NotFound("Workspace provisioning job not found.")
		}
		return nil, domain.Internal("Failed to load provisioning job.", err)
	}

	var job domain.WorkspaceJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, domain.Internal("Failed to load provisioning job.", err)
	}

	return &job, nil
}

// List returns all jobs, in no particular order.
func (r *RedisWorkspaceRepository) List(ctx context.Context) ([]*domain.WorkspaceJob, error) {
	keys, err := r.redis.Keys(ctx, "workspace:*")
	if err != nil {
		return nil, domain.Internal("Failed to list provisioning jobs.", err)
	}

	var jobs []*domain.WorkspaceJob
	for _, key := range keys {
		data, err := r.redis.Get(ctx, key)
		if err != nil {
			// Skip keys that vanished between KEYS and GET.
			r.logger.Error("failed to get workspace job", slog.String("key", key), slog.String("error", err.Error()))
			continue
		}

		var job domain.WorkspaceJob
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			r.logger.Error("failed to unmarshal workspace job", slog.String("key", key), slog.String("error", err.Error()))
			continue
		}

		jobs = append(jobs, &job)
	}

	return jobs, nil
}

// Update applies fn to the job inside a WATCH transaction so concurrent
// updates to the same id cannot lose writes. The transaction is retried a few
// times when a watched key changes underneath it.
func (r *RedisWorkspaceRepository) Update(ctx context.Context, id string, fn func(*domain.WorkspaceJob) error) (*domain.WorkspaceJob, error) {
	key := workspaceKey(id)
	var updated *domain.WorkspaceJob

	txn := func(tx *goredis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return domain.NotFound("Workspace provisioning job not found.")
			}
			return err
		}

		var job domain.WorkspaceJob
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			return err
		}

		if err := fn(&job); err != nil {
			return err
		}

		buf, err := json.Marshal(&job)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, string(buf), 0)
			return nil
		})
		if err != nil {
			return err
		}

		updated = &job
		return nil
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := r.redis.Watch(ctx, txn, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if domain.KindOf(err) != domain.KindInternal {
			return nil, err
		}
		return nil, domain.Internal("Failed to update provisioning job.", err)
	}

	return nil, domain.Internal("Failed to update provisioning job.", goredis.TxFailedErr)
}
