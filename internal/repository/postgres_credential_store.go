package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/ash-sxn/Qorlia/internal/domain"
)

// PostgresCredentialStore implements domain.CredentialStore on PostgreSQL.
// It is selected when DATABASE_URL is configured; otherwise the in-memory
// store is used. Unlike the memory store, id lookup here hits the primary
// key directly instead of scanning.
type PostgresCredentialStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCredentialStore creates a credential store backed by db.
func NewPostgresCredentialStore(db *sql.DB, logger *slog.Logger) *PostgresCredentialStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCredentialStore{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the users table if it does not exist.
func (s *PostgresCredentialStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure users schema: %w", err)
	}
	return nil
}

// Create inserts a new account. A unique violation on email maps to Conflict.
func (s *PostgresCredentialStore) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return domain.Conflict("Account already exists with this email.")
		}
		s.logger.Error("failed to create user",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return domain.Internal("Failed to create account.", err)
	}

	return nil
}

// GetByEmail retrieves an account by email.
func (s *PostgresCredentialStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return s.getOne(ctx, query, email)
}

// GetByID retrieves an account by id.
func (s *PostgresCredentialStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, email, name, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return s.getOne(ctx, query, id)
}

func (s *PostgresCredentialStore) getOne(ctx context.Context, query, arg string) (*domain.User, error) {
	user := &domain.User{}

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("Account not found.")
		}
		s.logger.Error("failed to get user", slog.String("error", err.Error()))
		return nil, domain.Internal("Failed to load account.", err)
	}

	return user, nil
}
