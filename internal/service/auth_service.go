package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/observability/metrics"
	"github.com/ash-sxn/Qorlia/internal/security/audit"
	"github.com/ash-sxn/Qorlia/internal/security/auth"
)

// Generic failure messages. Unknown email, wrong password, and every refresh
// failure are indistinguishable to the caller so accounts cannot be
// enumerated.
const (
	msgInvalidCredentials = "Invalid email or password."
	msgInvalidRefresh     = "Invalid or expired refresh token."
)

// AuthService orchestrates registration, login, and token refresh. It is the
// only writer of the credential store and the only producer of tokens.
type AuthService struct {
	store         domain.CredentialStore
	tokens        *auth.Issuer
	strictRefresh bool
	auditLog      *audit.Logger
	logger        *slog.Logger
}

// NewAuthService creates an authentication service. With strictRefresh set,
// Refresh rejects tokens that were not issued as refresh tokens; by default
// any valid signed token is accepted, matching the original behavior.
func NewAuthService(
	store domain.CredentialStore,
	tokens *auth.Issuer,
	strictRefresh bool,
	auditLog *audit.Logger,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}

	return &AuthService{
		store:         store,
		tokens:        tokens,
		strictRefresh: strictRefresh,
		auditLog:      auditLog,
		logger:        logger,
	}
}

// AuthResult is returned by all three auth operations: the sanitized account
// plus a fresh access/refresh token pair.
type AuthResult struct {
	User         domain.SanitizedUser `json:"user"`
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
}

// Register creates a new account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, domain.Internal("Failed to register account.", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Uniqueness is enforced by the store itself, not checked first: a
	// read-then-write here would race with a concurrent registration.
	if err := s.store.Create(ctx, user); err != nil {
		metrics.ObserveAuthAttempt("register", "conflict")
		s.auditLog.LogRegistration(ctx, "", "conflict", email)
		return nil, err
	}

	result, err := s.tokenResult(user)
	if err != nil {
		return nil, err
	}

	metrics.ObserveAuthAttempt("register", "success")
	s.auditLog.LogRegistration(ctx, user.ID, "success", user.Email)
	s.logger.Info("account registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return result, nil
}

// Login authenticates an account by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Info("login attempt with unknown email", slog.String("email", email))
		metrics.ObserveAuthAttempt("login", "failure")
		s.auditLog.LogLogin(ctx, "", "failure", "unknown email")
		return nil, domain.Unauthorized(msgInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("email", email))
		metrics.ObserveAuthAttempt("login", "failure")
		s.auditLog.LogLogin(ctx, user.ID, "failure", "wrong password")
		return nil, domain.Unauthorized(msgInvalidCredentials)
	}

	result, err := s.tokenResult(user)
	if err != nil {
		return nil, err
	}

	metrics.ObserveAuthAttempt("login", "success")
	s.auditLog.LogLogin(ctx, user.ID, "success", "")
	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return result, nil
}

// Refresh exchanges a valid refresh token for a brand new token pair. The
// presented token is not reused: both tokens are rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		metrics.ObserveAuthAttempt("refresh", "failure")
		return nil, domain.Unauthorized(msgInvalidRefresh)
	}

	if s.strictRefresh && claims.Kind != auth.TokenKindRefresh {
		metrics.ObserveAuthAttempt("refresh", "failure")
		return nil, domain.Unauthorized(msgInvalidRefresh)
	}

	// A cryptographically valid token whose subject no longer resolves is
	// just as dead as a forged one.
	user, err := s.store.GetByID(ctx, claims.Subject)
	if err != nil {
		metrics.ObserveAuthAttempt("refresh", "failure")
		return nil, domain.Unauthorized(msgInvalidRefresh)
	}

	result, err := s.tokenResult(user)
	if err != nil {
		return nil, err
	}

	metrics.ObserveAuthAttempt("refresh", "success")
	return result, nil
}

func (s *AuthService) tokenResult(user *domain.User) (*AuthResult, error) {
	access, refresh, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to sign tokens", slog.String("error", err.Error()))
		return nil, domain.Internal("Failed to issue tokens.", err)
	}

	return &AuthResult{
		User:         user.Sanitized(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
