package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/repository"
	"github.com/ash-sxn/Qorlia/internal/security/audit"
	"github.com/ash-sxn/Qorlia/internal/security/auth"
)

func newTestAuthService(strictRefresh bool) (*AuthService, *auth.Issuer) {
	issuer := auth.NewIssuer("test-secret", 15*time.Minute, 7*24*time.Hour)
	store := repository.NewMemoryCredentialStore()
	return NewAuthService(store, issuer, strictRefresh, nil, nil), issuer
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(false)

	r, err := s.Register(ctx, "a@x.com", "A", "secret1234")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if r.User.ID == "" || r.AccessToken == "" || r.RefreshToken == "" {
		t.Fatalf("expected user id and token pair, got %+v", r)
	}

	lr, err := s.Login(ctx, "a@x.com", "secret1234")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if lr.AccessToken == "" || lr.RefreshToken == "" {
		t.Fatalf("expected tokens on login")
	}

	if _, err := s.Login(ctx, "a@x.com", "wrong"); domain.KindOf(err) != domain.KindUnauthorized {
		t.Fatalf("expected unauthorized for wrong password, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(false)

	if _, err := s.Register(ctx, "dup@x.com", "First", "Password123"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, err := s.Register(ctx, "dup@x.com", "Second", "OtherPass456")
	if domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}

	// First account must be unaffected.
	if _, err := s.Login(ctx, "dup@x.com", "Password123"); err != nil {
		t.Fatalf("original account no longer logs in: %v", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(false)

	if _, err := s.Register(ctx, "bob@x.com", "Bob", "Password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, errWrongPassword := s.Login(ctx, "bob@x.com", "nope")
	_, errUnknownEmail := s.Login(ctx, "ghost@x.com", "nope")

	if domain.KindOf(errWrongPassword) != domain.KindUnauthorized ||
		domain.KindOf(errUnknownEmail) != domain.KindUnauthorized {
		t.Fatalf("expected unauthorized for both failures, got %v and %v", errWrongPassword, errUnknownEmail)
	}
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Fatalf("failure messages differ: %q vs %q", errWrongPassword.Error(), errUnknownEmail.Error())
	}
}

func TestRefreshRotatesTokenPair(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(false)

	reg, err := s.Register(ctx, "carol@x.com", "Carol", "Password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	refreshed, err := s.Refresh(ctx, reg.RefreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken == "" {
		t.Fatalf("expected a fresh token pair")
	}
	if refreshed.User.ID != reg.User.ID {
		t.Fatalf("refresh resolved the wrong subject: %s != %s", refreshed.User.ID, reg.User.ID)
	}

	// The rotated refresh token must itself be usable.
	if _, err := s.Refresh(ctx, refreshed.RefreshToken); err != nil {
		t.Fatalf("rotated refresh token rejected: %v", err)
	}
}

func TestRefreshFailuresCollapseToOneMessage(t *testing.T) {
	ctx := context.Background()
	s, issuer := newTestAuthService(false)

	// Garbage token.
	_, errGarbage := s.Refresh(ctx, "not-a-token")

	// Valid signature, but the subject resolves to no account.
	orphan, err := issuer.Issue("no-such-user", "ghost@x.com", auth.TokenKindRefresh)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	_, errOrphan := s.Refresh(ctx, orphan)

	for _, err := range []error{errGarbage, errOrphan} {
		if domain.KindOf(err) != domain.KindUnauthorized {
			t.Fatalf("expected unauthorized, got %v", err)
		}
	}
	if errGarbage.Error() != errOrphan.Error() {
		t.Fatalf("refresh failure messages differ: %q vs %q", errGarbage.Error(), errOrphan.Error())
	}
}

func TestRefreshAcceptsAccessTokenByDefault(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(false)

	reg, err := s.Register(ctx, "dave@x.com", "Dave", "Password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// No kind enforcement: an access token refreshes too.
	if _, err := s.Refresh(ctx, reg.AccessToken); err != nil {
		t.Fatalf("access token rejected without strict mode: %v", err)
	}
}

func TestAuthOperationsEmitAuditRecords(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	auditLog := audit.NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	issuer := auth.NewIssuer("test-secret", 15*time.Minute, 7*24*time.Hour)
	s := NewAuthService(repository.NewMemoryCredentialStore(), issuer, false, auditLog, nil)

	reg, err := s.Register(ctx, "frank@x.com", "Frank", "Password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"action":"register"`) ||
		!strings.Contains(buf.String(), `"user_id":"`+reg.User.ID+`"`) {
		t.Fatalf("registration left no audit record: %s", buf.String())
	}

	buf.Reset()
	if _, err := s.Login(ctx, "frank@x.com", "Password123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"action":"login"`) ||
		!strings.Contains(buf.String(), `"status":"success"`) {
		t.Fatalf("login left no audit record: %s", buf.String())
	}

	buf.Reset()
	if _, err := s.Login(ctx, "frank@x.com", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	if !strings.Contains(buf.String(), `"status":"failure"`) {
		t.Fatalf("failed login left no audit record: %s", buf.String())
	}
}

func TestStrictRefreshRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestAuthService(true)

	reg, err := s.Register(ctx, "erin@x.com", "Erin", "Password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := s.Refresh(ctx, reg.AccessToken); domain.KindOf(err) != domain.KindUnauthorized {
		t.Fatalf("expected strict mode to reject access token, got %v", err)
	}
	if _, err := s.Refresh(ctx, reg.RefreshToken); err != nil {
		t.Fatalf("strict mode rejected a genuine refresh token: %v", err)
	}
}
