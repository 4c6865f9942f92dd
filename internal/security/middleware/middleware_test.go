package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/repository"
	"github.com/ash-sxn/Qorlia/internal/security/auth"
	"github.com/ash-sxn/Qorlia/internal/security/ratelimit"
	"github.com/ash-sxn/Qorlia/pkg/cache"
)

const testSecret = "test-secret-0123456789"

func newAuthedMux(t *testing.T, issuer *auth.Issuer) (http.Handler, *domain.User) {
	t.Helper()

	store := repository.NewMemoryCredentialStore()
	user := &domain.User{ID: "user-1", Email: "admin@clinic.example", Name: "Clinic Admin"}
	if err := store.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	guard := RequireAuth(issuer, store, cache.New[*auth.Claims](), nil)
	protected := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return protected, user
}

func doAuthed(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/provisioning/workspaces", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	issuer := auth.NewIssuer(testSecret, 15*time.Minute, 168*time.Hour)
	handler, user := newAuthedMux(t, issuer)

	token, err := issuer.Issue(user.ID, user.Email, auth.TokenKindAccess)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	if rec := doAuthed(handler, token); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// Second request is served from the claims cache.
	if rec := doAuthed(handler, token); rec.Code != http.StatusOK {
		t.Fatalf("cached request: expected 200, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsMissingOrMalformedHeader(t *testing.T) {
	issuer := auth.NewIssuer(testSecret, 15*time.Minute, 168*time.Hour)
	handler, _ := newAuthedMux(t, issuer)

	if rec := doAuthed(handler, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no header: expected 401, got %d", rec.Code)
	}
	if rec := doAuthed(handler, "not-a-token"); rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: expected 401, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsExpiredTokenDespiteCache(t *testing.T) {
	// Issue a token that is about to expire in real time, so a cached claims
	// entry cannot outlive the token itself.
	clock := time.Now().Add(-time.Hour)
	issuer := auth.NewIssuer(testSecret, time.Second, 168*time.Hour).
		WithClock(func() time.Time { return clock })
	handler, user := newAuthedMux(t, issuer)

	token, err := issuer.Issue(user.ID, user.Email, auth.TokenKindAccess)
	if err != nil {
		t.Fatalf("issuing token: %v", err)
	}

	if rec := doAuthed(handler, token); rec.Code != http.StatusOK {
		t.Fatalf("token inside validity: expected 200, got %d", rec.Code)
	}

	clock = clock.Add(time.Minute)

	if rec := doAuthed(handler, token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token must be rejected, got %d", rec.Code)
	}
}

func TestRateLimitReturns429(t *testing.T) {
	limiter := ratelimit.NewLimiter(2, time.Minute)
	defer limiter.Stop()

	handler := RateLimit(limiter, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:50000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:50001"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over the limit, got %d", rec.Code)
	}
}
