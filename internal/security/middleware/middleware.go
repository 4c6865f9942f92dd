package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/security/auth"
	"github.com/ash-sxn/Qorlia/internal/security/ratelimit"
	"github.com/ash-sxn/Qorlia/pkg/cache"
)

type claimsContextKey struct{}

// claimsCacheTTL bounds how long a verified token skips re-verification.
// Kept short so a deleted account stops authenticating quickly.
const claimsCacheTTL = 30 * time.Second

// RequireAuth guards a route with bearer-token authentication. The token's
// subject must still resolve to an account in the credential store; verified
// claims are cached briefly keyed by the raw token.
func RequireAuth(
	issuer *auth.Issuer,
	store domain.CredentialStore,
	claims *cache.Cache[*auth.Claims],
	log *slog.Logger,
) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				unauthorized(w)
				return
			}

			cached, ok := claims.Get(tokenString)
			if !ok {
				_, verified, err := issuer.VerifySubject(tokenString, func(id string) (*domain.User, error) {
					return store.GetByID(r.Context(), id)
				})
				if err != nil {
					log.Info("rejected bearer token", slog.String("error", err.Error()))
					unauthorized(w)
					return
				}
				// The cache entry must never outlive the token itself.
				ttl := claimsCacheTTL
				if verified.ExpiresAt != nil {
					if remaining := time.Until(verified.ExpiresAt.Time); remaining < ttl {
						ttl = remaining
					}
				}
				if ttl > 0 {
					claims.Set(tokenString, verified, ttl)
				}
				cached = verified
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, cached)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit rejects requests over the limiter's budget, keyed by client
// address. Wrapped around the auth endpoints to slow credential stuffing.
func RateLimit(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientAddr(r)
			if !limiter.Allow(key) {
				log.Warn("rate limit exceeded",
					slog.String("client", key),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"success":false,"error":"Too many requests. Try again later."}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaimsFromContext returns the verified claims set by RequireAuth, or nil.
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(claimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"error":"Authentication required."}`))
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
