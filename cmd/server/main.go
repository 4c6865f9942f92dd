package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ash-sxn/Qorlia/internal/domain"
	"github.com/ash-sxn/Qorlia/internal/featureflags"
	"github.com/ash-sxn/Qorlia/internal/handler"
	"github.com/ash-sxn/Qorlia/internal/infrastructure/logger"
	qorliaredis "github.com/ash-sxn/Qorlia/internal/infrastructure/redis"
	"github.com/ash-sxn/Qorlia/internal/observability/metrics"
	"github.com/ash-sxn/Qorlia/internal/observability/tracing"
	"github.com/ash-sxn/Qorlia/internal/reliability/retry"
	"github.com/ash-sxn/Qorlia/internal/repository"
	"github.com/ash-sxn/Qorlia/internal/security/audit"
	"github.com/ash-sxn/Qorlia/internal/security/auth"
	"github.com/ash-sxn/Qorlia/internal/security/middleware"
	"github.com/ash-sxn/Qorlia/internal/security/ratelimit"
	"github.com/ash-sxn/Qorlia/internal/service"
	"github.com/ash-sxn/Qorlia/internal/worker"
	"github.com/ash-sxn/Qorlia/pkg/cache"
	"github.com/ash-sxn/Qorlia/pkg/config"
	"github.com/ash-sxn/Qorlia/pkg/database"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	log.Info("starting Qorlia server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op when no OTLP endpoint is configured)
	shutdownTracing, err := tracing.Init(ctx, log, cfg.OTLPEndpoint, "qorlia-server", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Initialize backing stores. Memory implementations are used unless a
	// postgres / redis URL is configured.
	var credentialStore domain.CredentialStore = repository.NewMemoryCredentialStore()
	var dbPool *database.ConnectionPool
	if cfg.DatabaseURL != "" {
		dbPool, err = retry.Do(ctx, retry.StartupConfig(), log, "postgres connect",
			func(ctx context.Context) (*database.ConnectionPool, error) {
				return database.NewConnectionPool(ctx, &database.Config{URL: cfg.DatabaseURL}, log)
			})
		if err != nil {
			log.Error("failed to connect to postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer dbPool.Close()

		pgStore := repository.NewPostgresCredentialStore(dbPool.GetDB(), log)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure database schema", slog.String("error", err.Error()))
			os.Exit(1)
		}
		credentialStore = pgStore
	}

	subscriptionRepo := repository.NewMemorySubscriptionRepository()

	var workspaceRepo domain.WorkspaceRepository = repository.NewMemoryWorkspaceRepository()
	var redisClient *qorliaredis.Client
	if cfg.RedisURL != "" {
		redisClient, err = retry.Do(ctx, retry.StartupConfig(), log, "redis connect",
			func(ctx context.Context) (*qorliaredis.Client, error) {
				return qorliaredis.NewClient(cfg.RedisURL)
			})
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()

		workspaceRepo = repository.NewRedisWorkspaceRepository(redisClient, log)
	}

	// 5. Initialize services
	tokenIssuer := auth.NewIssuer(cfg.AppSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	strictRefresh := featureflags.Enabled(featureflags.StrictRefresh)
	auditLogger := audit.NewLogger(log)
	authService := service.NewAuthService(credentialStore, tokenIssuer, strictRefresh, auditLogger, log)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, domain.DefaultPlans(), cfg.PaymentCheckoutURL, log)
	provisioningService := service.NewProvisioningService(workspaceRepo, cfg.DefaultRegion, log)

	// 6. Initialize handlers
	authHandler := handler.NewAuthHandler(authService, log)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService, auditLogger, log)
	provisioningHandler := handler.NewProvisioningHandler(provisioningService, auditLogger, log)
	watchHandler := handler.NewWatchHandler(provisioningService, log, cfg.CORSAllowedOrigins)

	// 6a. Initialize security components
	authLimiter := ratelimit.NewLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	claimsCache := cache.New[*auth.Claims]()
	requireAuth := middleware.RequireAuth(tokenIssuer, credentialStore, claimsCache, log)
	rateLimit := middleware.RateLimit(authLimiter, log)

	// 7. Setup HTTP routes
	mux := http.NewServeMux()
	mux.Handle("POST /api/auth/register", rateLimit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", rateLimit(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/auth/refresh", http.HandlerFunc(authHandler.Refresh))

	mux.Handle("GET /api/subscriptions/plans", http.HandlerFunc(subscriptionHandler.ListPlans))
	mux.Handle("POST /api/subscriptions", http.HandlerFunc(subscriptionHandler.Create))
	mux.Handle("GET /api/subscriptions/{id}", http.HandlerFunc(subscriptionHandler.Get))
	mux.Handle("POST /api/subscriptions/{id}/cancel", http.HandlerFunc(subscriptionHandler.Cancel))
	mux.Handle("POST /api/subscriptions/{id}/resume", http.HandlerFunc(subscriptionHandler.Resume))

	mux.Handle("POST /api/provisioning/workspaces", requireAuth(http.HandlerFunc(provisioningHandler.Request)))
	mux.Handle("GET /api/provisioning/workspaces", requireAuth(http.HandlerFunc(provisioningHandler.List)))
	mux.Handle("GET /api/provisioning/workspaces/{id}", requireAuth(http.HandlerFunc(provisioningHandler.Get)))
	mux.Handle("POST /api/provisioning/workspaces/{id}/destroy", requireAuth(http.HandlerFunc(provisioningHandler.Destroy)))

	mux.Handle("GET /ws/workspaces/{id}", requireAuth(watchHandler))

	mux.Handle("GET /api/health", http.HandlerFunc(handler.Health))
	mux.Handle("/metrics", promhttp.Handler())

	// Health and readiness endpoints (no auth required)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("redis not ready"))
				return
			}
		}
		if dbPool != nil {
			if err := dbPool.Health(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("database not ready"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> metrics -> CORS, with otel wrapping the lot
	rootHandler := otelhttp.NewHandler(
		withRequestID(
			metrics.HTTPMetricsMiddleware(handlerWithCORS),
			log,
		),
		"qorlia-server",
	)

	// 8. Start gauge worker in background
	gaugeWorker := worker.NewGaugeWorker(subscriptionRepo, workspaceRepo, log, cfg.GaugeRefreshInterval)
	go gaugeWorker.Start(ctx)

	// 9. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Bool("strict_refresh", strictRefresh),
		slog.Int("auth_rate_limit", cfg.AuthRateLimit),
		slog.Duration("auth_rate_window", cfg.AuthRateWindow),
	)
	auditLogger.LogAction(ctx, "", "startup", "server", "", "ok", fmt.Sprintf("listening on :%d", cfg.ServerPort))

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop gauge worker
	authLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
