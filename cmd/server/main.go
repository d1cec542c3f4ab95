package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crlx1q/Tester-FLAI/internal"
	"github.com/crlx1q/Tester-FLAI/internal/ai"
	"github.com/crlx1q/Tester-FLAI/internal/ai/anthropic"
	"github.com/crlx1q/Tester-FLAI/internal/ai/mock"
	"github.com/crlx1q/Tester-FLAI/internal/ai/openai"
	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/handler"
	"github.com/crlx1q/Tester-FLAI/internal/jobs"
	"github.com/crlx1q/Tester-FLAI/internal/metrics"
	"github.com/crlx1q/Tester-FLAI/internal/middleware"
	"github.com/crlx1q/Tester-FLAI/internal/repository"
	"github.com/crlx1q/Tester-FLAI/internal/service"
	"github.com/crlx1q/Tester-FLAI/internal/storage"
	"github.com/crlx1q/Tester-FLAI/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logOut, logCloser := internal.LogOutput(cfg.LogFile)
	defer logCloser.Close()
	logger := internal.NewLogger(logOut, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	repo := repository.New(db)

	cal, err := domain.NewCalendar(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("calendar initialization failed: %w", err)
	}

	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}

	provider, err := newAIProvider(cfg, logger)
	if err != nil {
		return fmt.Errorf("AI provider initialization failed: %w", err)
	}
	logger.Info("AI provider ready", "provider", cfg.AIProvider)

	// ==========================================================================
	// Services
	// ==========================================================================

	userService := service.NewUserService(repo, service.UserServiceConfig{SessionDuration: cfg.SessionDuration}, nil, logger)
	subscriptionService := service.NewSubscriptionService(repo, cal, nil, logger)
	usageService := service.NewUsageService(repo, cal, nil, logger)
	streakService := service.NewStreakService(repo, cal, nil, logger)
	limitService := service.NewLimitService(repo, subscriptionService, usageService, logger)
	meter := service.NewMeter(usageService, streakService, logger)
	imageService := service.NewImageService(store, logger)
	foodService := service.NewFoodService(repo, provider, meter, cal, nil, logger)
	recipeService := service.NewRecipeService(repo, provider, meter, logger)
	chatService := service.NewChatService(repo, provider, meter, cal, nil, logger)
	waterService := service.NewWaterService(repo, cal, logger)
	adminService := service.NewAdminService(repo, subscriptionService, usageService, logger)

	// ==========================================================================
	// Background worker
	// ==========================================================================

	var scheduler *worker.Scheduler
	if cfg.WorkerEnabled {
		workerCfg := worker.DefaultConfig()
		workerCfg.Concurrency = cfg.WorkerConcurrency
		workerCfg.PollInterval = cfg.WorkerPollInterval
		workerCfg.JobTimeout = cfg.WorkerJobTimeout
		workerCfg.ReconcileInterval = cfg.ReconcileInterval
		workerCfg.JobRetention = cfg.JobRetention

		w, err := worker.New(db, repo, workerCfg, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		w.Register(jobs.NewReconcileStreaksHandler(streakService, logger))
		w.Register(jobs.NewExpireSubscriptionsHandler(subscriptionService, logger))
		w.Register(jobs.NewCleanupSessionsHandler(userService, logger))
		w.Register(jobs.NewPurgeJobsHandler(repo, workerCfg.JobRetention, logger))
		w.Start(ctx)
		defer w.Stop()

		scheduler = worker.NewScheduler(repo, logger)
		go scheduler.Run(ctx, workerCfg.ReconcileInterval)
	} else {
		logger.Warn("Background worker disabled; streak and subscription sweeps will not run")
	}

	// ==========================================================================
	// Middleware
	// ==========================================================================

	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger)
	limitMw := middleware.NewLimitMiddleware(limitService, logger)
	locks := middleware.NewUserLocks(logger)
	adminMw := middleware.NewAdminKeyMiddleware(cfg.AdminAPIKey, logger)
	authLimiter := middleware.NewAuthRateLimiter(logger)
	defer authLimiter.Close()

	routeMw := handler.RouteMiddleware{
		Authenticated: authMw.Authenticated,
		Metered: func(kind domain.UsageKind) handler.Middleware {
			return middleware.Stack(authMw.Authenticated, locks.Handler, limitMw.Require(kind))
		},
		Pro:           middleware.Stack(authMw.Authenticated, limitMw.RequirePro),
		Admin:         adminMw.Handler,
		LimitLogin:    authLimiter.LimitLogin,
		LimitRegister: authLimiter.LimitRegister,
	}

	// ==========================================================================
	// Routes
	// ==========================================================================

	mux := http.NewServeMux()

	handler.NewHealthHandler(db, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword).Handler(promhttp.Handler()))

	handler.NewAuthHandler(userService, authLimiter, logger).RegisterRoutes(mux, routeMw)
	handler.NewProfileHandler(userService, subscriptionService, limitService, streakService, imageService, logger).RegisterRoutes(mux, routeMw)
	handler.NewFoodHandler(foodService, imageService, logger).RegisterRoutes(mux, routeMw)
	handler.NewWaterHandler(waterService, logger).RegisterRoutes(mux, routeMw)
	handler.NewRecipeHandler(recipeService, imageService, logger).RegisterRoutes(mux, routeMw)
	handler.NewChatHandler(chatService, imageService, logger).RegisterRoutes(mux, routeMw)

	var reconciler handler.ReconcileScheduler
	if scheduler != nil {
		reconciler = scheduler
	}
	handler.NewAdminHandler(adminService, reconciler, logger).RegisterRoutes(mux, routeMw)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	if cfg.AdminAPIKey == "" {
		logger.Warn("ADMIN_API_KEY is not set; admin endpoints will reject every request")
	}
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("Metrics endpoint is unprotected")
	}

	root := middleware.Stack(
		chimw.RequestID,
		chimw.RealIP,
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		chimw.Recoverer,
		metrics.Middleware,
		middleware.NewSecurityHeadersMiddleware(isSecure).Handler,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func newStorage(cfg *internal.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.StorageProvider {
	case storage.ProviderR2:
		return storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			Endpoint:        cfg.R2Endpoint,
		}, logger)
	default:
		return storage.NewLocalStorage(storage.LocalConfig{BasePath: cfg.LocalStoragePath}, logger)
	}
}

// newAIProvider builds the configured provider wrapped in the retry policy.
func newAIProvider(cfg *internal.Config, logger *slog.Logger) (ai.Provider, error) {
	var (
		p   ai.Provider
		err error
	)
	switch cfg.AIProvider {
	case "openai":
		p, err = openai.New(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		}, logger)
	case "anthropic":
		p, err = anthropic.New(anthropic.Config{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.AnthropicModel,
		}, logger)
	default:
		p = mock.New(logger)
	}
	if err != nil {
		return nil, err
	}

	return ai.WithRetry(p, ai.ProviderConfig{
		MaxRetries:     cfg.AIMaxRetries,
		RetryBaseDelay: cfg.AIRetryBaseDelay,
		RequestTimeout: cfg.AIRequestTimeout,
	}, logger), nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
