package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/procurehq/reqflow/internal/codes"
	"github.com/procurehq/reqflow/internal/config"
	httpserver "github.com/procurehq/reqflow/internal/http"
	"github.com/procurehq/reqflow/internal/http/middleware"
	"github.com/procurehq/reqflow/internal/mail"
	"github.com/procurehq/reqflow/internal/ratelimit"
	"github.com/procurehq/reqflow/pkg/notify"
	"github.com/procurehq/reqflow/pkg/repository"
	"github.com/procurehq/reqflow/pkg/workflow"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("connected to database")

	// Initialize repositories
	organizationsRepo := repository.NewOrganizationsRepository(db)
	usersRepo := repository.NewUsersRepository(db)
	membershipsRepo := repository.NewMembershipsRepository(db)
	projectsRepo := repository.NewProjectsRepository(db)
	requisitionsRepo := repository.NewRequisitionsRepository(db)
	notificationsRepo := repository.NewNotificationsRepository(db)
	emailQueueRepo := repository.NewEmailQueueRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	settingsRepo := repository.NewOrgSettingsRepository(db)
	rateLimitsRepo := repository.NewRateLimitsRepository(db)

	// Initialize services
	generator := codes.NewGenerator(settingsRepo)

	emailQueue := mail.NewQueue(
		usersRepo,
		organizationsRepo,
		projectsRepo,
		requisitionsRepo,
		settingsRepo,
		emailQueueRepo,
		logger,
	)

	fanout := notify.NewFanout(
		requisitionsRepo,
		usersRepo,
		membershipsRepo,
		projectsRepo,
		notificationsRepo,
		emailQueue,
		logger,
	)

	engine := workflow.NewEngine(
		db,
		organizationsRepo,
		projectsRepo,
		requisitionsRepo,
		auditRepo,
		generator,
		logger,
	)
	engine.SetDispatcher(fanout)

	transitionLimiter := ratelimit.NewLimiter(
		rateLimitsRepo,
		cfg.TransitionRateLimit,
		cfg.TransitionRateWindow,
	)

	if !cfg.HasWorkerAuth() {
		logger.Warn("WORKER_KEY_HASH not set; outbox worker endpoints disabled")
	}

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:            logger,
		Config:            cfg,
		Engine:            engine,
		RequisitionsRepo:  requisitionsRepo,
		NotificationsRepo: notificationsRepo,
		EmailQueueRepo:    emailQueueRepo,
		AuditRepo:         auditRepo,
		TransitionLimiter: transitionLimiter,
		SecurityHeaders:   middleware.DefaultSecurityHeaders(),
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
