package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/procurehq/reqflow/internal/config"
	"github.com/procurehq/reqflow/internal/http/features/notifications"
	"github.com/procurehq/reqflow/internal/http/features/outbox"
	"github.com/procurehq/reqflow/internal/http/features/requisitions"
	"github.com/procurehq/reqflow/internal/http/middleware"
	"github.com/procurehq/reqflow/internal/httputil"
	"github.com/procurehq/reqflow/internal/ratelimit"
	"github.com/procurehq/reqflow/pkg/repository"
	"github.com/procurehq/reqflow/pkg/workflow"
)

// maxRequestBodySize caps JSON request bodies. Requisitions are small;
// anything past this is abuse.
const maxRequestBodySize = 64 * 1024

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger            *slog.Logger
	Config            *config.Config
	Engine            *workflow.Engine
	RequisitionsRepo  *repository.RequisitionsRepository
	NotificationsRepo *repository.NotificationsRepository
	EmailQueueRepo    *repository.EmailQueueRepository
	AuditRepo         *repository.AuditRepository
	TransitionLimiter *ratelimit.Limiter
	SecurityHeaders   middleware.SecurityHeadersConfig
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(maxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Create rate limiters for different endpoint types
	rateLimiters := middleware.CreateRateLimiters(cfg.Config, cfg.Logger)
	auth := middleware.Auth(cfg.Config.JWTSecret, cfg.Config.JWTIssuer)

	// Requisition routes
	requisitionsHandler := requisitions.NewHandler(
		cfg.Logger,
		cfg.Engine,
		cfg.RequisitionsRepo,
		cfg.AuditRepo,
	)
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(rateLimiters["api"])
		r.Post("/v1/requisitions", requisitionsHandler.Create)
		r.Get("/v1/requisitions", requisitionsHandler.List)
		r.Get("/v1/requisitions/{id}", requisitionsHandler.Get)
		r.Get("/v1/requisitions/{id}/history", requisitionsHandler.History)
	})

	// Transitions carry the per-user persisted limiter on top of the
	// IP-based one.
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(rateLimiters["transition"])
		if cfg.TransitionLimiter != nil {
			r.Use(middleware.PersistedRateLimit(cfg.TransitionLimiter, "transition", cfg.Logger))
		}
		r.Post("/v1/requisitions/{id}/transition", requisitionsHandler.Transition)
	})

	// Notification routes
	notificationsHandler := notifications.NewHandler(cfg.Logger, cfg.NotificationsRepo)
	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(rateLimiters["api"])
		r.Get("/v1/notifications", notificationsHandler.List)
		r.Post("/v1/notifications/{id}/read", notificationsHandler.MarkRead)
	})

	// Delivery worker routes, authenticated by shared key rather than JWT
	outboxHandler := outbox.NewHandler(
		cfg.Logger,
		cfg.EmailQueueRepo,
		cfg.Config.OutboxClaimBatch,
		cfg.Config.OutboxClaimTimeout,
	)
	r.Group(func(r chi.Router) {
		r.Use(middleware.WorkerAuth(cfg.Config.WorkerKeyHash))
		r.Use(rateLimiters["api"])
		r.Post("/v1/outbox/claim", outboxHandler.Claim)
		r.Post("/v1/outbox/{id}/sent", outboxHandler.MarkSent)
		r.Post("/v1/outbox/{id}/failed", outboxHandler.MarkFailed)
	})

	return r
}
