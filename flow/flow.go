// Package flow provides an embeddable requisition approval workflow:
// a tenant-scoped state machine with notification fan-out, an email
// outbox, and an append-only audit trail.
//
// Setup:
//
//  1. Run migrations from migrations/ folder using your preferred tool
//  2. Create a Flow instance and mount its routes
//
// Basic usage:
//
//	db, _ := sql.Open("postgres", "postgres://localhost/myapp?sslmode=disable")
//
//	wf, err := flow.New(flow.Config{
//	    DB:        db,
//	    JWTSecret: "your-secret-key-at-least-32-chars",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if migrations haven't been run
//	}
//
//	r := chi.NewRouter()
//	r.Mount("/", wf.Router())
//	http.ListenAndServe(":8080", r)
package flow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/procurehq/reqflow/internal/codes"
	"github.com/procurehq/reqflow/internal/http/features/notifications"
	"github.com/procurehq/reqflow/internal/http/features/outbox"
	"github.com/procurehq/reqflow/internal/http/features/requisitions"
	"github.com/procurehq/reqflow/internal/http/middleware"
	"github.com/procurehq/reqflow/internal/httputil"
	"github.com/procurehq/reqflow/internal/mail"
	"github.com/procurehq/reqflow/internal/ratelimit"
	"github.com/procurehq/reqflow/pkg/authz"
	"github.com/procurehq/reqflow/pkg/notify"
	"github.com/procurehq/reqflow/pkg/repository"
	"github.com/procurehq/reqflow/pkg/workflow"
)

// Config holds the configuration for the workflow library.
type Config struct {
	// DB is the database connection (required).
	DB *sql.DB

	// JWTSecret is the secret key for validating access tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the expected issuer claim (default: "reqflow").
	JWTIssuer string

	// WorkerKeyHash is the bcrypt hash of the delivery worker key.
	// Empty disables the outbox worker endpoints.
	WorkerKeyHash string

	// DisableEmail turns off the email path; in-app notifications
	// still fan out.
	DisableEmail bool

	// TransitionRateLimit is the per-user transition budget per window
	// (window defaults to one minute). Zero disables the persisted
	// limiter.
	TransitionRateLimit  int
	TransitionRateWindow time.Duration

	// OutboxClaimBatch and OutboxClaimTimeout tune worker claims
	// (defaults: 20 rows, 5 minutes).
	OutboxClaimBatch   int
	OutboxClaimTimeout time.Duration

	// Logger is the structured logger (default: slog JSON to stdout).
	Logger *slog.Logger
}

// Flow is the main workflow instance.
type Flow struct {
	config            Config
	db                *sql.DB
	organizationsRepo *repository.OrganizationsRepository
	usersRepo         *repository.UsersRepository
	membershipsRepo   *repository.MembershipsRepository
	projectsRepo      *repository.ProjectsRepository
	requisitionsRepo  *repository.RequisitionsRepository
	notificationsRepo *repository.NotificationsRepository
	emailQueueRepo    *repository.EmailQueueRepository
	auditRepo         *repository.AuditRepository
	settingsRepo      *repository.OrgSettingsRepository
	rateLimitsRepo    *repository.RateLimitsRepository
	engine            *workflow.Engine
	fanout            *notify.Fanout
	transitionLimiter *ratelimit.Limiter
}

// New creates a new Flow instance with the given configuration.
// Returns an error if required database tables don't exist.
// Run migrations first - see migrations/ folder for SQL files.
func New(cfg Config) (*Flow, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	// Validate schema exists
	if err := validateSchema(cfg.DB); err != nil {
		return nil, err
	}

	// Initialize repositories
	organizationsRepo := repository.NewOrganizationsRepository(cfg.DB)
	usersRepo := repository.NewUsersRepository(cfg.DB)
	membershipsRepo := repository.NewMembershipsRepository(cfg.DB)
	projectsRepo := repository.NewProjectsRepository(cfg.DB)
	requisitionsRepo := repository.NewRequisitionsRepository(cfg.DB)
	notificationsRepo := repository.NewNotificationsRepository(cfg.DB)
	emailQueueRepo := repository.NewEmailQueueRepository(cfg.DB)
	auditRepo := repository.NewAuditRepository(cfg.DB)
	settingsRepo := repository.NewOrgSettingsRepository(cfg.DB)
	rateLimitsRepo := repository.NewRateLimitsRepository(cfg.DB)

	// Initialize services
	generator := codes.NewGenerator(settingsRepo)

	var enqueuer notify.Enqueuer
	if !cfg.DisableEmail {
		enqueuer = mail.NewQueue(
			usersRepo,
			organizationsRepo,
			projectsRepo,
			requisitionsRepo,
			settingsRepo,
			emailQueueRepo,
			cfg.Logger,
		)
	}

	fanout := notify.NewFanout(
		requisitionsRepo,
		usersRepo,
		membershipsRepo,
		projectsRepo,
		notificationsRepo,
		enqueuer,
		cfg.Logger,
	)

	engine := workflow.NewEngine(
		cfg.DB,
		organizationsRepo,
		projectsRepo,
		requisitionsRepo,
		auditRepo,
		generator,
		cfg.Logger,
	)
	engine.SetDispatcher(fanout)

	var limiter *ratelimit.Limiter
	if cfg.TransitionRateLimit > 0 {
		limiter = ratelimit.NewLimiter(rateLimitsRepo, cfg.TransitionRateLimit, cfg.TransitionRateWindow)
	}

	return &Flow{
		config:            cfg,
		db:                cfg.DB,
		organizationsRepo: organizationsRepo,
		usersRepo:         usersRepo,
		membershipsRepo:   membershipsRepo,
		projectsRepo:      projectsRepo,
		requisitionsRepo:  requisitionsRepo,
		notificationsRepo: notificationsRepo,
		emailQueueRepo:    emailQueueRepo,
		auditRepo:         auditRepo,
		settingsRepo:      settingsRepo,
		rateLimitsRepo:    rateLimitsRepo,
		engine:            engine,
		fanout:            fanout,
		transitionLimiter: limiter,
	}, nil
}

// Router returns a chi router with all workflow routes.
// Mount this on your main router:
//
//	r := chi.NewRouter()
//	r.Mount("/", wf.Router())
//
// Routes:
//
//	POST /requisitions                    - Create a draft
//	GET  /requisitions                    - List the org's requisitions
//	GET  /requisitions/{id}               - Fetch one requisition
//	GET  /requisitions/{id}/history       - Audit trail
//	POST /requisitions/{id}/transition    - Apply a status change
//	GET  /notifications                   - Current user's notifications
//	POST /notifications/{id}/read         - Mark one read
//	POST /outbox/claim                    - Worker: claim pending emails
//	POST /outbox/{id}/sent                - Worker: confirm delivery
//	POST /outbox/{id}/failed              - Worker: report failure
func (f *Flow) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Logger)

	auth := middleware.Auth(f.config.JWTSecret, f.config.JWTIssuer)

	requisitionsHandler := requisitions.NewHandler(
		f.config.Logger,
		f.engine,
		f.requisitionsRepo,
		f.auditRepo,
	)
	notificationsHandler := notifications.NewHandler(f.config.Logger, f.notificationsRepo)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/requisitions", requisitionsHandler.Create)
		r.Get("/requisitions", requisitionsHandler.List)
		r.Get("/requisitions/{id}", requisitionsHandler.Get)
		r.Get("/requisitions/{id}/history", requisitionsHandler.History)

		r.Group(func(r chi.Router) {
			if f.transitionLimiter != nil {
				r.Use(middleware.PersistedRateLimit(f.transitionLimiter, "transition", f.config.Logger))
			}
			r.Post("/requisitions/{id}/transition", requisitionsHandler.Transition)
		})

		r.Get("/notifications", notificationsHandler.List)
		r.Post("/notifications/{id}/read", notificationsHandler.MarkRead)
	})

	// Worker routes (if worker auth is configured)
	if f.config.WorkerKeyHash != "" {
		outboxHandler := outbox.NewHandler(
			f.config.Logger,
			f.emailQueueRepo,
			f.config.OutboxClaimBatch,
			f.config.OutboxClaimTimeout,
		)
		r.Group(func(r chi.Router) {
			r.Use(middleware.WorkerAuth(f.config.WorkerKeyHash))
			r.Post("/outbox/claim", outboxHandler.Claim)
			r.Post("/outbox/{id}/sent", outboxHandler.MarkSent)
			r.Post("/outbox/{id}/failed", outboxHandler.MarkFailed)
		})
	}

	return r
}

// Engine returns the workflow engine for direct (non-HTTP) use.
func (f *Flow) Engine() *workflow.Engine {
	return f.engine
}

// AuthMiddleware returns middleware that validates access tokens.
// Use this to protect your own routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(wf.AuthMiddleware())
//	    r.Get("/protected", handler)
//	})
func (f *Flow) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(f.config.JWTSecret, f.config.JWTIssuer)
}

// GetActor extracts the authenticated actor from a context.
// Use after AuthMiddleware:
//
//	actor, ok := flow.GetActor(r.Context())
func GetActor(ctx context.Context) (authz.Actor, bool) {
	return middleware.GetActor(ctx)
}

// HealthHandler returns a simple health check handler.
func (f *Flow) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Handler returns an http.Handler for mounting with http.StripPrefix.
// This is useful when using standard library ServeMux:
//
//	mux := http.NewServeMux()
//	mux.Handle("/api/", http.StripPrefix("/api", wf.Handler()))
func (f *Flow) Handler() http.Handler {
	return f.Router()
}

// Routes registers all workflow routes on an http.ServeMux with the
// given prefix:
//
//	mux := http.NewServeMux()
//	wf.Routes(mux, "/api/v1")
func (f *Flow) Routes(mux *http.ServeMux, prefix string) {
	mux.Handle(prefix+"/", http.StripPrefix(prefix, f.Router()))
}

func validateConfig(cfg *Config) error {
	if cfg.DB == nil {
		return errors.New("flow: DB is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("flow: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("flow: JWTSecret must be at least 32 characters")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "reqflow"
	}
	if cfg.TransitionRateWindow == 0 {
		cfg.TransitionRateWindow = time.Minute
	}
	if cfg.OutboxClaimBatch == 0 {
		cfg.OutboxClaimBatch = 20
	}
	if cfg.OutboxClaimTimeout == 0 {
		cfg.OutboxClaimTimeout = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// validateSchema checks that required database tables exist.
func validateSchema(db *sql.DB) error {
	requiredTables := []string{
		"organizations", "users", "memberships", "projects",
		"project_assignments", "requisitions", "notifications",
		"email_notifications", "audit_log", "organization_settings",
		"rate_limits",
	}

	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	`

	for _, table := range requiredTables {
		var name string
		err := db.QueryRow(query, table).Scan(&name)
		if err == sql.ErrNoRows {
			return fmt.Errorf("flow: missing table '%s' - run migrations first (see migrations/ folder)", table)
		}
		if err != nil {
			return fmt.Errorf("flow: failed to check schema: %w", err)
		}
	}

	return nil
}
