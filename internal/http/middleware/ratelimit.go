package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/procurehq/reqflow/internal/config"
	"github.com/procurehq/reqflow/internal/httputil"
	"github.com/procurehq/reqflow/internal/ratelimit"
)

// RateLimitConfig holds rate limiting configuration for a specific endpoint type.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates an IP-based rate limiter middleware with logging.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
					"user_agent", r.UserAgent(),
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// PersistedRateLimit creates middleware backed by the database-persisted
// limiter, keyed by the authenticated user. Unlike the IP-based httprate
// limiter it survives restarts and is shared across replicas, so it sits
// on the mutation endpoints. Must run after Auth.
func PersistedRateLimit(limiter *ratelimit.Limiter, endpoint string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActor(r.Context())
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			result, err := limiter.Allow(r.Context(), endpoint, actor.UserID.String())
			if err != nil {
				// Fail open: a limiter outage must not take down mutations.
				logger.Error("rate limiter unavailable", "error", err, "endpoint", endpoint)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				logger.Warn("rate limit exceeded",
					"endpoint", endpoint,
					"user_id", actor.UserID,
					"retry_after", result.RetryAfter,
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
				httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CreateRateLimiters creates rate limiting middleware functions based on
// configuration. The "transition" class covers workflow mutations; "api"
// covers everything else behind auth.
func CreateRateLimiters(cfg *config.Config, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	return map[string]func(http.Handler) http.Handler{
		"transition": RateLimit(RateLimitConfig{
			Requests: cfg.TransitionRateLimit,
			Window:   cfg.TransitionRateWindow,
			Logger:   logger,
		}),
		"api": RateLimit(RateLimitConfig{
			Requests: cfg.RequestRateLimit,
			Window:   cfg.RequestRateWindow,
			Logger:   logger,
		}),
	}
}
