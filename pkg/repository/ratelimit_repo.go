package repository

import (
	"context"
	"database/sql"
	"time"
)

// RateLimitsRepository persists fixed-window attempt counters keyed by
// (endpoint, identifier). The bump is one atomic upsert: expired
// windows reset in the same statement, so concurrent requests never
// lose counts.
type RateLimitsRepository struct {
	db *sql.DB
}

// NewRateLimitsRepository creates a new rate limits repository.
func NewRateLimitsRepository(db *sql.DB) *RateLimitsRepository {
	return &RateLimitsRepository{db: db}
}

// Bump records one attempt for (endpoint, identifier) and returns the
// attempt count in the current window along with the window start. A
// window older than windowSize resets to a fresh window of one attempt.
func (r *RateLimitsRepository) Bump(ctx context.Context, endpoint, identifier string, windowSize time.Duration) (attempts int, windowStart time.Time, err error) {
	query := `
		INSERT INTO rate_limits (endpoint, identifier, window_start, attempts)
		VALUES ($1, $2, NOW(), 1)
		ON CONFLICT (endpoint, identifier) DO UPDATE
		SET attempts = CASE
		        WHEN rate_limits.window_start < NOW() - make_interval(secs => $3) THEN 1
		        ELSE rate_limits.attempts + 1
		    END,
		    window_start = CASE
		        WHEN rate_limits.window_start < NOW() - make_interval(secs => $3) THEN NOW()
		        ELSE rate_limits.window_start
		    END
		RETURNING attempts, window_start
	`
	err = r.db.QueryRowContext(ctx, query, endpoint, identifier, windowSize.Seconds()).
		Scan(&attempts, &windowStart)
	if err != nil {
		return 0, time.Time{}, err
	}
	return attempts, windowStart, nil
}
