package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	window := time.Minute

	tests := []struct {
		name           string
		attempts       int
		windowStart    time.Time
		limit          int
		wantAllowed    bool
		wantRemaining  int
		wantRetryAfter time.Duration
	}{
		{
			name:          "first attempt",
			attempts:      1,
			windowStart:   now,
			limit:         5,
			wantAllowed:   true,
			wantRemaining: 4,
		},
		{
			name:          "at the limit",
			attempts:      5,
			windowStart:   now,
			limit:         5,
			wantAllowed:   true,
			wantRemaining: 0,
		},
		{
			name:           "over the limit",
			attempts:       6,
			windowStart:    now.Add(-20 * time.Second),
			limit:          5,
			wantAllowed:    false,
			wantRemaining:  0,
			wantRetryAfter: 40 * time.Second,
		},
		{
			name:           "over the limit at window edge",
			attempts:       6,
			windowStart:    now.Add(-time.Minute),
			limit:          5,
			wantAllowed:    false,
			wantRemaining:  0,
			wantRetryAfter: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.attempts, tt.windowStart, tt.limit, window, now)
			if got.Allowed != tt.wantAllowed {
				t.Errorf("Allowed: got %v, want %v", got.Allowed, tt.wantAllowed)
			}
			if got.Remaining != tt.wantRemaining {
				t.Errorf("Remaining: got %d, want %d", got.Remaining, tt.wantRemaining)
			}
			if got.RetryAfter != tt.wantRetryAfter {
				t.Errorf("RetryAfter: got %v, want %v", got.RetryAfter, tt.wantRetryAfter)
			}
		})
	}
}

// fakeStore counts bumps in memory with the same reset semantics as the
// persisted store.
type fakeStore struct {
	attempts    map[string]int
	windowStart map[string]time.Time
	window      time.Duration
	now         time.Time
}

func (s *fakeStore) Bump(_ context.Context, endpoint, identifier string, windowSize time.Duration) (int, time.Time, error) {
	key := endpoint + "|" + identifier
	start, ok := s.windowStart[key]
	if !ok || s.now.Sub(start) > windowSize {
		s.windowStart[key] = s.now
		s.attempts[key] = 1
		return 1, s.now, nil
	}
	s.attempts[key]++
	return s.attempts[key], start, nil
}

func TestLimiter_Allow_IndependentIdentifiers(t *testing.T) {
	store := &fakeStore{
		attempts:    map[string]int{},
		windowStart: map[string]time.Time{},
		now:         time.Now(),
	}
	limiter := NewLimiter(store, 2, time.Minute)

	for i := 0; i < 2; i++ {
		result, err := limiter.Allow(context.Background(), "transition", "user-a")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !result.Allowed {
			t.Fatalf("attempt %d for user-a should be allowed", i+1)
		}
	}

	result, err := limiter.Allow(context.Background(), "transition", "user-a")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if result.Allowed {
		t.Error("third attempt for user-a should be limited")
	}

	// A different identifier has its own budget.
	result, err = limiter.Allow(context.Background(), "transition", "user-b")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !result.Allowed {
		t.Error("user-b should not be affected by user-a's attempts")
	}

	// Same identifier on a different endpoint has its own budget too.
	result, err = limiter.Allow(context.Background(), "create", "user-a")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !result.Allowed {
		t.Error("endpoint budgets must be independent")
	}
}

func TestLimiter_Allow_WindowReset(t *testing.T) {
	start := time.Now()
	store := &fakeStore{
		attempts:    map[string]int{},
		windowStart: map[string]time.Time{},
		now:         start,
	}
	limiter := NewLimiter(store, 1, time.Minute)

	if result, _ := limiter.Allow(context.Background(), "transition", "user-a"); !result.Allowed {
		t.Fatal("first attempt should be allowed")
	}
	if result, _ := limiter.Allow(context.Background(), "transition", "user-a"); result.Allowed {
		t.Fatal("second attempt inside the window should be limited")
	}

	// Advance past the window: the counter resets.
	store.now = start.Add(2 * time.Minute)
	if result, _ := limiter.Allow(context.Background(), "transition", "user-a"); !result.Allowed {
		t.Error("attempt after window expiry should be allowed")
	}
}
