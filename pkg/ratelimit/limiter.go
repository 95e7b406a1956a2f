package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/config"
)

// Result contains the outcome of an admission check.
type Result struct {
	// Allowed indicates the call may proceed.
	Allowed bool

	// Remaining is the number of slots left in the window after this
	// check (not counting the call itself).
	Remaining int

	// ResetIn is how long until the oldest admitted call leaves the
	// window and frees a slot. Zero when Allowed.
	ResetIn time.Duration
}

// Limiter is a per-key sliding window admission limiter.
type Limiter struct {
	requests int
	window   time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	entries map[string][]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewLimiter creates a limiter admitting cfg.Requests calls per key
// within cfg.Window.
func NewLimiter(cfg *config.RateLimitConfig, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		requests: cfg.Requests,
		window:   cfg.Window,
		logger:   logger.With("component", "ratelimit"),
		entries:  make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Check reports whether a call for key would currently be admitted.
// It does not consume a slot.
func (l *Limiter) Check(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.checkLocked(key, l.now())
}

// Record consumes a slot for key. Callers use it after a successful
// Check; it appends unconditionally so an over-admitted burst is counted
// against the window rather than forgotten.
func (l *Limiter) Record(key string) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := l.evictLocked(key, now)
	l.entries[key] = append(stamps, now)
}

// WaitForSlot blocks until a slot for key is admitted and consumed, or
// the context is cancelled. Each attempt performs check and record under
// a single lock acquisition.
func (l *Limiter) WaitForSlot(ctx context.Context, key string) error {
	for {
		now := l.now()

		l.mu.Lock()
		result := l.checkLocked(key, now)
		if result.Allowed {
			l.entries[key] = append(l.entries[key], now)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		wait := result.ResetIn
		if wait <= 0 {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// ActiveKeys returns the number of keys holding unexpired timestamps.
// Lazy eviction means keys idle since their last call may still be
// counted until touched.
func (l *Limiter) ActiveKeys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// checkLocked evicts expired timestamps for key and evaluates the limit.
// Caller must hold the lock.
func (l *Limiter) checkLocked(key string, now time.Time) Result {
	stamps := l.evictLocked(key, now)

	if len(stamps) < l.requests {
		return Result{
			Allowed:   true,
			Remaining: l.requests - len(stamps),
		}
	}

	// Window full: a slot frees when the oldest timestamp expires.
	resetIn := stamps[0].Add(l.window).Sub(now)
	if resetIn < 0 {
		resetIn = 0
	}
	l.logger.Debug("admission rejected",
		"key", key,
		"limit", l.requests,
		"reset_in_ms", resetIn.Milliseconds(),
	)
	return Result{Allowed: false, ResetIn: resetIn}
}

// evictLocked drops timestamps strictly older than now-window for key
// and returns the survivors; a timestamp exactly at now-window still
// occupies its slot. Fully expired keys are removed from the table.
// Caller must hold the lock.
func (l *Limiter) evictLocked(key string, now time.Time) []time.Time {
	stamps, ok := l.entries[key]
	if !ok {
		return nil
	}

	cutoff := now.Add(-l.window)
	keep := 0
	for keep < len(stamps) && stamps[keep].Before(cutoff) {
		keep++
	}
	if keep == 0 {
		return stamps
	}
	if keep == len(stamps) {
		delete(l.entries, key)
		return nil
	}

	stamps = stamps[keep:]
	l.entries[key] = stamps
	return stamps
}
