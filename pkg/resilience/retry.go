package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
)

// Backoff describes how often a retried operation runs and how long it
// waits between attempts. Delays grow by Multiplier from InitialDelay and
// are capped at MaxDelay; Jitter spreads each delay by up to that fraction.
type Backoff struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       float64
}

// BackoffFrom maps a config section onto a Backoff with doubling delays
// and 10% jitter.
func BackoffFrom(cfg config.RetryConfig) Backoff {
	return Backoff{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   2,
		Jitter:       0.1,
	}
}

func (b Backoff) withDefaults() Backoff {
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = 3
	}
	if b.InitialDelay <= 0 {
		b.InitialDelay = 100 * time.Millisecond
	}
	if b.MaxDelay < b.InitialDelay {
		b.MaxDelay = max(b.InitialDelay, 10*time.Second)
	}
	if b.Multiplier < 1 {
		b.Multiplier = 2
	}
	b.Jitter = min(max(b.Jitter, 0), 1)
	return b
}

// delay returns the wait after the given 1-based failed attempt.
func (b Backoff) delay(attempt int) time.Duration {
	d := float64(b.InitialDelay) * math.Pow(b.Multiplier, float64(attempt-1))
	d += d * b.Jitter * (2*rand.Float64() - 1)
	return time.Duration(min(max(d, float64(b.InitialDelay)), float64(b.MaxDelay)))
}

// permanentError stops Retry without further attempts.
type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Retry calls fn until it succeeds, returns a Permanent error, the attempts
// run out or ctx is done. fn receives ctx and the 1-based attempt number.
// The returned error wraps the last failure.
func Retry(ctx context.Context, name string, b Backoff, fn func(ctx context.Context, attempt int) error) error {
	b = b.withDefaults()
	log := slog.Default().With("component", "retry", "operation", name)
	var lastErr error
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			if attempt > 1 {
				log.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		var perm permanentError
		if errors.As(lastErr, &perm) {
			return fmt.Errorf("%s failed permanently: %w", name, perm.err)
		}
		if attempt == b.MaxAttempts {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s aborted after %d attempts: %w", name, attempt, ctx.Err())
		}
		wait := b.delay(attempt)
		log.Warn("attempt failed, retrying", "attempt", attempt, "max_attempts", b.MaxAttempts, "error", lastErr, "next_delay", wait)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s aborted during backoff: %w", name, ctx.Err())
		}
	}
	return fmt.Errorf("all %d attempts failed for %s: %w", b.MaxAttempts, name, lastErr)
}
