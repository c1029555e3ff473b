package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/config"
)

var errBackend = errors.New("backend down")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func breakerWithClock(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("redis", cfg)
	cb.now = clock.now
	return cb, clock
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	var transitions []State
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 2,
		Cooldown:         time.Hour,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, to)
		},
	})
	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return errBackend }); !errors.Is(err, errBackend) {
			t.Fatalf("attempt %d: got %v", i, err)
		}
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open", cb.GetState())
	}
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Errorf("open breaker must reject without calling fn, err=%v called=%v", err, called)
	}
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Errorf("transitions = %v, want [open]", transitions)
	}
}

func TestCircuitBreakerRecovers(t *testing.T) {
	cb, clock := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Second})
	cb.Execute(func() error { return errBackend })
	clock.advance(time.Second)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("trial request: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Errorf("state = %v, want closed", cb.GetState())
	}
}

func TestCircuitBreakerHalfOpenTrialFails(t *testing.T) {
	cb, clock := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Second})
	cb.Execute(func() error { return errBackend })
	clock.advance(time.Second)
	cb.Execute(func() error { return errBackend })
	if cb.GetState() != StateOpen {
		t.Errorf("state = %v, want open", cb.GetState())
	}
	cb.Reset()
	if cb.GetState() != StateClosed {
		t.Errorf("state after Reset = %v, want closed", cb.GetState())
	}
}

func TestCircuitBreakerCooldownAndTrialLimit(t *testing.T) {
	cb, clock := breakerWithClock(CircuitBreakerConfig{FailureThreshold: 1, Cooldown: time.Minute})
	cb.Execute(func() error { return errBackend })

	clock.advance(30 * time.Second)
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("call during cooldown: got %v, want ErrCircuitOpen", err)
	}

	clock.advance(30 * time.Second)
	release := make(chan struct{})
	started := make(chan struct{})
	go cb.Execute(func() error {
		close(started)
		<-release
		return nil
	})
	<-started
	if err := cb.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("second trial while one is running: got %v, want ErrCircuitOpen", err)
	}
	close(release)
}

func TestBreakerConfigFrom(t *testing.T) {
	cfg := BreakerConfigFrom(config.BreakerConfig{FailureThreshold: 3, Cooldown: 10 * time.Second})
	if cfg.FailureThreshold != 3 || cfg.Cooldown != 10*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestRetry(t *testing.T) {
	var seen []int
	err := Retry(context.Background(), "connect", Backoff{MaxAttempts: 3, InitialDelay: time.Millisecond}, func(_ context.Context, attempt int) error {
		seen = append(seen, attempt)
		if attempt < 3 {
			return errBackend
		}
		return nil
	})
	if err != nil || len(seen) != 3 || seen[2] != 3 {
		t.Errorf("err=%v attempts=%v", err, seen)
	}
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "connect", Backoff{MaxAttempts: 2, InitialDelay: time.Millisecond}, func(context.Context, int) error {
		calls++
		return errBackend
	})
	if !errors.Is(err, errBackend) || calls != 2 {
		t.Errorf("expected wrapped backend error after 2 calls, got %v after %d", err, calls)
	}
}

func TestRetryPermanent(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "save", Backoff{MaxAttempts: 5, InitialDelay: time.Millisecond}, func(context.Context, int) error {
		calls++
		return Permanent(errBackend)
	})
	if calls != 1 {
		t.Errorf("permanent error must stop retrying, calls = %d", calls)
	}
	if !errors.Is(err, errBackend) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) must be nil")
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "connect", Backoff{MaxAttempts: 5, InitialDelay: time.Second}, func(context.Context, int) error {
		return errBackend
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBackoffDelay(t *testing.T) {
	b := BackoffFrom(config.RetryConfig{MaxAttempts: 4, InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}).withDefaults()
	tests := []struct {
		attempt  int
		min, max time.Duration
	}{
		{1, 100 * time.Millisecond, 110 * time.Millisecond},
		{2, 180 * time.Millisecond, 220 * time.Millisecond},
		{3, 300 * time.Millisecond, 300 * time.Millisecond},
		{10, 300 * time.Millisecond, 300 * time.Millisecond},
	}
	for _, tt := range tests {
		for range 20 {
			if d := b.delay(tt.attempt); d < tt.min || d > tt.max {
				t.Errorf("delay(%d) = %v, want within [%v, %v]", tt.attempt, d, tt.min, tt.max)
			}
		}
	}
}
