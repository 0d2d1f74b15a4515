package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBrokerDown = errors.New("broker down")

func testBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Millisecond,
	}
}

func failN(t *testing.T, cb *CircuitBreaker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := cb.Execute(context.Background(), func() error { return errBrokerDown }); !errors.Is(err, errBrokerDown) {
			t.Fatalf("failure %d: expected broker error, got %v", i, err)
		}
	}
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("shoonya", testBreakerConfig())

	failN(t, cb, 2)
	if got := cb.State(); got != CircuitClosed {
		t.Fatalf("state before threshold = %s, want %s", got, CircuitClosed)
	}

	failN(t, cb, 1)
	if got := cb.State(); got != CircuitOpen {
		t.Fatalf("state after threshold = %s, want %s", got, CircuitOpen)
	}

	// While open, calls are rejected without invoking fn.
	invoked := false
	err := cb.Execute(context.Background(), func() error {
		invoked = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if invoked {
		t.Error("fn must not run while the circuit is open")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("shoonya", testBreakerConfig())

	failN(t, cb, 2)
	if err := cb.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	failN(t, cb, 2)

	if got := cb.State(); got != CircuitClosed {
		t.Errorf("state = %s, want %s after interleaved success", got, CircuitClosed)
	}
}

func TestCircuitBreaker_ClosesAfterRecovery(t *testing.T) {
	cfg := testBreakerConfig()
	cb := NewCircuitBreaker("fyers", cfg)

	failN(t, cb, cfg.FailureThreshold)
	time.Sleep(cfg.Cooldown + 10*time.Millisecond)

	// First call after cooldown probes in half-open.
	if err := cb.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("unexpected error on probe: %v", err)
	}
	if got := cb.State(); got != CircuitHalfOpen {
		t.Fatalf("state after first probe = %s, want %s", got, CircuitHalfOpen)
	}

	if err := cb.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("unexpected error on second probe: %v", err)
	}
	if got := cb.State(); got != CircuitClosed {
		t.Errorf("state after recovery = %s, want %s", got, CircuitClosed)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cfg := testBreakerConfig()
	cb := NewCircuitBreaker("fyers", cfg)

	failN(t, cb, cfg.FailureThreshold)
	time.Sleep(cfg.Cooldown + 10*time.Millisecond)

	failN(t, cb, 1)
	if got := cb.State(); got != CircuitOpen {
		t.Errorf("state after half-open failure = %s, want %s", got, CircuitOpen)
	}

	err := cb.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen right after reopening, got %v", err)
	}
}

func TestCircuitBreaker_ResetClosesImmediately(t *testing.T) {
	cfg := testBreakerConfig()
	cb := NewCircuitBreaker("shoonya", cfg)

	failN(t, cb, cfg.FailureThreshold)
	if got := cb.State(); got != CircuitOpen {
		t.Fatalf("state = %s, want %s", got, CircuitOpen)
	}

	cb.Reset()
	if got := cb.State(); got != CircuitClosed {
		t.Fatalf("state after Reset = %s, want %s", got, CircuitClosed)
	}
	if err := cb.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("unexpected error after Reset: %v", err)
	}
}

func TestCircuitBreaker_Name(t *testing.T) {
	cb := NewCircuitBreaker("shoonya", DefaultCircuitBreakerConfig())
	if cb.Name() != "shoonya" {
		t.Errorf("Name() = %q, want %q", cb.Name(), "shoonya")
	}
}
