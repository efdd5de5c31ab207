package poll_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/valpere/perelay/internal/poll"
)

func fast(maxAttempts int) poll.Policy {
	return poll.Policy{Initial: time.Millisecond, Multiplier: 2, Cap: 2 * time.Millisecond, MaxAttempts: maxAttempts}
}

func TestUntil_DoneImmediately(t *testing.T) {
	calls := 0
	err := poll.Until(context.Background(), fast(5), func(ctx context.Context) (bool, error) {
		calls++
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestUntil_DoneAfterRetries(t *testing.T) {
	calls := 0
	err := poll.Until(context.Background(), fast(10), func(ctx context.Context) (bool, error) {
		calls++
		return calls == 4, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 4 {
		t.Errorf("calls = %d, want 4", calls)
	}
}

func TestUntil_Exhausted(t *testing.T) {
	err := poll.Until(context.Background(), fast(3), func(ctx context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, poll.ErrExhausted) {
		t.Fatalf("expected exhaustion, got %v", err)
	}
}

func TestUntil_FnErrorStopsLoop(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := poll.Until(context.Background(), fast(5), func(ctx context.Context) (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestUntil_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := poll.Until(ctx, fast(100), func(ctx context.Context) (bool, error) {
		cancel()
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
