package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffSchedule(t *testing.T) {
	p := Policy{
		MaxAttempts:    5,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{6, time.Second},
	}

	for _, tt := range tests {
		if got := p.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 5, InitialBackoff: time.Millisecond, Multiplier: 2}

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, nil)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("op ran %d times, want 3", calls)
	}
}

func TestDoExhaustsAndReturnsLastError(t *testing.T) {
	p := Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, Multiplier: 2}

	last := errors.New("still down")
	calls := 0
	retries := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return last
	}, func(attempt int, err error) { retries++ })

	if !errors.Is(err, last) {
		t.Fatalf("got %v, want last attempt error", err)
	}
	if calls != 3 {
		t.Errorf("op ran %d times, want 3", calls)
	}
	if retries != 2 {
		t.Errorf("onRetry called %d times, want 2", retries)
	}
}

func TestDoHonorsContextCancel(t *testing.T) {
	p := Policy{MaxAttempts: 10, InitialBackoff: time.Hour, Multiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func(ctx context.Context) error {
			return errors.New("transient")
		}, nil)
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
}
