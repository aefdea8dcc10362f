package broadcaster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/astrolink-io/astrolink/internal/pkg/retry"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
)

type captureNotifier struct {
	mu       sync.Mutex
	msgs     []model.StatusMessage
	failures int // fail this many leading calls
}

func (c *captureNotifier) NotifyStatus(ctx context.Context, msg model.StatusMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.failures--
		return errors.New("broker unavailable")
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *captureNotifier) messages() []model.StatusMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.StatusMessage, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func record(id string, status model.Status) *model.MissionRecord {
	return &model.MissionRecord{
		MissionID:     id,
		Status:        status,
		LastUpdatedAt: time.Now(),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestBroadcastPreservesTransitionOrder(t *testing.T) {
	n := &captureNotifier{}
	b := New(n, retry.Policy{MaxAttempts: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Start(ctx)

	b.Enqueue(record("m1", model.StatusQueued))
	b.Enqueue(record("m1", model.StatusInProgress))
	b.Enqueue(record("m1", model.StatusCompleted))

	waitFor(t, func() bool { return len(n.messages()) == 3 })

	want := []model.Status{model.StatusQueued, model.StatusInProgress, model.StatusCompleted}
	for i, msg := range n.messages() {
		if msg.Status != want[i] {
			t.Errorf("message %d = %s, want %s", i, msg.Status, want[i])
		}
	}
}

func TestBroadcastRetriesTransientFailures(t *testing.T) {
	n := &captureNotifier{failures: 2}
	b := New(n, retry.Policy{MaxAttempts: 4, InitialBackoff: time.Millisecond, Multiplier: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Start(ctx)

	b.Enqueue(record("m1", model.StatusQueued))

	waitFor(t, func() bool { return len(n.messages()) == 1 })
}

func TestEnqueueNeverBlocks(t *testing.T) {
	n := &captureNotifier{}
	b := New(n, retry.Policy{MaxAttempts: 1}, WithBufferSize(1))

	// No consumer running; the second enqueue must drop, not block.
	done := make(chan struct{})
	go func() {
		b.Enqueue(record("m1", model.StatusQueued))
		b.Enqueue(record("m1", model.StatusInProgress))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full buffer")
	}
}

func TestExhaustedRetriesDropMessage(t *testing.T) {
	n := &captureNotifier{failures: 100}
	b := New(n, retry.Policy{MaxAttempts: 2, InitialBackoff: time.Millisecond, Multiplier: 2})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Start(ctx)

	b.Enqueue(record("m1", model.StatusQueued))
	b.Enqueue(record("m2", model.StatusQueued))

	// The second message still goes through once the notifier recovers.
	waitFor(t, func() bool {
		n.mu.Lock()
		defer n.mu.Unlock()
		return n.failures < 97 // both messages consumed attempts
	})
}
