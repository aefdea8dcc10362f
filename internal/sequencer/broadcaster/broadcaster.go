// Package broadcaster publishes mission lifecycle transitions to the status
// channel. Publishing is fire-and-forget relative to mission execution: a
// full buffer or a dead broker never stalls a pacer, while the single
// consumer goroutine preserves per-mission transition order.
package broadcaster

import (
	"context"

	"github.com/astrolink-io/astrolink/internal/pkg/metrics"
	"github.com/astrolink-io/astrolink/internal/pkg/retry"
	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
	"github.com/astrolink-io/astrolink/pkg/log"
)

const defaultBufferSize = 256

// Broadcaster drains status messages from a bounded buffer into the status
// notifier under the injected retry policy.
type Broadcaster struct {
	notifier core.StatusNotifier
	policy   retry.Policy
	ch       chan model.StatusMessage
	logger   log.Logger
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithBufferSize overrides the queue depth, mainly for tests.
func WithBufferSize(n int) Option {
	return func(b *Broadcaster) { b.ch = make(chan model.StatusMessage, n) }
}

// New creates a Broadcaster publishing through the given notifier.
func New(notifier core.StatusNotifier, policy retry.Policy, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		notifier: notifier,
		policy:   policy,
		ch:       make(chan model.StatusMessage, defaultBufferSize),
		logger:   log.WithName("broadcaster"),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Enqueue hands a record snapshot to the broadcaster. It never blocks; when
// the buffer is full the message is dropped with a warning, since execution
// progress must not wait on observers.
func (b *Broadcaster) Enqueue(rec *model.MissionRecord) {
	msg := model.NewStatusMessage(rec)
	select {
	case b.ch <- msg:
	default:
		b.logger.Warn("Status buffer full, dropping transition",
			"missionID", msg.MissionID, "status", string(msg.Status))
	}
}

// Start consumes the buffer until ctx is cancelled. Each message is
// published under the retry policy; when the schedule is exhausted the
// message is logged and dropped. Status publish failures never fail a
// mission.
func (b *Broadcaster) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-b.ch:
			b.publish(ctx, msg)
		}
	}
}

func (b *Broadcaster) publish(ctx context.Context, msg model.StatusMessage) {
	err := b.policy.Do(ctx, func(ctx context.Context) error {
		return b.notifier.NotifyStatus(ctx, msg)
	}, func(attempt int, err error) {
		metrics.BrokerPublishRetriesTotal.WithLabelValues("status").Inc()
		b.logger.Warn("Status publish failed, retrying",
			"missionID", msg.MissionID, "status", string(msg.Status), "attempt", attempt, "error", err)
	})
	if err != nil && ctx.Err() == nil {
		b.logger.Error(err, "Dropping status message after exhausting retries",
			"missionID", msg.MissionID, "status", string(msg.Status))
	}
}
