// Package pacer drives one mission's command sequence: publish a step, wait
// for the executor's acknowledgement, honor the step's delay, advance.
// Commands within a mission are strictly sequential; nothing here blocks any
// other mission's task.
package pacer

import (
	"context"
	"fmt"
	"time"

	"github.com/astrolink-io/astrolink/internal/pkg/metrics"
	"github.com/astrolink-io/astrolink/internal/pkg/retry"
	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
	"github.com/astrolink-io/astrolink/internal/sequencer/registry"
	"github.com/astrolink-io/astrolink/pkg/log"
)

// Pacer executes validated mission plans step by step.
type Pacer struct {
	notifier   core.CommandNotifier
	registry   *registry.Registry
	acks       *AckRouter
	ackTimeout time.Duration
	policy     retry.Policy
	now        func() time.Time
	logger     log.Logger
}

// Option configures a Pacer.
type Option func(*Pacer)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pacer) { p.now = now }
}

// New creates a Pacer. ackTimeout bounds the wait for each step's
// acknowledgement; policy governs command publish retries.
func New(notifier core.CommandNotifier, reg *registry.Registry, acks *AckRouter, ackTimeout time.Duration, policy retry.Policy, opts ...Option) *Pacer {
	p := &Pacer{
		notifier:   notifier,
		registry:   reg,
		acks:       acks,
		ackTimeout: ackTimeout,
		policy:     policy,
		now:        time.Now,
		logger:     log.WithName("pacer"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Execute runs the plan inside the mission's dedicated task. It owns every
// status transition of the mission from IN_PROGRESS onward; the returned
// error mirrors the recorded terminal failure for the dispatcher's logs.
func (p *Pacer) Execute(ctx context.Context, plan *model.MissionPlan) error {
	missionID := plan.MissionID
	logger := p.logger.WithValues("missionID", missionID)

	ackCh := p.acks.Register(missionID)
	defer p.acks.Unregister(missionID)

	if err := p.registry.Transition(missionID, model.StatusInProgress, "Starting mission execution."); err != nil {
		// Already terminal: cancelled between admission and start.
		return err
	}

	for i, step := range plan.FlightPlan {
		if err := ctx.Err(); err != nil {
			return p.cancelled(missionID, i)
		}

		if err := p.registry.AdvanceStep(missionID, i); err != nil {
			return err
		}

		msg := model.NewOutboundCommandMessage(missionID, i, step, p.now())
		if err := p.publish(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return p.cancelled(missionID, i)
			}
			detail := fmt.Sprintf("Step %d (%s): command publish failed: %v", i, step.Command, err)
			p.fail(missionID, model.ErrorCodePublish, detail)
			return err
		}
		metrics.CommandsPublishedTotal.Inc()
		logger.Debug("Command published", "seq", i, "command", step.Command)

		if err := p.awaitAck(ctx, missionID, i, ackCh); err != nil {
			switch e := err.(type) {
			case *core.AckTimeoutError:
				detail := fmt.Sprintf("Step %d (%s): no acknowledgement within %s", i, step.Command, p.ackTimeout)
				p.fail(missionID, model.ErrorCodeAckTimeout, detail)
			case *core.ExecutionError:
				detail := fmt.Sprintf("Step %d (%s): executor reported failure: %s", i, step.Command, e.Reason)
				p.fail(missionID, model.ErrorCodeExecution, detail)
			default:
				return p.cancelled(missionID, i)
			}
			return err
		}

		if err := p.sleep(ctx, step.Delay()); err != nil {
			return p.cancelled(missionID, i+1)
		}
	}

	if err := p.registry.Transition(missionID, model.StatusCompleted, "All mission commands executed successfully."); err != nil {
		return err
	}
	logger.Info("Mission completed", "steps", len(plan.FlightPlan))
	return nil
}

// publish sends one command message under the retry policy. Exhaustion is
// equivalent to an execution failure: an unconfirmed command must not be
// assumed sent.
func (p *Pacer) publish(ctx context.Context, msg model.OutboundCommandMessage) error {
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		return p.notifier.NotifyCommand(ctx, msg)
	}, func(attempt int, err error) {
		metrics.BrokerPublishRetriesTotal.WithLabelValues("command").Inc()
		p.logger.Warn("Command publish failed, retrying",
			"missionID", msg.MissionID, "seq", msg.Seq, "attempt", attempt, "error", err)
	})
	return err
}

// awaitAck blocks until the executor acknowledges step seq, the timeout
// elapses, or ctx is cancelled. Duplicate acks for already-advanced steps
// are ignored; acks for future steps are malformed and likewise ignored.
func (p *Pacer) awaitAck(ctx context.Context, missionID string, seq int, ackCh <-chan model.AckMessage) error {
	timer := time.NewTimer(p.ackTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return &core.AckTimeoutError{MissionID: missionID, Step: seq, Timeout: p.ackTimeout}
		case ack := <-ackCh:
			if ack.Seq < seq {
				metrics.AcksReceivedTotal.WithLabelValues("stale").Inc()
				continue
			}
			if ack.Seq > seq {
				p.logger.Warn("Ack for a step not yet issued, ignoring",
					"missionID", missionID, "ackSeq", ack.Seq, "currentSeq", seq)
				continue
			}
			if !ack.OK {
				metrics.AcksReceivedTotal.WithLabelValues("failed").Inc()
				return &core.ExecutionError{MissionID: missionID, Step: seq, Reason: ack.Error}
			}
			metrics.AcksReceivedTotal.WithLabelValues("ok").Inc()
			return nil
		}
	}
}

// sleep waits out a step's post-acknowledgement delay without blocking
// other missions. A zero delay returns immediately.
func (p *Pacer) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pacer) cancelled(missionID string, step int) error {
	detail := fmt.Sprintf("Mission cancelled before step %d was issued.", step)
	p.fail(missionID, model.ErrorCodeCancelled, detail)
	return context.Canceled
}

func (p *Pacer) fail(missionID string, code model.ErrorCode, detail string) {
	if err := p.registry.Fail(missionID, code, detail); err != nil {
		p.logger.Error(err, "Failed to record mission failure", "missionID", missionID)
	}
}
