// Package dispatcher admits queued mission plans into execution, bounding
// both the admission backlog and the number of concurrently running
// missions.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
	"github.com/astrolink-io/astrolink/internal/sequencer/registry"
	"github.com/astrolink-io/astrolink/pkg/log"
)

// Executor runs a single mission to its terminal state.
type Executor interface {
	Execute(ctx context.Context, plan *model.MissionPlan) error
}

// Dispatcher owns the bounded FIFO admission queue. One loop drains it,
// acquiring a concurrency slot per mission before handing the plan to a
// dedicated goroutine, so admission order is preserved while missions run
// independently.
type Dispatcher struct {
	executor Executor
	registry *registry.Registry
	queue    chan *model.MissionPlan
	slots    *semaphore.Weighted
	logger   log.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Dispatcher with the given queue capacity and concurrency
// limit. Both must be positive.
func New(executor Executor, reg *registry.Registry, maxConcurrent int64, queueCapacity int) *Dispatcher {
	return &Dispatcher{
		executor: executor,
		registry: reg,
		queue:    make(chan *model.MissionPlan, queueCapacity),
		slots:    semaphore.NewWeighted(maxConcurrent),
		logger:   log.Std().WithName("dispatcher"),
		running:  make(map[string]context.CancelFunc),
	}
}

// Enqueue places an admitted plan on the queue without blocking. The caller
// has already registered the mission; a full queue is reported synchronously
// so the submitter can reject it.
func (d *Dispatcher) Enqueue(plan *model.MissionPlan) error {
	select {
	case d.queue <- plan:
		return nil
	default:
		return &core.QueueFullError{Capacity: cap(d.queue)}
	}
}

// Run drains the admission queue until ctx is cancelled, then waits for all
// in-flight missions to reach a terminal state. Each in-flight mission's
// context is derived from ctx, so shutdown cancels them promptly.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			return ctx.Err()
		case plan := <-d.queue:
			if d.skip(plan.MissionID) {
				continue
			}
			if err := d.slots.Acquire(ctx, 1); err != nil {
				d.wg.Wait()
				return err
			}
			d.launch(ctx, plan)
		}
	}
}

// skip reports whether a dequeued plan should not run: the mission was
// cancelled (or otherwise finished) while still queued.
func (d *Dispatcher) skip(missionID string) bool {
	rec, ok := d.registry.Get(missionID)
	if !ok {
		d.logger.Warn("Dequeued mission has no registry record, dropping", "missionID", missionID)
		return true
	}
	return rec.Status.IsTerminal()
}

func (d *Dispatcher) launch(ctx context.Context, plan *model.MissionPlan) {
	missionID := plan.MissionID
	mctx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	d.running[missionID] = cancel
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.slots.Release(1)
		defer func() {
			d.mu.Lock()
			delete(d.running, missionID)
			d.mu.Unlock()
			cancel()
		}()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error(fmt.Errorf("panic: %v", r), "Mission executor panicked", "missionID", missionID)
				if err := d.registry.Fail(missionID, model.ErrorCodeExecution, "Internal error during mission execution."); err != nil {
					d.logger.Error(err, "Failed to record panic as mission failure", "missionID", missionID)
				}
			}
		}()

		if err := d.executor.Execute(mctx, plan); err != nil {
			// Terminal status and detail were already recorded by the
			// executor; this is progress logging only.
			d.logger.Info("Mission finished with error", "missionID", missionID, "error", err.Error())
		}
	}()
}

// Cancel stops the named mission. A running mission has its context
// cancelled; a mission still waiting in the queue is failed in place and
// skipped at dequeue time. Cancelling an unknown or already finished
// mission returns false.
func (d *Dispatcher) Cancel(missionID string) bool {
	d.mu.Lock()
	cancel, ok := d.running[missionID]
	d.mu.Unlock()
	if ok {
		cancel()
		return true
	}

	rec, found := d.registry.Get(missionID)
	if !found || rec.Status.IsTerminal() {
		return false
	}
	if err := d.registry.Fail(missionID, model.ErrorCodeCancelled, "Mission cancelled while queued."); err != nil {
		d.logger.Warn("Cancel raced with mission completion", "missionID", missionID, "error", err.Error())
		return false
	}
	return true
}

// QueueDepth reports the number of plans waiting for admission.
func (d *Dispatcher) QueueDepth() int {
	return len(d.queue)
}
