// Package registry is the in-memory source of truth for mission state.
// The table is sharded by mission id so cross-mission access never
// serializes through a single lock; each record's status changes are guarded
// by a finite state machine that forbids leaving a terminal state.
package registry

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/astrolink-io/astrolink/internal/pkg/metrics"
	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
)

const shardCount = 16

// TransitionHook observes every successful status transition with a record
// snapshot. Invoked under the shard lock, so per-mission order is the
// transition order; implementations must not block.
type TransitionHook func(rec *model.MissionRecord)

type entry struct {
	rec     *model.MissionRecord
	machine *fsm.FSM
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Registry tracks every accepted mission until the retention sweeper
// removes its terminal record.
type Registry struct {
	shards    [shardCount]*shard
	retention time.Duration
	hook      TransitionHook
	now       func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithTransitionHook registers the transition observer, normally the
// status broadcaster.
func WithTransitionHook(hook TransitionHook) Option {
	return func(r *Registry) { r.hook = hook }
}

// New creates a Registry with the given retention window for terminal records.
func New(retention time.Duration, opts ...Option) *Registry {
	r := &Registry{
		retention: retention,
		now:       time.Now,
	}
	for i := range r.shards {
		r.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) shardFor(missionID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(missionID))
	return r.shards[h.Sum32()%shardCount]
}

// Register creates a QUEUED record for the plan. It fails with
// DuplicateMissionError while a record with the same id is non-terminal, or
// terminal but still inside the retention window. An expired terminal record
// is replaced, making the id reusable for a fresh mission.
func (r *Registry) Register(plan *model.MissionPlan) (*model.MissionRecord, error) {
	s := r.shardFor(plan.MissionID)
	now := r.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[plan.MissionID]; ok {
		if !existing.rec.Status.IsTerminal() || now.Sub(existing.rec.FinishedAt) < r.retention {
			return nil, &core.DuplicateMissionError{MissionID: plan.MissionID}
		}
		delete(s.entries, plan.MissionID)
	}

	rec := &model.MissionRecord{
		MissionID:     plan.MissionID,
		Status:        model.StatusQueued,
		CurrentStep:   0,
		TotalSteps:    len(plan.FlightPlan),
		Detail:        "Mission plan validated and queued for execution.",
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	s.entries[plan.MissionID] = &entry{rec: rec, machine: newStatusMachine()}

	metrics.MissionsActive.Inc()
	r.fireHook(rec)

	return rec.Clone(), nil
}

// Get returns a snapshot of the mission's record.
func (r *Registry) Get(missionID string) (*model.MissionRecord, bool) {
	s := r.shardFor(missionID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[missionID]
	if !ok {
		return nil, false
	}
	return e.rec.Clone(), true
}

// Remove deletes a still-queued record, compensating a registration whose
// admission was rejected afterwards. Records that have started or finished
// are left alone.
func (r *Registry) Remove(missionID string) bool {
	s := r.shardFor(missionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[missionID]
	if !ok || e.rec.Status != model.StatusQueued {
		return false
	}
	delete(s.entries, missionID)
	metrics.MissionsActive.Dec()
	return true
}

// Transition moves the mission to the target status. Illegal transitions
// (including any transition out of a terminal state) leave the record
// untouched and return an error.
func (r *Registry) Transition(missionID string, target model.Status, detail string) error {
	return r.transition(missionID, target, detail, "")
}

// Fail moves the mission to FAILED, recording the error taxonomy code.
func (r *Registry) Fail(missionID string, code model.ErrorCode, detail string) error {
	return r.transition(missionID, model.StatusFailed, detail, code)
}

func (r *Registry) transition(missionID string, target model.Status, detail string, code model.ErrorCode) error {
	event, err := eventFor(target)
	if err != nil {
		return err
	}

	s := r.shardFor(missionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[missionID]
	if !ok {
		return fmt.Errorf("mission %q not found", missionID)
	}

	if err := e.machine.Event(context.Background(), event); err != nil {
		return fmt.Errorf("mission %s: cannot transition %s -> %s: %w", missionID, e.rec.Status, target, err)
	}

	now := r.now()
	e.rec.Status = target
	e.rec.Detail = detail
	e.rec.LastUpdatedAt = now
	if target.IsTerminal() {
		e.rec.FinishedAt = now
		e.rec.TerminalError = code
		metrics.MissionsActive.Dec()
		metrics.MissionDurationSeconds.WithLabelValues(string(target)).Observe(now.Sub(e.rec.CreatedAt).Seconds())
	}

	r.fireHook(e.rec)
	return nil
}

// AdvanceStep records execution progress for observability. It does not
// change the mission status and is a no-op on terminal records.
func (r *Registry) AdvanceStep(missionID string, index int) error {
	s := r.shardFor(missionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[missionID]
	if !ok {
		return fmt.Errorf("mission %q not found", missionID)
	}
	if e.rec.Status.IsTerminal() {
		return nil
	}

	e.rec.CurrentStep = index
	e.rec.LastUpdatedAt = r.now()
	return nil
}

// ListActive returns snapshots of all non-terminal missions.
func (r *Registry) ListActive() []*model.MissionRecord {
	var out []*model.MissionRecord
	for _, s := range r.shards {
		s.mu.RLock()
		for _, e := range s.entries {
			if !e.rec.Status.IsTerminal() {
				out = append(out, e.rec.Clone())
			}
		}
		s.mu.RUnlock()
	}
	return out
}

// Sweep removes terminal records whose retention window has elapsed and
// returns how many were removed. Non-terminal records are never touched.
func (r *Registry) Sweep(now time.Time) int {
	removed := 0
	threshold := now.Add(-r.retention)
	for _, s := range r.shards {
		s.mu.Lock()
		for id, e := range s.entries {
			if e.rec.Status.IsTerminal() && e.rec.FinishedAt.Before(threshold) {
				delete(s.entries, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

func (r *Registry) fireHook(rec *model.MissionRecord) {
	if r.hook != nil {
		r.hook(rec.Clone())
	}
}
