package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
)

func testPlan(id string, steps int) *model.MissionPlan {
	plan := &model.MissionPlan{MissionID: id}
	for i := 0; i < steps; i++ {
		plan.FlightPlan = append(plan.FlightPlan, model.CommandSpec{
			Command:    "STAGE",
			Parameters: map[string]model.ParamValue{},
		})
	}
	return plan
}

func TestRegisterAndGet(t *testing.T) {
	r := New(time.Minute)

	rec, err := r.Register(testPlan("m1", 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Status != model.StatusQueued {
		t.Errorf("initial status = %s, want QUEUED", rec.Status)
	}
	if rec.TotalSteps != 3 {
		t.Errorf("total steps = %d, want 3", rec.TotalSteps)
	}

	got, ok := r.Get("m1")
	if !ok {
		t.Fatal("mission not found after Register")
	}
	if got.MissionID != "m1" {
		t.Errorf("got mission %q", got.MissionID)
	}

	if _, ok := r.Get("unknown"); ok {
		t.Error("Get returned a record for an unknown mission")
	}
}

func TestDuplicateGuard(t *testing.T) {
	now := time.Now()
	clock := &now
	r := New(time.Minute, WithClock(func() time.Time { return *clock }))

	if _, err := r.Register(testPlan("m1", 1)); err != nil {
		t.Fatal(err)
	}

	// Duplicate while QUEUED.
	var dup *core.DuplicateMissionError
	if _, err := r.Register(testPlan("m1", 1)); !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateMissionError, got %v", err)
	}

	// Duplicate while IN_PROGRESS.
	if err := r.Transition("m1", model.StatusInProgress, "executing"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register(testPlan("m1", 1)); !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateMissionError, got %v", err)
	}

	// Duplicate while terminal but inside retention.
	if err := r.Transition("m1", model.StatusCompleted, "done"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register(testPlan("m1", 1)); !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateMissionError inside retention, got %v", err)
	}

	// Past retention the id is reusable as a fresh mission.
	later := now.Add(2 * time.Minute)
	clock = &later
	rec, err := r.Register(testPlan("m1", 1))
	if err != nil {
		t.Fatalf("re-registration past retention failed: %v", err)
	}
	if rec.Status != model.StatusQueued {
		t.Errorf("fresh mission status = %s, want QUEUED", rec.Status)
	}
}

func TestTransitionsAreMonotonic(t *testing.T) {
	r := New(time.Minute)
	if _, err := r.Register(testPlan("m1", 1)); err != nil {
		t.Fatal(err)
	}

	// QUEUED -> COMPLETED skips IN_PROGRESS and must be rejected.
	if err := r.Transition("m1", model.StatusCompleted, "x"); err == nil {
		t.Error("QUEUED -> COMPLETED was allowed")
	}

	if err := r.Transition("m1", model.StatusInProgress, "executing"); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition("m1", model.StatusCompleted, "done"); err != nil {
		t.Fatal(err)
	}

	// No transition leaves a terminal state.
	if err := r.Transition("m1", model.StatusInProgress, "again"); err == nil {
		t.Error("COMPLETED -> IN_PROGRESS was allowed")
	}
	if err := r.Fail("m1", model.ErrorCodeExecution, "late failure"); err == nil {
		t.Error("COMPLETED -> FAILED was allowed")
	}

	rec, _ := r.Get("m1")
	if rec.Status != model.StatusCompleted {
		t.Errorf("terminal status mutated to %s", rec.Status)
	}
}

func TestFailFromQueued(t *testing.T) {
	r := New(time.Minute)
	if _, err := r.Register(testPlan("m1", 1)); err != nil {
		t.Fatal(err)
	}

	if err := r.Fail("m1", model.ErrorCodeCancelled, "cancelled before start"); err != nil {
		t.Fatalf("QUEUED -> FAILED rejected: %v", err)
	}

	rec, _ := r.Get("m1")
	if rec.TerminalError != model.ErrorCodeCancelled {
		t.Errorf("terminal error = %q, want CANCELLED", rec.TerminalError)
	}
	if rec.FinishedAt.IsZero() {
		t.Error("FinishedAt not set on terminal transition")
	}
}

func TestTransitionHookOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []model.Status
	r := New(time.Minute, WithTransitionHook(func(rec *model.MissionRecord) {
		mu.Lock()
		seen = append(seen, rec.Status)
		mu.Unlock()
	}))

	if _, err := r.Register(testPlan("m1", 1)); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition("m1", model.StatusInProgress, "executing"); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition("m1", model.StatusCompleted, "done"); err != nil {
		t.Fatal(err)
	}

	want := []model.Status{model.StatusQueued, model.StatusInProgress, model.StatusCompleted}
	if len(seen) != len(want) {
		t.Fatalf("hook fired %d times, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("hook[%d] = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestAdvanceStep(t *testing.T) {
	r := New(time.Minute)
	if _, err := r.Register(testPlan("m1", 3)); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition("m1", model.StatusInProgress, "executing"); err != nil {
		t.Fatal(err)
	}

	if err := r.AdvanceStep("m1", 2); err != nil {
		t.Fatal(err)
	}
	rec, _ := r.Get("m1")
	if rec.CurrentStep != 2 {
		t.Errorf("current step = %d, want 2", rec.CurrentStep)
	}

	if err := r.AdvanceStep("missing", 0); err == nil {
		t.Error("AdvanceStep on unknown mission did not error")
	}
}

func TestListActiveExcludesTerminal(t *testing.T) {
	r := New(time.Minute)
	for i := 0; i < 4; i++ {
		if _, err := r.Register(testPlan(fmt.Sprintf("m%d", i), 1)); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Transition("m0", model.StatusInProgress, "x"); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition("m0", model.StatusCompleted, "x"); err != nil {
		t.Fatal(err)
	}

	active := r.ListActive()
	if len(active) != 3 {
		t.Fatalf("got %d active missions, want 3", len(active))
	}
	for _, rec := range active {
		if rec.MissionID == "m0" {
			t.Error("terminal mission listed as active")
		}
	}
}

func TestSweep(t *testing.T) {
	now := time.Now()
	r := New(time.Minute, WithClock(func() time.Time { return now }))

	if _, err := r.Register(testPlan("done", 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register(testPlan("running", 1)); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition("done", model.StatusInProgress, "x"); err != nil {
		t.Fatal(err)
	}
	if err := r.Transition("done", model.StatusCompleted, "x"); err != nil {
		t.Fatal(err)
	}

	// Inside retention nothing is swept.
	if n := r.Sweep(now); n != 0 {
		t.Errorf("swept %d records inside retention", n)
	}

	// Past retention only the terminal record goes.
	if n := r.Sweep(now.Add(2 * time.Minute)); n != 1 {
		t.Errorf("swept %d records, want 1", n)
	}
	if _, ok := r.Get("done"); ok {
		t.Error("terminal record still present after sweep")
	}
	if _, ok := r.Get("running"); !ok {
		t.Error("non-terminal record was swept")
	}
}

func TestConcurrentMissionsDisjointProgress(t *testing.T) {
	r := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		id := fmt.Sprintf("m%d", i)
		if _, err := r.Register(testPlan(id, 2)); err != nil {
			t.Fatal(err)
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := r.Transition(id, model.StatusInProgress, "executing"); err != nil {
				t.Errorf("%s: %v", id, err)
				return
			}
			if err := r.AdvanceStep(id, 1); err != nil {
				t.Errorf("%s: %v", id, err)
				return
			}
			if err := r.Transition(id, model.StatusCompleted, "done"); err != nil {
				t.Errorf("%s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	if active := r.ListActive(); len(active) != 0 {
		t.Errorf("%d missions still active", len(active))
	}
}

func TestRemoveOnlyQueuedRecords(t *testing.T) {
	r := New(time.Minute)

	if _, err := r.Register(testPlan("m1", 1)); err != nil {
		t.Fatal(err)
	}
	if !r.Remove("m1") {
		t.Fatal("Remove refused a queued record")
	}
	if _, ok := r.Get("m1"); ok {
		t.Error("record still present after Remove")
	}
	if _, err := r.Register(testPlan("m1", 1)); err != nil {
		t.Errorf("id not reusable after Remove: %v", err)
	}

	if err := r.Transition("m1", model.StatusInProgress, "executing"); err != nil {
		t.Fatal(err)
	}
	if r.Remove("m1") {
		t.Error("Remove deleted a running record")
	}
	if r.Remove("ghost") {
		t.Error("Remove reported success for an unknown id")
	}
}
