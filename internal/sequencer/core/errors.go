// Package core holds the sequencer's domain error taxonomy and the outbound
// ports its components depend on. Implementations live in sibling packages.
package core

import (
	"fmt"
	"strings"
	"time"
)

// FieldViolation is one field-level schema failure.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every field-level failure of a mission document,
// not just the first, so submitters can fix all problems at once.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "mission document is invalid"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Reason))
	}
	return "mission document is invalid: " + strings.Join(parts, "; ")
}

// DuplicateMissionError rejects a submission whose mission id collides with
// an active or recently terminal mission.
type DuplicateMissionError struct {
	MissionID string
}

func (e *DuplicateMissionError) Error() string {
	return fmt.Sprintf("mission %q already exists", e.MissionID)
}

// MissionNotFoundError reports a lookup for an id the registry does not
// hold, either never submitted or already swept.
type MissionNotFoundError struct {
	MissionID string
}

func (e *MissionNotFoundError) Error() string {
	return fmt.Sprintf("mission %q not found", e.MissionID)
}

// MissionFinishedError rejects an abort of a mission that already reached a
// terminal state.
type MissionFinishedError struct {
	MissionID string
	Status    string
}

func (e *MissionFinishedError) Error() string {
	return fmt.Sprintf("mission %q already finished with status %s", e.MissionID, e.Status)
}

// QueueFullError rejects a submission when the admission queue is saturated.
type QueueFullError struct {
	Capacity int
}

func (e *QueueFullError) Error() string {
	return fmt.Sprintf("admission queue is full (capacity %d)", e.Capacity)
}

// AckTimeoutError reports that the executor did not acknowledge a command
// within the configured window.
type AckTimeoutError struct {
	MissionID string
	Step      int
	Timeout   time.Duration
}

func (e *AckTimeoutError) Error() string {
	return fmt.Sprintf("mission %s: no acknowledgement for step %d within %s", e.MissionID, e.Step, e.Timeout)
}

// ExecutionError reports that the executor explicitly failed a command.
type ExecutionError struct {
	MissionID string
	Step      int
	Reason    string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("mission %s: executor failed step %d: %s", e.MissionID, e.Step, e.Reason)
}

// BrokerPublishError reports a publish that kept failing after the retry
// schedule was exhausted.
type BrokerPublishError struct {
	Topic    string
	Attempts int
	Err      error
}

func (e *BrokerPublishError) Error() string {
	return fmt.Sprintf("publish to %s failed after %d attempts: %v", e.Topic, e.Attempts, e.Err)
}

func (e *BrokerPublishError) Unwrap() error { return e.Err }
