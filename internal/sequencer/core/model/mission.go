package model

import "time"

// Status is the lifecycle state of a mission.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ErrorCode classifies why a mission reached FAILED.
type ErrorCode string

const (
	ErrorCodeAckTimeout ErrorCode = "ACK_TIMEOUT"
	ErrorCodeExecution  ErrorCode = "EXECUTION_ERROR"
	ErrorCodePublish    ErrorCode = "PUBLISH_ERROR"
	ErrorCodeCancelled  ErrorCode = "CANCELLED"
)

// CommandSpec is one step of a mission plan.
type CommandSpec struct {
	// Command is the instruction identifier, e.g. SET_THROTTLE, STAGE, WAIT.
	Command string `json:"command"`

	// Parameters are command-specific scalar arguments. Never nil after
	// validation; an empty mapping is forwarded as {}.
	Parameters map[string]ParamValue `json:"parameters"`

	// DelayMS is the time to wait after this command's acknowledgement
	// before issuing the next command. Defaults to 0.
	DelayMS int64 `json:"delay_ms,omitempty"`
}

// Delay returns the post-acknowledgement delay as a duration.
func (c CommandSpec) Delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// MissionPlan is a validated, immutable mission document.
type MissionPlan struct {
	// MissionID is unique among missions not yet swept from the registry
	// and doubles as the idempotency key for submissions.
	MissionID string `json:"mission_id"`

	// FlightPlan is the ordered command sequence; order is execution order.
	FlightPlan []CommandSpec `json:"flight_plan"`
}

// MissionRecord is the registry's mutable per-mission state. It is mutated
// only by the single execution task that owns the mission.
type MissionRecord struct {
	MissionID     string    `json:"mission_id"`
	Status        Status    `json:"status"`
	CurrentStep   int       `json:"current_step"`
	TotalSteps    int       `json:"total_steps"`
	Detail        string    `json:"detail"`
	TerminalError ErrorCode `json:"terminal_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`

	// FinishedAt is set on entering a terminal state and drives retention.
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Clone returns a snapshot safe to hand outside the registry's lock.
func (r *MissionRecord) Clone() *MissionRecord {
	cp := *r
	return &cp
}
