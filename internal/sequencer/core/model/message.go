package model

import "time"

// OutboundCommandMessage is the wire representation of one issued command.
// MissionID and Seq form the ack correlation key echoed back by the executor.
type OutboundCommandMessage struct {
	MissionID  string                `json:"mission_id"`
	Seq        int                   `json:"seq"`
	Command    string                `json:"command"`
	Parameters map[string]ParamValue `json:"parameters"`
	Timestamp  string                `json:"timestamp"`
}

// NewOutboundCommandMessage builds the wire message for step seq of a plan.
func NewOutboundCommandMessage(missionID string, seq int, spec CommandSpec, now time.Time) OutboundCommandMessage {
	params := spec.Parameters
	if params == nil {
		params = map[string]ParamValue{}
	}
	return OutboundCommandMessage{
		MissionID:  missionID,
		Seq:        seq,
		Command:    spec.Command,
		Parameters: params,
		Timestamp:  now.UTC().Format(time.RFC3339Nano),
	}
}

// StatusMessage is the wire representation of one lifecycle transition.
type StatusMessage struct {
	MissionID string `json:"mission_id"`
	Status    Status `json:"status"`
	Timestamp string `json:"timestamp"`
	Details   string `json:"details"`
}

// NewStatusMessage serializes a record snapshot into its wire form.
func NewStatusMessage(rec *MissionRecord) StatusMessage {
	return StatusMessage{
		MissionID: rec.MissionID,
		Status:    rec.Status,
		Timestamp: rec.LastUpdatedAt.UTC().Format(time.RFC3339Nano),
		Details:   rec.Detail,
	}
}

// AckMessage is the executor's acknowledgement for one issued command.
// Seq below the step in flight is a duplicate and ignored.
type AckMessage struct {
	MissionID string `json:"mission_id"`
	Seq       int    `json:"seq"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}
