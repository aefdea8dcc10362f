package topic

import "fmt"

// Segments defining the standard topic layout. These act as the protocol
// contract between the sequencer, the flight-control executor, and any
// status observers. Changing them breaks deployed executors.
const (
	// SegmentCommand carries outbound command messages (Sequencer -> Executor).
	// Pattern: {root}/command/{missionID}
	SegmentCommand = "command"

	// SegmentCommandAck carries executor acknowledgements (Executor -> Sequencer).
	// Pattern: {root}/command/ack/{missionID}
	SegmentCommandAck = "command/ack"

	// SegmentMissionSubmit carries inbound mission plan documents.
	// Pattern: {root}/mission/submit
	SegmentMissionSubmit = "mission/submit"

	// SegmentMissionAbort carries cancel requests; the payload is the mission id.
	// Pattern: {root}/mission/abort
	SegmentMissionAbort = "mission/abort"

	// SegmentMissionStatus carries mission lifecycle transitions.
	// Pattern: {root}/mission/status
	SegmentMissionStatus = "mission/status"
)

// Builder constructs topic strings under a configurable root namespace
// (e.g. "gnc/v1"), keeping topic assembly in one place.
type Builder struct {
	root string
}

// NewBuilder creates a Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Command returns the topic for sending commands for a specific mission.
// Direction: Sequencer -> Executor
func (b *Builder) Command(missionID string) string {
	return b.build(SegmentCommand, missionID)
}

// CommandAck returns the topic an executor uses to acknowledge a mission's commands.
// Direction: Executor -> Sequencer
func (b *Builder) CommandAck(missionID string) string {
	return b.build(SegmentCommandAck, missionID)
}

// CommandAckWildcard returns the wildcard filter the sequencer subscribes to
// for ALL acknowledgements. Result: {root}/command/ack/+
func (b *Builder) CommandAckWildcard() string {
	return b.build(SegmentCommandAck, Wildcard)
}

// MissionSubmit returns the inbound submission topic.
func (b *Builder) MissionSubmit() string {
	return fmt.Sprintf("%s/%s", b.root, SegmentMissionSubmit)
}

// MissionAbort returns the inbound cancel-request topic.
func (b *Builder) MissionAbort() string {
	return fmt.Sprintf("%s/%s", b.root, SegmentMissionAbort)
}

// MissionStatus returns the status broadcast topic.
func (b *Builder) MissionStatus() string {
	return fmt.Sprintf("%s/%s", b.root, SegmentMissionStatus)
}

// build is a private helper to construct the final topic string.
// Pattern: {root}/{segment}/{identifier}
func (b *Builder) build(segment, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, segment, id)
}
