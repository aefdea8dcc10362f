package pacer

import (
	"sync"

	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
	"github.com/astrolink-io/astrolink/pkg/log"
)

const ackChannelDepth = 16

// AckRouter fans executor acknowledgements out to the mission task waiting
// for them. The MQTT ingress calls Route; each executing mission registers
// its own channel for the duration of its run.
type AckRouter struct {
	mu       sync.Mutex
	channels map[string]chan model.AckMessage
}

// NewAckRouter creates an empty router.
func NewAckRouter() *AckRouter {
	return &AckRouter{channels: make(map[string]chan model.AckMessage)}
}

// Register creates the ack channel for a mission. It must be paired with
// Unregister when the mission's execution task ends.
func (r *AckRouter) Register(missionID string) <-chan model.AckMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan model.AckMessage, ackChannelDepth)
	r.channels[missionID] = ch
	return ch
}

// Unregister removes the mission's ack channel. Acks arriving afterwards
// are dropped, which is the correct treatment of late duplicates.
func (r *AckRouter) Unregister(missionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, missionID)
}

// Route delivers an ack to the mission waiting on it, without blocking.
// It reports false when no task is registered for the mission or its buffer
// is full.
func (r *AckRouter) Route(msg model.AckMessage) bool {
	r.mu.Lock()
	ch, ok := r.channels[msg.MissionID]
	r.mu.Unlock()
	if !ok {
		log.Debug("Ack for unknown or finished mission dropped", "missionID", msg.MissionID, "seq", msg.Seq)
		return false
	}

	select {
	case ch <- msg:
		return true
	default:
		log.Warn("Ack channel full, dropping acknowledgement", "missionID", msg.MissionID, "seq", msg.Seq)
		return false
	}
}
