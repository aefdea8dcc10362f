package registry

import (
	"fmt"

	"github.com/looplab/fsm"

	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
)

// Lifecycle events. The transition table is the single source of truth for
// which status changes are legal; terminal states have no outgoing events,
// so monotonicity falls out of the machine rather than ad hoc checks.
const (
	eventStart    = "start"
	eventComplete = "complete"
	eventFail     = "fail"
)

func newStatusMachine() *fsm.FSM {
	events := fsm.Events{
		{Name: eventStart, Src: []string{string(model.StatusQueued)}, Dst: string(model.StatusInProgress)},
		{Name: eventComplete, Src: []string{string(model.StatusInProgress)}, Dst: string(model.StatusCompleted)},
		{Name: eventFail, Src: []string{string(model.StatusQueued), string(model.StatusInProgress)}, Dst: string(model.StatusFailed)},
	}

	return fsm.NewFSM(string(model.StatusQueued), events, fsm.Callbacks{})
}

// eventFor maps a desired status to the lifecycle event reaching it.
func eventFor(target model.Status) (string, error) {
	switch target {
	case model.StatusInProgress:
		return eventStart, nil
	case model.StatusCompleted:
		return eventComplete, nil
	case model.StatusFailed:
		return eventFail, nil
	default:
		return "", fmt.Errorf("no event transitions to status %q", target)
	}
}
