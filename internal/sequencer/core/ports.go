package core

import (
	"context"

	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
)

// CommandNotifier sends outbound command messages to the flight-control
// executor. Implemented by the MQTT outbound adapter.
type CommandNotifier interface {
	// NotifyCommand publishes one command message on the mission's command
	// channel. A returned error means this single attempt failed; retrying
	// is the caller's policy.
	NotifyCommand(ctx context.Context, msg model.OutboundCommandMessage) error
}

// StatusNotifier publishes mission lifecycle transitions to observers.
type StatusNotifier interface {
	NotifyStatus(ctx context.Context, msg model.StatusMessage) error
}
