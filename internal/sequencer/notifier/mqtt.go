// Package notifier publishes the sequencer's outbound messages to the MQTT
// broker: per-mission command topics for the executor and the shared status
// topic for observers.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
	"github.com/astrolink-io/astrolink/pkg/mqtt"
	"github.com/astrolink-io/astrolink/pkg/mqtt/topic"
)

// Commands are published at QoS 1 so the executor sees each one at least
// once; the sequence number makes redelivery safe. Status messages are
// fire-and-forget observability, QoS 0.
const (
	commandQoS = 1
	statusQoS  = 0
)

// MQTTNotifier implements core.CommandNotifier and core.StatusNotifier over
// a shared broker client.
type MQTTNotifier struct {
	client mqtt.Client
	topics *topic.Builder
}

func NewMQTTNotifier(client mqtt.Client, topics *topic.Builder) *MQTTNotifier {
	return &MQTTNotifier{client: client, topics: topics}
}

// NotifyCommand publishes one command on the mission's command topic.
func (n *MQTTNotifier) NotifyCommand(ctx context.Context, msg model.OutboundCommandMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal command message: %w", err)
	}
	return n.client.Publish(ctx, n.topics.Command(msg.MissionID), commandQoS, false, payload)
}

// NotifyStatus publishes one lifecycle transition on the status topic.
func (n *MQTTNotifier) NotifyStatus(ctx context.Context, msg model.StatusMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal status message: %w", err)
	}
	return n.client.Publish(ctx, n.topics.MissionStatus(), statusQoS, false, payload)
}
