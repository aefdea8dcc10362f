package sequencer

import (
	"fmt"
	"os"

	"github.com/astrolink-io/astrolink/pkg/log"
	"github.com/astrolink-io/astrolink/pkg/mqtt"
	"github.com/astrolink-io/astrolink/pkg/options"
)

// InitializeMQTTClient builds the shared broker client from the options,
// generating a host-scoped client id when none is configured.
func InitializeMQTTClient(opts *options.MqttOptions) (mqtt.Client, error) {
	cfg := opts.ToClientConfig()

	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("astro-sequencer-%s", hostname)
	}

	mqttclient, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}

	return mqttclient, nil
}
