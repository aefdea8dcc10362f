// Package sequencer assembles the mission sequencer from its parts: the
// registry, the dispatcher, the pacer, the broadcaster, and the protocol
// servers.
package sequencer

import (
	"fmt"

	"github.com/astrolink-io/astrolink/internal/pkg/retry"
	"github.com/astrolink-io/astrolink/internal/sequencer/broadcaster"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/service"
	"github.com/astrolink-io/astrolink/internal/sequencer/dispatcher"
	"github.com/astrolink-io/astrolink/internal/sequencer/gc"
	"github.com/astrolink-io/astrolink/internal/sequencer/notifier"
	"github.com/astrolink-io/astrolink/internal/sequencer/pacer"
	"github.com/astrolink-io/astrolink/internal/sequencer/registry"
	"github.com/astrolink-io/astrolink/internal/sequencer/server"
	httpserver "github.com/astrolink-io/astrolink/internal/sequencer/server/http"
	mqttserver "github.com/astrolink-io/astrolink/internal/sequencer/server/mqtt"
	"github.com/astrolink-io/astrolink/pkg/log"
	"github.com/astrolink-io/astrolink/pkg/mqtt/topic"
	"github.com/astrolink-io/astrolink/pkg/options"
)

type Config struct {
	HttpOptions      *options.HttpOptions
	MqttOptions      *options.MqttOptions
	SequencerOptions *options.SequencerOptions
}

// NewSequencerServer wires the full component graph. The one MQTT client is
// shared: the ingress server subscribes on it, both notifiers publish on it.
func (cfg *Config) NewSequencerServer() (*SequencerServer, error) {
	mqttClient, err := InitializeMQTTClient(cfg.MqttOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}

	topics := topic.NewBuilder(cfg.MqttOptions.TopicRoot)
	notifierAdapter := notifier.NewMQTTNotifier(mqttClient, topics)

	policy := retry.Policy{
		MaxAttempts:    cfg.SequencerOptions.PublishMaxAttempts,
		InitialBackoff: cfg.SequencerOptions.PublishInitialBackoff,
		MaxBackoff:     cfg.SequencerOptions.PublishMaxBackoff,
		Multiplier:     2,
	}

	bcast := broadcaster.New(notifierAdapter, policy)
	reg := registry.New(cfg.SequencerOptions.Retention,
		registry.WithTransitionHook(func(rec *model.MissionRecord) { bcast.Enqueue(rec) }))

	acks := pacer.NewAckRouter()
	pc := pacer.New(notifierAdapter, reg, acks, cfg.SequencerOptions.AckTimeout, policy)
	disp := dispatcher.New(pc, reg, int64(cfg.SequencerOptions.MaxConcurrentMissions), cfg.SequencerOptions.QueueCapacity)
	svc := service.New(reg, disp)

	collector := &gc.GarbageCollector{
		Registry:        reg,
		Log:             log.Logr().WithName("gc"),
		CleanupInterval: cfg.SequencerOptions.GCInterval,
	}

	manager := server.NewManager(
		mqttserver.NewServer(mqttClient, topics, svc, acks),
		httpserver.NewServer(cfg.HttpOptions, svc, mqttClient),
		server.Func(disp.Run),
		server.Func(bcast.Start),
		collector,
	)

	return &SequencerServer{serverManager: manager}, nil
}
