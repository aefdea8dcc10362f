package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry is the sequencer's metrics registry, served at /metrics.
var Registry = prometheus.NewRegistry()

var (
	// MissionsSubmittedTotal counts submission outcomes.
	// result: accepted / malformed / invalid / duplicate / queue_full
	MissionsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrolink_missions_submitted_total",
			Help: "Total number of mission submissions by outcome.",
		},
		[]string{"result"},
	)

	// MissionsActive tracks missions currently QUEUED or IN_PROGRESS.
	MissionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "astrolink_missions_active",
			Help: "Number of missions currently queued or executing.",
		},
	)

	// CommandsPublishedTotal counts outbound command messages.
	CommandsPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "astrolink_commands_published_total",
			Help: "Total number of command messages published to the executor channel.",
		},
	)

	// AcksReceivedTotal counts executor acknowledgements.
	// result: ok / failed / stale
	AcksReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrolink_acks_received_total",
			Help: "Total number of executor acknowledgements by result.",
		},
		[]string{"result"},
	)

	// MissionDurationSeconds observes mission wall time from start to terminal state.
	MissionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "astrolink_mission_duration_seconds",
			Help:    "Wall-clock duration of missions from first command to terminal state.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"status"},
	)

	// BrokerPublishRetriesTotal counts retried broker publishes.
	// channel: command / status
	BrokerPublishRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "astrolink_broker_publish_retries_total",
			Help: "Total number of broker publish retries by channel.",
		},
		[]string{"channel"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		MissionsSubmittedTotal,
		MissionsActive,
		CommandsPublishedTotal,
		AcksReceivedTotal,
		MissionDurationSeconds,
		BrokerPublishRetriesTotal,
	)
}
