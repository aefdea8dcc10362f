package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*SequencerOptions)(nil)

// SequencerOptions contains the orchestration knobs of the mission sequencer:
// concurrency bounds, ack timeout, publish retry schedule and record retention.
type SequencerOptions struct {
	// MaxConcurrentMissions bounds the number of missions executing at once.
	// Missions beyond the bound stay QUEUED in FIFO order.
	MaxConcurrentMissions int `json:"max-concurrent-missions" mapstructure:"max-concurrent-missions"`

	// QueueCapacity bounds the admission queue of accepted-but-not-started
	// missions. A full queue rejects submissions instead of blocking ingress.
	QueueCapacity int `json:"queue-capacity" mapstructure:"queue-capacity"`

	// AckTimeout is how long the pacer waits for an executor acknowledgement
	// before failing the mission at the current step.
	AckTimeout time.Duration `json:"ack-timeout" mapstructure:"ack-timeout"`

	// PublishMaxAttempts, PublishInitialBackoff and PublishMaxBackoff define
	// the bounded exponential retry schedule for broker publishes.
	PublishMaxAttempts    int           `json:"publish-max-attempts" mapstructure:"publish-max-attempts"`
	PublishInitialBackoff time.Duration `json:"publish-initial-backoff" mapstructure:"publish-initial-backoff"`
	PublishMaxBackoff     time.Duration `json:"publish-max-backoff" mapstructure:"publish-max-backoff"`

	// Retention is how long terminal mission records stay queryable before
	// the sweeper removes them and their ids become reusable.
	Retention time.Duration `json:"retention" mapstructure:"retention"`

	// GCInterval is how often the retention sweeper runs.
	GCInterval time.Duration `json:"gc-interval" mapstructure:"gc-interval"`
}

// NewSequencerOptions creates a SequencerOptions object with default parameters.
func NewSequencerOptions() *SequencerOptions {
	return &SequencerOptions{
		MaxConcurrentMissions: 8,
		QueueCapacity:         64,
		AckTimeout:            10 * time.Second,
		PublishMaxAttempts:    4,
		PublishInitialBackoff: 200 * time.Millisecond,
		PublishMaxBackoff:     5 * time.Second,
		Retention:             30 * time.Minute,
		GCInterval:            time.Minute,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *SequencerOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if o.MaxConcurrentMissions < 1 {
		errs = append(errs, fmt.Errorf("max-concurrent-missions must be >= 1, got %d", o.MaxConcurrentMissions))
	}
	if o.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("queue-capacity must be >= 1, got %d", o.QueueCapacity))
	}
	if o.AckTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ack-timeout must be positive, got %s", o.AckTimeout))
	}
	if o.PublishMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("publish-max-attempts must be >= 1, got %d", o.PublishMaxAttempts))
	}
	if o.Retention <= 0 {
		errs = append(errs, fmt.Errorf("retention must be positive, got %s", o.Retention))
	}
	if o.GCInterval <= 0 {
		errs = append(errs, fmt.Errorf("gc-interval must be positive, got %s", o.GCInterval))
	}

	return errs
}

// AddFlags adds flags for SequencerOptions to the specified FlagSet.
func (o *SequencerOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.IntVar(&o.MaxConcurrentMissions, "sequencer.max-concurrent-missions", o.MaxConcurrentMissions, "Maximum number of missions executing concurrently.")
	fs.IntVar(&o.QueueCapacity, "sequencer.queue-capacity", o.QueueCapacity, "Capacity of the FIFO admission queue for accepted missions.")
	fs.DurationVar(&o.AckTimeout, "sequencer.ack-timeout", o.AckTimeout, "How long to wait for an executor acknowledgement per command.")
	fs.IntVar(&o.PublishMaxAttempts, "sequencer.publish-max-attempts", o.PublishMaxAttempts, "Maximum broker publish attempts before giving up.")
	fs.DurationVar(&o.PublishInitialBackoff, "sequencer.publish-initial-backoff", o.PublishInitialBackoff, "Initial backoff between publish retries.")
	fs.DurationVar(&o.PublishMaxBackoff, "sequencer.publish-max-backoff", o.PublishMaxBackoff, "Upper bound on the publish retry backoff.")
	fs.DurationVar(&o.Retention, "sequencer.retention", o.Retention, "How long terminal mission records are retained.")
	fs.DurationVar(&o.GCInterval, "sequencer.gc-interval", o.GCInterval, "How often the retention sweeper runs.")
}
