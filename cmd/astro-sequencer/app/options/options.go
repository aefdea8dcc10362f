// Package options aggregates every flag group of the astro-sequencer binary.
package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/astrolink-io/astrolink/internal/sequencer"
	"github.com/astrolink-io/astrolink/pkg/app"
	"github.com/astrolink-io/astrolink/pkg/log"
	"github.com/astrolink-io/astrolink/pkg/options"
)

// SequencerCliOptions holds all option groups of the sequencer process.
type SequencerCliOptions struct {
	HttpOptions      *options.HttpOptions      `json:"http" mapstructure:"http"`
	MqttOptions      *options.MqttOptions      `json:"mqtt" mapstructure:"mqtt"`
	SequencerOptions *options.SequencerOptions `json:"sequencer" mapstructure:"sequencer"`
	Log              *log.Options              `json:"log" mapstructure:"log"`
}

var _ app.CliOptions = (*SequencerCliOptions)(nil)

func NewSequencerCliOptions() *SequencerCliOptions {
	return &SequencerCliOptions{
		HttpOptions:      options.NewHttpOptions(),
		MqttOptions:      options.NewMqttOptions(),
		SequencerOptions: options.NewSequencerOptions(),
		Log:              log.NewOptions(),
	}
}

func (o *SequencerCliOptions) AddFlags(fs *pflag.FlagSet) {
	o.HttpOptions.AddFlags(fs)
	o.MqttOptions.AddFlags(fs)
	o.SequencerOptions.AddFlags(fs)
	o.Log.AddFlags(fs)
}

func (o *SequencerCliOptions) Complete() error {
	return nil
}

func (o *SequencerCliOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.SequencerOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

// Config assembles the wiring configuration from the parsed options.
func (o *SequencerCliOptions) Config() (*sequencer.Config, error) {
	return &sequencer.Config{
		HttpOptions:      o.HttpOptions,
		MqttOptions:      o.MqttOptions,
		SequencerOptions: o.SequencerOptions,
	}, nil
}
