// Package app builds the astro-sequencer command.
package app

import (
	"context"
	"fmt"

	"github.com/astrolink-io/astrolink/cmd/astro-sequencer/app/options"
	"github.com/astrolink-io/astrolink/pkg/app"
)

const (
	commandName = "astro-sequencer"
	commandDesc = `The Astrolink mission sequencer validates declarative mission plans,
executes up to a configured number of missions concurrently, and paces each
mission's commands to the flight-control executor over the broker, waiting
for an acknowledgement before issuing the next command. Mission lifecycle
transitions are broadcast on the shared status channel and queryable over
the HTTP API.`
)

func NewApp() *app.App {
	opts := options.NewSequencerCliOptions()
	return app.NewApp(
		commandName,
		"Launch the Astrolink mission sequencer",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithLogOptions(opts.Log),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.SequencerCliOptions) app.RunFunc {
	return func(ctx context.Context) error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewSequencerServer()
		if err != nil {
			return fmt.Errorf("failed to create sequencer server: %w", err)
		}

		return server.Run(ctx)
	}
}
