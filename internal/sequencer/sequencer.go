package sequencer

import (
	"context"
	"errors"

	"github.com/astrolink-io/astrolink/internal/sequencer/server"
	"github.com/astrolink-io/astrolink/pkg/log"
)

// SequencerServer is the assembled mission sequencer process.
type SequencerServer struct {
	serverManager *server.Manager
}

// Run starts every server and worker and blocks until ctx is cancelled or
// one of them fails. Cancellation is a clean shutdown, not an error.
func (s *SequencerServer) Run(ctx context.Context) error {
	log.Info("Starting mission sequencer")

	err := s.serverManager.Start(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Mission sequencer stopped")
	return nil
}
