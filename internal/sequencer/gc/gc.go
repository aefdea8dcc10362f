// Package gc periodically removes expired terminal mission records from the
// registry, making their ids reusable.
package gc

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/astrolink-io/astrolink/internal/sequencer/registry"
)

// GarbageCollector sweeps the registry on a fixed interval. It implements
// the server.Server interface to run alongside the protocol servers.
type GarbageCollector struct {
	Registry        *registry.Registry
	Log             logr.Logger
	CleanupInterval time.Duration
}

// Start begins the sweep loop. It blocks until ctx is cancelled.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	gc.Log.Info("Starting mission record garbage collector", "interval", gc.CleanupInterval)

	ticker := time.NewTicker(gc.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := gc.Registry.Sweep(time.Now()); removed > 0 {
				gc.Log.Info("Completed GC cycle", "removed_count", removed)
			}
		case <-ctx.Done():
			gc.Log.Info("Stopping mission record garbage collector")
			return nil
		}
	}
}
