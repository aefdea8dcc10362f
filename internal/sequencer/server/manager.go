// Package server manages the lifecycle of the sequencer's protocol servers
// and background workers.
package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/astrolink-io/astrolink/pkg/log"
)

// Server is the common interface for all sub-servers and workers. Start
// blocks until ctx is cancelled or the server fails.
type Server interface {
	Start(ctx context.Context) error
}

// Func adapts a plain run function to the Server interface.
type Func func(ctx context.Context) error

func (f Func) Start(ctx context.Context) error { return f(ctx) }

// Manager runs a set of servers in parallel. The first failure cancels the
// rest.
type Manager struct {
	servers []Server
}

func NewManager(servers ...Server) *Manager {
	return &Manager{servers: servers}
}

// Start launches all servers and waits for termination.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, s := range m.servers {
		srv := s
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...")
	return g.Wait()
}
