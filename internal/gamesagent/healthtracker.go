/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gamesagent

import (
	"context"
	"sync"
	"time"

	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/state"
)

// HealthTracker owns the active_clients map named in §4.5: per-server
// last-heartbeat timestamps, guarded by a mutex per §5's "C5's health map
// holds a mutex". A cooperative 1Hz sweeper evicts any entry older than
// state.ClientTimeout and flips the corresponding GameServer.Healthy to
// false, grounded in the teacher's reaperLoop ticker idiom.
type HealthTracker struct {
	gameServers *state.Store[state.GameServer]
	logger      *logging.Logger

	mu       sync.Mutex
	lastSeen map[string]time.Time

	// now is overridable in tests to exercise the 30s timeout boundary
	// deterministically.
	now func() time.Time
}

func NewHealthTracker(gameServers *state.Store[state.GameServer], logger *logging.Logger) *HealthTracker {
	return &HealthTracker{
		gameServers: gameServers,
		logger:      logger,
		lastSeen:    make(map[string]time.Time),
		now:         time.Now,
	}
}

// Refresh records a heartbeat for clientID (a GameServer's ServerPriv) and,
// on the transition from absent/unhealthy to healthy, flips
// GameServer.Healthy to true exactly once (§8's idempotence property).
func (t *HealthTracker) Refresh(ctx context.Context, clientID string) error {
	t.mu.Lock()
	_, wasTracked := t.lastSeen[clientID]
	t.lastSeen[clientID] = t.now()
	t.mu.Unlock()

	if wasTracked {
		return nil
	}

	id, server, found, err := state.FindByServerPriv(ctx, t.gameServers, clientID)
	if err != nil {
		return err
	}
	if !found || server.Healthy {
		return nil
	}

	server.Healthy = true

	return t.gameServers.Update(ctx, id, server)
}

// Run sweeps once a second until ctx is cancelled.
func (t *HealthTracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

func (t *HealthTracker) sweep(ctx context.Context) {
	now := t.now()

	t.mu.Lock()
	stale := make([]string, 0)
	for clientID, seen := range t.lastSeen {
		if now.Sub(seen) >= state.ClientTimeout {
			stale = append(stale, clientID)
			delete(t.lastSeen, clientID)
		}
	}
	t.mu.Unlock()

	for _, clientID := range stale {
		id, server, found, err := state.FindByServerPriv(ctx, t.gameServers, clientID)
		if err != nil {
			t.logger.Errorf("lookup stale server %s: %v", clientID, err)

			continue
		}
		if !found || !server.Healthy {
			continue
		}

		server.Healthy = false
		if err := t.gameServers.Update(ctx, id, server); err != nil {
			t.logger.Errorf("mark server %s unhealthy: %v", clientID, err)
		}
	}
}
