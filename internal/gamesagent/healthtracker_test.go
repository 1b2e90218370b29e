/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gamesagent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/state"
	"github.com/Seednode/matchfabric/internal/state/statetest"
)

func TestHealthTrackerRefreshFlipsUnhealthyToHealthy(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	servers := state.NewGameServerStore(backend)

	id, err := servers.Insert(ctx, state.GameServer{
		Game: "schnapsen", Mode: "duo", ServerPriv: "priv-1", Healthy: false,
	})
	require.NoError(t, err)

	tracker := NewHealthTracker(servers, logging.New("TEST", false))

	require.NoError(t, tracker.Refresh(ctx, "priv-1"))

	server, found, err := servers.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, server.Healthy)
}

func TestHealthTrackerSweepMarksStaleServersUnhealthy(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	servers := state.NewGameServerStore(backend)

	id, err := servers.Insert(ctx, state.GameServer{
		Game: "schnapsen", Mode: "duo", ServerPriv: "priv-1", Healthy: true,
	})
	require.NoError(t, err)

	tracker := NewHealthTracker(servers, logging.New("TEST", false))

	clock := time.Now()
	tracker.now = func() time.Time { return clock }

	require.NoError(t, tracker.Refresh(ctx, "priv-1"))

	// Advance the clock past state.ClientTimeout and sweep.
	clock = clock.Add(state.ClientTimeout + time.Second)
	tracker.sweep(ctx)

	server, found, err := servers.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, server.Healthy)
}

func TestHealthTrackerSweepLeavesFreshServersHealthy(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	servers := state.NewGameServerStore(backend)

	id, err := servers.Insert(ctx, state.GameServer{
		Game: "schnapsen", Mode: "duo", ServerPriv: "priv-1", Healthy: true,
	})
	require.NoError(t, err)

	tracker := NewHealthTracker(servers, logging.New("TEST", false))

	clock := time.Now()
	tracker.now = func() time.Time { return clock }

	require.NoError(t, tracker.Refresh(ctx, "priv-1"))

	clock = clock.Add(time.Second)
	tracker.sweep(ctx)

	server, found, err := servers.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, server.Healthy)
}
