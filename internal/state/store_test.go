/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Seednode/matchfabric/internal/state/statetest"
)

func TestStoreInsertGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	searchers := NewSearcherStore(backend)

	id, err := searchers.Insert(ctx, Searcher{
		PlayerID: "A", Elo: 1250, Game: "schnapsen", Mode: "duo", Region: "eu",
		MinPlayers: 2, MaxPlayers: 2,
	})
	require.NoError(t, err)

	got, found, err := searchers.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "A", got.PlayerID)
	require.Equal(t, 1250, got.Elo)
	require.Equal(t, 2, got.MinPlayers)
}

func TestStoreUpdateOverwritesFields(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	hosts := NewHostRequestStore(backend)

	id, err := hosts.Insert(ctx, HostRequest{PlayerID: "A", JoinedPlayers: []string{"A"}, MinPlayers: 2, MaxPlayers: 2})
	require.NoError(t, err)

	row, found, err := hosts.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)

	row.JoinedPlayers = append(row.JoinedPlayers, "B")
	row.StartRequested = true
	require.NoError(t, hosts.Update(ctx, id, row))

	updated, found, err := hosts.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"A", "B"}, updated.JoinedPlayers)
	require.True(t, updated.StartRequested)
}

func TestStoreUpdateReconcilesShrunkVector(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	hosts := NewHostRequestStore(backend)

	id, err := hosts.Insert(ctx, HostRequest{PlayerID: "A", JoinedPlayers: []string{"A", "B"}, MinPlayers: 1, MaxPlayers: 2})
	require.NoError(t, err)

	row, found, err := hosts.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"A", "B"}, row.JoinedPlayers)

	row.JoinedPlayers = []string{"A"}
	require.NoError(t, hosts.Update(ctx, id, row))

	updated, found, err := hosts.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"A"}, updated.JoinedPlayers, "stale trailing vector key must not resurrect the removed player")
}

func TestStoreUpdateReconcilesShrunkHash(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	matches := NewActiveMatchStore(backend)

	id, err := matches.Insert(ctx, ActiveMatch{
		Game:        "schnapsen",
		Read:        "r",
		PlayerWrite: map[string]string{"A": "write-A", "B": "write-B"},
	})
	require.NoError(t, err)

	row, found, err := matches.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, row.PlayerWrite, 2)

	delete(row.PlayerWrite, "B")
	require.NoError(t, matches.Update(ctx, id, row))

	updated, found, err := matches.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, map[string]string{"A": "write-A"}, updated.PlayerWrite, "removed hash field must not survive the update")
}

func TestStoreRemoveDeletesEveryField(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	matches := NewActiveMatchStore(backend)

	id, err := matches.Insert(ctx, ActiveMatch{Game: "schnapsen", PlayerWrite: map[string]string{"A": "write-A"}})
	require.NoError(t, err)

	require.NoError(t, matches.Remove(ctx, id))

	_, found, err := matches.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreInsertTTLExpiresAllFields(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()

	clock := time.Now()
	backend.SetClock(func() time.Time { return clock })

	searchers := NewSearcherStore(backend)

	id, err := searchers.InsertTTL(ctx, Searcher{PlayerID: "A", Game: "schnapsen", Mode: "duo"}, DefaultSearcherTTL)
	require.NoError(t, err)

	_, found, err := searchers.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found, "row must still be readable before its TTL elapses")

	clock = clock.Add(DefaultSearcherTTL + time.Second)

	_, found, err = searchers.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, found, "row must be gone once its TTL has elapsed")
}

func TestStoreFilterMatchesPredicate(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	servers := NewGameServerStore(backend)

	_, err := servers.Insert(ctx, GameServer{Game: "schnapsen", Mode: "duo", Region: "eu", Healthy: true})
	require.NoError(t, err)
	_, err = servers.Insert(ctx, GameServer{Game: "schnapsen", Mode: "duo", Region: "eu", Healthy: false})
	require.NoError(t, err)

	healthy, err := servers.Filter(ctx, func(gs GameServer) bool { return gs.Healthy })
	require.NoError(t, err)
	require.Len(t, healthy, 1)
}
