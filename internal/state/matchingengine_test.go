/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/state/statetest"
)

func subscribeShards(t *testing.T, backend Backend, ctx context.Context) Subscription {
	t.Helper()

	sub := SubscribeMatchShards(ctx, backend)
	t.Cleanup(func() { _ = sub.Close() })

	return sub
}

// collectShard reads messages off sub until a "done" field arrives,
// returning the player count it carried.
func collectShard(t *testing.T, sub Subscription) int {
	t.Helper()

	for i := 0; i < 64; i++ {
		select {
		case msg := <-sub.Channel():
			if len(msg.Channel) >= 5 && msg.Channel[len(msg.Channel)-5:] == ":done" {
				var n int
				_, err := fmt.Sscan(msg.Payload, &n)
				require.NoError(t, err)

				return n
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for match shard")
		}
	}

	t.Fatal("never saw a done message")

	return 0
}

func TestMatchingEngineSweepPublishesOnceMinPlayersReached(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	searchers := NewSearcherStore(backend)
	aiPlayers := NewAIPlayerStore(backend)

	_, err := searchers.Insert(ctx, Searcher{PlayerID: "A", Elo: 1200, Game: "schnapsen", Mode: "duo", Region: "eu", MinPlayers: 2, MaxPlayers: 2, WaitStart: time.Now()})
	require.NoError(t, err)
	_, err = searchers.Insert(ctx, Searcher{PlayerID: "B", Elo: 1210, Game: "schnapsen", Mode: "duo", Region: "eu", MinPlayers: 2, MaxPlayers: 2, WaitStart: time.Now()})
	require.NoError(t, err)

	sub := subscribeShards(t, backend, ctx)
	time.Sleep(10 * time.Millisecond)

	engine := NewMatchingEngine(backend, searchers, aiPlayers, DefaultMatchingConfig, logging.New("TEST", false))
	engine.sweep(ctx)

	require.Equal(t, 2, collectShard(t, sub))
}

func TestMatchingEngineSweepWithholdsBelowMinPlayersAndBackfillThreshold(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	searchers := NewSearcherStore(backend)
	aiPlayers := NewAIPlayerStore(backend)

	_, err := searchers.Insert(ctx, Searcher{PlayerID: "A", Elo: 1200, Game: "schnapsen", Mode: "duo", Region: "eu", MinPlayers: 2, MaxPlayers: 2, WaitStart: time.Now()})
	require.NoError(t, err)

	sub := subscribeShards(t, backend, ctx)
	time.Sleep(10 * time.Millisecond)

	engine := NewMatchingEngine(backend, searchers, aiPlayers, DefaultMatchingConfig, logging.New("TEST", false))
	engine.sweep(ctx)

	select {
	case msg := <-sub.Channel():
		t.Fatalf("unexpected shard message before backfill threshold: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMatchingEngineSweepBackfillsFromAIPlayersPastThreshold(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	searchers := NewSearcherStore(backend)
	aiPlayers := NewAIPlayerStore(backend)

	_, err := searchers.Insert(ctx, Searcher{
		PlayerID: "A", Elo: 1200, Game: "schnapsen", Mode: "duo", Region: "eu",
		MinPlayers: 2, MaxPlayers: 2, WaitStart: time.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)
	_, err = aiPlayers.Insert(ctx, AIPlayer{Game: "schnapsen", Mode: "duo", Elo: 1200, DisplayName: "bot-1"})
	require.NoError(t, err)

	sub := subscribeShards(t, backend, ctx)
	time.Sleep(10 * time.Millisecond)

	engine := NewMatchingEngine(backend, searchers, aiPlayers, DefaultMatchingConfig, logging.New("TEST", false))
	engine.sweep(ctx)

	require.Equal(t, 2, collectShard(t, sub))
}
