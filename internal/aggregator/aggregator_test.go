/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package aggregator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/state"
	"github.com/Seednode/matchfabric/internal/state/statetest"
)

func TestAggregatorAssemblesMatchFromShard(t *testing.T) {
	backend := statetest.NewBackend()
	searchers := state.NewSearcherStore(backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := searchers.Insert(ctx, state.Searcher{PlayerID: "A", Game: "schnapsen", Mode: "duo", Region: "eu"})
	require.NoError(t, err)
	_, err = searchers.Insert(ctx, state.Searcher{PlayerID: "B", Game: "schnapsen", Mode: "duo", Region: "eu"})
	require.NoError(t, err)

	agg := New(backend, searchers, logging.New("TEST", true))

	var (
		mu  sync.Mutex
		got state.Match
	)
	done := make(chan struct{})
	agg.OnMatch(func(_ context.Context, m state.Match) {
		mu.Lock()
		got = m
		mu.Unlock()
		close(done)
	})

	go agg.Run(ctx)

	time.Sleep(10 * time.Millisecond) // let Run's PSubscribe register before publishing

	require.NoError(t, state.PublishMatchShard(ctx, backend, "shard-1", "eu", "duo", "schnapsen", false, []string{"A", "B"}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was never invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "eu", got.Region)
	require.Equal(t, "schnapsen", got.Game)
	require.Equal(t, "duo", got.Mode)
	require.False(t, got.AI)
	require.Equal(t, []string{"A", "B"}, got.Players)

	time.Sleep(10 * time.Millisecond)
	all, err := searchers.All(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestAggregatorToleratesOutOfOrderDone(t *testing.T) {
	backend := statetest.NewBackend()
	searchers := state.NewSearcherStore(backend)
	agg := New(backend, searchers, logging.New("TEST", false))

	ctx := context.Background()

	matched := make(chan struct{}, 1)
	agg.OnMatch(func(_ context.Context, m state.Match) { matched <- struct{}{} })

	// done arrives before the second player - the aggregator must buffer it
	// and re-check on every subsequent shard message (§9 Open Questions).
	agg.handle(ctx, state.Message{Channel: "shard-2:match:region", Payload: "eu"})
	agg.handle(ctx, state.Message{Channel: "shard-2:match:mode", Payload: "duo"})
	agg.handle(ctx, state.Message{Channel: "shard-2:match:game", Payload: "schnapsen"})
	agg.handle(ctx, state.Message{Channel: "shard-2:match:ai", Payload: "0"})
	agg.handle(ctx, state.Message{Channel: "shard-2:match:players:0", Payload: "A"})
	agg.handle(ctx, state.Message{Channel: "shard-2:match:done", Payload: "2"})

	select {
	case <-matched:
		t.Fatal("match fired before all players arrived")
	default:
	}

	agg.handle(ctx, state.Message{Channel: "shard-2:match:players:1", Payload: "B"})

	select {
	case <-matched:
	case <-time.After(time.Second):
		t.Fatal("match never fired once the done-buffered shard completed")
	}
}
