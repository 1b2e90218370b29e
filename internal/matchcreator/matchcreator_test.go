/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matchcreator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Seednode/matchfabric/internal/broker"
	"github.com/Seednode/matchfabric/internal/broker/brokertest"
	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/state"
	"github.com/Seednode/matchfabric/internal/state/statetest"
)

func TestHandlePublishesHumansAndAIPlayersSeparately(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	searchers := state.NewSearcherStore(backend)
	b := brokertest.New()

	_, err := searchers.Insert(ctx, state.Searcher{PlayerID: "A", Game: "schnapsen", Mode: "duo"})
	require.NoError(t, err)

	w := New(searchers, b, logging.New("TEST", false))

	w.Handle(ctx, state.Match{Region: "eu", Game: "schnapsen", Mode: "duo", Players: []string{"A", "bot-1"}})

	d := b.Pop(broker.QueueMatchCreate)
	var create broker.CreateMatch
	require.NoError(t, json.Unmarshal(d.Body, &create))
	require.Equal(t, []string{"A"}, create.Players)
	require.Equal(t, []string{"bot-1"}, create.AIPlayers)
	require.Equal(t, "schnapsen", create.Game)
	require.Equal(t, "duo", create.Mode)
}

func TestHandleDropsAllAIMatchWithoutPublishing(t *testing.T) {
	ctx := context.Background()
	backend := statetest.NewBackend()
	searchers := state.NewSearcherStore(backend)
	b := brokertest.New()

	w := New(searchers, b, logging.New("TEST", false))

	// No Searcher rows exist for either player id: both resolve as AI,
	// so the match must be dropped rather than published.
	w.Handle(ctx, state.Match{Region: "eu", Game: "schnapsen", Mode: "duo", Players: []string{"bot-1", "bot-2"}})

	_, published := b.TryPop(broker.QueueMatchCreate)
	require.False(t, published, "all-AI matches must not reach the broker")
}
