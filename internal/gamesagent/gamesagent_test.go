/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gamesagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Seednode/matchfabric/internal/broker"
	"github.com/Seednode/matchfabric/internal/broker/brokertest"
	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/ranking"
	"github.com/Seednode/matchfabric/internal/state"
	"github.com/Seednode/matchfabric/internal/state/statetest"
)

func newTestAgent(t *testing.T) (*Agent, *brokertest.Broker) {
	t.Helper()

	rankingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(rankingSrv.Close)

	backend := statetest.NewBackend()
	b := brokertest.New()

	agent := New(
		state.NewGameServerStore(backend),
		state.NewActiveMatchStore(backend),
		state.NewAIPlayerStore(backend),
		ranking.New(rankingSrv.URL, ""),
		b,
		logging.New("TEST", false),
	)

	return agent, b
}

func TestHandleGameServerCreateDedupsAndReplies(t *testing.T) {
	ctx := context.Background()
	agent, b := newTestAgent(t)

	msg := broker.GameServerCreate{
		Region:     "eu",
		Game:       "schnapsen",
		Mode:       "duo",
		MinPlayers: 2,
		MaxPlayers: 2,
		ServerPub:  "pub-1",
		ServerPriv: "priv-1",
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	require.NoError(t, agent.HandleGameServerCreate(ctx, broker.Delivery{Body: body, ReplyTo: "reply-1"}))

	reply := b.AwaitReply("reply-1")
	var decoded struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(reply.Body, &decoded))
	require.NotEmpty(t, decoded.ID)

	servers, err := agent.GameServers.All(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 1)

	// Re-announcing the same (server_pub, game) must not duplicate the row,
	// and must reply with the existing id.
	require.NoError(t, agent.HandleGameServerCreate(ctx, broker.Delivery{Body: body, ReplyTo: "reply-2"}))

	reply2 := b.AwaitReply("reply-2")
	var decoded2 struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(reply2.Body, &decoded2))
	require.Equal(t, decoded.ID, decoded2.ID)

	servers, err = agent.GameServers.All(ctx)
	require.NoError(t, err)
	require.Len(t, servers, 1)
}

func TestHandleCreatedMatchInsertsAndPublishesAITasks(t *testing.T) {
	ctx := context.Background()
	agent, b := newTestAgent(t)

	msg := broker.CreatedMatch{
		Region:      "eu",
		Game:        "schnapsen",
		Mode:        "duo",
		PlayerWrite: map[string]string{"A": "write-A"},
		AIPlayers:   []string{"bot-1"},
		Read:        "read-1",
		URLPub:      "pub",
		URLPriv:     "priv",
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	require.NoError(t, agent.HandleCreatedMatch(ctx, broker.Delivery{Body: body}))

	matches, err := agent.ActiveMatches.All(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.True(t, matches[0].AI)

	taskDelivery := b.Pop(broker.QueueAITask)
	var task broker.Task
	require.NoError(t, json.Unmarshal(taskDelivery.Body, &task))
	require.Equal(t, "schnapsen", task.Game)
	require.ElementsMatch(t, []string{"A", "bot-1"}, task.Players)
}

func TestHandleMatchResultRemovesMatchAndSubmitsRanking(t *testing.T) {
	ctx := context.Background()
	agent, _ := newTestAgent(t)

	id, err := agent.ActiveMatches.Insert(ctx, state.ActiveMatch{
		Region:      "eu",
		Game:        "schnapsen",
		Mode:        "duo",
		ServerPub:   "pub",
		Read:        "read-1",
		PlayerWrite: map[string]string{"A": "write-A", "B": "write-B"},
	})
	require.NoError(t, err)

	msg := broker.MatchResult{
		MatchID: "read-1",
		Winners: map[string]int{"A": 10},
		Losers:  map[string]int{"B": 2},
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	require.NoError(t, agent.HandleMatchResult(ctx, broker.Delivery{Body: body}))

	_, found, err := agent.ActiveMatches.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, found)
}

func TestHandleMatchAbruptCloseRemovesMatch(t *testing.T) {
	ctx := context.Background()
	agent, _ := newTestAgent(t)

	id, err := agent.ActiveMatches.Insert(ctx, state.ActiveMatch{
		Region: "eu", Game: "schnapsen", Mode: "duo", Read: "read-1",
		PlayerWrite: map[string]string{"A": "write-A"},
	})
	require.NoError(t, err)

	msg := broker.MatchAbruptClose{MatchID: "read-1", Reason: broker.ReasonAllPlayersDisconnected}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	require.NoError(t, agent.HandleMatchAbruptClose(ctx, broker.Delivery{Body: body}))

	_, found, err := agent.ActiveMatches.Get(ctx, id)
	require.NoError(t, err)
	require.False(t, found)
}

func TestHandleAIRegisterDedups(t *testing.T) {
	ctx := context.Background()
	agent, _ := newTestAgent(t)

	msg := broker.AIPlayerRegister{Game: "schnapsen", Mode: "duo", Elo: 1300, DisplayName: "bot-1"}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	require.NoError(t, agent.HandleAIRegister(ctx, broker.Delivery{Body: body}))
	require.NoError(t, agent.HandleAIRegister(ctx, broker.Delivery{Body: body}))

	all, err := agent.AIPlayers.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
