/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matchmaker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Seednode/matchfabric/internal/authclient"
	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/ranking"
	"github.com/Seednode/matchfabric/internal/state"
	"github.com/Seednode/matchfabric/internal/state/statetest"
)

// newTestAuth starts a fake ezauth service: the session token
// "token-<id>" resolves to player id "<id>".
func newTestAuth(t *testing.T) *authclient.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie := r.Header.Get("Cookie")
		token := strings.TrimPrefix(cookie, "session=")
		playerID := strings.TrimPrefix(token, "token-")

		if playerID == "" || playerID == token {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		_ = json.NewEncoder(w).Encode(authclient.Profile{ID: playerID, Username: playerID})
	}))
	t.Cleanup(srv.Close)

	return authclient.New(srv.URL)
}

func newTestDeps(t *testing.T) Deps {
	t.Helper()

	backend := statetest.NewBackend()

	return Deps{
		Auth:          newTestAuth(t),
		Ranking:       ranking.New("", ""),
		Backend:       backend,
		GameServers:   state.NewGameServerStore(backend),
		HostRequests:  state.NewHostRequestStore(backend),
		Searchers:     state.NewSearcherStore(backend),
		ActiveMatches: state.NewActiveMatchStore(backend),
		Notifier:      NewNotifier(),
		Logger:        logging.New("TEST", false),
	}
}

func insertHealthyServer(t *testing.T, deps Deps, game, mode, region string, minP, maxP int) {
	t.Helper()

	_, err := deps.GameServers.Insert(context.Background(), state.GameServer{
		Region:     region,
		Game:       game,
		Mode:       mode,
		ServerPub:  "pub",
		ServerPriv: "priv",
		MinPlayers: minP,
		MaxPlayers: maxP,
		Healthy:    true,
	})
	require.NoError(t, err)
}

func TestHandleSearchInsertsSearcherAndDedups(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	insertHealthyServer(t, deps, "schnapsen", "duo", "eu", 2, 2)

	s := NewSession(deps)

	note, err := s.HandleSearch(ctx, SearchRequest{SessionToken: "token-A", Region: "eu", Game: "schnapsen", Mode: "duo"})
	require.NoError(t, err)
	require.Nil(t, note)

	searchers, err := deps.Searchers.Filter(ctx, func(sr state.Searcher) bool { return sr.PlayerID == "A" })
	require.NoError(t, err)
	require.Len(t, searchers, 1)

	// Re-issuing search for the same player must not create a second row.
	note, err = s.HandleSearch(ctx, SearchRequest{SessionToken: "token-A", Region: "eu", Game: "schnapsen", Mode: "duo"})
	require.NoError(t, err)
	require.Nil(t, note)

	searchers, err = deps.Searchers.Filter(ctx, func(sr state.Searcher) bool { return sr.PlayerID == "A" })
	require.NoError(t, err)
	require.Len(t, searchers, 1)
}

func TestHandleSearchNoServerOnline(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)

	s := NewSession(deps)

	_, err := s.HandleSearch(ctx, SearchRequest{SessionToken: "token-A", Region: "eu", Game: "schnapsen", Mode: "duo"})
	require.ErrorIs(t, err, ErrNoServerOnline)
}

func TestHandleSearchUnauthorized(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)

	s := NewSession(deps)

	_, err := s.HandleSearch(ctx, SearchRequest{SessionToken: "bogus", Region: "eu", Game: "schnapsen", Mode: "duo"})
	require.ErrorIs(t, err, ErrPlayerUnauthorized)
}

func TestHandleSearchReconnectDeliversExistingMatch(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)

	_, err := deps.ActiveMatches.Insert(ctx, state.ActiveMatch{
		Region:      "eu",
		Game:        "schnapsen",
		Mode:        "duo",
		ServerPub:   "pub",
		Read:        "read-token",
		PlayerWrite: map[string]string{"A": "write-A", "B": "write-B"},
	})
	require.NoError(t, err)

	// A stale Searcher row for A must be cleared by the reconnect per
	// SPEC_FULL §D's "Reconnect clears stale Searcher" decision.
	_, err = deps.Searchers.Insert(ctx, state.Searcher{PlayerID: "A", Game: "schnapsen", Mode: "duo", Region: "eu"})
	require.NoError(t, err)

	s := NewSession(deps)

	note, err := s.HandleSearch(ctx, SearchRequest{SessionToken: "token-A", AllowReconnect: true})
	require.NoError(t, err)
	require.NotNil(t, note)
	require.Equal(t, "write-A", note.Write)
	require.Equal(t, "read-token", note.Read)

	stale, err := deps.Searchers.Filter(ctx, func(sr state.Searcher) bool { return sr.PlayerID == "A" })
	require.NoError(t, err)
	require.Empty(t, stale)
}

func TestHandleHostThenPublicJoinReachesMax(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	insertHealthyServer(t, deps, "schnapsen", "duo", "eu", 2, 2)

	host := NewSession(deps)
	token, err := host.HandleHost(ctx, HostSpec{SessionToken: "token-A", Region: "eu", Game: "schnapsen", Mode: "duo", Public: true})
	require.NoError(t, err)
	require.Empty(t, token, "public host must not carry a join token")

	hostRows, err := deps.HostRequests.Filter(ctx, func(h state.HostRequest) bool { return h.PlayerID == "A" })
	require.NoError(t, err)
	require.Len(t, hostRows, 1)
	hostID, hostRow, found, err := state.FindHostByPlayer(ctx, deps.HostRequests, "A")
	require.NoError(t, err)
	require.True(t, found)

	joiner := NewSession(deps)
	err = joiner.HandleJoinPub(ctx, "token-B", hostID)
	require.NoError(t, err)

	updated, found, err := deps.HostRequests.Get(ctx, hostID)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, updated.StartRequested, "reaching max_players must auto-start")
	require.ElementsMatch(t, []string{"A", "B"}, updated.JoinedPlayers)
	_ = hostRow
}

func TestHandleHostAlreadyHosting(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	insertHealthyServer(t, deps, "schnapsen", "duo", "eu", 2, 2)

	s := NewSession(deps)

	_, err := s.HandleHost(ctx, HostSpec{SessionToken: "token-A", Region: "eu", Game: "schnapsen", Mode: "duo", Public: false})
	require.NoError(t, err)

	_, err = s.HandleHost(ctx, HostSpec{SessionToken: "token-A", Region: "eu", Game: "schnapsen", Mode: "duo", Public: false})
	var alreadyHosting *PlayerAlreadyHostingError
	require.ErrorAs(t, err, &alreadyHosting)
}

func TestHandleJoinPrivRejectsInvalidToken(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	insertHealthyServer(t, deps, "schnapsen", "duo", "eu", 2, 2)

	host := NewSession(deps)
	_, err := host.HandleHost(ctx, HostSpec{SessionToken: "token-A", Region: "eu", Game: "schnapsen", Mode: "duo", Public: false})
	require.NoError(t, err)

	joiner := NewSession(deps)
	err = joiner.HandleJoinPriv(ctx, "token-B", "wrong-token")
	require.ErrorIs(t, err, ErrInvalidJoinToken)

	err = joiner.HandleJoinPriv(ctx, "token-B", "")
	require.ErrorIs(t, err, ErrInvalidJoinToken)
}

func TestHandleStartRejectsBelowMinPlayers(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	insertHealthyServer(t, deps, "schnapsen", "trio", "eu", 3, 4)

	s := NewSession(deps)
	_, err := s.HandleHost(ctx, HostSpec{SessionToken: "token-A", Region: "eu", Game: "schnapsen", Mode: "trio", Public: true})
	require.NoError(t, err)

	err = s.HandleStart(ctx)
	require.ErrorIs(t, err, ErrNotEnoughPlayers)
}

func TestRemoveSearcherClearsRow(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	insertHealthyServer(t, deps, "schnapsen", "duo", "eu", 2, 2)

	s := NewSession(deps)
	_, err := s.HandleSearch(ctx, SearchRequest{SessionToken: "token-A", Region: "eu", Game: "schnapsen", Mode: "duo"})
	require.NoError(t, err)

	require.NoError(t, s.RemoveSearcher(ctx))

	rows, err := deps.Searchers.Filter(ctx, func(sr state.Searcher) bool { return sr.PlayerID == "A" })
	require.NoError(t, err)
	require.Empty(t, rows)

	// Calling it again with no outstanding searcher is a no-op.
	require.NoError(t, s.RemoveSearcher(ctx))
}

func TestRemoveJoinerSplicesWithoutDestroyingHost(t *testing.T) {
	ctx := context.Background()
	deps := newTestDeps(t)
	insertHealthyServer(t, deps, "schnapsen", "trio", "eu", 2, 3)

	host := NewSession(deps)
	_, err := host.HandleHost(ctx, HostSpec{SessionToken: "token-A", Region: "eu", Game: "schnapsen", Mode: "trio", Public: true})
	require.NoError(t, err)

	hostID, _, found, err := state.FindHostByPlayer(ctx, deps.HostRequests, "A")
	require.NoError(t, err)
	require.True(t, found)

	joiner := NewSession(deps)
	require.NoError(t, joiner.HandleJoinPub(ctx, "token-B", hostID))

	require.NoError(t, joiner.RemoveJoiner(ctx))

	updated, found, err := deps.HostRequests.Get(ctx, hostID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"A"}, updated.JoinedPlayers)
}
