/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package ranking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEloReturnsDefaultOnTransportFailure(t *testing.T) {
	c := New("http://127.0.0.1:0", "")

	got := c.Elo(t.Context(), "A", "schnapsen", "duo")
	require.Equal(t, DefaultElo, got)
}

func TestEloParsesServerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elo":1777}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key")

	got := c.Elo(t.Context(), "A", "schnapsen", "duo")
	require.Equal(t, 1777, got)
}

func TestMatchInitPostsSubmission(t *testing.T) {
	var received MatchSubmission

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/match-init", r.URL.Path)
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	}))
	defer srv.Close()

	c := New(srv.URL, "key")

	sub := MatchSubmission{
		MatchID: "m-1",
		PlayerMatchList: []PlayerPerformance{
			{PlayerID: "A", Performances: []NamedCount{{Name: "point", Count: 5}}},
		},
	}

	require.NoError(t, c.MatchInit(t.Context(), sub))
	require.Equal(t, "m-1", received.MatchID)
	require.Len(t, received.PlayerMatchList, 1)
}

func TestGameInitFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "")

	err := c.GameInit(t.Context(), "schnapsen", GameConfig{MaxStars: 3})
	require.Error(t, err)
}
