/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import (
	"context"
	"time"
)

// Searcher is a pending request by one player to be matched into a game
// (§3). The matching engine groups these by (game, mode, region) and
// widens its acceptable ELO band as WaitStart ages (SPEC_FULL §C.1).
type Searcher struct {
	PlayerID   string
	Elo        int
	Game       string
	Mode       string
	AI         bool
	Region     string
	MinPlayers int
	MaxPlayers int
	WaitStart  time.Time
}

const kindSearcher = "searcher"

type searcherCodec struct{}

func (searcherCodec) Kind() string { return kindSearcher }

func (searcherCodec) ScalarFields() []string {
	return []string{"player_id", "elo", "game", "mode", "ai", "region", "min_players", "max_players", "wait_start"}
}

func (searcherCodec) VectorFields() []string { return nil }

func (searcherCodec) HashFields() []string { return nil }

func (searcherCodec) Encode(v Searcher) Fields {
	f := NewFields()
	f.Scalars["player_id"] = v.PlayerID
	f.Scalars["elo"] = encodeInt(v.Elo)
	f.Scalars["game"] = v.Game
	f.Scalars["mode"] = v.Mode
	f.Scalars["ai"] = encodeBool(v.AI)
	f.Scalars["region"] = v.Region
	f.Scalars["min_players"] = encodeInt(v.MinPlayers)
	f.Scalars["max_players"] = encodeInt(v.MaxPlayers)
	f.Scalars["wait_start"] = encodeTime(v.WaitStart)

	return f
}

func (searcherCodec) Decode(id string, f Fields) (Searcher, error) {
	return Searcher{
		PlayerID:   f.Scalars["player_id"],
		Elo:        decodeInt(f.Scalars["elo"]),
		Game:       f.Scalars["game"],
		Mode:       f.Scalars["mode"],
		AI:         decodeBool(f.Scalars["ai"]),
		Region:     f.Scalars["region"],
		MinPlayers: decodeInt(f.Scalars["min_players"]),
		MaxPlayers: decodeInt(f.Scalars["max_players"]),
		WaitStart:  decodeTime(f.Scalars["wait_start"]),
	}, nil
}

func NewSearcherStore(backend Backend) *Store[Searcher] {
	return NewStore[Searcher](backend, searcherCodec{})
}

// FindSearcherByPlayer implements the §3 "at most one Searcher per
// player_id" invariant: duplicate search by the same player adopts the
// existing row's id.
func FindSearcherByPlayer(ctx context.Context, store *Store[Searcher], playerID string) (string, Searcher, bool, error) {
	entries, err := store.AllWithIDs(ctx)
	if err != nil {
		return "", Searcher{}, false, err
	}
	for _, e := range entries {
		if e.Value.PlayerID == playerID {
			return e.ID, e.Value, true, nil
		}
	}

	return "", Searcher{}, false, nil
}
