/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import "context"

// ActiveMatch is a live game bound to a game server, with per-player write
// tokens and a shared read token (§3). Created by C5 once a game server
// confirms a CreatedMatch; deleted on result or abrupt close.
type ActiveMatch struct {
	Region      string
	Game        string
	Mode        string
	AI          bool
	ServerPub   string
	ServerPriv  string
	Read        string
	PlayerWrite map[string]string
}

const kindActiveMatch = "activematch"

type activeMatchCodec struct{}

func (activeMatchCodec) Kind() string { return kindActiveMatch }

func (activeMatchCodec) ScalarFields() []string {
	return []string{"region", "game", "mode", "ai", "server_pub", "server_priv", "read"}
}

func (activeMatchCodec) VectorFields() []string { return nil }

func (activeMatchCodec) HashFields() []string { return []string{"player_write"} }

func (activeMatchCodec) Encode(v ActiveMatch) Fields {
	f := NewFields()
	f.Scalars["region"] = v.Region
	f.Scalars["game"] = v.Game
	f.Scalars["mode"] = v.Mode
	f.Scalars["ai"] = encodeBool(v.AI)
	f.Scalars["server_pub"] = v.ServerPub
	f.Scalars["server_priv"] = v.ServerPriv
	f.Scalars["read"] = v.Read
	f.Hashes["player_write"] = v.PlayerWrite

	return f
}

func (activeMatchCodec) Decode(id string, f Fields) (ActiveMatch, error) {
	return ActiveMatch{
		Region:      f.Scalars["region"],
		Game:        f.Scalars["game"],
		Mode:        f.Scalars["mode"],
		AI:          decodeBool(f.Scalars["ai"]),
		ServerPub:   f.Scalars["server_pub"],
		ServerPriv:  f.Scalars["server_priv"],
		Read:        f.Scalars["read"],
		PlayerWrite: f.Hashes["player_write"],
	}, nil
}

func NewActiveMatchStore(backend Backend) *Store[ActiveMatch] {
	return NewStore[ActiveMatch](backend, activeMatchCodec{})
}

// FindByRead resolves the ActiveMatch whose Read token equals the match id
// carried by a MatchResult or MatchAbruptClose message.
func FindByRead(ctx context.Context, store *Store[ActiveMatch], read string) (string, ActiveMatch, bool, error) {
	entries, err := store.AllWithIDs(ctx)
	if err != nil {
		return "", ActiveMatch{}, false, err
	}
	for _, e := range entries {
		if e.Value.Read == read {
			return e.ID, e.Value, true, nil
		}
	}

	return "", ActiveMatch{}, false, nil
}

// FindActiveMatchByPlayer resolves the ActiveMatch (if any) that lists
// playerID in its PlayerWrite map, the lookup handleSearch with
// allow_reconnect uses.
func FindActiveMatchByPlayer(ctx context.Context, store *Store[ActiveMatch], playerID string) (string, ActiveMatch, bool, error) {
	entries, err := store.AllWithIDs(ctx)
	if err != nil {
		return "", ActiveMatch{}, false, err
	}
	for _, e := range entries {
		if _, ok := e.Value.PlayerWrite[playerID]; ok {
			return e.ID, e.Value, true, nil
		}
	}

	return "", ActiveMatch{}, false, nil
}
