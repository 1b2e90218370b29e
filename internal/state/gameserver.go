/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import "context"

// GameServer is a registered game-server instance, created on
// game-register and mutated by the healthcheck tracker (§3).
type GameServer struct {
	Region     string
	Game       string
	Mode       string
	ServerPub  string
	ServerPriv string
	MinPlayers int
	MaxPlayers int
	Healthy    bool
}

const kindGameServer = "gameserver"

type gameServerCodec struct{}

func (gameServerCodec) Kind() string { return kindGameServer }

func (gameServerCodec) ScalarFields() []string {
	return []string{"region", "game", "mode", "server_pub", "server_priv", "min_players", "max_players", "healthy"}
}

func (gameServerCodec) VectorFields() []string { return nil }

func (gameServerCodec) HashFields() []string { return nil }

func (gameServerCodec) Encode(v GameServer) Fields {
	f := NewFields()
	f.Scalars["region"] = v.Region
	f.Scalars["game"] = v.Game
	f.Scalars["mode"] = v.Mode
	f.Scalars["server_pub"] = v.ServerPub
	f.Scalars["server_priv"] = v.ServerPriv
	f.Scalars["min_players"] = encodeInt(v.MinPlayers)
	f.Scalars["max_players"] = encodeInt(v.MaxPlayers)
	f.Scalars["healthy"] = encodeBool(v.Healthy)

	return f
}

func (gameServerCodec) Decode(id string, f Fields) (GameServer, error) {
	return GameServer{
		Region:     f.Scalars["region"],
		Game:       f.Scalars["game"],
		Mode:       f.Scalars["mode"],
		ServerPub:  f.Scalars["server_pub"],
		ServerPriv: f.Scalars["server_priv"],
		MinPlayers: decodeInt(f.Scalars["min_players"]),
		MaxPlayers: decodeInt(f.Scalars["max_players"]),
		Healthy:    decodeBool(f.Scalars["healthy"]),
	}, nil
}

func NewGameServerStore(backend Backend) *Store[GameServer] {
	return NewStore[GameServer](backend, gameServerCodec{})
}

// FindHealthy reports whether at least one healthy server matches
// (game, mode, region), the lookup handleSearch/handleHost use to fail
// with NoServerOnline.
func FindHealthy(ctx context.Context, store *Store[GameServer], game, mode, region string) (GameServer, bool, error) {
	matches, err := store.Filter(ctx, func(gs GameServer) bool {
		return gs.Healthy && gs.Game == game && gs.Mode == mode && gs.Region == region
	})
	if err != nil {
		return GameServer{}, false, err
	}
	if len(matches) == 0 {
		return GameServer{}, false, nil
	}

	return matches[0], true, nil
}

// FindByServerPriv looks up the GameServer whose private address equals
// clientID, the join point healthcheck.refresh uses.
func FindByServerPriv(ctx context.Context, store *Store[GameServer], clientID string) (string, GameServer, bool, error) {
	entries, err := store.AllWithIDs(ctx)
	if err != nil {
		return "", GameServer{}, false, err
	}
	for _, e := range entries {
		if e.Value.ServerPriv == clientID {
			return e.ID, e.Value, true, nil
		}
	}

	return "", GameServer{}, false, nil
}

// FindByServerPubGame implements the (server_pub, game) dedup key
// GameServerCreate uses to avoid inserting a duplicate row for a server
// that re-announces itself.
func FindByServerPubGame(ctx context.Context, store *Store[GameServer], serverPub, game string) (string, GameServer, bool, error) {
	entries, err := store.AllWithIDs(ctx)
	if err != nil {
		return "", GameServer{}, false, err
	}
	for _, e := range entries {
		if e.Value.ServerPub == serverPub && e.Value.Game == game {
			return e.ID, e.Value, true, nil
		}
	}

	return "", GameServer{}, false, nil
}
