/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import (
	"context"
	"time"
)

// HostRequest is a pending room opened by one player, public or
// token-gated, driving the OPEN -> READY -> STARTED state machine of
// §4.3.
type HostRequest struct {
	PlayerID        string
	Game            string
	Mode            string
	Region          string
	JoinToken       string
	ReservedPlayers []string
	JoinedPlayers   []string
	StartRequested  bool
	MinPlayers      int
	MaxPlayers      int
	WaitStart       time.Time
}

// Ready reports whether enough players have joined to permit a start.
func (h HostRequest) Ready() bool {
	return len(h.JoinedPlayers) >= h.MinPlayers
}

// Full reports whether the room has reached capacity.
func (h HostRequest) Full() bool {
	return len(h.JoinedPlayers) >= h.MaxPlayers
}

const kindHostRequest = "hostrequest"

type hostRequestCodec struct{}

func (hostRequestCodec) Kind() string { return kindHostRequest }

func (hostRequestCodec) ScalarFields() []string {
	return []string{"player_id", "game", "mode", "region", "join_token", "start_requested", "min_players", "max_players", "wait_start"}
}

func (hostRequestCodec) VectorFields() []string {
	return []string{"reserved_players", "joined_players"}
}

func (hostRequestCodec) HashFields() []string { return nil }

func (hostRequestCodec) Encode(v HostRequest) Fields {
	f := NewFields()
	f.Scalars["player_id"] = v.PlayerID
	f.Scalars["game"] = v.Game
	f.Scalars["mode"] = v.Mode
	f.Scalars["region"] = v.Region
	f.Scalars["join_token"] = v.JoinToken
	f.Scalars["start_requested"] = encodeBool(v.StartRequested)
	f.Scalars["min_players"] = encodeInt(v.MinPlayers)
	f.Scalars["max_players"] = encodeInt(v.MaxPlayers)
	f.Scalars["wait_start"] = encodeTime(v.WaitStart)
	f.Vectors["reserved_players"] = v.ReservedPlayers
	f.Vectors["joined_players"] = v.JoinedPlayers

	return f
}

func (hostRequestCodec) Decode(id string, f Fields) (HostRequest, error) {
	return HostRequest{
		PlayerID:        f.Scalars["player_id"],
		Game:            f.Scalars["game"],
		Mode:            f.Scalars["mode"],
		Region:          f.Scalars["region"],
		JoinToken:       f.Scalars["join_token"],
		StartRequested:  decodeBool(f.Scalars["start_requested"]),
		MinPlayers:      decodeInt(f.Scalars["min_players"]),
		MaxPlayers:      decodeInt(f.Scalars["max_players"]),
		WaitStart:       decodeTime(f.Scalars["wait_start"]),
		ReservedPlayers: f.Vectors["reserved_players"],
		JoinedPlayers:   f.Vectors["joined_players"],
	}, nil
}

func NewHostRequestStore(backend Backend) *Store[HostRequest] {
	return NewStore[HostRequest](backend, hostRequestCodec{})
}

// FindHostByPlayer implements the §3 invariant "at most one HostRequest
// per player_id": re-issuing host by the same player must yield the
// existing row.
func FindHostByPlayer(ctx context.Context, store *Store[HostRequest], playerID string) (string, HostRequest, bool, error) {
	entries, err := store.AllWithIDs(ctx)
	if err != nil {
		return "", HostRequest{}, false, err
	}
	for _, e := range entries {
		if e.Value.PlayerID == playerID {
			return e.ID, e.Value, true, nil
		}
	}

	return "", HostRequest{}, false, nil
}

// FindByJoinToken resolves a private host by its distributed token.
func FindByJoinToken(ctx context.Context, store *Store[HostRequest], token string) (string, HostRequest, bool, error) {
	if token == "" {
		return "", HostRequest{}, false, nil
	}

	entries, err := store.AllWithIDs(ctx)
	if err != nil {
		return "", HostRequest{}, false, err
	}
	for _, e := range entries {
		if e.Value.JoinToken == token {
			return e.ID, e.Value, true, nil
		}
	}

	return "", HostRequest{}, false, nil
}
