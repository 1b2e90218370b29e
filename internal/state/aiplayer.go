/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import "context"

// AIPlayer is a registered bot profile, deduplicated on
// (game, mode, display_name) per §3.
type AIPlayer struct {
	Game        string
	Mode        string
	Elo         int
	DisplayName string
}

const kindAIPlayer = "aiplayer"

type aiPlayerCodec struct{}

func (aiPlayerCodec) Kind() string { return kindAIPlayer }

func (aiPlayerCodec) ScalarFields() []string {
	return []string{"game", "mode", "elo", "display_name"}
}

func (aiPlayerCodec) VectorFields() []string { return nil }

func (aiPlayerCodec) HashFields() []string { return nil }

func (aiPlayerCodec) Encode(v AIPlayer) Fields {
	f := NewFields()
	f.Scalars["game"] = v.Game
	f.Scalars["mode"] = v.Mode
	f.Scalars["elo"] = encodeInt(v.Elo)
	f.Scalars["display_name"] = v.DisplayName

	return f
}

func (aiPlayerCodec) Decode(id string, f Fields) (AIPlayer, error) {
	return AIPlayer{
		Game:        f.Scalars["game"],
		Mode:        f.Scalars["mode"],
		Elo:         decodeInt(f.Scalars["elo"]),
		DisplayName: f.Scalars["display_name"],
	}, nil
}

func NewAIPlayerStore(backend Backend) *Store[AIPlayer] {
	return NewStore[AIPlayer](backend, aiPlayerCodec{})
}

// FindAIPlayer implements the (game, mode, display_name) dedup key.
func FindAIPlayer(ctx context.Context, store *Store[AIPlayer], game, mode, displayName string) (string, AIPlayer, bool, error) {
	entries, err := store.AllWithIDs(ctx)
	if err != nil {
		return "", AIPlayer{}, false, err
	}
	for _, e := range entries {
		if e.Value.Game == game && e.Value.Mode == mode && e.Value.DisplayName == displayName {
			return e.ID, e.Value, true, nil
		}
	}

	return "", AIPlayer{}, false, nil
}
