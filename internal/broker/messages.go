/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package broker

import "encoding/json"

// CreateMatch is published by C4 once it has resolved human vs AI players
// for a proposal (§4.4).
type CreateMatch struct {
	Game      string   `json:"game"`
	Players   []string `json:"players"`
	AIPlayers []string `json:"ai_players"`
	Mode      string   `json:"mode"`
}

// CreatedMatch is the physical-creation confirmation consumed by C5
// (§4.5). Only AIPlayers (not an explicit AI bool) travels on the wire,
// per the Open Question decision in SPEC_FULL §D.
type CreatedMatch struct {
	Region      string            `json:"region"`
	Game        string            `json:"game"`
	Mode        string            `json:"mode"`
	PlayerWrite map[string]string `json:"player_write"`
	AIPlayers   []string          `json:"ai_players"`
	Read        string            `json:"read"`
	URLPub      string            `json:"url_pub"`
	URLPriv     string            `json:"url_priv"`
}

// AI reports the canonical ai flag: ai = (ai_players != empty).
func (m CreatedMatch) AI() bool { return len(m.AIPlayers) > 0 }

// Ranking carries the per-player performance strings reported alongside a
// MatchResult, grounded in communicator/src/models.rs's Ranking.
type Ranking struct {
	Performances map[string][]string `json:"performances"`
}

// MatchResult reports the outcome of a completed match (§4.5). EventLog is
// the SPEC_FULL §C.4 passthrough supplement: an opaque log forwarded to
// logging only, never interpreted.
type MatchResult struct {
	MatchID  string            `json:"match_id"`
	Winners  map[string]int    `json:"winners"`
	Losers   map[string]int    `json:"losers"`
	Ranking  Ranking           `json:"ranking"`
	EventLog []json.RawMessage `json:"event_log,omitempty"`
}

// MatchAbruptCloseReason enumerates why a match ended without a result.
type MatchAbruptCloseReason string

const (
	ReasonAllPlayersDisconnected MatchAbruptCloseReason = "all_players_disconnected"
	ReasonPlayerDidNotJoin       MatchAbruptCloseReason = "player_did_not_join"
)

// MatchAbruptClose reports a match that ended without a result (§4.5).
type MatchAbruptClose struct {
	MatchID string                 `json:"match_id"`
	Reason  MatchAbruptCloseReason `json:"reason"`
}

// GameServerCreate registers a game server via request/reply (§4.5, §6).
// RankingConf is the SPEC_FULL §C.3 supplement.
type GameServerCreate struct {
	Region      string      `json:"region"`
	Game        string      `json:"game"`
	Mode        string      `json:"mode"`
	MinPlayers  int         `json:"min_players"`
	MaxPlayers  int         `json:"max_players"`
	ServerPub   string      `json:"server_pub"`
	ServerPriv  string      `json:"server_priv"`
	RankingConf RankingConf `json:"ranking_conf"`
}

// RankingConf is forwarded verbatim to ranking.Client.GameInit.
type RankingConf struct {
	MaxStars     int           `json:"max_stars"`
	Description  string        `json:"description"`
	Performances []Performance `json:"performances"`
}

// Performance is one scored dimension a game reports.
type Performance struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// Task instructs the AI worker fleet to generate moves for one player in a
// live match (§4.5).
type Task struct {
	AILevel string   `json:"ai_level"`
	Game    string   `json:"game"`
	Mode    string   `json:"mode"`
	Address string   `json:"address"`
	Read    string   `json:"read"`
	Write   string   `json:"write"`
	Players []string `json:"players"`
}

// AIPlayerRegister registers a bot profile (§4.5).
type AIPlayerRegister struct {
	Game        string `json:"game"`
	Mode        string `json:"mode"`
	Elo         int    `json:"elo"`
	DisplayName string `json:"display_name"`
}
