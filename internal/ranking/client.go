/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package ranking calls the external ranking service (§6): game_init,
// match_init, and player_stars, grounded in
// original_source/games-agent/src/models.rs's RankingConf/Performance/
// Ranking types and the MatchResultMaker projection.
package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Seednode/matchfabric/internal/config"
)

// DefaultElo is substituted whenever an ELO lookup fails (§7).
const DefaultElo = 1250

// Performance is one scored dimension a game reports per player, carried
// forward from games-agent/src/models.rs's Performance{name, weight}.
type Performance struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// GameConfig is the ranking_conf payload forwarded from GameServerCreate,
// the SPEC_FULL §C.3 supplement dropped by the distillation.
type GameConfig struct {
	MaxStars     int           `json:"max_stars"`
	Description  string        `json:"description"`
	Performances []Performance `json:"performances"`
}

// PlayerPerformance is one player's bag-counted performance tally within a
// MatchResult submission.
type PlayerPerformance struct {
	PlayerID     string       `json:"player_id"`
	Performances []NamedCount `json:"performances"`
}

// NamedCount is a (name, count) pair - MatchResultMaker's counts() output.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MatchSubmission is the match_init request body.
type MatchSubmission struct {
	MatchID         string              `json:"match_id"`
	PlayerMatchList []PlayerPerformance `json:"player_match_list"`
}

// Client is the outbound HTTP client for the ranking service. As with
// authclient, no pack example wires a REST client generator for a handful
// of internal endpoints, so this is built directly on net/http - see
// DESIGN.md.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: config.DefaultTimeout},
	}
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("ranking %s: status %d", path, resp.StatusCode)
	}

	return nil
}

// GameInit registers a game's ranking configuration. Called best-effort by
// C5 on GameServerCreate (§4.5): a failure is logged, not fatal.
func (c *Client) GameInit(ctx context.Context, game string, cfg GameConfig) error {
	return c.post(ctx, "/game-init", struct {
		Game string     `json:"game"`
		GameConfig
	}{Game: game, GameConfig: cfg})
}

// MatchInit submits a completed match's ranking projection (§4.5).
func (c *Client) MatchInit(ctx context.Context, sub MatchSubmission) error {
	return c.post(ctx, "/match-init", sub)
}

// PlayerStars fetches a player's ranking stars for (game, mode). Unused by
// the core per §1's scope (out of scope beyond the interface), kept for
// external-collaborator parity with §6.
func (c *Client) PlayerStars(ctx context.Context, playerID, game, mode string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/player-stars?player_id=%s&game=%s&mode=%s", c.baseURL, playerID, game, mode), nil)
	if err != nil {
		return 0, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("ranking player-stars: status %d", resp.StatusCode)
	}

	var out struct {
		Stars int `json:"stars"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}

	return out.Stars, nil
}

// Elo fetches a player's ELO for matchmaking purposes. It returns no
// error: on any failure it returns DefaultElo, per §7's degradation policy
// ("ELO lookup failure -> default value").
func (c *Client) Elo(ctx context.Context, playerID, game, mode string) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/elo?player_id=%s&game=%s&mode=%s", c.baseURL, playerID, game, mode), nil)
	if err != nil {
		return DefaultElo
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return DefaultElo
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return DefaultElo
	}

	var out struct {
		Elo int `json:"elo"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return DefaultElo
	}

	return out.Elo
}
