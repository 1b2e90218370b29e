/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package gamesagent implements the games-agent orchestrator (C5): one
// consumer per broker queue named in §6, converting inbound
// game-register/match-created/result/abrupt-close/health-check/
// ai-register messages into state mutations and outbound ranking/AI-task
// calls, plus the 1Hz healthcheck sweeper of §4.5.
package gamesagent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Seednode/matchfabric/internal/broker"
	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/ranking"
	"github.com/Seednode/matchfabric/internal/state"
)

// Agent holds the store handles and external collaborators every consumer
// needs. Passed in explicitly per §9's "Global lazy singletons" note.
type Agent struct {
	GameServers   *state.Store[state.GameServer]
	ActiveMatches *state.Store[state.ActiveMatch]
	AIPlayers     *state.Store[state.AIPlayer]
	Ranking       *ranking.Client
	Broker        broker.Broker
	Logger        *logging.Logger
	Health        *HealthTracker
}

func New(gameServers *state.Store[state.GameServer], activeMatches *state.Store[state.ActiveMatch], aiPlayers *state.Store[state.AIPlayer], rankingClient *ranking.Client, b broker.Broker, logger *logging.Logger) *Agent {
	return &Agent{
		GameServers:   gameServers,
		ActiveMatches: activeMatches,
		AIPlayers:     aiPlayers,
		Ranking:       rankingClient,
		Broker:        b,
		Logger:        logger,
		Health:        NewHealthTracker(gameServers, logger),
	}
}

// HandleGameServerCreate implements §4.5's GameServerCreate consumer:
// dedup on (server_pub, game), insert, best-effort ranking.GameInit, reply
// with the new (or existing) server id.
func (a *Agent) HandleGameServerCreate(ctx context.Context, d broker.Delivery) error {
	var msg broker.GameServerCreate
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return fmt.Errorf("decode GameServerCreate: %w", err)
	}

	id, _, found, err := state.FindByServerPubGame(ctx, a.GameServers, msg.ServerPub, msg.Game)
	if err != nil {
		return err
	}

	if !found {
		id, err = a.GameServers.Insert(ctx, state.GameServer{
			Region:     msg.Region,
			Game:       msg.Game,
			Mode:       msg.Mode,
			ServerPub:  msg.ServerPub,
			ServerPriv: msg.ServerPriv,
			MinPlayers: msg.MinPlayers,
			MaxPlayers: msg.MaxPlayers,
			Healthy:    true,
		})
		if err != nil {
			return err
		}

		if gerr := a.Ranking.GameInit(ctx, msg.Game, ranking.GameConfig{
			MaxStars:    msg.RankingConf.MaxStars,
			Description: msg.RankingConf.Description,
			Performances: func() []ranking.Performance {
				out := make([]ranking.Performance, len(msg.RankingConf.Performances))
				for i, p := range msg.RankingConf.Performances {
					out[i] = ranking.Performance{Name: p.Name, Weight: p.Weight}
				}

				return out
			}(),
		}); gerr != nil {
			a.Logger.Errorf("ranking game_init for %s: %v", msg.Game, gerr)
		}
	}

	if d.ReplyTo == "" {
		return nil
	}

	reply, err := json.Marshal(struct {
		ID string `json:"id"`
	}{ID: id})
	if err != nil {
		return err
	}

	return a.Broker.Reply(ctx, d.ReplyTo, reply)
}

// HandleCreatedMatch implements §4.5's CreatedMatch consumer: build and
// insert an ActiveMatch, then emit one ai-task per AI player listed.
// ActiveMatch insert happens-before any ai-task publish (§5).
func (a *Agent) HandleCreatedMatch(ctx context.Context, d broker.Delivery) error {
	var msg broker.CreatedMatch
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return fmt.Errorf("decode CreatedMatch: %w", err)
	}

	_, err := a.ActiveMatches.Insert(ctx, state.ActiveMatch{
		Region:      msg.Region,
		Game:        msg.Game,
		Mode:        msg.Mode,
		AI:          msg.AI(),
		ServerPub:   msg.URLPub,
		ServerPriv:  msg.URLPriv,
		Read:        msg.Read,
		PlayerWrite: msg.PlayerWrite,
	})
	if err != nil {
		return err
	}

	peers := make([]string, 0, len(msg.PlayerWrite)+len(msg.AIPlayers))
	for playerID := range msg.PlayerWrite {
		peers = append(peers, playerID)
	}
	peers = append(peers, msg.AIPlayers...)

	for _, aiPlayerID := range msg.AIPlayers {
		task, err := json.Marshal(broker.Task{
			Game:    msg.Game,
			Mode:    msg.Mode,
			Address: msg.URLPub,
			Read:    msg.Read,
			Write:   msg.PlayerWrite[aiPlayerID],
			Players: peers,
		})
		if err != nil {
			return err
		}

		if err := a.Broker.Publish(ctx, broker.QueueAITask, task); err != nil {
			return err
		}
	}

	return nil
}

// HandleMatchResult implements §4.5's MatchResult consumer: locate the
// ActiveMatch by its Read token, remove it, project winners/losers into a
// ranking submission, and forward it.
func (a *Agent) HandleMatchResult(ctx context.Context, d broker.Delivery) error {
	var msg broker.MatchResult
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return fmt.Errorf("decode MatchResult: %w", err)
	}

	if len(msg.EventLog) > 0 {
		a.Logger.Printf("match %s event log: %s", msg.MatchID, msg.EventLog)
	}

	id, _, found, err := state.FindByRead(ctx, a.ActiveMatches, msg.MatchID)
	if err != nil {
		return err
	}
	if found {
		if err := a.ActiveMatches.Remove(ctx, id); err != nil {
			return err
		}
	}

	submission := ranking.MatchSubmission{
		MatchID:         msg.MatchID,
		PlayerMatchList: projectMatchResult(msg),
	}

	return a.Ranking.MatchInit(ctx, submission)
}

// HandleMatchAbruptClose implements §4.5's MatchAbruptClose consumer:
// remove the ActiveMatch by Read token; no ranking submission follows.
func (a *Agent) HandleMatchAbruptClose(ctx context.Context, d broker.Delivery) error {
	var msg broker.MatchAbruptClose
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return fmt.Errorf("decode MatchAbruptClose: %w", err)
	}

	id, _, found, err := state.FindByRead(ctx, a.ActiveMatches, msg.MatchID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	return a.ActiveMatches.Remove(ctx, id)
}

// HandleHealthCheck implements §4.5's healthcheck(client_id) consumer,
// delegating the healthy-transition/last-seen bookkeeping to HealthTracker.
func (a *Agent) HandleHealthCheck(ctx context.Context, d broker.Delivery) error {
	clientID := string(d.Body)

	return a.Health.Refresh(ctx, clientID)
}

// HandleAIRegister implements §4.5's AIPlayerRegister consumer: dedup on
// (game, mode, display_name), insert.
func (a *Agent) HandleAIRegister(ctx context.Context, d broker.Delivery) error {
	var msg broker.AIPlayerRegister
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return fmt.Errorf("decode AIPlayerRegister: %w", err)
	}

	_, _, found, err := state.FindAIPlayer(ctx, a.AIPlayers, msg.Game, msg.Mode, msg.DisplayName)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	_, err = a.AIPlayers.Insert(ctx, state.AIPlayer{
		Game:        msg.Game,
		Mode:        msg.Mode,
		Elo:         msg.Elo,
		DisplayName: msg.DisplayName,
	})

	return err
}

// Run subscribes every consumer in §6's queue table and blocks until ctx
// is cancelled or any one consumer (or the health sweep) returns, passing
// on what it returned, error or nil, matching
// games-agent/src/main.rs's tokio::try_join! of its listen_for_* tasks.
func (a *Agent) Run(ctx context.Context) error {
	consumers := map[string]broker.Handler{
		broker.QueueGameCreate:       a.HandleGameServerCreate,
		broker.QueueMatchCreated:     a.HandleCreatedMatch,
		broker.QueueMatchResult:      a.HandleMatchResult,
		broker.QueueMatchAbruptClose: a.HandleMatchAbruptClose,
		broker.QueueHealthCheck:      a.HandleHealthCheck,
		broker.QueueAIRegister:       a.HandleAIRegister,
	}

	errs := make(chan error, len(consumers))

	for queue, handler := range consumers {
		go func(queue string, handler broker.Handler) {
			errs <- a.Broker.Consume(ctx, queue, handler)
		}(queue, handler)
	}

	go func() {
		errs <- a.Health.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errs:
		return err
	}
}
