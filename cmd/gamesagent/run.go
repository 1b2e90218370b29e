/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"time"

	"github.com/Seednode/matchfabric/internal/broker"
	"github.com/Seednode/matchfabric/internal/gamesagent"
	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/ranking"
	"github.com/Seednode/matchfabric/internal/state"
)

const logTag = "AGENT"

// Run wires the store, broker, and ranking client, then blocks running the
// games-agent orchestrator (C5) and the matching engine's periodic sweep
// until ctx is cancelled.
func Run(ctx context.Context, cfg *Config) error {
	logger := logging.New(logTag, cfg.Verbose)

	backend, err := state.NewRedisBackend(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer backend.Close()

	b, err := broker.Dial(ctx, cfg.AMQPURL, logging.New("BROKER", cfg.Verbose))
	if err != nil {
		return err
	}
	defer b.Close()

	rankingClient := ranking.New(cfg.RankingURL, cfg.RankingKey)

	gameServers := state.NewGameServerStore(backend)
	activeMatches := state.NewActiveMatchStore(backend)
	aiPlayers := state.NewAIPlayerStore(backend)
	searchers := state.NewSearcherStore(backend)

	agent := gamesagent.New(gameServers, activeMatches, aiPlayers, rankingClient, b, logger)

	matchingCfg := state.MatchingConfig{
		MaxEloDiff:             cfg.maxEloDiff,
		WaitTimeToEloFactor:    cfg.waitTimeToEloFactor,
		WaitTimeToServerFactor: cfg.waitTimeToServerFactor,
	}
	engine := state.NewMatchingEngine(backend, searchers, aiPlayers, matchingCfg, logging.New("MATCHING", cfg.Verbose))

	logger.Printf("START: matchfabric-gamesagent")

	errs := make(chan error, 2)
	go func() { errs <- agent.Run(ctx) }()
	go func() { errs <- engine.Run(ctx, time.Second) }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errs:
		if errors.Is(err, context.Canceled) {
			return nil
		}

		return err
	}
}
