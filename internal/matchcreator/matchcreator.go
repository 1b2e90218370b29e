/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package matchcreator implements the match-creator worker (C4): it
// registers an aggregator.Handler, resolves each proposal's player ids
// into human searchers vs AI players, and publishes a CreateMatch request
// to the broker for C5's peer to physically create. It never RPCs the
// game server directly (§4.4).
package matchcreator

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Seednode/matchfabric/internal/broker"
	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/state"
)

// ErrAllAIPlayers is returned (and only logged, never surfaced to a
// client) when every player id in a proposal resolved to an AI player -
// §4.4's "drop the match" case.
var ErrAllAIPlayers = errors.New("all ai players")

// Worker wires aggregator.Handler to the broker's match.create queue.
type Worker struct {
	searchers *state.Store[state.Searcher]
	b         broker.Broker
	logger    *logging.Logger
}

func New(searchers *state.Store[state.Searcher], b broker.Broker, logger *logging.Logger) *Worker {
	return &Worker{searchers: searchers, b: b, logger: logger}
}

// Handle implements aggregator.Handler. It must not block on anything
// slow enough to stall the aggregator's join-all barrier; the broker
// publish is a single network round-trip, matching the teacher's
// register/unregister channel sends.
func (w *Worker) Handle(ctx context.Context, m state.Match) {
	if err := w.handle(ctx, m); err != nil {
		if errors.Is(err, ErrAllAIPlayers) {
			w.logger.Printf("dropping match %s/%s/%s: %v", m.Game, m.Mode, m.Region, err)

			return
		}

		w.logger.Errorf("create match %s/%s/%s: %v", m.Game, m.Mode, m.Region, err)
	}
}

func (w *Worker) handle(ctx context.Context, m state.Match) error {
	var humans, aiPlayers []string

	for _, playerID := range m.Players {
		_, _, found, err := state.FindSearcherByPlayer(ctx, w.searchers, playerID)
		if err != nil {
			return err
		}
		if found {
			humans = append(humans, playerID)
		} else {
			// Not a live Searcher row: either an AI display name injected
			// by state.MatchingEngine's backfill, or a human whose row the
			// aggregator already reclaimed - either way §4.4 treats a
			// missing Searcher as AI.
			aiPlayers = append(aiPlayers, playerID)
		}
	}

	if len(humans) == 0 {
		return ErrAllAIPlayers
	}

	body, err := json.Marshal(broker.CreateMatch{
		Game:      m.Game,
		Players:   humans,
		AIPlayers: aiPlayers,
		Mode:      m.Mode,
	})
	if err != nil {
		return err
	}

	return w.b.Publish(ctx, broker.QueueMatchCreate, body)
}
