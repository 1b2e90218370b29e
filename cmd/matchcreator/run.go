/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"

	"github.com/Seednode/matchfabric/internal/aggregator"
	"github.com/Seednode/matchfabric/internal/broker"
	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/matchcreator"
	"github.com/Seednode/matchfabric/internal/state"
)

const logTag = "MATCHCREATOR"

// Run wires the store and broker, registers the match-creator worker (C4)
// against the shard aggregator (C2), and blocks running the aggregator
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

	searchers := state.NewSearcherStore(backend)

	agg := aggregator.New(backend, searchers, logging.New("AGGREGATOR", cfg.Verbose))
	worker := matchcreator.New(searchers, b, logger)
	agg.OnMatch(worker.Handle)

	logger.Printf("START: matchfabric-matchcreator")

	err = agg.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
