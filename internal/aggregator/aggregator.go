/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package aggregator implements the match-proposal aggregator (C2): a
// single-threaded accumulator that fuses streamed shard messages from the
// store's pub/sub into coherent Match proposals and dispatches them to
// registered handlers, grounded in celebrity.go's single-goroutine Hub.run
// select loop that serializes all session mutation without a lock.
package aggregator

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/state"
)

// Handler receives a completed match proposal. Handlers run in parallel,
// and dispatch waits for all of them to return before it removes the
// matched players' Searcher rows, so a handler sees those rows for as long
// as it runs and a slow handler delays the next proposal.
type Handler func(ctx context.Context, m state.Match)

// proposal is the working accumulation for one shard uuid. It is owned
// exclusively by Aggregator.Run's goroutine and needs no lock, matching
// §5's "the aggregator's working proposal is owned by its single task".
type proposal struct {
	region, mode, game string
	regionSet          bool
	modeSet            bool
	gameSet            bool
	ai                 bool
	aiSet              bool
	players            map[int]string
	done               *int
}

func (p *proposal) ready() bool {
	if p.done == nil || !p.regionSet || !p.modeSet || !p.gameSet || !p.aiSet {
		return false
	}

	return len(p.players) == *p.done
}

func (p *proposal) orderedPlayers() []string {
	out := make([]string, len(p.players))
	for i, id := range p.players {
		if i >= 0 && i < len(out) {
			out[i] = id
		}
	}

	return out
}

// Aggregator runs the single-threaded shard accumulator described above.
type Aggregator struct {
	backend   state.Backend
	searchers *state.Store[state.Searcher]
	logger    *logging.Logger

	mu       sync.Mutex
	handlers []Handler

	working map[string]*proposal
}

func New(backend state.Backend, searchers *state.Store[state.Searcher], logger *logging.Logger) *Aggregator {
	return &Aggregator{
		backend:   backend,
		searchers: searchers,
		logger:    logger,
		working:   make(map[string]*proposal),
	}
}

// OnMatch registers a handler invoked once per completed match proposal.
func (a *Aggregator) OnMatch(h Handler) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.handlers = append(a.handlers, h)
}

// Run subscribes to the wildcard shard pattern and processes messages
// until ctx is cancelled. An aggregator assertion failure aborts only the
// single proposal it belongs to; Run itself keeps running (§9).
func (a *Aggregator) Run(ctx context.Context) error {
	sub := state.SubscribeMatchShards(ctx, a.backend)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			a.handle(ctx, msg)
		}
	}
}

func (a *Aggregator) handle(ctx context.Context, msg state.Message) {
	shardID, field, ok := splitShardChannel(msg.Channel)
	if !ok {
		return
	}

	p, exists := a.working[shardID]
	if !exists {
		p = &proposal{players: make(map[int]string)}
		a.working[shardID] = p
	}

	switch {
	case field == "region":
		p.region, p.regionSet = msg.Payload, true
	case field == "mode":
		p.mode, p.modeSet = msg.Payload, true
	case field == "game":
		p.game, p.gameSet = msg.Payload, true
	case field == "ai":
		p.ai, p.aiSet = msg.Payload == "1", true
	case field == "done":
		n, err := strconv.Atoi(msg.Payload)
		if err != nil {
			a.logger.Errorf("malformed done payload for shard %s: %v", shardID, err)
			return
		}
		p.done = &n
	case strings.HasPrefix(field, "players:"):
		idx, err := strconv.Atoi(strings.TrimPrefix(field, "players:"))
		if err != nil {
			a.logger.Errorf("malformed player index for shard %s: %v", shardID, err)
			return
		}
		p.players[idx] = msg.Payload
	default:
		return
	}

	if !p.ready() {
		return
	}

	delete(a.working, shardID)

	match := state.Match{
		Region:  p.region,
		Game:    p.game,
		Mode:    p.mode,
		AI:      p.ai,
		Players: p.orderedPlayers(),
	}

	a.dispatch(ctx, match)
}

// dispatch fans the match out to every registered handler in parallel,
// waits for all of them (the join-all barrier §9 calls for instead of
// fire-and-forget), and only then removes the matched searchers.
func (a *Aggregator) dispatch(ctx context.Context, match state.Match) {
	a.mu.Lock()
	handlers := make([]Handler, len(a.handlers))
	copy(handlers, a.handlers)
	a.mu.Unlock()

	var wg sync.WaitGroup
	for _, h := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			h(ctx, match)
		}(h)
	}
	wg.Wait()

	for _, playerID := range match.Players {
		id, _, found, err := state.FindSearcherByPlayer(ctx, a.searchers, playerID)
		if err != nil {
			a.logger.Errorf("lookup searcher for %s: %v", playerID, err)
			continue
		}
		if !found {
			continue
		}
		if err := a.searchers.Remove(ctx, id); err != nil {
			a.logger.Errorf("remove searcher %s: %v", id, err)
		}
	}
}

func splitShardChannel(channel string) (shardID, field string, ok bool) {
	const sep = ":match:"

	i := strings.Index(channel, sep)
	if i < 0 {
		return "", "", false
	}

	return channel[:i], channel[i+len(sep):], true
}
