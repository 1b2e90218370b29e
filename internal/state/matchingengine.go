/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import (
	"context"
	"sort"
	"time"

	"github.com/Seednode/matchfabric/internal/ids"
	"github.com/Seednode/matchfabric/internal/logging"
)

// MatchingConfig is the SPEC_FULL §C.2 supplement carried forward from
// original_source/matchmaking-state/src/models/mod.rs's
// SearcherMatchConfig: it governs how aggressively the periodic pairing
// sweep widens its acceptable ELO band and how long it waits before
// backfilling a group from AIPlayer rows. It is read once at construction
// (flag/env-driven), not stored as a KV row.
type MatchingConfig struct {
	// MaxEloDiff is the base acceptable ELO gap between two searchers.
	MaxEloDiff int
	// WaitTimeToEloFactor widens MaxEloDiff by this many points per second
	// a group's oldest member has waited.
	WaitTimeToEloFactor float64
	// WaitTimeToServerFactor scales how long a group may wait before it is
	// backfilled with AI players, relative to DefaultSearcherTTL.
	WaitTimeToServerFactor float64
}

// DefaultMatchingConfig matches the conservative defaults implied by
// original_source's model doc comments: a modest ELO band that widens
// slowly, and AI backfill only once a group has waited roughly half its
// TTL without reaching min_players.
var DefaultMatchingConfig = MatchingConfig{
	MaxEloDiff:             100,
	WaitTimeToEloFactor:    5,
	WaitTimeToServerFactor: 0.5,
}

// DefaultSearcherTTL is the §5 default TTL for Searcher/HostRequest rows.
const DefaultSearcherTTL = 60 * time.Second

// ClientTimeout is §3's healthy-heartbeat window (also CLIENT_TIMEOUT).
const ClientTimeout = 30 * time.Second

// MatchingEngine is the SPEC_FULL §C.1 supplement: the searcher-originated
// shard-message producer spec.md's §4.2 describes only the consumer side
// of. It is a periodic sweep, grounded in the teacher's reaperLoop/
// scheduleRemoval ticker idiom, that groups compatible Searcher rows by
// (game, mode, region), admits players within a widening ELO band, and
// backfills from AIPlayer rows once a group has aged past threshold
// without reaching min_players.
type MatchingEngine struct {
	backend   Backend
	searchers *Store[Searcher]
	aiPlayers *Store[AIPlayer]
	cfg       MatchingConfig
	logger    *logging.Logger
}

func NewMatchingEngine(backend Backend, searchers *Store[Searcher], aiPlayers *Store[AIPlayer], cfg MatchingConfig, logger *logging.Logger) *MatchingEngine {
	return &MatchingEngine{backend: backend, searchers: searchers, aiPlayers: aiPlayers, cfg: cfg, logger: logger}
}

// Run sweeps at the given interval until ctx is cancelled.
func (e *MatchingEngine) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.sweep(ctx)
		}
	}
}

type searcherGroupKey struct {
	game, mode, region string
}

func (e *MatchingEngine) sweep(ctx context.Context) {
	all, err := e.searchers.AllWithIDs(ctx)
	if err != nil {
		e.logger.Errorf("list searchers: %v", err)

		return
	}

	groups := make(map[searcherGroupKey][]Entry[Searcher])
	for _, entry := range all {
		key := searcherGroupKey{entry.Value.Game, entry.Value.Mode, entry.Value.Region}
		groups[key] = append(groups[key], entry)
	}

	for key, entries := range groups {
		e.sweepGroup(ctx, key, entries)
	}
}

// sweepGroup admits a widening-ELO-band subset of entries (oldest first),
// publishing a match shard once min_players is reached - or, once the
// oldest entry has aged past the AI-backfill threshold, filling the
// remaining slots from AIPlayer rows instead.
func (e *MatchingEngine) sweepGroup(ctx context.Context, key searcherGroupKey, entries []Entry[Searcher]) {
	if len(entries) == 0 {
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Value.WaitStart.Before(entries[j].Value.WaitStart)
	})

	oldest := entries[0].Value
	waited := time.Since(oldest.WaitStart)
	eloBand := e.cfg.MaxEloDiff + int(waited.Seconds()*e.cfg.WaitTimeToEloFactor)

	admitted := make([]Entry[Searcher], 0, len(entries))
	for _, e2 := range entries {
		if abs(e2.Value.Elo-oldest.Elo) <= eloBand {
			admitted = append(admitted, e2)
		}
		if len(admitted) == oldest.MaxPlayers {
			break
		}
	}

	if len(admitted) >= oldest.MinPlayers {
		e.publish(ctx, key, admitted, nil)

		return
	}

	backfillThreshold := time.Duration(float64(DefaultSearcherTTL) * e.cfg.WaitTimeToServerFactor)
	if waited < backfillThreshold {
		return
	}

	need := oldest.MinPlayers - len(admitted)

	bots, err := e.aiPlayers.Filter(ctx, func(a AIPlayer) bool {
		return a.Game == key.game && a.Mode == key.mode
	})
	if err != nil {
		e.logger.Errorf("list ai players for %s/%s: %v", key.game, key.mode, err)

		return
	}
	if len(bots) < need {
		return
	}

	e.publish(ctx, key, admitted, bots[:need])
}

func (e *MatchingEngine) publish(ctx context.Context, key searcherGroupKey, admitted []Entry[Searcher], bots []AIPlayer) {
	players := make([]string, 0, len(admitted)+len(bots))
	for _, entry := range admitted {
		players = append(players, entry.Value.PlayerID)
	}
	for _, bot := range bots {
		players = append(players, bot.DisplayName)
	}

	shardID := ids.New()

	// Matched searchers are removed by the aggregator (C2) once it has
	// assembled and dispatched the Match this shard produces, not here -
	// C2 owns that cleanup step exclusively (§4.2).
	if err := PublishMatchShard(ctx, e.backend, shardID, key.region, key.mode, key.game, len(bots) > 0, players); err != nil {
		e.logger.Errorf("publish match shard for %s/%s/%s: %v", key.game, key.mode, key.region, err)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
