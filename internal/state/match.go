/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package state

import (
	"context"
	"fmt"
	"strconv"
)

// Match is the transient proposal produced by the aggregator (C2) and
// consumed by the match-creator (C4). It is never stored (§3).
type Match struct {
	Region  string
	Game    string
	Mode    string
	AI      bool
	Players []string
}

// shardChannel builds one message of a match-proposal shard: the
// aggregator subscribes to the wildcard pattern "*:match:*" and parses the
// channel suffix per §4.2.
func shardChannel(shardID, field string) string {
	return fmt.Sprintf("%s:match:%s", shardID, field)
}

// PublishMatchShard emits one full shard - scalar fields, one players:<i>
// message per player, and a trailing done carrying the expected count -
// on the channel pattern the aggregator consumes. Both searcher-originated
// matches (state.MatchingEngine) and host-originated matches
// (matchmaker.Session.handleStart) call this single helper so C2 sees one
// uniform producer contract regardless of origin (SPEC_FULL §C.1).
func PublishMatchShard(ctx context.Context, backend Backend, shardID, region, mode, game string, ai bool, players []string) error {
	publish := func(field, payload string) error {
		return backend.Publish(ctx, shardChannel(shardID, field), payload)
	}

	if err := publish("region", region); err != nil {
		return err
	}
	if err := publish("mode", mode); err != nil {
		return err
	}
	if err := publish("game", game); err != nil {
		return err
	}
	aiPayload := "0"
	if ai {
		aiPayload = "1"
	}
	if err := publish("ai", aiPayload); err != nil {
		return err
	}

	for i, player := range players {
		if err := publish(fmt.Sprintf("players:%d", i), player); err != nil {
			return err
		}
	}

	return publish("done", strconv.Itoa(len(players)))
}

// SubscribeMatchShards returns the wildcard feed of match-proposal shard
// messages the aggregator consumes.
func SubscribeMatchShards(ctx context.Context, backend Backend) Subscription {
	return backend.PSubscribe(ctx, "*:match:*")
}

