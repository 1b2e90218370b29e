/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package gamesagent

import (
	"sort"

	"github.com/Seednode/matchfabric/internal/broker"
	"github.com/Seednode/matchfabric/internal/ranking"
)

// projectMatchResult builds the ranking match_init payload per §4.5's
// "Ranking projection": winners and losers (player -> points) are
// concatenated, winners first, each group sorted by points descending; a
// synthetic "point" performance equal to that player's point value is
// appended after the player's bag-counted performance strings, which keep
// their first-occurrence order.
func projectMatchResult(msg broker.MatchResult) []ranking.PlayerPerformance {
	out := make([]ranking.PlayerPerformance, 0, len(msg.Winners)+len(msg.Losers))

	for _, player := range sortedByPoints(msg.Winners) {
		out = append(out, playerPerformance(player, msg.Winners[player], msg.Ranking))
	}
	for _, player := range sortedByPoints(msg.Losers) {
		out = append(out, playerPerformance(player, msg.Losers[player], msg.Ranking))
	}

	return out
}

func sortedByPoints(points map[string]int) []string {
	players := make([]string, 0, len(points))
	for p := range points {
		players = append(players, p)
	}

	sort.Slice(players, func(i, j int) bool {
		if points[players[i]] != points[players[j]] {
			return points[players[i]] > points[players[j]]
		}

		return players[i] < players[j]
	})

	return players
}

func playerPerformance(playerID string, points int, r broker.Ranking) ranking.PlayerPerformance {
	var (
		counts []ranking.NamedCount
		seen   = make(map[string]int)
	)

	for _, name := range r.Performances[playerID] {
		idx, ok := seen[name]
		if !ok {
			idx = len(counts)
			seen[name] = idx
			counts = append(counts, ranking.NamedCount{Name: name, Count: 0})
		}
		counts[idx].Count++
	}

	counts = append(counts, ranking.NamedCount{Name: "point", Count: points})

	return ranking.PlayerPerformance{PlayerID: playerID, Performances: counts}
}
