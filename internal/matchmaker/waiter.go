/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matchmaker

import (
	"context"
	"strings"

	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/state"
)

// Waiter bridges C1's ActiveMatch insert events to the per-player
// Notifier: once C5 inserts an ActiveMatch, every player in its
// PlayerWrite map is holding a pending registration that this delivers to.
// This is the trigger for notifyMatchFound (§4.3); ActiveMatch insert
// happens-before delivery per §5's ordering guarantee.
type Waiter struct {
	activeMatches *state.Store[state.ActiveMatch]
	notifier      *Notifier
	logger        *logging.Logger
}

func NewWaiter(activeMatches *state.Store[state.ActiveMatch], notifier *Notifier, logger *logging.Logger) *Waiter {
	return &Waiter{activeMatches: activeMatches, notifier: notifier, logger: logger}
}

func (w *Waiter) Run(ctx context.Context) error {
	sub := w.activeMatches.Subscribe(ctx)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.Channel():
			if !ok {
				return nil
			}
			if !strings.HasPrefix(msg.Channel, "events:insert:") {
				continue
			}
			w.deliver(ctx, msg.Payload)
		}
	}
}

func (w *Waiter) deliver(ctx context.Context, id string) {
	am, found, err := w.activeMatches.Get(ctx, id)
	if err != nil {
		w.logger.Errorf("fetch active match %s: %v", id, err)
		return
	}
	if !found {
		return
	}

	players := make([]string, 0, len(am.PlayerWrite))
	for playerID := range am.PlayerWrite {
		players = append(players, playerID)
	}

	for playerID, write := range am.PlayerWrite {
		w.notifier.Deliver(playerID, MatchNotification{
			Address: am.ServerPub,
			Read:    am.Read,
			Write:   write,
			Players: players,
			Game:    am.Game,
			Mode:    am.Mode,
		})
	}
}
