/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package matchmaker implements the per-connection connector handler (C3):
// authorization, ELO lookup, deduplication, the host/join/start state
// machine, reconnect detection, and notification fan-out.
package matchmaker

import (
	"errors"
	"fmt"
)

// The closed error taxonomy of §7. These are the only errors surfaced
// across the session boundary to a client as an error event; every other
// failure (store, broker, transport) is wrapped and reported generically.
var (
	ErrPlayerUnauthorized      = errors.New("player unauthorized")
	ErrNoServerOnline          = errors.New("no server online")
	ErrNoServerFound           = errors.New("no server found")
	ErrPlayerAlreadyJoined     = errors.New("player already joined")
	ErrNotEnoughPlayers        = errors.New("not enough players")
	ErrMatchAlreadyStarted     = errors.New("match already started")
	ErrMatchIsFull             = errors.New("match is full")
	ErrInvalidJoinToken        = errors.New("invalid join token")
	ErrHostingNotStarted       = errors.New("hosting not started")
	ErrPlayerNotAllowedToStart = errors.New("player not allowed to start")
)

// PlayerAlreadyHostingError carries the player's existing HostRequest id,
// per §7's PlayerAlreadyHosting(host).
type PlayerAlreadyHostingError struct {
	HostID string
}

func (e *PlayerAlreadyHostingError) Error() string {
	return fmt.Sprintf("player already hosting: %s", e.HostID)
}

// PlayerAlreadyPlayingError carries the player's existing match id. Per §7
// this is not an error in the user-visible sense. Session.HandleSearch does
// not return it: on a reconnect it returns the existing match as a
// MatchNotification with a nil error.
type PlayerAlreadyPlayingError struct {
	MatchID string
}

func (e *PlayerAlreadyPlayingError) Error() string {
	return fmt.Sprintf("player already playing: %s", e.MatchID)
}
