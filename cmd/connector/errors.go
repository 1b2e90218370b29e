/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"

	"github.com/Seednode/matchfabric/internal/matchmaker"
)

// errorCode maps a matchmaker error to the closed taxonomy name of §7, so
// the socket's wire format never leaks a Go error string as the
// machine-readable code.
func errorCode(err error) string {
	var alreadyHosting *matchmaker.PlayerAlreadyHostingError
	var alreadyPlaying *matchmaker.PlayerAlreadyPlayingError

	switch {
	case errors.As(err, &alreadyHosting):
		return "PlayerAlreadyHosting"
	case errors.As(err, &alreadyPlaying):
		return "PlayerAlreadyPlaying"
	case errors.Is(err, matchmaker.ErrPlayerUnauthorized):
		return "PlayerUnauthorized"
	case errors.Is(err, matchmaker.ErrNoServerOnline):
		return "NoServerOnline"
	case errors.Is(err, matchmaker.ErrNoServerFound):
		return "NoServerFound"
	case errors.Is(err, matchmaker.ErrPlayerAlreadyJoined):
		return "PlayerAlreadyJoined"
	case errors.Is(err, matchmaker.ErrNotEnoughPlayers):
		return "NotEnoughPlayers"
	case errors.Is(err, matchmaker.ErrMatchAlreadyStarted):
		return "MatchAlreadyStarted"
	case errors.Is(err, matchmaker.ErrMatchIsFull):
		return "MatchIsFull"
	case errors.Is(err, matchmaker.ErrInvalidJoinToken):
		return "InvalidJoinToken"
	case errors.Is(err, matchmaker.ErrHostingNotStarted):
		return "HostingNotStarted"
	case errors.Is(err, matchmaker.ErrPlayerNotAllowedToStart):
		return "PlayerNotAllowedToStart"
	default:
		return "Internal"
	}
}
