/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import "github.com/Seednode/matchfabric/internal/matchmaker"

// Inbound events on the /match namespace (§6). Every field is optional at
// the JSON level; each handler only reads the ones its event needs.
type inboundEvent struct {
	Type           string `json:"type"`
	SessionToken   string `json:"session_token"`
	Region         string `json:"region"`
	Game           string `json:"game"`
	Mode           string `json:"mode"`
	AllowReconnect bool   `json:"allow_reconnect"`
	Public         bool   `json:"public"`
	HostID         string `json:"host_id"`
	JoinToken      string `json:"join_token"`
}

// matchEvent is the outbound "match" event, mirroring
// matchmaker.MatchNotification.
type matchEvent struct {
	Type    string   `json:"type"`
	Address string   `json:"address"`
	Read    string   `json:"read"`
	Write   string   `json:"write"`
	Players []string `json:"players"`
	Game    string   `json:"game"`
	Mode    string   `json:"mode"`
}

func newMatchEvent(n matchmaker.MatchNotification) matchEvent {
	return matchEvent{
		Type:    "match",
		Address: n.Address,
		Read:    n.Read,
		Write:   n.Write,
		Players: n.Players,
		Game:    n.Game,
		Mode:    n.Mode,
	}
}

// hostInfoEvent is the outbound "host_info" event, delivered on a
// successful handleHost or when a player re-hosts onto their existing
// HostRequest (§4.3's PlayerAlreadyHosting case).
type hostInfoEvent struct {
	Type      string `json:"type"`
	HostID    string `json:"host_id,omitempty"`
	JoinToken string `json:"join_token"`
}

// errorEvent is the outbound "error" event, carrying one of §7's closed
// taxonomy of error names.
type errorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorEvent(err error) errorEvent {
	return errorEvent{
		Type:    "error",
		Code:    errorCode(err),
		Message: err.Error(),
	}
}
