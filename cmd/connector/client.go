/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/matchmaker"
)

var errUnknownEvent = errors.New("unknown event type")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client is one connected player's socket, pairing a matchmaker.Session
// with the send/readPump/writePump plumbing of celebrity.go's Client,
// adapted from a shared-room broadcaster to a single per-connection
// session with its own one-shot match notification.
type client struct {
	conn    *websocket.Conn
	send    chan any
	session *matchmaker.Session
	logger  *logging.Logger
}

func newClient(conn *websocket.Conn, session *matchmaker.Session, logger *logging.Logger) *client {
	return &client{
		conn:    conn,
		send:    make(chan any, 8),
		session: session,
		logger:  logger,
	}
}

// serve runs the client's three concurrent loops and blocks until the
// socket closes, cleaning up any outstanding searcher/join/notification
// state on the way out (§4.3's disconnect handling).
func (c *client) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.notifyLoop(ctx)
	}()

	go c.writePump()

	c.readPump(ctx)

	cancel()
	wg.Wait()
	c.cleanup()
	close(c.send)
}

func (c *client) readPump(ctx context.Context) {
	defer c.conn.Close()

	for {
		var evt inboundEvent
		if err := c.conn.ReadJSON(&evt); err != nil {
			return
		}

		c.dispatch(ctx, evt)
	}
}

func (c *client) dispatch(ctx context.Context, evt inboundEvent) {
	switch evt.Type {
	case "search":
		c.handleSearch(ctx, evt)
	case "host":
		c.handleHost(ctx, evt)
	case "join":
		c.handleJoin(ctx, evt)
	case "start":
		c.handleStart(ctx)
	case "stop_search":
		c.handleStopSearch(ctx)
	default:
		c.emit(newErrorEvent(errUnknownEvent))
	}
}

func (c *client) handleSearch(ctx context.Context, evt inboundEvent) {
	note, err := c.session.HandleSearch(ctx, matchmaker.SearchRequest{
		SessionToken:   evt.SessionToken,
		Region:         evt.Region,
		Game:           evt.Game,
		Mode:           evt.Mode,
		AllowReconnect: evt.AllowReconnect,
	})
	if err != nil {
		c.logger.Errorf("search: %v", err)
		c.emit(newErrorEvent(err))

		return
	}
	if note != nil {
		c.emit(newMatchEvent(*note))
	}
}

func (c *client) handleHost(ctx context.Context, evt inboundEvent) {
	token, err := c.session.HandleHost(ctx, matchmaker.HostSpec{
		SessionToken: evt.SessionToken,
		Region:       evt.Region,
		Game:         evt.Game,
		Mode:         evt.Mode,
		Public:       evt.Public,
	})
	if err != nil {
		// PlayerAlreadyHostingError still carries the player's existing
		// join_token (§4.3): surface it as host_info, not a bare error.
		var alreadyHosting *matchmaker.PlayerAlreadyHostingError
		if errors.As(err, &alreadyHosting) {
			c.emit(hostInfoEvent{Type: "host_info", HostID: alreadyHosting.HostID, JoinToken: token})

			return
		}

		c.logger.Errorf("host: %v", err)
		c.emit(newErrorEvent(err))

		return
	}

	c.emit(hostInfoEvent{Type: "host_info", JoinToken: token})
}

func (c *client) handleJoin(ctx context.Context, evt inboundEvent) {
	var err error
	if evt.HostID != "" {
		err = c.session.HandleJoinPub(ctx, evt.SessionToken, evt.HostID)
	} else {
		err = c.session.HandleJoinPriv(ctx, evt.SessionToken, evt.JoinToken)
	}
	if err != nil {
		c.logger.Errorf("join: %v", err)
		c.emit(newErrorEvent(err))
	}
}

func (c *client) handleStart(ctx context.Context) {
	if err := c.session.HandleStart(ctx); err != nil {
		c.logger.Errorf("start: %v", err)
		c.emit(newErrorEvent(err))
	}
}

func (c *client) handleStopSearch(ctx context.Context) {
	c.session.CancelNotification()

	if err := c.session.RemoveSearcher(ctx); err != nil {
		c.logger.Errorf("stop_search: %v", err)
	}
}

// notifyLoop watches the session's currently-registered notification
// channel for an async match delivery, re-checking periodically since a
// new channel may be opened (by search/host/join) after this loop starts
// waiting on an old, now-stale one.
func (c *client) notifyLoop(ctx context.Context) {
	const pollInterval = 250 * time.Millisecond

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var current <-chan matchmaker.MatchNotification

	for {
		if current == nil {
			current = c.session.Notifications()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if current == nil {
				current = c.session.Notifications()
			}
		case note, ok := <-current:
			if !ok {
				current = nil

				continue
			}

			c.session.Reset()
			c.emit(newMatchEvent(note))
			current = nil
		}
	}
}

func (c *client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *client) emit(msg any) {
	select {
	case c.send <- msg:
	default:
		c.logger.Errorf("dropping outbound message, client send buffer full")
	}
}

func (c *client) cleanup() {
	ctx := context.Background()

	c.session.CancelNotification()

	if err := c.session.RemoveSearcher(ctx); err != nil {
		c.logger.Errorf("disconnect cleanup (searcher): %v", err)
	}
	if err := c.session.RemoveJoiner(ctx); err != nil {
		c.logger.Errorf("disconnect cleanup (joiner): %v", err)
	}
}
