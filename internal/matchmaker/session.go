/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package matchmaker

import (
	"context"
	"sync"
	"time"

	"github.com/Seednode/matchfabric/internal/authclient"
	"github.com/Seednode/matchfabric/internal/ids"
	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/ranking"
	"github.com/Seednode/matchfabric/internal/state"
)

// Deps are the collaborators a Session needs to resolve the client-facing
// operations of §4.3. They are passed in explicitly rather than held as
// process-wide singletons, per §9's "Global lazy singletons" design note.
type Deps struct {
	Auth          *authclient.Client
	Ranking       *ranking.Client
	Backend       state.Backend
	GameServers   *state.Store[state.GameServer]
	HostRequests  *state.Store[state.HostRequest]
	Searchers     *state.Store[state.Searcher]
	ActiveMatches *state.Store[state.ActiveMatch]
	Notifier      *Notifier
	Logger        *logging.Logger
}

// SearchRequest is the inbound "search" event payload.
type SearchRequest struct {
	SessionToken   string
	Region         string
	Game           string
	Mode           string
	AllowReconnect bool
}

// HostSpec is the inbound "host" event payload.
type HostSpec struct {
	SessionToken string
	Region       string
	Game         string
	Mode         string
	Public       bool
}

// Session owns one connected client's matchmaking state - the
// {search_info?, profile?, search_id?} triple of §4.3 - mutated under a
// single lock so concurrent socket callbacks never interleave, matching
// celebrity.go's Hub.mu-guarded session fields.
type Session struct {
	deps Deps

	mu         sync.Mutex
	profile    *authclient.Profile
	searcherID string
	hostID     string
	joinedHost string // id of a HostRequest this session joined but does not own
	notifyCh   <-chan MatchNotification
}

// Notifications returns the channel the session's most recent Register
// call opened, or nil if none is pending. The connector's per-connection
// goroutine selects on this alongside the socket's read loop to implement
// notifyMatchFound's async delivery path (§4.3).
func (s *Session) Notifications() <-chan MatchNotification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.notifyCh
}

// register opens a one-shot notification slot for playerID and remembers
// the channel so Notifications can hand it to the caller. Caller must
// hold s.mu.
func (s *Session) register(playerID string) {
	s.notifyCh = s.deps.Notifier.Register(playerID)
}

func NewSession(deps Deps) *Session {
	return &Session{deps: deps}
}

// authorize performs the first successful profile lookup and memoizes it
// for the life of the session, per §4.3's "Authorization caching".
func (s *Session) authorize(ctx context.Context, sessionToken string) (authclient.Profile, error) {
	if s.profile != nil {
		return *s.profile, nil
	}

	p, err := s.deps.Auth.Validate(ctx, sessionToken)
	if err != nil {
		return authclient.Profile{}, ErrPlayerUnauthorized
	}

	s.profile = &p

	return p, nil
}

// HandleSearch implements §4.3's handleSearch. On success it registers the
// player for one-shot match delivery via Notifier; the caller reads
// further match|error events from the same channel it used to invoke
// this.
func (s *Session) HandleSearch(ctx context.Context, req SearchRequest) (*MatchNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.authorize(ctx, req.SessionToken)
	if err != nil {
		return nil, err
	}

	if req.AllowReconnect {
		_, am, found, err := state.FindActiveMatchByPlayer(ctx, s.deps.ActiveMatches, profile.ID)
		if err != nil {
			return nil, err
		}
		if found {
			// Open Question decision (SPEC_FULL §D): reconnecting onto an
			// active match also clears any stale Searcher row.
			if id, _, searcherFound, err := state.FindSearcherByPlayer(ctx, s.deps.Searchers, profile.ID); err == nil && searcherFound {
				_ = s.deps.Searchers.Remove(ctx, id)
			}

			return &MatchNotification{
				Address: am.ServerPub,
				Read:    am.Read,
				Write:   am.PlayerWrite[profile.ID],
				Players: playerWriteKeys(am.PlayerWrite),
				Game:    am.Game,
				Mode:    am.Mode,
			}, nil
		}
	}

	server, ok, err := state.FindHealthy(ctx, s.deps.GameServers, req.Game, req.Mode, req.Region)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoServerOnline
	}

	elo := s.deps.Ranking.Elo(ctx, profile.ID, req.Game, req.Mode)

	if id, _, found, err := state.FindSearcherByPlayer(ctx, s.deps.Searchers, profile.ID); err != nil {
		return nil, err
	} else if found {
		s.searcherID = id
		s.register(profile.ID)

		return nil, nil
	}

	id, err := s.deps.Searchers.InsertTTL(ctx, state.Searcher{
		PlayerID:   profile.ID,
		Elo:        elo,
		Game:       req.Game,
		Mode:       req.Mode,
		Region:     req.Region,
		MinPlayers: server.MinPlayers,
		MaxPlayers: server.MaxPlayers,
		WaitStart:  time.Now(),
	}, state.DefaultSearcherTTL)
	if err != nil {
		return nil, err
	}

	s.searcherID = id
	s.register(profile.ID)

	return nil, nil
}

// HandleHost implements §4.3's handleHost.
func (s *Session) HandleHost(ctx context.Context, req HostSpec) (joinToken string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.authorize(ctx, req.SessionToken)
	if err != nil {
		return "", err
	}

	server, ok, err := state.FindHealthy(ctx, s.deps.GameServers, req.Game, req.Mode, req.Region)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoServerOnline
	}

	if id, existing, found, err := state.FindHostByPlayer(ctx, s.deps.HostRequests, profile.ID); err != nil {
		return "", err
	} else if found {
		s.hostID = id

		return existing.JoinToken, &PlayerAlreadyHostingError{HostID: id}
	}

	token := ""
	if !req.Public {
		token = ids.New()
	}

	id, err := s.deps.HostRequests.InsertTTL(ctx, state.HostRequest{
		PlayerID:      profile.ID,
		Game:          req.Game,
		Mode:          req.Mode,
		Region:        req.Region,
		JoinToken:     token,
		JoinedPlayers: []string{profile.ID},
		MinPlayers:    server.MinPlayers,
		MaxPlayers:    server.MaxPlayers,
		WaitStart:     time.Now(),
	}, state.DefaultSearcherTTL)
	if err != nil {
		return "", err
	}

	s.hostID = id
	s.register(profile.ID)

	return token, nil
}

// HandleJoinPub implements §4.3's handleJoinPub.
func (s *Session) HandleJoinPub(ctx context.Context, sessionToken, hostID string) error {
	profile, err := s.authorizeLocked(ctx, sessionToken)
	if err != nil {
		return err
	}

	host, found, err := s.deps.HostRequests.Get(ctx, hostID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoServerFound
	}

	return s.join(ctx, hostID, host, profile)
}

// HandleJoinPriv implements §4.3's handleJoinPriv.
func (s *Session) HandleJoinPriv(ctx context.Context, sessionToken, joinToken string) error {
	profile, err := s.authorizeLocked(ctx, sessionToken)
	if err != nil {
		return err
	}

	if joinToken == "" {
		return ErrInvalidJoinToken
	}

	hostID, host, found, err := state.FindByJoinToken(ctx, s.deps.HostRequests, joinToken)
	if err != nil {
		return err
	}
	if !found {
		return ErrInvalidJoinToken
	}

	return s.join(ctx, hostID, host, profile)
}

func (s *Session) authorizeLocked(ctx context.Context, sessionToken string) (authclient.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.authorize(ctx, sessionToken)
}

func (s *Session) join(ctx context.Context, hostID string, host state.HostRequest, profile authclient.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if host.StartRequested {
		return ErrMatchAlreadyStarted
	}
	if host.Full() {
		return ErrMatchIsFull
	}
	for _, p := range host.JoinedPlayers {
		if p == profile.ID {
			return ErrPlayerAlreadyJoined
		}
	}

	host.JoinedPlayers = append(host.JoinedPlayers, profile.ID)

	if err := s.deps.HostRequests.Update(ctx, hostID, host); err != nil {
		return err
	}

	s.joinedHost = hostID
	s.register(profile.ID)

	if host.Full() {
		return s.start(ctx, hostID, host)
	}

	return nil
}

// HandleStart implements §4.3's handleStart.
func (s *Session) HandleStart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hostID := s.hostID
	if hostID == "" {
		return ErrPlayerNotAllowedToStart
	}

	host, found, err := s.deps.HostRequests.Get(ctx, hostID)
	if err != nil {
		return err
	}
	if !found {
		return ErrHostingNotStarted
	}

	return s.start(ctx, hostID, host)
}

// start mutates start_requested=true and publishes the shard messages C2
// consumes. Caller must hold s.mu.
func (s *Session) start(ctx context.Context, hostID string, host state.HostRequest) error {
	if host.StartRequested {
		return ErrMatchAlreadyStarted
	}
	if !host.Ready() {
		return ErrNotEnoughPlayers
	}

	host.StartRequested = true
	if err := s.deps.HostRequests.Update(ctx, hostID, host); err != nil {
		return err
	}

	// AI is never true for host-originated matches: every joined_players
	// entry is a human player by construction of §4.3's join flow.
	return state.PublishMatchShard(ctx, s.backendOf(), hostID, host.Region, host.Mode, host.Game, false, host.JoinedPlayers)
}

// backendOf exposes the shared Backend for shard publication: start is the
// host-originated producer side of the contract state.PublishMatchShard
// also serves from state.MatchingEngine (SPEC_FULL §C.1).
func (s *Session) backendOf() state.Backend {
	return s.deps.Backend
}

// RemoveSearcher implements §4.3's removeSearcher, used on disconnect.
func (s *Session) RemoveSearcher(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.searcherID == "" {
		return nil
	}

	id := s.searcherID
	s.searcherID = ""

	return s.deps.Searchers.Remove(ctx, id)
}

// RemoveJoiner implements §4.3's removeJoiner: splice the player out of
// joined_players without destroying the host request itself.
func (s *Session) RemoveJoiner(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.joinedHost == "" {
		return nil
	}

	hostID := s.joinedHost
	s.joinedHost = ""

	host, found, err := s.deps.HostRequests.Get(ctx, hostID)
	if err != nil || !found {
		return err
	}

	if s.profile == nil {
		return nil
	}

	filtered := host.JoinedPlayers[:0]
	for _, p := range host.JoinedPlayers {
		if p != s.profile.ID {
			filtered = append(filtered, p)
		}
	}
	host.JoinedPlayers = filtered

	return s.deps.HostRequests.Update(ctx, hostID, host)
}

// Reset clears all per-connection state, used after match delivery.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searcherID = ""
	s.hostID = ""
	s.joinedHost = ""
	s.notifyCh = nil
}

// CancelNotification drops a still-pending Notifier registration, used on
// disconnect or handleStopSearch so a later Deliver for this player finds
// no one listening instead of leaking a buffered channel.
func (s *Session) CancelNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil {
		return
	}

	s.deps.Notifier.Cancel(s.profile.ID)
	s.notifyCh = nil
}

// PlayerID reports the authorized player id for this session, or "" if
// authorize has not yet succeeded.
func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.profile == nil {
		return ""
	}

	return s.profile.ID
}

func playerWriteKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}
