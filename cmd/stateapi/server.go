/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/matchfabric/internal/authclient"
	"github.com/Seednode/matchfabric/internal/config"
	"github.com/Seednode/matchfabric/internal/logging"
	"github.com/Seednode/matchfabric/internal/state"
)

const logTag = "STATEAPI"

// api holds the store handles §6's read-API routes serve over - the same
// Store handles C1 exposes to every other component, never a shadow
// cache (§5).
type api struct {
	auth          *authclient.Client
	gameServers   *state.Store[state.GameServer]
	hostRequests  *state.Store[state.HostRequest]
	activeMatches *state.Store[state.ActiveMatch]
	aiPlayers     *state.Store[state.AIPlayer]
	logger        *logging.Logger
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{Error: msg})
}

func (a *api) listGameServers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()

	servers, err := a.gameServers.Filter(r.Context(), func(gs state.GameServer) bool {
		return matches(q, "region", gs.Region) && matches(q, "game", gs.Game) && matches(q, "mode", gs.Mode)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, servers)
}

func (a *api) listHostRequests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()

	hosts, err := a.hostRequests.Filter(r.Context(), func(h state.HostRequest) bool {
		return matches(q, "region", h.Region) && matches(q, "game", h.Game) && matches(q, "mode", h.Mode)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, hosts)
}

func (a *api) listAIPlayers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()

	players, err := a.aiPlayers.Filter(r.Context(), func(p state.AIPlayer) bool {
		return matches(q, "game", p.Game) && matches(q, "mode", p.Mode)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, players)
}

func (a *api) listActiveMatches(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()

	ms, err := a.activeMatches.Filter(r.Context(), func(m state.ActiveMatch) bool {
		return matches(q, "region", m.Region) && matches(q, "game", m.Game) && matches(q, "mode", m.Mode)
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	writeJSON(w, http.StatusOK, ms)
}

func (a *api) getActiveMatch(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	m, found, err := a.activeMatches.Get(r.Context(), p.ByName("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "active match not found")

		return
	}

	writeJSON(w, http.StatusOK, m)
}

// getWriteToken implements "GET /active-matches/{read}/{session_token}":
// authorize the caller, resolve the ActiveMatch by its read token, and
// return only that player's write token (§6).
func (a *api) getWriteToken(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	profile, _, m, ok := a.authorizeAgainstMatch(w, r, p)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Write string `json:"write"`
	}{Write: m.PlayerWrite[profile.ID]})
}

// leaveActiveMatch implements "DELETE /active-matches/{read}/{session_token}":
// remove the caller from the match's player_write map, deleting the match
// entirely once no players remain.
func (a *api) leaveActiveMatch(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	profile, id, m, ok := a.authorizeAgainstMatch(w, r, p)
	if !ok {
		return
	}

	delete(m.PlayerWrite, profile.ID)

	if len(m.PlayerWrite) == 0 {
		if err := a.activeMatches.Remove(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())

			return
		}
	} else if err := a.activeMatches.Update(r.Context(), id, m); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *api) authorizeAgainstMatch(w http.ResponseWriter, r *http.Request, p httprouter.Params) (authclient.Profile, string, state.ActiveMatch, bool) {
	profile, err := a.auth.Validate(r.Context(), p.ByName("session_token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "player unauthorized")

		return authclient.Profile{}, "", state.ActiveMatch{}, false
	}

	id, m, found, err := state.FindByRead(r.Context(), a.activeMatches, p.ByName("read"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())

		return authclient.Profile{}, "", state.ActiveMatch{}, false
	}
	if !found {
		writeError(w, http.StatusNotFound, "active match not found")

		return authclient.Profile{}, "", state.ActiveMatch{}, false
	}
	if _, ok := m.PlayerWrite[profile.ID]; !ok {
		writeError(w, http.StatusForbidden, "player not in match")

		return authclient.Profile{}, "", state.ActiveMatch{}, false
	}

	return profile, id, m, true
}

// matches reports whether query parameter key is unset, or set and equal
// to value - the query-string filter surface of §6's "[?filter]" routes.
func matches(q map[string][]string, key, value string) bool {
	vals, ok := q[key]
	if !ok || len(vals) == 0 {
		return true
	}

	return vals[0] == value
}

func serveHealthCheck(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func serveVersion(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("matchfabric-stateapi v" + releaseVersion + "\n"))
}

func registerProfileHandlers(prefix string, mux *httprouter.Router) {
	mux.Handler("GET", prefix+"/pprof/allocs", pprof.Handler("allocs"))
	mux.Handler("GET", prefix+"/pprof/block", pprof.Handler("block"))
	mux.Handler("GET", prefix+"/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handler("GET", prefix+"/pprof/heap", pprof.Handler("heap"))
	mux.Handler("GET", prefix+"/pprof/mutex", pprof.Handler("mutex"))
	mux.Handler("GET", prefix+"/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.HandlerFunc("GET", prefix+"/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc("GET", prefix+"/pprof/profile", pprof.Profile)
	mux.HandlerFunc("GET", prefix+"/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc("GET", prefix+"/pprof/trace", pprof.Trace)
}

// Serve wires the store and auth client, then runs the HTTP server,
// matching web.go's ServePage background-listener/bounded-shutdown shape.
func Serve(ctx context.Context, cfg *Config) error {
	logger := logging.New(logTag, cfg.Verbose)

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	backend, err := state.NewRedisBackend(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer backend.Close()

	a := &api{
		auth:          authclient.New(cfg.EZAuthURL),
		gameServers:   state.NewGameServerStore(backend),
		hostRequests:  state.NewHostRequestStore(backend),
		activeMatches: state.NewActiveMatchStore(backend),
		aiPlayers:     state.NewAIPlayerStore(backend),
		logger:        logger,
	}

	mux := httprouter.New()

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck)
	mux.GET(cfg.prefix+"/version", serveVersion)
	mux.GET(cfg.prefix+"/game-servers", a.listGameServers)
	mux.GET(cfg.prefix+"/host-requests", a.listHostRequests)
	mux.GET(cfg.prefix+"/ai-players", a.listAIPlayers)
	mux.GET(cfg.prefix+"/active-matches", a.listActiveMatches)
	mux.GET(cfg.prefix+"/active-matches/:id", a.getActiveMatch)
	mux.GET(cfg.prefix+"/active-matches/:read/:session_token", a.getWriteToken)
	mux.DELETE(cfg.prefix+"/active-matches/:read/:session_token", a.leaveActiveMatch)

	if cfg.profile {
		registerProfileHandlers(cfg.prefix, mux)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       config.DefaultTimeout,
		ReadHeaderTimeout: config.DefaultTimeout,
		WriteTimeout:      config.DefaultTimeout,
	}

	go func() {
		logger.Printf("listening on http://%s%s/", srv.Addr, cfg.prefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("listen: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

const releaseVersion = "0.1.0"
