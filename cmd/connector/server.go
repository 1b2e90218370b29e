/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
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
	"github.com/Seednode/matchfabric/internal/matchmaker"
	"github.com/Seednode/matchfabric/internal/ranking"
	"github.com/Seednode/matchfabric/internal/state"
)

const releaseVersion = "0.1.0"

func serveHealthCheck(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func serveVersion(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("matchfabric-connector v" + releaseVersion + "\n"))
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

// serveMatchSocket upgrades the connection and runs one client to
// completion, matching celebrities.go's serveWSForManager shape but
// without a shared per-room Hub: each connection owns an independent
// matchmaker.Session.
func serveMatchSocket(deps matchmaker.Deps, logger *logging.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Errorf("upgrade: %v", err)

			return
		}

		session := matchmaker.NewSession(deps)
		c := newClient(conn, session, logger)

		c.serve(r.Context())
	}
}

// Serve wires the store, auth client, ranking client, and notifier, then
// runs the HTTP/websocket server and the background Waiter that bridges
// ActiveMatch inserts to pending notifications, following web.go's
// background-listener/bounded-shutdown shape.
func Serve(ctx context.Context, cfg *Config) error {
	logger := logging.New("CONNECTOR", cfg.Verbose)

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	backend, err := state.NewRedisBackend(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer backend.Close()

	notifier := matchmaker.NewNotifier()
	activeMatches := state.NewActiveMatchStore(backend)

	deps := matchmaker.Deps{
		Auth:          authclient.New(cfg.EZAuthURL),
		Ranking:       ranking.New(cfg.RankingURL, cfg.RankingKey),
		Backend:       backend,
		GameServers:   state.NewGameServerStore(backend),
		HostRequests:  state.NewHostRequestStore(backend),
		Searchers:     state.NewSearcherStore(backend),
		ActiveMatches: activeMatches,
		Notifier:      notifier,
		Logger:        logger,
	}

	waiter := matchmaker.NewWaiter(activeMatches, notifier, logging.New("WAITER", cfg.Verbose))

	mux := httprouter.New()

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck)
	mux.GET(cfg.prefix+"/version", serveVersion)
	mux.GET(cfg.prefix+"/match", serveMatchSocket(deps, logger))

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

	errs := make(chan error, 2)

	go func() {
		errs <- waiter.Run(ctx)
	}()

	go func() {
		logger.Printf("listening on http://%s%s/", srv.Addr, cfg.prefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err

			return
		}
		errs <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errs:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("%v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
