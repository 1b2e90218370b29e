/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Seednode/matchfabric/internal/config"
)

const envPrefix = "MATCHFABRIC_STATEAPI"

// Config is stateapi's flag/env surface: config.Shared plus the HTTP
// bind/port pair every matchfabric HTTP binary carries, following
// partybox's Config.bind/Config.port fields.
type Config struct {
	config.Shared

	bind    string
	port    int
	prefix  string
	profile bool
}

func newCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stateapi",
		Short:         "HTTP query API over the matchmaking state store, plus an authorized leave-match route.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			return Serve(cmd.Context(), cfg)
		},
	}

	v := config.BindShared(cmd, envPrefix, &cfg.Shared)

	fs := cmd.Flags()
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", fmt.Sprintf("address to bind to (env: %s_BIND)", envPrefix))
	fs.IntVarP(&cfg.port, "port", "p", 8082, fmt.Sprintf("port to listen on (env: %s_PORT)", envPrefix))
	fs.StringVar(&cfg.prefix, "prefix", "", fmt.Sprintf("path to prepend to all routes (env: %s_PREFIX)", envPrefix))
	fs.BoolVar(&cfg.profile, "profile", false, fmt.Sprintf("register net/http/pprof handlers (env: %s_PROFILE)", envPrefix))

	config.ApplyEnv(fs, v)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceUsage = true

	return cmd
}
