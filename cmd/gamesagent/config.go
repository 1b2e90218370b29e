/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Seednode/matchfabric/internal/config"
)

const envPrefix = "MATCHFABRIC_GAMESAGENT"

// Config is gamesagent's flag/env surface: config.Shared plus the
// SearcherMatchConfig knobs of SPEC_FULL §C.2.
type Config struct {
	config.Shared

	maxEloDiff             int
	waitTimeToEloFactor    float64
	waitTimeToServerFactor float64
}

func newCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gamesagent",
		Short:         "Consumes game-server/match lifecycle events and mutates matchmaking state.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			return Run(cmd.Context(), cfg)
		},
	}

	v := config.BindShared(cmd, envPrefix, &cfg.Shared)

	fs := cmd.Flags()
	fs.IntVar(&cfg.maxEloDiff, "max-elo-diff", 100, fmt.Sprintf("base acceptable elo gap between matched players (env: %s_MAX_ELO_DIFF)", envPrefix))
	fs.Float64Var(&cfg.waitTimeToEloFactor, "wait-time-to-elo-factor", 5, fmt.Sprintf("elo points the acceptable gap widens per second waited (env: %s_WAIT_TIME_TO_ELO_FACTOR)", envPrefix))
	fs.Float64Var(&cfg.waitTimeToServerFactor, "wait-time-to-server-factor", 0.5, fmt.Sprintf("fraction of the searcher TTL to wait before backfilling with AI players (env: %s_WAIT_TIME_TO_SERVER_FACTOR)", envPrefix))

	config.ApplyEnv(fs, v)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceUsage = true

	return cmd
}
