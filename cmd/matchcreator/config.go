/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"github.com/spf13/cobra"

	"github.com/Seednode/matchfabric/internal/config"
)

const envPrefix = "MATCHFABRIC_MATCHCREATOR"

// Config is matchcreator's flag/env surface: just config.Shared, since C2
// and C4 need nothing beyond the store and broker connections every
// binary shares.
type Config struct {
	config.Shared
}

func newCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "matchcreator",
		Short:         "Assembles match proposals from shard messages and dispatches CreateMatch requests.",
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

	config.ApplyEnv(cmd.Flags(), v)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SilenceUsage = true

	return cmd
}
