// serve.go: the serve subcommand.
//
// Copyright (c) 2025 EncryptX contributors
// SPDX-License-Identifier: MIT

package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Amitminer/EncryptX/internal/config"
	"github.com/Amitminer/EncryptX/internal/crypto"
	"github.com/Amitminer/EncryptX/internal/server"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Run the encrypt/decrypt HTTP API, configured from the environment.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := zerolog.New(os.Stderr).With().Timestamp().Logger()
			engine := crypto.NewEngine(crypto.WithKDFWorkers(cfg.KDFWorkers))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, engine, log).Run(ctx)
		},
	}
}
