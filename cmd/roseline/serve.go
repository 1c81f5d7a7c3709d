package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/doumanash/roseline/internal/config"
	"github.com/doumanash/roseline/internal/supervisor"
)

func serveCmd() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the store worker pool, remote client, and admin HTTP surface",
		RunE: func(cmd *cobra.Command, args []string) error {
			zerolog.TimeFieldFormat = time.RFC3339Nano
			log.Logger = log.With().Str("service", "roseline").Logger()
			if env("ENV", "") == "dev" {
				log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
			}

			cfg, err := config.Load()
			if err != nil {
				log.Fatal().Err(err).Msg("failed to load roseline.toml")
			}

			sup := supervisor.New(cfg, log.Logger)
			if err := sup.Start(); err != nil {
				log.Fatal().Err(err).Msg("failed to start supervisor")
			}
			log.Info().Str("addr", cfg.HTTP.Addr).Int("workers", cfg.Workers).Msg("roseline started")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Info().Str("signal", sig.String()).Msg("shutdown signal received")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return sup.Stop(ctx)
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "grace period for in-flight HTTP requests")
	return cmd
}
