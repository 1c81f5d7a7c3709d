package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doumanash/roseline/internal/config"
	"github.com/doumanash/roseline/internal/store"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print catalogue counts from the local store without starting the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.Store.Path, 1)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer st.Close()

			stats, err := st.Stats()
			if err != nil {
				return fmt.Errorf("reading stats: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}
	return cmd
}
