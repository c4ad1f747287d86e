package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Open the configured store and verify it is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("pinging %s: %w", cfg.Path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", cfg.Path)
			return nil
		},
	}
}
