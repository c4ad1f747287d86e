package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <table> <file>",
		Short: "Dump a table to a JSONL file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tableName, file := args[0], args[1]

			store, _, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			table, err := store.Introspect(cmd.Context(), tableName)
			if err != nil {
				return err
			}
			if err := store.DumpJSONL(cmd.Context(), table, file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", tableName, file)
			return nil
		},
	}
}
