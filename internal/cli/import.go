package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <table> <file>",
		Short: "Load rows from a JSONL file into a table",
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
			n, err := store.LoadJSONL(cmd.Context(), table, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s\n", n, tableName)
			return nil
		},
	}
}
