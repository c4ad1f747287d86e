package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/crudset/pkg/crudset"
)

const modulePath = "github.com/mesh-intelligence/crudset"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the crudset version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "crudset v%s\nmodule: %s\n", crudset.Version, modulePath)
			return nil
		},
	}
}
