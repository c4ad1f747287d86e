// Package cli implements the crudset command-line interface: small
// operational commands around the SQLite store (version, ping,
// export, import).
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/crudset/internal/paths"
	"github.com/mesh-intelligence/crudset/internal/sqlite"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configFile string
	database   string
}

var flags rootFlags

// NewRootCmd creates the top-level "crudset" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "crudset",
		Short: "Field-level access control and query assembly over a SQL store",
		Long: "Crudset composes read policies, write sanitization pipelines, and\n" +
			"scoped CRUD operations over a relational store. This CLI provides\n" +
			"operational commands around the SQLite store backend.",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "store configuration file")
	root.PersistentFlags().StringVar(&flags.database, "database", "", "database file (overrides configuration)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newPingCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newImportCmd())

	return root
}

// openStore resolves configuration and opens the SQLite store. The
// database path follows flag > config file > environment > default.
func openStore() (*sqlite.Store, sqlite.Config, error) {
	file, err := paths.ResolveConfigFile(flags.configFile)
	if err != nil {
		return nil, sqlite.Config{}, err
	}
	cfg, err := sqlite.LoadConfig(file)
	if err != nil {
		return nil, sqlite.Config{}, err
	}

	configured := ""
	if file != "" {
		configured = cfg.Path
	}
	cfg.Path, err = paths.ResolveDatabase(flags.database, configured)
	if err != nil {
		return nil, sqlite.Config{}, err
	}

	store, err := sqlite.OpenConfig(cfg)
	if err != nil {
		return nil, sqlite.Config{}, err
	}
	return store, cfg, nil
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
	os.Exit(exitSuccess)
}
