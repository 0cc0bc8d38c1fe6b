// Package cli implements the tree_diagram command-line interface.
//
// The serve command runs the HTTP API over a node store. The layout command
// lays out a JSON file of records offline and prints json, svg or dot. The
// migrate command applies, rolls back and reports the store schema.
// All of them accept --config to read a TOML file; keys missing from the file
// are read from the environment.
package cli

import (
	"context"
	"os"

	"github.com/ammiranda/tree_diagram/config"
	"github.com/ammiranda/tree_diagram/internal/logging"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Execute runs the tree_diagram CLI and returns an error if any command fails
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "tree_diagram",
		Short:        "Lay out trees of titled nodes and serve them over HTTP",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logLevel(verbose, os.Getenv("LOG_LEVEL"))
			if err != nil {
				return err
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logging.New(os.Stderr, level)))
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newLayoutCmd())
	root.AddCommand(newMigrateCmd())
	return root
}

// logLevel reads LOG_LEVEL; --verbose always selects debug
func logLevel(verbose bool, env string) (log.Level, error) {
	if verbose {
		return log.DebugLevel, nil
	}
	return logging.ParseLevel(env)
}

// configProvider returns the environment provider, layered under path when set
func configProvider(path string) (config.Provider, error) {
	env := config.NewEnvProvider("")
	if path == "" {
		return env, nil
	}
	return config.NewFileProvider(path, env)
}
