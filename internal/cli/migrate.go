package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ammiranda/tree_diagram/config"
	"github.com/ammiranda/tree_diagram/internal/logging"
	"github.com/ammiranda/tree_diagram/migrations"
	"github.com/ammiranda/tree_diagram/repository"

	"github.com/spf13/cobra"
)

type migrateOpts struct {
	store      string
	dbPath     string
	configPath string
}

func newMigrateCmd() *cobra.Command {
	var opts migrateOpts

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the node store schema",
	}
	cmd.PersistentFlags().StringVar(&opts.store, "store", "sqlite", "node store: postgres or sqlite")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "sqlite database file (default ~/.tree_diagram/nodes.db)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "TOML config file")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSchema(cmd.Context(), opts, func(dialect migrations.Dialect, db *sql.DB) error {
				if err := migrations.RunMigrations(dialect, db); err != nil {
					return err
				}
				return printVersion(cmd, dialect, db)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSchema(cmd.Context(), opts, func(dialect migrations.Dialect, db *sql.DB) error {
				if err := migrations.RollbackMigration(dialect, db); err != nil {
					return err
				}
				return printVersion(cmd, dialect, db)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSchema(cmd.Context(), opts, func(dialect migrations.Dialect, db *sql.DB) error {
				return printVersion(cmd, dialect, db)
			})
		},
	})
	return cmd
}

// withSchema opens the store's database without migrating it and runs fn on it
func withSchema(ctx context.Context, opts migrateOpts, fn func(migrations.Dialect, *sql.DB) error) error {
	var (
		dialect migrations.Dialect
		db      *sql.DB
		err     error
	)

	switch opts.store {
	case "sqlite":
		dialect = migrations.SQLite
		db, err = repository.OpenSQLite(ctx, opts.dbPath)
	case "postgres":
		dialect = migrations.Postgres
		var provider config.Provider
		if provider, err = configProvider(opts.configPath); err != nil {
			return err
		}
		var cfg *config.DatabaseConfig
		if cfg, err = config.GetDatabaseConfig(ctx, provider); err != nil {
			return err
		}
		db, err = repository.OpenPostgres(ctx, cfg)
	default:
		return fmt.Errorf("unknown store %q: must be postgres or sqlite", opts.store)
	}
	if err != nil {
		return err
	}
	defer db.Close()

	logging.FromContext(ctx).Debug("schema", "store", opts.store)
	return fn(dialect, db)
}

func printVersion(cmd *cobra.Command, dialect migrations.Dialect, db *sql.DB) error {
	version, dirty, err := migrations.Version(dialect, db)
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "%d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\n", version)
	return nil
}
