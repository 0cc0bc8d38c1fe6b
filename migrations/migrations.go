// Package migrations holds the schema for the nodes table and applies it with golang-migrate.
// Each supported database has its own directory of numbered up/down SQL files.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql sqlite3/*.sql
var files embed.FS

// Dialect names a database engine and its migration directory
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// newMigrate builds a migrator for db using the embedded files of the dialect.
// The returned instance is not closed by callers: closing the sqlite3 driver would close db.
func newMigrate(dialect Dialect, db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(files, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("error opening migration files: %w", err)
	}

	var driver database.Driver
	switch dialect {
	case Postgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case SQLite:
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(dialect), driver)
	if err != nil {
		return nil, fmt.Errorf("error creating migration instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies all pending migrations
func RunMigrations(dialect Dialect, db *sql.DB) error {
	m, err := newMigrate(dialect, db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running migrations: %w", err)
	}
	return nil
}

// RollbackMigration rolls back the last applied migration
func RollbackMigration(dialect Dialect, db *sql.DB) error {
	m, err := newMigrate(dialect, db)
	if err != nil {
		return err
	}

	if _, _, err := m.Version(); err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return fmt.Errorf("no migrations to rollback")
		}
		return fmt.Errorf("error querying last migration: %w", err)
	}

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("error rolling back migration: %w", err)
	}
	return nil
}

// Version returns the current schema version and whether it is dirty
func Version(dialect Dialect, db *sql.DB) (uint, bool, error) {
	m, err := newMigrate(dialect, db)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
