package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "nodes.db")+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestSQLiteMigrations(t *testing.T) {
	db := openSQLite(t)

	version, dirty, err := Version(SQLite, db)
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	require.NoError(t, RunMigrations(SQLite, db))
	require.NoError(t, RunMigrations(SQLite, db), "re-running is a no-op")
	assert.True(t, tableExists(t, db, "nodes"))

	version, dirty, err = Version(SQLite, db)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	require.NoError(t, RollbackMigration(SQLite, db))
	version, _, err = Version(SQLite, db)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.True(t, tableExists(t, db, "nodes"))

	require.NoError(t, RollbackMigration(SQLite, db))
	assert.False(t, tableExists(t, db, "nodes"))

	err = RollbackMigration(SQLite, db)
	assert.ErrorContains(t, err, "no migrations to rollback")
}

func TestUnsupportedDialect(t *testing.T) {
	db := openSQLite(t)
	assert.Error(t, RunMigrations(Dialect("mysql"), db))
}
