package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ammiranda/tree_diagram/migrations"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db     *sql.DB
	dbPath string
}

// DefaultSQLitePath returns the database file used when no path is given
func DefaultSQLitePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	dataDir := filepath.Join(homeDir, ".tree_diagram")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		// Fallback to current directory if home directory is not accessible
		dataDir = "."
	}
	return filepath.Join(dataDir, "nodes.db")
}

// NewSQLiteRepository creates a new SQLite repository stored at dbPath.
// An empty path selects DefaultSQLitePath.
func NewSQLiteRepository(dbPath string) *SQLiteRepository {
	if dbPath == "" {
		dbPath = DefaultSQLitePath()
	}
	return &SQLiteRepository{
		dbPath: dbPath,
	}
}

// OpenSQLite opens the database file at dbPath with foreign keys enabled.
// An empty path selects DefaultSQLitePath. No migrations are applied.
func OpenSQLite(ctx context.Context, dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		dbPath = DefaultSQLitePath()
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return db, nil
}

// Initialize opens the SQLite database and applies the schema
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	db, err := OpenSQLite(ctx, r.dbPath)
	if err != nil {
		return err
	}

	if err := migrations.RunMigrations(migrations.SQLite, db); err != nil {
		db.Close()
		return err
	}

	// A single connection avoids "database is locked" errors on concurrent writes
	db.SetMaxOpenConns(1)

	r.db = db
	return nil
}

// Cleanup closes the database connection
func (r *SQLiteRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateNode creates a new node in the database
func (r *SQLiteRepository) CreateNode(ctx context.Context, title string, parentID *int64) (int64, error) {
	if title == "" {
		return 0, ErrInvalidInput
	}

	if parentID != nil {
		exists, err := r.nodeExists(ctx, *parentID)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, ErrNodeNotFound
		}
	}

	result, err := r.db.ExecContext(ctx, "INSERT INTO nodes (title, parent_id) VALUES (?, ?)", title, parentID)
	if err != nil {
		return 0, fmt.Errorf("error creating node: %w", err)
	}
	return result.LastInsertId()
}

// GetNode retrieves a node by ID
func (r *SQLiteRepository) GetNode(ctx context.Context, id int64) (*Node, error) {
	var node Node
	var parentID sql.NullInt64
	err := r.db.QueryRowContext(ctx, "SELECT id, title, parent_id FROM nodes WHERE id = ?", id).
		Scan(&node.ID, &node.Title, &parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("error getting node: %w", err)
	}
	if parentID.Valid {
		node.ParentID = &parentID.Int64
	}
	return &node, nil
}

// GetAllNodes retrieves all nodes from the database
func (r *SQLiteRepository) GetAllNodes(ctx context.Context) ([]*Node, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, title, parent_id FROM nodes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("error getting all nodes: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// UpdateNode updates a node's title and parent
func (r *SQLiteRepository) UpdateNode(ctx context.Context, id int64, title string, parentID *int64) error {
	if title == "" {
		return ErrInvalidInput
	}

	if parentID != nil {
		exists, err := r.nodeExists(ctx, *parentID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNodeNotFound
		}
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE nodes SET title = ?, parent_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		title, parentID, id,
	)
	if err != nil {
		return fmt.Errorf("error updating node: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNodeNotFound
	}
	return nil
}

// DeleteNode deletes a node and its descendants
func (r *SQLiteRepository) DeleteNode(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, deleteSubtreeQuery("?"), id)
	if err != nil {
		return fmt.Errorf("error deleting node: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNodeNotFound
	}
	return nil
}

func (r *SQLiteRepository) nodeExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM nodes WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking node: %w", err)
	}
	return exists, nil
}
