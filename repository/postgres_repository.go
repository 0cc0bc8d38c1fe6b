package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ammiranda/tree_diagram/config"
	"github.com/ammiranda/tree_diagram/migrations"

	_ "github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db     *sql.DB
	config *config.DatabaseConfig
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfgProvider config.Provider) (*PostgresRepository, error) {
	cfg, err := config.GetDatabaseConfig(ctx, cfgProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to get database config: %w", err)
	}

	return &PostgresRepository{
		config: cfg,
	}, nil
}

// OpenPostgres connects to the database described by cfg without applying migrations
func OpenPostgres(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return db, nil
}

// Initialize connects to PostgreSQL and applies the schema
func (r *PostgresRepository) Initialize(ctx context.Context) error {
	db, err := OpenPostgres(ctx, r.config)
	if err != nil {
		return err
	}

	if err := migrations.RunMigrations(migrations.Postgres, db); err != nil {
		db.Close()
		return err
	}

	r.db = db
	return nil
}

// Cleanup closes the database connection
func (r *PostgresRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateNode creates a new node in the database
func (r *PostgresRepository) CreateNode(ctx context.Context, title string, parentID *int64) (int64, error) {
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

	var id int64
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO nodes (title, parent_id) VALUES ($1, $2) RETURNING id",
		title, parentID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error creating node: %w", err)
	}
	return id, nil
}

// GetNode retrieves a node by ID
func (r *PostgresRepository) GetNode(ctx context.Context, id int64) (*Node, error) {
	var node Node
	var parentID sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, parent_id FROM nodes WHERE id = $1",
		id,
	).Scan(&node.ID, &node.Title, &parentID)
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
func (r *PostgresRepository) GetAllNodes(ctx context.Context) ([]*Node, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, title, parent_id FROM nodes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("error getting all nodes: %w", err)
	}
	defer rows.Close()

	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// UpdateNode updates a node's title and parent
func (r *PostgresRepository) UpdateNode(ctx context.Context, id int64, title string, parentID *int64) error {
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
		"UPDATE nodes SET title = $1, parent_id = $2 WHERE id = $3",
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
func (r *PostgresRepository) DeleteNode(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, deleteSubtreeQuery("$1"), id)
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

// nodeExists checks if a node exists
func (r *PostgresRepository) nodeExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM nodes WHERE id = $1)",
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking node: %w", err)
	}
	return exists, nil
}

// deleteSubtreeQuery removes a node and everything below it in one statement.
// UNION rather than UNION ALL stops the walk on cyclic data.
func deleteSubtreeQuery(placeholder string) string {
	return `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM nodes WHERE id = ` + placeholder + `
			UNION
			SELECT n.id FROM nodes n
			INNER JOIN subtree s ON n.parent_id = s.id
		)
		DELETE FROM nodes WHERE id IN (SELECT id FROM subtree)`
}

func scanNodes(rows *sql.Rows) ([]*Node, error) {
	nodes := make([]*Node, 0)
	for rows.Next() {
		var node Node
		var parentID sql.NullInt64
		if err := rows.Scan(&node.ID, &node.Title, &parentID); err != nil {
			return nil, fmt.Errorf("error scanning node: %w", err)
		}
		if parentID.Valid {
			node.ParentID = &parentID.Int64
		}
		nodes = append(nodes, &node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}
	return nodes, nil
}
