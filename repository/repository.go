package repository

import (
	"context"
	"errors"

	"github.com/ammiranda/tree_diagram/layout"
)

// Node represents a node in the tree structure
type Node struct {
	ID       int64  `json:"id"`       // Unique identifier for the node
	Title    string `json:"title"`    // Display title of the node
	ParentID *int64 `json:"parentId"` // Optional reference to the parent node's ID
}

// Record converts the node into a layout record
func (n *Node) Record() layout.Record {
	return layout.Record{ID: n.ID, Title: n.Title, ParentID: n.ParentID}
}

// Records converts nodes into layout records, keeping their order
func Records(nodes []*Node) []layout.Record {
	records := make([]layout.Record, len(nodes))
	for i, n := range nodes {
		records[i] = n.Record()
	}
	return records
}

// Repository defines the interface for data access operations.
// It provides methods for managing tree nodes in a persistent storage.
type Repository interface {
	// Initialize performs any necessary setup for the repository.
	// This may include establishing database connections, running migrations,
	// or any other initialization required for the repository to function.
	// Returns an error if initialization fails.
	Initialize(ctx context.Context) error

	// Cleanup performs any necessary cleanup operations for the repository.
	// Returns an error if cleanup fails.
	Cleanup(ctx context.Context) error

	// CreateNode creates a new node in the tree structure.
	// Parameters:
	//   - ctx: Context for the operation
	//   - title: The display title for the new node
	//   - parentID: Optional reference to the parent node's ID
	// Returns:
	//   - The ID of the newly created node
	//   - ErrNodeNotFound if the parent does not exist
	//   - ErrInvalidInput if the title is empty
	CreateNode(ctx context.Context, title string, parentID *int64) (int64, error)

	// GetNode retrieves a node by its ID.
	// Returns ErrNodeNotFound if no node exists with the given ID.
	GetNode(ctx context.Context, id int64) (*Node, error)

	// GetAllNodes retrieves all nodes ordered by ID, which is their creation order.
	// The order decides left-to-right placement of siblings in the diagram.
	GetAllNodes(ctx context.Context) ([]*Node, error)

	// UpdateNode replaces a node's title and parent.
	// Returns ErrNodeNotFound if the node or the new parent does not exist.
	UpdateNode(ctx context.Context, id int64, title string, parentID *int64) error

	// DeleteNode deletes a node and all of its descendants.
	// Returns ErrNodeNotFound if no node exists with the given ID.
	DeleteNode(ctx context.Context, id int64) error
}

// Common errors
var (
	// ErrNodeNotFound is returned when a requested node does not exist
	ErrNodeNotFound = errors.New("node not found")
	// ErrInvalidInput is returned when the input parameters are invalid
	ErrInvalidInput = errors.New("invalid input")
)
