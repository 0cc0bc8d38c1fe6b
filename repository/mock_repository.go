package repository

import (
	"context"
	"sort"
	"sync"
)

// MockRepository implements Repository in memory.
// It backs the `--store memory` server mode and the tests.
type MockRepository struct {
	nodes  map[int64]*Node
	nextID int64
	mu     sync.RWMutex
}

// NewMockRepository creates a new in-memory repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		nodes:  make(map[int64]*Node),
		nextID: 1,
	}
}

// Initialize performs any necessary setup
func (m *MockRepository) Initialize(ctx context.Context) error {
	return nil
}

// Cleanup drops every stored node
func (m *MockRepository) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[int64]*Node)
	m.nextID = 1
	return nil
}

// CreateNode creates a new node
func (m *MockRepository) CreateNode(ctx context.Context, title string, parentID *int64) (int64, error) {
	if title == "" {
		return 0, ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if parentID != nil {
		if _, ok := m.nodes[*parentID]; !ok {
			return 0, ErrNodeNotFound
		}
	}

	// IDs are never reused, so creation order stays ID order after deletes
	id := m.nextID
	m.nextID++

	m.nodes[id] = &Node{
		ID:       id,
		Title:    title,
		ParentID: copyID(parentID),
	}

	return id, nil
}

// GetNode retrieves a node by ID
func (m *MockRepository) GetNode(ctx context.Context, id int64) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}

	return node.clone(), nil
}

// GetAllNodes retrieves copies of all nodes ordered by ID
func (m *MockRepository) GetAllNodes(ctx context.Context) ([]*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Node, 0, len(m.nodes))
	for _, node := range m.nodes {
		result = append(result, node.clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// UpdateNode updates a node
func (m *MockRepository) UpdateNode(ctx context.Context, id int64, title string, parentID *int64) error {
	if title == "" {
		return ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	if parentID != nil {
		if _, ok := m.nodes[*parentID]; !ok {
			return ErrNodeNotFound
		}
	}

	node.Title = title
	node.ParentID = copyID(parentID)

	return nil
}

// DeleteNode deletes a node and its descendants
func (m *MockRepository) DeleteNode(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[id]; !ok {
		return ErrNodeNotFound
	}

	toDelete := []int64{id}
	deleted := make(map[int64]bool)

	for len(toDelete) > 0 {
		currentID := toDelete[0]
		toDelete = toDelete[1:]

		if deleted[currentID] {
			continue
		}

		// Find all children of the current node
		for nodeID, node := range m.nodes {
			if node.ParentID != nil && *node.ParentID == currentID {
				toDelete = append(toDelete, nodeID)
			}
		}

		delete(m.nodes, currentID)
		deleted[currentID] = true
	}

	return nil
}

// Insert stores a node as given, bypassing parent checks.
// Tests use it to seed corrupt data such as dangling parents or cycles.
func (m *MockRepository) Insert(node Node) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nodes[node.ID] = node.clone()
	if node.ID >= m.nextID {
		m.nextID = node.ID + 1
	}
}

func (n *Node) clone() *Node {
	return &Node{ID: n.ID, Title: n.Title, ParentID: copyID(n.ParentID)}
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
