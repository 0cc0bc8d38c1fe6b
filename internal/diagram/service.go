// Package diagram ties node storage, the layout engine and the diagram cache together.
package diagram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ammiranda/tree_diagram/cache"
	"github.com/ammiranda/tree_diagram/config"
	"github.com/ammiranda/tree_diagram/internal/logging"
	"github.com/ammiranda/tree_diagram/layout"
	"github.com/ammiranda/tree_diagram/repository"
)

// ErrCycle is returned when a move would place a node below itself
var ErrCycle = errors.New("move would create a cycle")

// Service serves records and laid out diagrams
type Service struct {
	repo   repository.Repository
	cache  cache.Provider
	engine *layout.Engine
	opts   []layout.IndexOption

	// mu serializes structural changes so the cycle check of a move
	// sees the tree it is applied to
	mu sync.Mutex
}

// NewService creates a service. A nil cache disables caching.
func NewService(repo repository.Repository, c cache.Provider, cfg *config.LayoutConfig) *Service {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Service{
		repo:   repo,
		cache:  c,
		engine: layout.NewEngine(cfg.Geometry),
		opts:   cfg.IndexOptions(),
	}
}

// Config returns the layout geometry used by the service
func (s *Service) Config() layout.Config {
	return s.engine.Config()
}

// Records returns every stored node as a layout record, in creation order
func (s *Service) Records(ctx context.Context) ([]layout.Record, error) {
	nodes, err := s.repo.GetAllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing nodes: %w", err)
	}
	return repository.Records(nodes), nil
}

// Diagram lays out the stored records. A cached layout of the same structure is
// reused with the current titles applied.
func (s *Service) Diagram(ctx context.Context) (*layout.Diagram, error) {
	logger := logging.FromContext(ctx)

	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}

	key := cache.StructureKey(records, s.engine.Config())
	if d, ok := s.cache.GetDiagram(ctx, key); ok {
		logger.Debug("diagram served", "nodes", len(records), "cached", true)
		return d.WithTitles(records), nil
	}

	start := time.Now()
	idx, err := layout.BuildIndex(records, s.opts...)
	if err != nil {
		return nil, err
	}
	d, err := s.engine.Layout(idx)
	if err != nil {
		return nil, err
	}

	s.cache.SetDiagram(ctx, key, d)
	logger.Debug("diagram served", "nodes", len(records), "cached", false, "took", time.Since(start))
	return d, nil
}

// GetNode returns a single node
func (s *Service) GetNode(ctx context.Context, id int64) (*repository.Node, error) {
	return s.repo.GetNode(ctx, id)
}

// CreateNode stores a new node under parentID, or as a root when parentID is nil
func (s *Service) CreateNode(ctx context.Context, title string, parentID *int64) (*repository.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.repo.CreateNode(ctx, title, parentID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	logging.FromContext(ctx).Info("node created", "id", id, "parent", formatParent(parentID))
	return s.repo.GetNode(ctx, id)
}

// RenameNode changes a node title. The tree structure is unchanged, so the
// cached layout stays valid.
func (s *Service) RenameNode(ctx context.Context, id int64, title string) (*repository.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.repo.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateNode(ctx, id, title, node.ParentID); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("node renamed", "id", id)
	node.Title = title
	return node, nil
}

// MoveNode reparents a node with its subtree. A nil parentID makes it a root.
func (s *Service) MoveNode(ctx context.Context, id int64, parentID *int64) (*repository.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.repo.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		if err := s.checkAncestry(ctx, id, *parentID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateNode(ctx, id, node.Title, parentID); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	logging.FromContext(ctx).Info("node moved", "id", id, "parent", formatParent(parentID))
	node.ParentID = parentID
	return node, nil
}

// checkAncestry fails with ErrCycle when parentID is id or one of its descendants
func (s *Service) checkAncestry(ctx context.Context, id, parentID int64) error {
	seen := make(map[int64]bool)
	cur := parentID
	for {
		if cur == id {
			return fmt.Errorf("node %d cannot move under %d: %w", id, parentID, ErrCycle)
		}
		if seen[cur] {
			// The stored data already loops above parentID
			return fmt.Errorf("ancestry of node %d: %w", parentID, ErrCycle)
		}
		seen[cur] = true

		n, err := s.repo.GetNode(ctx, cur)
		if err != nil {
			if cur != parentID && errors.Is(err, repository.ErrNodeNotFound) {
				// Dangling ancestor: the chain ends without reaching id
				return nil
			}
			return err
		}
		if n.ParentID == nil {
			return nil
		}
		cur = *n.ParentID
	}
}

// DeleteNode removes a node and its subtree
func (s *Service) DeleteNode(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteNode(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)

	logging.FromContext(ctx).Info("node deleted", "id", id)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.InvalidateCache(ctx); err != nil {
		logging.FromContext(ctx).Warn("cache invalidation failed", "err", err)
	}
}

func formatParent(id *int64) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprint(*id)
}
