// Package cache stores computed diagrams keyed by the structure of the records
// they were laid out from.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/ammiranda/tree_diagram/config"
	"github.com/ammiranda/tree_diagram/layout"
)

// Provider defines the interface for cache implementations.
// It provides methods for caching and retrieving laid out diagrams.
type Provider interface {
	// GetDiagram retrieves the diagram stored under key.
	// Returns:
	//   - The cached diagram
	//   - A boolean indicating whether the diagram was found in cache
	GetDiagram(ctx context.Context, key string) (*layout.Diagram, bool)

	// SetDiagram stores d under key. Failures are not reported; a later
	// GetDiagram simply misses.
	SetDiagram(ctx context.Context, key string, d *layout.Diagram)

	// InvalidateCache removes all cached diagrams.
	// This is called when the tree structure is modified.
	InvalidateCache(ctx context.Context) error

	// SetCacheTTL sets the duration after which cached diagrams expire
	SetCacheTTL(ttl time.Duration)

	// Initialize performs any necessary setup for the cache provider.
	// This may include establishing connections or creating tables.
	Initialize(ctx context.Context) error
}

// StructureKey identifies a layout result. It hashes the engine geometry and the
// ordered (id, parentId) pairs of records. Titles are left out, so renaming a node
// maps to the same key and reuses the cached positions.
func StructureKey(records []layout.Record, cfg layout.Config) string {
	h := sha256.New()
	for _, f := range []float64{cfg.NodeWidth, cfg.NodeHeight, cfg.HorizontalSpacing, cfg.VerticalSpacing} {
		h.Write([]byte(strconv.FormatFloat(f, 'g', -1, 64)))
		h.Write([]byte{'|'})
	}
	buf := make([]byte, 0, 48)
	for _, r := range records {
		buf = strconv.AppendInt(buf[:0], r.ID, 10)
		buf = append(buf, ':')
		if r.ParentID == nil {
			buf = append(buf, '-')
		} else {
			buf = strconv.AppendInt(buf, *r.ParentID, 10)
		}
		buf = append(buf, ';')
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// New builds and initializes the provider selected by cfg
func New(ctx context.Context, cfg *config.CacheConfig) (Provider, error) {
	var p Provider
	switch cfg.Backend {
	case config.CacheMemory:
		p = NewMemoryCache()
	case config.CacheRedis:
		p = NewRedisCache(cfg.RedisHost, cfg.RedisPort)
	case config.CacheDynamoDB:
		d, err := NewDynamoDBCache(ctx, cfg.TableName)
		if err != nil {
			return nil, fmt.Errorf("failed to create dynamodb cache: %w", err)
		}
		p = d
	case config.CacheNone:
		p = NewNullCache()
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	p.SetCacheTTL(cfg.TTL)
	if err := p.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s cache: %w", cfg.Backend, err)
	}
	return p, nil
}

// NullCache never stores anything
type NullCache struct{}

// NewNullCache creates a cache that always misses
func NewNullCache() *NullCache {
	return &NullCache{}
}

func (NullCache) GetDiagram(ctx context.Context, key string) (*layout.Diagram, bool) {
	return nil, false
}

func (NullCache) SetDiagram(ctx context.Context, key string, d *layout.Diagram) {}

func (NullCache) InvalidateCache(ctx context.Context) error { return nil }

func (NullCache) SetCacheTTL(ttl time.Duration) {}

func (NullCache) Initialize(ctx context.Context) error { return nil }
