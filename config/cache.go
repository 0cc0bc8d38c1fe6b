package config

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// CacheBackend names a diagram cache implementation
type CacheBackend string

const (
	CacheMemory   CacheBackend = "memory"
	CacheRedis    CacheBackend = "redis"
	CacheDynamoDB CacheBackend = "dynamodb"
	CacheNone     CacheBackend = "none"
)

// CacheConfig holds diagram cache configuration
type CacheConfig struct {
	Backend   CacheBackend
	TTL       time.Duration
	RedisHost string
	RedisPort int
	TableName string
}

// Validate checks if the cache configuration is valid
func (c *CacheConfig) Validate() error {
	switch c.Backend {
	case CacheMemory, CacheNone, CacheDynamoDB:
	case CacheRedis:
		if c.RedisHost == "" {
			return &ValidationError{Field: "RedisHost", Message: "host cannot be empty"}
		}
		if c.RedisPort <= 0 || c.RedisPort > 65535 {
			return &ValidationError{Field: "RedisPort", Message: "port must be between 1 and 65535"}
		}
	default:
		return &ValidationError{Field: "Backend", Message: fmt.Sprintf("unknown cache backend %q", c.Backend)}
	}

	if c.Backend == CacheDynamoDB && c.TableName == "" {
		return &ValidationError{Field: "TableName", Message: "table name cannot be empty"}
	}
	if c.TTL <= 0 {
		return &ValidationError{Field: "TTL", Message: "ttl must be positive"}
	}
	return nil
}

// GetCacheConfig retrieves cache configuration using the provided config provider
func GetCacheConfig(ctx context.Context, provider Provider) (*CacheConfig, error) {
	cfg := &CacheConfig{
		Backend:   CacheMemory,
		TTL:       5 * time.Minute,
		RedisHost: "localhost",
		RedisPort: 6379,
		TableName: "TreeDiagramCache",
	}

	if backend, err := optionalString(ctx, provider, "CACHE_BACKEND"); err != nil {
		return nil, err
	} else if backend != "" {
		cfg.Backend = CacheBackend(backend)
	}

	if ttl, err := optionalString(ctx, provider, "CACHE_TTL"); err != nil {
		return nil, err
	} else if ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, &ValidationError{Field: "CACHE_TTL", Message: "must be a duration such as 5m"}
		}
		cfg.TTL = d
	}

	if host, err := optionalString(ctx, provider, "REDIS_HOST"); err != nil {
		return nil, err
	} else if host != "" {
		cfg.RedisHost = host
	}

	port, err := provider.GetInt(ctx, "REDIS_PORT")
	switch {
	case err == nil:
		cfg.RedisPort = port
	case !errors.Is(err, ErrNotSet):
		return nil, &ValidationError{Field: "REDIS_PORT", Message: "port must be a valid number"}
	}

	if table, err := optionalString(ctx, provider, "CACHE_TABLE"); err != nil {
		return nil, err
	} else if table != "" {
		cfg.TableName = table
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache configuration: %w", err)
	}
	return cfg, nil
}

// optionalString returns "" for unset keys and fails only on provider errors
func optionalString(ctx context.Context, provider Provider, key string) (string, error) {
	value, err := provider.GetString(ctx, key)
	if errors.Is(err, ErrNotSet) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}
