package cache

import (
	"context"
	"errors"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ammiranda/tree_diagram/config"
	"github.com/ammiranda/tree_diagram/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pid(id int64) *int64 { return &id }

func sampleRecords() []layout.Record {
	return []layout.Record{
		{ID: 1, Title: "root"},
		{ID: 2, Title: "a", ParentID: pid(1)},
		{ID: 3, Title: "b", ParentID: pid(1)},
	}
}

func sampleDiagram(t *testing.T) *layout.Diagram {
	t.Helper()
	d, err := layout.Compute(sampleRecords(), layout.DefaultConfig())
	require.NoError(t, err)
	return d
}

// testProvider exercises the behavior every provider shares
func testProvider(t *testing.T, p Provider) {
	ctx := context.Background()
	key := StructureKey(sampleRecords(), layout.DefaultConfig())
	d := sampleDiagram(t)

	p.SetCacheTTL(time.Minute)

	_, found := p.GetDiagram(ctx, key)
	assert.False(t, found, "empty cache should miss")

	p.SetDiagram(ctx, key, d)
	got, found := p.GetDiagram(ctx, key)
	require.True(t, found)
	assert.Equal(t, d.Nodes, got.Nodes)
	assert.Equal(t, d.Edges, got.Edges)

	_, found = p.GetDiagram(ctx, "other")
	assert.False(t, found, "unknown key should miss")

	require.NoError(t, p.InvalidateCache(ctx))
	_, found = p.GetDiagram(ctx, key)
	assert.False(t, found, "invalidated cache should miss")
}

func TestStructureKey(t *testing.T) {
	cfg := layout.DefaultConfig()
	base := StructureKey(sampleRecords(), cfg)
	assert.Len(t, base, 64)

	renamed := sampleRecords()
	renamed[1].Title = "renamed"
	assert.Equal(t, base, StructureKey(renamed, cfg), "titles are not part of the key")

	moved := sampleRecords()
	moved[2].ParentID = pid(2)
	assert.NotEqual(t, base, StructureKey(moved, cfg))

	reordered := sampleRecords()
	reordered[1], reordered[2] = reordered[2], reordered[1]
	assert.NotEqual(t, base, StructureKey(reordered, cfg), "sibling order changes the layout")

	wider := cfg
	wider.NodeWidth = 400
	assert.NotEqual(t, base, StructureKey(sampleRecords(), wider))

	a := []layout.Record{{ID: 1}, {ID: 21, ParentID: pid(1)}}
	b := []layout.Record{{ID: 12}, {ID: 1, ParentID: pid(12)}}
	assert.NotEqual(t, StructureKey(a, cfg), StructureKey(b, cfg))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.Initialize(context.Background()))
	testProvider(t, c)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	c.SetCacheTTL(time.Minute)

	ctx := context.Background()
	c.SetDiagram(ctx, "k", sampleDiagram(t))

	now = now.Add(30 * time.Second)
	_, found := c.GetDiagram(ctx, "k")
	assert.True(t, found)

	now = now.Add(time.Minute)
	_, found = c.GetDiagram(ctx, "k")
	assert.False(t, found, "entry should expire after the ttl")
}

func TestMemoryCacheBounded(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	d := sampleDiagram(t)

	for i := 0; i < maxMemoryEntries*2; i++ {
		c.SetDiagram(ctx, strconv.Itoa(i), d)
	}
	assert.LessOrEqual(t, c.Len(), maxMemoryEntries)

	_, found := c.GetDiagram(ctx, strconv.Itoa(maxMemoryEntries*2-1))
	assert.True(t, found, "latest entry is kept")
}

func TestDynamoDBCache(t *testing.T) {
	client := NewMockDynamoDBClient()
	c := NewDynamoDBCacheWithClient(client, "")
	require.NoError(t, c.Initialize(context.Background()))
	assert.Equal(t, "ttl", client.TTLAttribute(defaultTableName))

	// A second Initialize finds the existing table
	require.NoError(t, c.Initialize(context.Background()))

	testProvider(t, c)
}

func TestDynamoDBCacheSingleSlot(t *testing.T) {
	client := NewMockDynamoDBClient()
	c := NewDynamoDBCacheWithClient(client, "Diagrams")
	ctx := context.Background()
	require.NoError(t, c.Initialize(ctx))

	d := sampleDiagram(t)
	c.SetDiagram(ctx, "first", d)
	c.SetDiagram(ctx, "second", d)
	assert.Equal(t, 1, client.ItemCount("Diagrams"))

	_, found := c.GetDiagram(ctx, "first")
	assert.False(t, found, "older structure was replaced")
	_, found = c.GetDiagram(ctx, "second")
	assert.True(t, found)
}

func TestDynamoDBCacheExpiry(t *testing.T) {
	client := NewMockDynamoDBClient()
	c := NewDynamoDBCacheWithClient(client, "")
	ctx := context.Background()
	require.NoError(t, c.Initialize(ctx))

	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	c.SetCacheTTL(time.Minute)
	c.SetDiagram(ctx, "k", sampleDiagram(t))

	now = now.Add(2 * time.Minute)
	_, found := c.GetDiagram(ctx, "k")
	assert.False(t, found)
	assert.Equal(t, 0, client.ItemCount(defaultTableName), "expired item is deleted")
}

func TestDynamoDBCachePutFailure(t *testing.T) {
	client := NewMockDynamoDBClient()
	c := NewDynamoDBCacheWithClient(client, "")
	ctx := context.Background()
	require.NoError(t, c.Initialize(ctx))

	c.SetDiagram(ctx, "k", sampleDiagram(t))
	client.PutErr = errors.New("throttled")
	c.SetDiagram(ctx, "k2", sampleDiagram(t))

	_, found := c.GetDiagram(ctx, "k")
	assert.False(t, found, "a failed put invalidates the slot")
}

func TestNullCache(t *testing.T) {
	c := NewNullCache()
	ctx := context.Background()
	require.NoError(t, c.Initialize(ctx))
	c.SetDiagram(ctx, "k", sampleDiagram(t))
	_, found := c.GetDiagram(ctx, "k")
	assert.False(t, found)
	assert.NoError(t, c.InvalidateCache(ctx))
}

func TestMockCache(t *testing.T) {
	c := NewMockCache()
	require.NoError(t, c.Initialize(context.Background()))

	testProvider(t, c)

	get, set, invalidate, setTTL, init := c.GetCallCounts()
	assert.Greater(t, get, 0, "GetDiagram should have been called")
	assert.Greater(t, set, 0, "SetDiagram should have been called")
	assert.Equal(t, 1, invalidate)
	assert.Equal(t, 1, setTTL)
	assert.Equal(t, 1, init, "Initialize should have been called once")
	assert.Equal(t, 1, c.HitCount())

	// Test failure mode
	c.Reset()
	c.SetShouldFail(true)
	assert.ErrorIs(t, c.Initialize(context.Background()), ErrCacheInitialization)
	c.SetDiagram(context.Background(), "k", sampleDiagram(t))
	d, found := c.GetDiagram(context.Background(), "k")
	assert.Nil(t, d)
	assert.False(t, found)
	assert.ErrorIs(t, c.InvalidateCache(context.Background()), ErrCacheInvalidation)

	c.Reset()
	get, set, invalidate, setTTL, init = c.GetCallCounts()
	assert.Zero(t, get+set+invalidate+setTTL+init)
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend config.CacheBackend
		want    interface{}
	}{
		{config.CacheMemory, &MemoryCache{}},
		{config.CacheNone, &NullCache{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			p, err := New(context.Background(), &config.CacheConfig{Backend: tt.backend, TTL: time.Minute})
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}

	_, err := New(context.Background(), &config.CacheConfig{Backend: "memcached", TTL: time.Minute})
	assert.Error(t, err)
}

func TestRedisCache(t *testing.T) {
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set")
	}
	port := 6379
	if p, err := strconv.Atoi(os.Getenv("REDIS_PORT")); err == nil {
		port = p
	}

	c := NewRedisCache(host, port)
	defer c.Close()
	require.NoError(t, c.Initialize(context.Background()))
	testProvider(t, c)
}
