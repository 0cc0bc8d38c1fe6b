package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepositories(t *testing.T) map[string]Repository {
	t.Helper()

	sqlite := NewSQLiteRepository(filepath.Join(t.TempDir(), "nodes.db"))
	require.NoError(t, sqlite.Initialize(context.Background()))

	repos := map[string]Repository{
		"mock":   NewMockRepository(),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, repo := range repos {
			assert.NoError(t, repo.Cleanup(context.Background()))
		}
	})
	return repos
}

func TestRepositoryCRUD(t *testing.T) {
	for name, repo := range newTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			// Test creating a node
			id, err := repo.CreateNode(ctx, "test", nil)
			require.NoError(t, err)
			assert.Greater(t, id, int64(0))

			// Test getting the node
			node, err := repo.GetNode(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "test", node.Title)
			assert.Nil(t, node.ParentID)

			// Test getting all nodes
			nodes, err := repo.GetAllNodes(ctx)
			require.NoError(t, err)
			require.Len(t, nodes, 1)
			assert.Equal(t, id, nodes[0].ID)

			// Test updating the node
			require.NoError(t, repo.UpdateNode(ctx, id, "updated", nil))
			node, err = repo.GetNode(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "updated", node.Title)

			// Test deleting the node
			require.NoError(t, repo.DeleteNode(ctx, id))
			_, err = repo.GetNode(ctx, id)
			assert.ErrorIs(t, err, ErrNodeNotFound)
		})
	}
}

func TestRepositoryRejectsBadInput(t *testing.T) {
	for name, repo := range newTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			missing := int64(999)

			_, err := repo.CreateNode(ctx, "", nil)
			assert.ErrorIs(t, err, ErrInvalidInput)

			_, err = repo.CreateNode(ctx, "child", &missing)
			assert.ErrorIs(t, err, ErrNodeNotFound)

			assert.ErrorIs(t, repo.UpdateNode(ctx, missing, "x", nil), ErrNodeNotFound)
			assert.ErrorIs(t, repo.DeleteNode(ctx, missing), ErrNodeNotFound)

			id, err := repo.CreateNode(ctx, "root", nil)
			require.NoError(t, err)
			assert.ErrorIs(t, repo.UpdateNode(ctx, id, "root", &missing), ErrNodeNotFound)
			assert.ErrorIs(t, repo.UpdateNode(ctx, id, "", nil), ErrInvalidInput)
		})
	}
}

func TestRepositoryDeleteRemovesSubtree(t *testing.T) {
	for name, repo := range newTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			root, err := repo.CreateNode(ctx, "root", nil)
			require.NoError(t, err)
			a, err := repo.CreateNode(ctx, "a", &root)
			require.NoError(t, err)
			_, err = repo.CreateNode(ctx, "a1", &a)
			require.NoError(t, err)
			b, err := repo.CreateNode(ctx, "b", &root)
			require.NoError(t, err)
			other, err := repo.CreateNode(ctx, "other", nil)
			require.NoError(t, err)

			require.NoError(t, repo.DeleteNode(ctx, a))

			nodes, err := repo.GetAllNodes(ctx)
			require.NoError(t, err)
			ids := make([]int64, len(nodes))
			for i, n := range nodes {
				ids[i] = n.ID
			}
			assert.Equal(t, []int64{root, b, other}, ids)
		})
	}
}

func TestRepositoryOrdersByCreation(t *testing.T) {
	for name, repo := range newTestRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first, err := repo.CreateNode(ctx, "first", nil)
			require.NoError(t, err)
			require.NoError(t, repo.DeleteNode(ctx, first))

			var want []int64
			for _, title := range []string{"x", "y", "z"} {
				id, err := repo.CreateNode(ctx, title, nil)
				require.NoError(t, err)
				assert.Greater(t, id, first, "ids are not reused")
				want = append(want, id)
			}

			nodes, err := repo.GetAllNodes(ctx)
			require.NoError(t, err)
			records := Records(nodes)
			require.Len(t, records, 3)
			for i, r := range records {
				assert.Equal(t, want[i], r.ID)
			}
		})
	}
}

func TestMockRepositoryReturnsCopies(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()

	id, err := repo.CreateNode(ctx, "root", nil)
	require.NoError(t, err)

	node, err := repo.GetNode(ctx, id)
	require.NoError(t, err)
	node.Title = "mutated"

	stored, err := repo.GetNode(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "root", stored.Title)
}

func TestMockRepositoryInsert(t *testing.T) {
	repo := NewMockRepository()
	ghost := int64(77)
	repo.Insert(Node{ID: 5, Title: "orphan", ParentID: &ghost})

	nodes, err := repo.GetAllNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, int64(77), *nodes[0].ParentID)

	id, err := repo.CreateNode(context.Background(), "next", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6), id)
}
