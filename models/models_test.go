package models

import (
	"strings"
	"testing"

	"github.com/ammiranda/tree_diagram/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(id int64) *int64 { return &id }

func TestCreateNodeRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateNodeRequest
		wantErr bool
	}{
		{"root", CreateNodeRequest{Title: "Root"}, false},
		{"child", CreateNodeRequest{Title: "Child", ParentID: ptr(1)}, false},
		{"empty title", CreateNodeRequest{Title: ""}, true},
		{"long title", CreateNodeRequest{Title: strings.Repeat("x", 256)}, true},
		{"max title", CreateNodeRequest{Title: strings.Repeat("x", 255)}, false},
		{"zero parent", CreateNodeRequest{Title: "x", ParentID: ptr(0)}, true},
		{"negative parent", CreateNodeRequest{Title: "x", ParentID: ptr(-3)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateAndMoveRequestValidate(t *testing.T) {
	assert.NoError(t, (&UpdateNodeRequest{Title: "new"}).Validate())
	assert.Error(t, (&UpdateNodeRequest{}).Validate())

	assert.NoError(t, (&MoveNodeRequest{}).Validate(), "null parent moves to the root set")
	assert.NoError(t, (&MoveNodeRequest{ParentID: ptr(4)}).Validate())
	assert.Error(t, (&MoveNodeRequest{ParentID: ptr(0)}).Validate())
}

func TestBuildTree(t *testing.T) {
	records := []layout.Record{
		{ID: 1, Title: "root"},
		{ID: 2, Title: "a", ParentID: ptr(1)},
		{ID: 3, Title: "b", ParentID: ptr(1)},
		{ID: 4, Title: "a1", ParentID: ptr(2)},
		{ID: 5, Title: "other"},
	}
	d, err := layout.Compute(records, layout.DefaultConfig())
	require.NoError(t, err)

	roots := BuildTree(d)
	require.Len(t, roots, 2)
	assert.Equal(t, int64(1), roots[0].ID)
	assert.Equal(t, int64(5), roots[1].ID)
	assert.NotNil(t, roots[1].Children)
	assert.Empty(t, roots[1].Children)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "a", roots[0].Children[0].Title)
	assert.Equal(t, "b", roots[0].Children[1].Title)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, 280.0, roots[0].Children[0].Children[0].Y)

	assert.Empty(t, BuildTree(&layout.Diagram{}))
}
