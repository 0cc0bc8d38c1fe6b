package lambda

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/ammiranda/tree_diagram/cache"
	"github.com/ammiranda/tree_diagram/config"
	"github.com/ammiranda/tree_diagram/internal/diagram"
	"github.com/ammiranda/tree_diagram/layout"
	"github.com/ammiranda/tree_diagram/repository"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := &config.LayoutConfig{Geometry: layout.DefaultConfig(), Dangling: layout.DanglingReject}
	client := cache.NewMockDynamoDBClient()
	c := cache.NewDynamoDBCacheWithClient(client, "")
	require.NoError(t, c.Initialize(context.Background()))
	return NewHandler(diagram.NewService(repository.NewMockRepository(), c, cfg))
}

func call(t *testing.T, h *Handler, method, path, body string, query map[string]string) events.APIGatewayProxyResponse {
	t.Helper()
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            method,
		Path:                  path,
		Body:                  body,
		QueryStringParameters: query,
	})
	require.NoError(t, err)
	return resp
}

func TestHandleCreateAndDiagram(t *testing.T) {
	h := newTestHandler(t)

	resp := call(t, h, http.MethodPost, "/api/nodes", `{"title":"Root"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, resp.Body)
	assert.JSONEq(t, `{"id":1,"title":"Root","parentId":null}`, resp.Body)

	resp = call(t, h, http.MethodPost, "/api/nodes", `{"title":"A","parentId":1}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = call(t, h, http.MethodPost, "/api/nodes", `{"title":"B","parentId":1}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, h, http.MethodGet, "/api/diagram", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	var d layout.Diagram
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &d))
	require.Len(t, d.Nodes, 3)
	assert.Equal(t, layout.PositionedNode{ID: 2, Title: "A", X: -150, Y: 140}, d.Nodes[1])

	// A rename is served from the cached layout
	resp = call(t, h, http.MethodPut, "/api/nodes/3", `{"title":"Bee"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = call(t, h, http.MethodGet, "/api/diagram", "", nil)
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &d))
	assert.Equal(t, layout.PositionedNode{ID: 3, Title: "Bee", X: 150, Y: 140}, d.Nodes[2])

	resp = call(t, h, http.MethodGet, "/api/diagram", "", map[string]string{"format": "svg"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Headers["Content-Type"])
	assert.Contains(t, resp.Body, "Bee")

	resp = call(t, h, http.MethodGet, "/api/diagram", "", map[string]string{"format": "dot"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Body, "1 -> 3;")

	resp = call(t, h, http.MethodGet, "/api/tree", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var tree []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &tree))
	require.Len(t, tree, 1)
	assert.Len(t, tree[0]["children"], 2)
}

func TestHandleNodeRoutes(t *testing.T) {
	h := newTestHandler(t)

	call(t, h, http.MethodPost, "/api/nodes", `{"title":"A"}`, nil)
	call(t, h, http.MethodPost, "/api/nodes", `{"title":"B"}`, nil)
	call(t, h, http.MethodPost, "/api/nodes", `{"title":"A1","parentId":1}`, nil)

	resp := call(t, h, http.MethodGet, "/api/nodes", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[
		{"id":1,"title":"A","parentId":null},
		{"id":2,"title":"B","parentId":null},
		{"id":3,"title":"A1","parentId":1}
	]`, resp.Body)

	resp = call(t, h, http.MethodGet, "/api/nodes/3", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, h, http.MethodPost, "/api/nodes/3/move", `{"parentId":2}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":3,"title":"A1","parentId":2}`, resp.Body)

	resp = call(t, h, http.MethodPost, "/api/nodes/2/move", `{"parentId":3}`, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = call(t, h, http.MethodDelete, "/api/nodes/2", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = call(t, h, http.MethodGet, "/api/nodes/3", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "subtree is deleted too")
}

func TestHandleErrors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		query      map[string]string
		wantStatus int
	}{
		{"unknown route", http.MethodGet, "/api/unknown", "", nil, http.StatusNotFound},
		{"outside api", http.MethodGet, "/healthz", "", nil, http.StatusNotFound},
		{"wrong method on collection", http.MethodPut, "/api/nodes", "", nil, http.StatusNotFound},
		{"too deep", http.MethodGet, "/api/nodes/1/move/x", "", nil, http.StatusNotFound},
		{"bad id", http.MethodGet, "/api/nodes/abc", "", nil, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/nodes", "{", nil, http.StatusBadRequest},
		{"empty title", http.MethodPost, "/api/nodes", `{"title":""}`, nil, http.StatusBadRequest},
		{"unknown parent", http.MethodPost, "/api/nodes", `{"title":"x","parentId":7}`, nil, http.StatusNotFound},
		{"rename missing", http.MethodPut, "/api/nodes/7", `{"title":"x"}`, nil, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/api/nodes/7", "", nil, http.StatusNotFound},
		{"bad format", http.MethodGet, "/api/diagram", "", map[string]string{"format": "png"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, h, tt.method, tt.path, tt.body, tt.query)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}
