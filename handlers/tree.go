package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ammiranda/tree_diagram/internal/diagram"
	"github.com/ammiranda/tree_diagram/internal/logging"
	"github.com/ammiranda/tree_diagram/layout"
	"github.com/ammiranda/tree_diagram/models"
	"github.com/ammiranda/tree_diagram/render"
	"github.com/ammiranda/tree_diagram/repository"

	"github.com/gin-gonic/gin"
)

var (
	ErrInvalidID     = errors.New("invalid node id")
	ErrUnknownFormat = errors.New("format must be json, svg or dot")
)

// TreeHandler handles node and diagram HTTP requests
type TreeHandler struct {
	svc *diagram.Service
}

// NewTreeHandler creates a new TreeHandler instance
func NewTreeHandler(svc *diagram.Service) *TreeHandler {
	return &TreeHandler{
		svc: svc,
	}
}

// Register mounts the API routes on r
func (h *TreeHandler) Register(r gin.IRouter) {
	api := r.Group("/api")
	{
		api.GET("/nodes", h.ListNodes)
		api.POST("/nodes", h.CreateNode)
		api.GET("/nodes/:id", h.GetNode)
		api.PUT("/nodes/:id", h.RenameNode)
		api.POST("/nodes/:id/move", h.MoveNode)
		api.DELETE("/nodes/:id", h.DeleteNode)
		api.GET("/diagram", h.GetDiagram)
		api.GET("/tree", h.GetTree)
	}
}

// StatusFor maps service errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrInvalidInput),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, diagram.ErrCycle):
		return http.StatusConflict
	case errors.Is(err, layout.ErrDanglingReference),
		errors.Is(err, layout.ErrCycle),
		errors.Is(err, layout.ErrDuplicateID):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *TreeHandler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed", "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ListNodes returns every node in creation order
func (h *TreeHandler) ListNodes(c *gin.Context) {
	records, err := h.svc.Records(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetNode returns a single node
func (h *TreeHandler) GetNode(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	node, err := h.svc.GetNode(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// CreateNode creates a new node in the tree
func (h *TreeHandler) CreateNode(c *gin.Context) {
	var req models.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Validate the request
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.svc.CreateNode(c.Request.Context(), req.Title, req.ParentID)
	if err != nil {
		if errors.Is(err, repository.ErrNodeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parent node not found"})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, node)
}

// RenameNode changes the title of a node
func (h *TreeHandler) RenameNode(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req models.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.svc.RenameNode(c.Request.Context(), id, req.Title)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// MoveNode reparents a node together with its subtree
func (h *TreeHandler) MoveNode(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	var req models.MoveNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	node, err := h.svc.MoveNode(c.Request.Context(), id, req.ParentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// DeleteNode removes a node and its subtree
func (h *TreeHandler) DeleteNode(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.DeleteNode(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetDiagram returns the laid out diagram as json, svg or dot
func (h *TreeHandler) GetDiagram(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "svg" && format != "dot" {
		h.fail(c, ErrUnknownFormat)
		return
	}

	d, err := h.svc.Diagram(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	switch format {
	case "svg":
		c.Data(http.StatusOK, "image/svg+xml", render.SVG(d, h.svc.Config()))
	case "dot":
		c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", []byte(render.DOT(d, h.svc.Config())))
	default:
		c.JSON(http.StatusOK, d)
	}
}

// GetTree returns the positioned nodes nested under their parents
func (h *TreeHandler) GetTree(c *gin.Context) {
	d, err := h.svc.Diagram(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.BuildTree(d))
}
