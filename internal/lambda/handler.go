package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ammiranda/tree_diagram/handlers"
	"github.com/ammiranda/tree_diagram/internal/diagram"
	"github.com/ammiranda/tree_diagram/internal/logging"
	"github.com/ammiranda/tree_diagram/models"
	"github.com/ammiranda/tree_diagram/render"
	"github.com/ammiranda/tree_diagram/repository"

	"github.com/aws/aws-lambda-go/events"
)

// Handler represents the Lambda handler with its dependencies
type Handler struct {
	svc *diagram.Service
}

// NewHandler creates a new Handler serving svc
func NewHandler(svc *diagram.Service) *Handler {
	return &Handler{
		svc: svc,
	}
}

// Handle processes API Gateway events
func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := logging.FromContext(ctx).With("request_id", request.RequestContext.RequestID)
	ctx = logging.WithLogger(ctx, logger)

	resp := h.route(ctx, request)
	logger.Info("request", "method", request.HTTPMethod, "path", request.Path, "status", resp.StatusCode)
	return resp, nil
}

func (h *Handler) route(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	// Route the request based on HTTP method and path
	segments := strings.Split(strings.Trim(request.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "api" {
		return errorResponse(http.StatusNotFound, "Not found")
	}

	switch {
	case request.HTTPMethod == http.MethodGet && len(segments) == 2 && segments[1] == "diagram":
		return h.handleGetDiagram(ctx, request)
	case request.HTTPMethod == http.MethodGet && len(segments) == 2 && segments[1] == "tree":
		return h.handleGetTree(ctx)
	case segments[1] != "nodes":
		return errorResponse(http.StatusNotFound, "Not found")
	case len(segments) == 2 && request.HTTPMethod == http.MethodGet:
		return h.handleListNodes(ctx)
	case len(segments) == 2 && request.HTTPMethod == http.MethodPost:
		return h.handleCreateNode(ctx, request)
	case len(segments) == 2 || len(segments) > 4:
		return errorResponse(http.StatusNotFound, "Not found")
	}

	id, err := strconv.ParseInt(segments[2], 10, 64)
	if err != nil || id <= 0 {
		return errorResponse(http.StatusBadRequest, handlers.ErrInvalidID.Error())
	}

	switch {
	case len(segments) == 3 && request.HTTPMethod == http.MethodGet:
		return h.handleGetNode(ctx, id)
	case len(segments) == 3 && request.HTTPMethod == http.MethodPut:
		return h.handleRenameNode(ctx, id, request)
	case len(segments) == 3 && request.HTTPMethod == http.MethodDelete:
		return h.handleDeleteNode(ctx, id)
	case len(segments) == 4 && segments[3] == "move" && request.HTTPMethod == http.MethodPost:
		return h.handleMoveNode(ctx, id, request)
	default:
		return errorResponse(http.StatusNotFound, "Not found")
	}
}

func (h *Handler) handleListNodes(ctx context.Context) events.APIGatewayProxyResponse {
	records, err := h.svc.Records(ctx)
	if err != nil {
		return failure(ctx, err)
	}
	return jsonResponse(http.StatusOK, records)
}

func (h *Handler) handleGetNode(ctx context.Context, id int64) events.APIGatewayProxyResponse {
	node, err := h.svc.GetNode(ctx, id)
	if err != nil {
		return failure(ctx, err)
	}
	return jsonResponse(http.StatusOK, node)
}

func (h *Handler) handleCreateNode(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var req models.CreateNodeRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request: "+err.Error())
	}

	// Validate the request
	if err := req.Validate(); err != nil {
		return errorResponse(http.StatusBadRequest, err.Error())
	}

	node, err := h.svc.CreateNode(ctx, req.Title, req.ParentID)
	if err != nil {
		if errors.Is(err, repository.ErrNodeNotFound) {
			return errorResponse(http.StatusNotFound, "parent node not found")
		}
		return failure(ctx, err)
	}
	return jsonResponse(http.StatusCreated, node)
}

func (h *Handler) handleRenameNode(ctx context.Context, id int64, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var req models.UpdateNodeRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request: "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return errorResponse(http.StatusBadRequest, err.Error())
	}

	node, err := h.svc.RenameNode(ctx, id, req.Title)
	if err != nil {
		return failure(ctx, err)
	}
	return jsonResponse(http.StatusOK, node)
}

func (h *Handler) handleMoveNode(ctx context.Context, id int64, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var req models.MoveNodeRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return errorResponse(http.StatusBadRequest, "Invalid request: "+err.Error())
	}
	if err := req.Validate(); err != nil {
		return errorResponse(http.StatusBadRequest, err.Error())
	}

	node, err := h.svc.MoveNode(ctx, id, req.ParentID)
	if err != nil {
		return failure(ctx, err)
	}
	return jsonResponse(http.StatusOK, node)
}

func (h *Handler) handleDeleteNode(ctx context.Context, id int64) events.APIGatewayProxyResponse {
	if err := h.svc.DeleteNode(ctx, id); err != nil {
		return failure(ctx, err)
	}
	return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}
}

func (h *Handler) handleGetDiagram(ctx context.Context, request events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	format := request.QueryStringParameters["format"]
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "svg" && format != "dot" {
		return errorResponse(http.StatusBadRequest, handlers.ErrUnknownFormat.Error())
	}

	d, err := h.svc.Diagram(ctx)
	if err != nil {
		return failure(ctx, err)
	}

	switch format {
	case "svg":
		return textResponse("image/svg+xml", string(render.SVG(d, h.svc.Config())))
	case "dot":
		return textResponse("text/vnd.graphviz; charset=utf-8", render.DOT(d, h.svc.Config()))
	default:
		return jsonResponse(http.StatusOK, d)
	}
}

func (h *Handler) handleGetTree(ctx context.Context) events.APIGatewayProxyResponse {
	d, err := h.svc.Diagram(ctx)
	if err != nil {
		return failure(ctx, err)
	}
	return jsonResponse(http.StatusOK, models.BuildTree(d))
}

func failure(ctx context.Context, err error) events.APIGatewayProxyResponse {
	status := handlers.StatusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("request failed", "err", err)
	}
	return errorResponse(status, err.Error())
}

func errorResponse(status int, msg string) events.APIGatewayProxyResponse {
	return jsonResponse(status, map[string]string{"error": msg})
}

func jsonResponse(status int, v interface{}) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error": "Failed to marshal response"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

func textResponse(contentType, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": contentType},
		Body:       body,
	}
}
