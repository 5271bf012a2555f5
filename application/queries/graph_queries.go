package queries

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mindweave/application/ports"
	"mindweave/application/queries/bus"
	"mindweave/domain/core/aggregates"
	"mindweave/domain/layout"
	"mindweave/domain/versioning"
	pkgerrors "mindweave/pkg/errors"
)

// GetGraphQuery requests the full read model of one graph
type GetGraphQuery struct {
	UserID  string `json:"user_id"`
	GraphID string `json:"graph_id"`
}

// Validate validates the query
func (q GetGraphQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.GraphID == "" {
		return errors.New("graph ID is required")
	}
	return nil
}

// GetDefaultGraphQuery requests the user's default graph, creating a
// seeded one on first access
type GetDefaultGraphQuery struct {
	UserID string `json:"user_id"`
}

// Validate validates the query
func (q GetDefaultGraphQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// ListGraphsQuery requests summaries of every graph a user owns
type ListGraphsQuery struct {
	UserID string `json:"user_id"`
}

// Validate validates the query
func (q ListGraphsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// GraphQueryHandler serves graph read models
type GraphQueryHandler struct {
	graphRepo ports.GraphRepository
	history   *versioning.Store
	engine    *layout.Engine
	logger    *zap.Logger
}

// NewGraphQueryHandler creates a query handler
func NewGraphQueryHandler(
	graphRepo ports.GraphRepository,
	history *versioning.Store,
	engine *layout.Engine,
	logger *zap.Logger,
) *GraphQueryHandler {
	return &GraphQueryHandler{
		graphRepo: graphRepo,
		history:   history,
		engine:    engine,
		logger:    logger,
	}
}

// Handle implements bus.QueryHandler
func (h *GraphQueryHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	switch q := query.(type) {
	case GetGraphQuery:
		return h.GetGraph(ctx, q)
	case GetDefaultGraphQuery:
		return h.GetDefaultGraph(ctx, q)
	case ListGraphsQuery:
		return h.ListGraphs(ctx, q)
	default:
		return nil, pkgerrors.NewInternalError("unsupported query type")
	}
}

// GetGraph returns the full view of one graph
func (h *GraphQueryHandler) GetGraph(ctx context.Context, q GetGraphQuery) (*GraphView, error) {
	graph, err := h.graphRepo.GetByID(ctx, aggregates.GraphID(q.GraphID))
	if err != nil {
		return nil, err
	}
	if graph.UserID() != q.UserID {
		return nil, pkgerrors.NewNotFoundError("graph")
	}
	return h.view(graph), nil
}

// GetDefaultGraph returns the user's default graph view
func (h *GraphQueryHandler) GetDefaultGraph(ctx context.Context, q GetDefaultGraphQuery) (*GraphView, error) {
	graph, err := h.graphRepo.GetOrCreateDefaultGraph(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	return h.view(graph), nil
}

// ListGraphs returns summaries of the user's graphs
func (h *GraphQueryHandler) ListGraphs(ctx context.Context, q ListGraphsQuery) ([]GraphSummary, error) {
	graphs, err := h.graphRepo.GetByUserID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	summaries := make([]GraphSummary, 0, len(graphs))
	for _, graph := range graphs {
		summaries = append(summaries, NewGraphSummary(graph))
	}
	return summaries, nil
}

func (h *GraphQueryHandler) view(graph *aggregates.Graph) *GraphView {
	hist := h.history.ForGraph(graph.ID())
	return NewGraphView(graph, h.engine.Estimator(), hist.CanUndo(), hist.CanRedo())
}
