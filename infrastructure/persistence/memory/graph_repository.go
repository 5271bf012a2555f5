package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"mindweave/application/ports"
	domaincfg "mindweave/domain/config"
	"mindweave/domain/core/aggregates"
	pkgerrors "mindweave/pkg/errors"
)

// GraphRepository keeps graph aggregates in process memory. Used for
// development and tests; the stored copies are clones so callers can
// never mutate committed state through a returned aggregate.
type GraphRepository struct {
	mu       sync.RWMutex
	graphs   map[aggregates.GraphID]*aggregates.Graph
	defaults map[string]aggregates.GraphID
	cfg      *domaincfg.DomainConfig
	logger   *zap.Logger
}

// NewGraphRepository creates an in-memory graph repository
func NewGraphRepository(cfg *domaincfg.DomainConfig, logger *zap.Logger) ports.GraphRepository {
	if cfg == nil {
		cfg = domaincfg.DefaultDomainConfig()
	}
	return &GraphRepository{
		graphs:   make(map[aggregates.GraphID]*aggregates.Graph),
		defaults: make(map[string]aggregates.GraphID),
		cfg:      cfg,
		logger:   logger,
	}
}

// Save persists a graph
func (r *GraphRepository) Save(ctx context.Context, graph *aggregates.Graph) error {
	if graph == nil {
		return pkgerrors.NewValidationError("graph is required")
	}
	if err := graph.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.graphs[graph.ID()] = graph.Clone()
	if _, ok := r.defaults[graph.UserID()]; !ok {
		r.defaults[graph.UserID()] = graph.ID()
	}
	return nil
}

// GetByID retrieves a graph by its ID
func (r *GraphRepository) GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph, ok := r.graphs[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("graph")
	}
	return graph.Clone(), nil
}

// GetByUserID retrieves all graphs owned by a user
func (r *GraphRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregates.Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var graphs []*aggregates.Graph
	for _, graph := range r.graphs {
		if graph.UserID() == userID {
			graphs = append(graphs, graph.Clone())
		}
	}
	return graphs, nil
}

// GetOrCreateDefaultGraph gets the user's default graph, creating a
// seeded one on first access
func (r *GraphRepository) GetOrCreateDefaultGraph(ctx context.Context, userID string) (*aggregates.Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.defaults[userID]; ok {
		if graph, ok := r.graphs[id]; ok {
			return graph.Clone(), nil
		}
	}

	graph, err := aggregates.NewDefaultGraph(userID, r.cfg)
	if err != nil {
		return nil, err
	}
	graph.MarkEventsAsCommitted()

	r.graphs[graph.ID()] = graph.Clone()
	r.defaults[userID] = graph.ID()

	if r.logger != nil {
		r.logger.Info("default graph created",
			zap.String("graphID", graph.ID().String()),
			zap.String("userID", userID),
		)
	}
	return graph, nil
}

// Delete removes a graph
func (r *GraphRepository) Delete(ctx context.Context, id aggregates.GraphID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	graph, ok := r.graphs[id]
	if !ok {
		return pkgerrors.NewNotFoundError("graph")
	}
	delete(r.graphs, id)
	if r.defaults[graph.UserID()] == id {
		delete(r.defaults, graph.UserID())
	}
	return nil
}
