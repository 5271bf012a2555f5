package commands

import (
	"context"

	"go.uber.org/zap"

	"mindweave/application/ports"
	"mindweave/domain/core/aggregates"
	"mindweave/domain/versioning"
	pkgerrors "mindweave/pkg/errors"
)

// graphMutator is the shared machinery of every command handler: load
// the graph, check ownership, snapshot for undo, run the edit, save,
// publish. The snapshot is pushed only after a successful save so a
// failed edit leaves the history untouched.
type graphMutator struct {
	graphRepo ports.GraphRepository
	history   *versioning.Store
	publisher ports.EventPublisher
	logger    *zap.Logger
}

func newGraphMutator(
	graphRepo ports.GraphRepository,
	history *versioning.Store,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) graphMutator {
	return graphMutator{
		graphRepo: graphRepo,
		history:   history,
		publisher: publisher,
		logger:    logger,
	}
}

func (m graphMutator) mutate(
	ctx context.Context,
	userID string,
	graphID aggregates.GraphID,
	edit func(graph *aggregates.Graph) error,
) error {
	graph, err := m.load(ctx, userID, graphID)
	if err != nil {
		return err
	}

	snapshot := graph.Clone()
	if err := edit(graph); err != nil {
		return err
	}
	if err := m.graphRepo.Save(ctx, graph); err != nil {
		return err
	}

	m.history.ForGraph(graphID).Push(snapshot)
	m.publish(ctx, graph)
	return nil
}

// mutateQuiet runs an edit without recording an undo snapshot, for
// changes like focus movement that undo should skip over.
func (m graphMutator) mutateQuiet(
	ctx context.Context,
	userID string,
	graphID aggregates.GraphID,
	edit func(graph *aggregates.Graph) error,
) error {
	graph, err := m.load(ctx, userID, graphID)
	if err != nil {
		return err
	}
	if err := edit(graph); err != nil {
		return err
	}
	if err := m.graphRepo.Save(ctx, graph); err != nil {
		return err
	}
	m.publish(ctx, graph)
	return nil
}

func (m graphMutator) load(ctx context.Context, userID string, graphID aggregates.GraphID) (*aggregates.Graph, error) {
	graph, err := m.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return nil, err
	}
	// Ownership failures read as not-found so graph ids are not probeable.
	if graph.UserID() != userID {
		return nil, pkgerrors.NewNotFoundError("graph")
	}
	return graph, nil
}

// publish sends the graph's uncommitted events. Failures are logged,
// not returned: the state change is already committed and events are
// advisory downstream signals.
func (m graphMutator) publish(ctx context.Context, graph *aggregates.Graph) {
	events := graph.GetUncommittedEvents()
	if len(events) == 0 {
		return
	}
	if err := m.publisher.PublishBatch(ctx, events); err != nil {
		m.logger.Warn("failed to publish domain events",
			zap.String("graphID", graph.ID().String()),
			zap.Int("eventCount", len(events)),
			zap.Error(err),
		)
	}
	graph.MarkEventsAsCommitted()
}
