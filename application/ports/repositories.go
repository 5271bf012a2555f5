package ports

import (
	"context"

	"mindweave/domain/core/aggregates"
	"mindweave/domain/events"
)

// GraphRepository is the persistence port for the graph aggregate.
// The whole aggregate is loaded and saved as a unit; Save enforces
// last-writer-wins through the graph's version counter.
type GraphRepository interface {
	// Save persists a graph (create or update)
	Save(ctx context.Context, graph *aggregates.Graph) error

	// GetByID retrieves a graph by its ID
	GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error)

	// GetByUserID retrieves all graphs owned by a user
	GetByUserID(ctx context.Context, userID string) ([]*aggregates.Graph, error)

	// GetOrCreateDefaultGraph gets the user's default graph, creating a
	// seeded one on first access
	GetOrCreateDefaultGraph(ctx context.Context, userID string) (*aggregates.Graph, error)

	// Delete removes a graph with all its nodes and instances
	Delete(ctx context.Context, id aggregates.GraphID) error
}

// EventPublisher is the port for publishing domain events after commit
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
