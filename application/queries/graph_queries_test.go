package queries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindweave/domain/config"
	"mindweave/domain/core/aggregates"
	"mindweave/domain/core/valueobjects"
	"mindweave/domain/layout"
	"mindweave/domain/versioning"
	"mindweave/infrastructure/persistence/memory"
	pkgerrors "mindweave/pkg/errors"
)

const testUserID = "user-123"

func newQueryHandler(t *testing.T) (*GraphQueryHandler, *aggregates.Graph) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	repo := memory.NewGraphRepository(cfg, zap.NewNop())

	graph, err := aggregates.NewGraph(testUserID, "Query Test", cfg)
	require.NoError(t, err)
	title, err := valueobjects.NewTitle("root")
	require.NoError(t, err)
	root, err := graph.CreateRoot(title)
	require.NoError(t, err)
	childTitle, err := valueobjects.NewTitle("child")
	require.NoError(t, err)
	_, err = graph.CreateChild(root.ID(), childTitle)
	require.NoError(t, err)
	graph.MarkEventsAsCommitted()
	require.NoError(t, repo.Save(context.Background(), graph))

	handler := NewGraphQueryHandler(
		repo,
		versioning.NewStore(cfg.MaxHistoryDepth),
		layout.NewEngine(cfg),
		zap.NewNop(),
	)
	return handler, graph
}

func TestGraphQueryHandler_GetGraph(t *testing.T) {
	handler, graph := newQueryHandler(t)

	result, err := handler.Handle(context.Background(), GetGraphQuery{
		UserID:  testUserID,
		GraphID: graph.ID().String(),
	})

	require.NoError(t, err)
	view, ok := result.(*GraphView)
	require.True(t, ok)
	assert.Equal(t, graph.ID().String(), view.ID)
	assert.Len(t, view.Nodes, 2)
	assert.Len(t, view.Instances, 2)
	assert.Len(t, view.Edges, 1)
	assert.False(t, view.CanUndo)

	// Every instance carries the engine's box estimate for drawing.
	for _, iv := range view.Instances {
		assert.Greater(t, iv.Width, 0.0)
		assert.Greater(t, iv.Height, 0.0)
	}
}

func TestGraphQueryHandler_GetGraph_WrongUser(t *testing.T) {
	handler, graph := newQueryHandler(t)

	_, err := handler.GetGraph(context.Background(), GetGraphQuery{
		UserID:  "someone-else",
		GraphID: graph.ID().String(),
	})

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestGraphQueryHandler_GetDefaultGraph_CreatesOnFirstAccess(t *testing.T) {
	handler, _ := newQueryHandler(t)

	view, err := handler.GetDefaultGraph(context.Background(), GetDefaultGraphQuery{
		UserID: "brand-new-user",
	})

	require.NoError(t, err)
	assert.Len(t, view.Instances, 1, "default graph starts with a single root")
	assert.NotEmpty(t, view.RootNodeID)
}

func TestGraphQueryHandler_ListGraphs(t *testing.T) {
	handler, graph := newQueryHandler(t)

	summaries, err := handler.ListGraphs(context.Background(), ListGraphsQuery{
		UserID: testUserID,
	})

	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, graph.ID().String(), summaries[0].ID)
	assert.Equal(t, 2, summaries[0].NodeCount)

	empty, err := handler.ListGraphs(context.Background(), ListGraphsQuery{
		UserID: "nobody",
	})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
