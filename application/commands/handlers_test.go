package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mindweave/application/ports"
	"mindweave/application/queries"
	"mindweave/domain/config"
	"mindweave/domain/core/aggregates"
	"mindweave/domain/core/valueobjects"
	"mindweave/domain/layout"
	"mindweave/domain/versioning"
	"mindweave/infrastructure/messaging/eventbridge"
	"mindweave/infrastructure/persistence/memory"
	pkgerrors "mindweave/pkg/errors"
)

const testUserID = "user-123"

type fixture struct {
	repo    ports.GraphRepository
	history *versioning.Store
	cfg     *config.DomainConfig
	logger  *zap.Logger
	graphID aggregates.GraphID
	rootID  valueobjects.InstanceID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	f := &fixture{
		repo:    memory.NewGraphRepository(cfg, zap.NewNop()),
		history: versioning.NewStore(cfg.MaxHistoryDepth),
		cfg:     cfg,
		logger:  zap.NewNop(),
	}

	graph, err := aggregates.NewDefaultGraph(testUserID, cfg)
	require.NoError(t, err)
	graph.MarkEventsAsCommitted()
	require.NoError(t, f.repo.Save(context.Background(), graph))

	f.graphID = graph.ID()
	f.rootID = graph.Instances()[0].ID()
	return f
}

func (f *fixture) reload(t *testing.T) *aggregates.Graph {
	t.Helper()
	graph, err := f.repo.GetByID(context.Background(), f.graphID)
	require.NoError(t, err)
	return graph
}

func (f *fixture) createHandler() *CreateInstanceHandler {
	return NewCreateInstanceHandler(f.repo, f.history, eventbridge.NewNoopPublisher(), f.cfg, f.logger)
}

func (f *fixture) structureHandler() *EditStructureHandler {
	return NewEditStructureHandler(f.repo, f.history, eventbridge.NewNoopPublisher(), f.logger)
}

func (f *fixture) contentHandler() *EditContentHandler {
	return NewEditContentHandler(f.repo, f.history, eventbridge.NewNoopPublisher(), f.cfg, f.logger)
}

func TestCreateInstanceHandler_CreateChild(t *testing.T) {
	f := newFixture(t)
	handler := f.createHandler()

	err := handler.Handle(context.Background(), CreateChildCommand{
		UserID:   testUserID,
		GraphID:  f.graphID.String(),
		ParentID: f.rootID.String(),
		Title:    "a child",
	})

	require.NoError(t, err)
	graph := f.reload(t)
	assert.Equal(t, 2, graph.InstanceCount())
	assert.True(t, f.history.ForGraph(f.graphID).CanUndo())
}

func TestCreateInstanceHandler_WrongUserReadsAsNotFound(t *testing.T) {
	f := newFixture(t)
	handler := f.createHandler()

	err := handler.Handle(context.Background(), CreateChildCommand{
		UserID:   "someone-else",
		GraphID:  f.graphID.String(),
		ParentID: f.rootID.String(),
		Title:    "a child",
	})

	assert.True(t, pkgerrors.IsNotFound(err))
	assert.Equal(t, 1, f.reload(t).InstanceCount())
}

func TestCreateInstanceHandler_BadParentID(t *testing.T) {
	f := newFixture(t)
	handler := f.createHandler()

	err := handler.Handle(context.Background(), CreateChildCommand{
		UserID:   testUserID,
		GraphID:  f.graphID.String(),
		ParentID: "not-a-uuid",
		Title:    "a child",
	})

	assert.True(t, pkgerrors.IsValidation(err))
}

func TestCreateInstanceHandler_CreateSibling(t *testing.T) {
	f := newFixture(t)
	handler := f.createHandler()

	err := handler.Handle(context.Background(), CreateSiblingCommand{
		UserID:     testUserID,
		GraphID:    f.graphID.String(),
		InstanceID: f.rootID.String(),
		Title:      "second root",
	})

	require.NoError(t, err)
	roots := 0
	for _, inst := range f.reload(t).Instances() {
		if inst.IsRoot() {
			roots++
		}
	}
	assert.Equal(t, 2, roots)
}

func TestEditStructureHandler_DeleteInstance(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.createHandler().Handle(context.Background(), CreateChildCommand{
		UserID:   testUserID,
		GraphID:  f.graphID.String(),
		ParentID: f.rootID.String(),
		Title:    "doomed",
	}))
	var childID string
	for _, inst := range f.reload(t).Instances() {
		if !inst.IsRoot() {
			childID = inst.ID().String()
		}
	}
	require.NotEmpty(t, childID)

	err := f.structureHandler().Handle(context.Background(), DeleteInstanceCommand{
		UserID:     testUserID,
		GraphID:    f.graphID.String(),
		InstanceID: childID,
	})

	require.NoError(t, err)
	graph := f.reload(t)
	assert.Equal(t, 1, graph.InstanceCount())
	assert.Equal(t, 1, graph.NodeCount())
}

func TestEditStructureHandler_SetFocusSkipsHistory(t *testing.T) {
	f := newFixture(t)

	err := f.structureHandler().Handle(context.Background(), SetFocusCommand{
		UserID:     testUserID,
		GraphID:    f.graphID.String(),
		InstanceID: f.rootID.String(),
	})

	require.NoError(t, err)
	graph := f.reload(t)
	assert.True(t, graph.FocusedInstanceID().Equals(f.rootID))
	assert.False(t, f.history.ForGraph(f.graphID).CanUndo(),
		"focus movement must not become an undo step")
}

func TestEditStructureHandler_FailedEditLeavesStateAlone(t *testing.T) {
	f := newFixture(t)

	// Reordering the only root out of range fails inside the aggregate.
	err := f.structureHandler().Handle(context.Background(), ReorderSiblingCommand{
		UserID:     testUserID,
		GraphID:    f.graphID.String(),
		InstanceID: f.rootID.String(),
		NewOrder:   5,
	})

	assert.True(t, pkgerrors.IsValidation(err))
	assert.False(t, f.history.ForGraph(f.graphID).CanUndo())
}

func TestEditContentHandler_Rename(t *testing.T) {
	f := newFixture(t)
	rootNodeID := f.reload(t).RootNodeID()

	err := f.contentHandler().Handle(context.Background(), RenameNodeCommand{
		UserID:  testUserID,
		GraphID: f.graphID.String(),
		NodeID:  rootNodeID.String(),
		Title:   "renamed root",
	})

	require.NoError(t, err)
	node, err := f.reload(t).Node(rootNodeID)
	require.NoError(t, err)
	assert.Equal(t, "renamed root", node.Title().String())
}

func TestHistoryHandler_UndoRedo(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.createHandler().Handle(context.Background(), CreateChildCommand{
		UserID:   testUserID,
		GraphID:  f.graphID.String(),
		ParentID: f.rootID.String(),
		Title:    "undo me",
	}))
	require.Equal(t, 2, f.reload(t).InstanceCount())

	handler := NewHistoryHandler(f.repo, f.history, f.logger)

	err := handler.Handle(context.Background(), UndoCommand{
		UserID:  testUserID,
		GraphID: f.graphID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.reload(t).InstanceCount())

	err = handler.Handle(context.Background(), RedoCommand{
		UserID:  testUserID,
		GraphID: f.graphID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, f.reload(t).InstanceCount())
}

func TestHistoryHandler_NothingToUndo(t *testing.T) {
	f := newFixture(t)
	handler := NewHistoryHandler(f.repo, f.history, f.logger)

	err := handler.Handle(context.Background(), UndoCommand{
		UserID:  testUserID,
		GraphID: f.graphID.String(),
	})

	assert.True(t, pkgerrors.IsConflict(err))
}

func TestMergeGraphHandler_ImportsExportedDocument(t *testing.T) {
	f := newFixture(t)
	est := layout.NewEngine(f.cfg).Estimator()

	// Export a second graph and feed the document back as an import.
	source, err := aggregates.NewGraph(testUserID, "Source", f.cfg)
	require.NoError(t, err)
	title, err := valueobjects.NewTitleWithConfig("exported root", f.cfg)
	require.NoError(t, err)
	srcRoot, err := source.CreateRoot(title)
	require.NoError(t, err)
	childTitle, err := valueobjects.NewTitleWithConfig("exported child", f.cfg)
	require.NoError(t, err)
	_, err = source.CreateChild(srcRoot.ID(), childTitle)
	require.NoError(t, err)
	doc := queries.NewGraphView(source, est, false, false)

	handler := NewMergeGraphHandler(f.repo, f.history, eventbridge.NewNoopPublisher(), f.cfg, f.logger)
	err = handler.Handle(context.Background(), MergeGraphCommand{
		UserID:   testUserID,
		GraphID:  f.graphID.String(),
		Document: doc,
	})

	require.NoError(t, err)
	graph := f.reload(t)
	assert.Equal(t, 3, graph.InstanceCount())
	assert.Equal(t, 3, graph.NodeCount())
	require.NoError(t, graph.Validate())

	// The imported content carries fresh ids.
	_, err = graph.Instance(srcRoot.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestMergeGraphHandler_MalformedDocument(t *testing.T) {
	f := newFixture(t)
	handler := NewMergeGraphHandler(f.repo, f.history, eventbridge.NewNoopPublisher(), f.cfg, f.logger)

	err := handler.Handle(context.Background(), MergeGraphCommand{
		UserID:  testUserID,
		GraphID: f.graphID.String(),
		Document: &queries.GraphView{
			Nodes: []queries.NodeView{{ID: "not-a-uuid", Title: "bad"}},
		},
	})

	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, 1, f.reload(t).InstanceCount())
}
