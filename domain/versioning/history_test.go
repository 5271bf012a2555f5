package versioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindweave/domain/config"
	"mindweave/domain/core/aggregates"
	"mindweave/domain/core/valueobjects"
	pkgerrors "mindweave/pkg/errors"
)

func graphWithTitle(t *testing.T, rootTitle string) *aggregates.Graph {
	t.Helper()
	g, err := aggregates.NewGraph("user-123", "History Test", config.DefaultDomainConfig())
	require.NoError(t, err)
	title, err := valueobjects.NewTitle(rootTitle)
	require.NoError(t, err)
	_, err = g.CreateRoot(title)
	require.NoError(t, err)
	return g
}

func rootTitle(t *testing.T, g *aggregates.Graph) string {
	t.Helper()
	node, err := g.Node(g.RootNodeID())
	require.NoError(t, err)
	return node.Title().String()
}

func TestHistory_UndoRedoSwap(t *testing.T) {
	hist := NewHistory(10)
	before := graphWithTitle(t, "before")
	after := graphWithTitle(t, "after")

	hist.Push(before)
	require.True(t, hist.CanUndo())
	require.False(t, hist.CanRedo())

	restored, err := hist.Undo(after)
	require.NoError(t, err)
	assert.Equal(t, "before", rootTitle(t, restored))
	assert.False(t, hist.CanUndo())
	assert.True(t, hist.CanRedo())

	replayed, err := hist.Redo(restored)
	require.NoError(t, err)
	assert.Equal(t, "after", rootTitle(t, replayed))
	assert.True(t, hist.CanUndo())
	assert.False(t, hist.CanRedo())
}

func TestHistory_EmptyStacksRejected(t *testing.T) {
	hist := NewHistory(10)
	current := graphWithTitle(t, "current")

	_, err := hist.Undo(current)
	assert.True(t, pkgerrors.IsConflict(err))

	_, err = hist.Redo(current)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestHistory_NewEditClearsRedo(t *testing.T) {
	hist := NewHistory(10)
	first := graphWithTitle(t, "first")
	second := graphWithTitle(t, "second")

	hist.Push(first)
	_, err := hist.Undo(second)
	require.NoError(t, err)
	require.True(t, hist.CanRedo())

	hist.Push(graphWithTitle(t, "divergent"))

	assert.False(t, hist.CanRedo())
	assert.True(t, hist.CanUndo())
}

func TestHistory_DepthBounded(t *testing.T) {
	hist := NewHistory(3)
	for i := 0; i < 5; i++ {
		hist.Push(graphWithTitle(t, "snapshot"))
	}

	undo, redo := hist.Depths()
	assert.Equal(t, 3, undo)
	assert.Equal(t, 0, redo)
}

func TestHistory_SnapshotsAreIsolated(t *testing.T) {
	hist := NewHistory(10)
	g := graphWithTitle(t, "original")
	hist.Push(g)

	// Mutating the live graph must not reach into the stored snapshot.
	title, err := valueobjects.NewTitle("mutated")
	require.NoError(t, err)
	require.NoError(t, g.RenameNode(g.RootNodeID(), title))

	restored, err := hist.Undo(g)
	require.NoError(t, err)
	assert.Equal(t, "original", rootTitle(t, restored))
}

func TestHistory_PushNilIgnored(t *testing.T) {
	hist := NewHistory(10)

	hist.Push(nil)

	assert.False(t, hist.CanUndo())
}

func TestStore_ForGraphAndForget(t *testing.T) {
	store := NewStore(10)
	id := aggregates.NewGraphID()

	hist := store.ForGraph(id)
	assert.Same(t, hist, store.ForGraph(id), "same graph gets the same history")

	hist.Push(graphWithTitle(t, "state"))
	require.True(t, store.ForGraph(id).CanUndo())

	store.Forget(id)

	assert.False(t, store.ForGraph(id).CanUndo())
}
