package versioning

import (
	"sync"

	"mindweave/domain/core/aggregates"
	pkgerrors "mindweave/pkg/errors"
)

// History keeps bounded undo/redo snapshots for one graph. Snapshots
// are deep clones taken before each committed edit; a new edit clears
// the redo side, and the undo side drops its oldest entry once the
// depth limit is reached.
type History struct {
	mu       sync.Mutex
	maxDepth int
	past     []*aggregates.Graph
	future   []*aggregates.Graph
}

// NewHistory creates a history with the given maximum undo depth
func NewHistory(maxDepth int) *History {
	if maxDepth <= 0 {
		maxDepth = 1
	}
	return &History{maxDepth: maxDepth}
}

// Push records the pre-edit state of the graph. Call it with the state
// as it was before the edit committed.
func (h *History) Push(snapshot *aggregates.Graph) {
	if snapshot == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.past = append(h.past, snapshot.Clone())
	if len(h.past) > h.maxDepth {
		h.past = h.past[1:]
	}
	h.future = nil
}

// Undo exchanges the current state for the most recent snapshot and
// returns that snapshot. The current state moves to the redo side.
func (h *History) Undo(current *aggregates.Graph) (*aggregates.Graph, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.past) == 0 {
		return nil, pkgerrors.NewConflictError("nothing to undo")
	}

	restored := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current.Clone())
	return restored, nil
}

// Redo exchanges the current state for the most recently undone state
func (h *History) Redo(current *aggregates.Graph) (*aggregates.Graph, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.future) == 0 {
		return nil, pkgerrors.NewConflictError("nothing to redo")
	}

	restored := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current.Clone())
	return restored, nil
}

// CanUndo reports whether an undo snapshot is available
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past) > 0
}

// CanRedo reports whether a redo snapshot is available
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.future) > 0
}

// Depths returns the current undo and redo stack sizes
func (h *History) Depths() (undo, redo int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past), len(h.future)
}

// Store keeps one History per graph id. Lives in process memory; a
// restart forgets edit history but never committed graph state.
type Store struct {
	mu       sync.Mutex
	maxDepth int
	byGraph  map[aggregates.GraphID]*History
}

// NewStore creates a history store with the given per-graph depth
func NewStore(maxDepth int) *Store {
	return &Store{
		maxDepth: maxDepth,
		byGraph:  make(map[aggregates.GraphID]*History),
	}
}

// ForGraph returns the history for a graph, creating it on first use
func (s *Store) ForGraph(id aggregates.GraphID) *History {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.byGraph[id]
	if !ok {
		h = NewHistory(s.maxDepth)
		s.byGraph[id] = h
	}
	return h
}

// Forget drops the history for a graph, used when a graph is deleted
func (s *Store) Forget(id aggregates.GraphID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byGraph, id)
}
