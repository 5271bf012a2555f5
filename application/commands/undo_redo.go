package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mindweave/application/commands/bus"
	"mindweave/application/ports"
	"mindweave/domain/core/aggregates"
	"mindweave/domain/versioning"
	pkgerrors "mindweave/pkg/errors"
)

// UndoCommand restores the graph to its state before the last edit
type UndoCommand struct {
	UserID  string `json:"user_id" validate:"required"`
	GraphID string `json:"graph_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd UndoCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	return nil
}

// RedoCommand reapplies the most recently undone edit
type RedoCommand struct {
	UserID  string `json:"user_id" validate:"required"`
	GraphID string `json:"graph_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd RedoCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	return nil
}

// HistoryHandler handles undo and redo
type HistoryHandler struct {
	graphRepo ports.GraphRepository
	history   *versioning.Store
	logger    *zap.Logger
}

// NewHistoryHandler creates the handler
func NewHistoryHandler(
	graphRepo ports.GraphRepository,
	history *versioning.Store,
	logger *zap.Logger,
) *HistoryHandler {
	return &HistoryHandler{
		graphRepo: graphRepo,
		history:   history,
		logger:    logger,
	}
}

// Handle implements bus.CommandHandler
func (h *HistoryHandler) Handle(ctx context.Context, cmd bus.Command) error {
	switch c := cmd.(type) {
	case UndoCommand:
		return h.step(ctx, c.UserID, aggregates.GraphID(c.GraphID), true)
	case RedoCommand:
		return h.step(ctx, c.UserID, aggregates.GraphID(c.GraphID), false)
	default:
		return pkgerrors.NewInternalError("unsupported command type")
	}
}

func (h *HistoryHandler) step(ctx context.Context, userID string, graphID aggregates.GraphID, undo bool) error {
	graph, err := h.graphRepo.GetByID(ctx, graphID)
	if err != nil {
		return err
	}
	if graph.UserID() != userID {
		return pkgerrors.NewNotFoundError("graph")
	}

	hist := h.history.ForGraph(graphID)
	var restored *aggregates.Graph
	if undo {
		restored, err = hist.Undo(graph)
	} else {
		restored, err = hist.Redo(graph)
	}
	if err != nil {
		return err
	}

	if err := h.graphRepo.Save(ctx, restored); err != nil {
		// The swap already happened in the history stacks; reverse it
		// so the stacks still mirror the committed state.
		if undo {
			if _, redoErr := hist.Redo(restored); redoErr != nil {
				h.logger.Error("failed to rewind history after save failure", zap.Error(redoErr))
			}
		} else {
			if _, undoErr := hist.Undo(restored); undoErr != nil {
				h.logger.Error("failed to rewind history after save failure", zap.Error(undoErr))
			}
		}
		return err
	}
	return nil
}
