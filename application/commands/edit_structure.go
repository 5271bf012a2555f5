package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mindweave/application/commands/bus"
	"mindweave/application/ports"
	"mindweave/domain/core/aggregates"
	"mindweave/domain/core/valueobjects"
	"mindweave/domain/versioning"
	pkgerrors "mindweave/pkg/errors"
)

// DeleteInstanceCommand removes an instance with its whole subtree
type DeleteInstanceCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	GraphID    string `json:"graph_id" validate:"required,uuid"`
	InstanceID string `json:"instance_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd DeleteInstanceCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if cmd.InstanceID == "" {
		return errors.New("instance ID is required")
	}
	return nil
}

// ToggleCollapseCommand hides or reveals an instance's subtree
type ToggleCollapseCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	GraphID    string `json:"graph_id" validate:"required,uuid"`
	InstanceID string `json:"instance_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd ToggleCollapseCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if cmd.InstanceID == "" {
		return errors.New("instance ID is required")
	}
	return nil
}

// ReorderSiblingCommand moves an instance to a new rank among siblings
type ReorderSiblingCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	GraphID    string `json:"graph_id" validate:"required,uuid"`
	InstanceID string `json:"instance_id" validate:"required,uuid"`
	NewOrder   int    `json:"new_order" validate:"min=0"`
}

// Validate validates the command
func (cmd ReorderSiblingCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if cmd.InstanceID == "" {
		return errors.New("instance ID is required")
	}
	if cmd.NewOrder < 0 {
		return errors.New("sibling order cannot be negative")
	}
	return nil
}

// ReparentCommand moves an instance and its subtree under a new parent
type ReparentCommand struct {
	UserID      string `json:"user_id" validate:"required"`
	GraphID     string `json:"graph_id" validate:"required,uuid"`
	InstanceID  string `json:"instance_id" validate:"required,uuid"`
	NewParentID string `json:"new_parent_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd ReparentCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if cmd.InstanceID == "" {
		return errors.New("instance ID is required")
	}
	if cmd.NewParentID == "" {
		return errors.New("new parent instance ID is required")
	}
	return nil
}

// SetFocusCommand moves keyboard focus to an instance
type SetFocusCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	GraphID    string `json:"graph_id" validate:"required,uuid"`
	InstanceID string `json:"instance_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd SetFocusCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if cmd.InstanceID == "" {
		return errors.New("instance ID is required")
	}
	return nil
}

// EditStructureHandler handles the structural edit commands
type EditStructureHandler struct {
	graphMutator
}

// NewEditStructureHandler creates the handler
func NewEditStructureHandler(
	graphRepo ports.GraphRepository,
	history *versioning.Store,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *EditStructureHandler {
	return &EditStructureHandler{
		graphMutator: newGraphMutator(graphRepo, history, publisher, logger),
	}
}

// Handle implements bus.CommandHandler
func (h *EditStructureHandler) Handle(ctx context.Context, cmd bus.Command) error {
	switch c := cmd.(type) {
	case DeleteInstanceCommand:
		return h.deleteInstance(ctx, c)
	case ToggleCollapseCommand:
		return h.toggleCollapse(ctx, c)
	case ReorderSiblingCommand:
		return h.reorderSibling(ctx, c)
	case ReparentCommand:
		return h.reparent(ctx, c)
	case SetFocusCommand:
		return h.setFocus(ctx, c)
	default:
		return pkgerrors.NewInternalError("unsupported command type")
	}
}

func (h *EditStructureHandler) deleteInstance(ctx context.Context, cmd DeleteInstanceCommand) error {
	instanceID, err := valueobjects.NewInstanceIDFromString(cmd.InstanceID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.mutate(ctx, cmd.UserID, aggregates.GraphID(cmd.GraphID), func(graph *aggregates.Graph) error {
		return graph.DeleteInstance(instanceID)
	})
}

func (h *EditStructureHandler) toggleCollapse(ctx context.Context, cmd ToggleCollapseCommand) error {
	instanceID, err := valueobjects.NewInstanceIDFromString(cmd.InstanceID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.mutate(ctx, cmd.UserID, aggregates.GraphID(cmd.GraphID), func(graph *aggregates.Graph) error {
		return graph.ToggleCollapse(instanceID)
	})
}

func (h *EditStructureHandler) reorderSibling(ctx context.Context, cmd ReorderSiblingCommand) error {
	instanceID, err := valueobjects.NewInstanceIDFromString(cmd.InstanceID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.mutate(ctx, cmd.UserID, aggregates.GraphID(cmd.GraphID), func(graph *aggregates.Graph) error {
		return graph.ReorderSibling(instanceID, cmd.NewOrder)
	})
}

func (h *EditStructureHandler) reparent(ctx context.Context, cmd ReparentCommand) error {
	instanceID, err := valueobjects.NewInstanceIDFromString(cmd.InstanceID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	newParentID, err := valueobjects.NewInstanceIDFromString(cmd.NewParentID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.mutate(ctx, cmd.UserID, aggregates.GraphID(cmd.GraphID), func(graph *aggregates.Graph) error {
		return graph.Reparent(instanceID, newParentID)
	})
}

func (h *EditStructureHandler) setFocus(ctx context.Context, cmd SetFocusCommand) error {
	instanceID, err := valueobjects.NewInstanceIDFromString(cmd.InstanceID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.mutateQuiet(ctx, cmd.UserID, aggregates.GraphID(cmd.GraphID), func(graph *aggregates.Graph) error {
		return graph.SetFocus(instanceID)
	})
}
