package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"mindweave/application/commands/bus"
	"mindweave/application/ports"
	"mindweave/domain/config"
	"mindweave/domain/core/aggregates"
	"mindweave/domain/core/valueobjects"
	"mindweave/domain/versioning"
	pkgerrors "mindweave/pkg/errors"
)

// CreateRootCommand adds a new detached root node to a graph
type CreateRootCommand struct {
	UserID  string `json:"user_id" validate:"required"`
	GraphID string `json:"graph_id" validate:"required,uuid"`
	Title   string `json:"title" validate:"max=500"`
}

// Validate validates the command
func (cmd CreateRootCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	return nil
}

// CreateChildCommand adds a new node as the last child of an instance
type CreateChildCommand struct {
	UserID   string `json:"user_id" validate:"required"`
	GraphID  string `json:"graph_id" validate:"required,uuid"`
	ParentID string `json:"parent_id" validate:"required,uuid"`
	Title    string `json:"title" validate:"max=500"`
}

// Validate validates the command
func (cmd CreateChildCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if cmd.ParentID == "" {
		return errors.New("parent instance ID is required")
	}
	return nil
}

// CreateSiblingCommand adds a new node directly after an instance
// among its siblings
type CreateSiblingCommand struct {
	UserID     string `json:"user_id" validate:"required"`
	GraphID    string `json:"graph_id" validate:"required,uuid"`
	InstanceID string `json:"instance_id" validate:"required,uuid"`
	Title      string `json:"title" validate:"max=500"`
}

// Validate validates the command
func (cmd CreateSiblingCommand) Validate() error {
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

// CreateInstanceHandler handles all three creation commands
type CreateInstanceHandler struct {
	graphMutator
	cfg *config.DomainConfig
}

// NewCreateInstanceHandler creates the handler
func NewCreateInstanceHandler(
	graphRepo ports.GraphRepository,
	history *versioning.Store,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *CreateInstanceHandler {
	return &CreateInstanceHandler{
		graphMutator: newGraphMutator(graphRepo, history, publisher, logger),
		cfg:          cfg,
	}
}

// Handle implements bus.CommandHandler
func (h *CreateInstanceHandler) Handle(ctx context.Context, cmd bus.Command) error {
	switch c := cmd.(type) {
	case CreateRootCommand:
		return h.createRoot(ctx, c)
	case CreateChildCommand:
		return h.createChild(ctx, c)
	case CreateSiblingCommand:
		return h.createSibling(ctx, c)
	default:
		return pkgerrors.NewInternalError("unsupported command type")
	}
}

func (h *CreateInstanceHandler) createRoot(ctx context.Context, cmd CreateRootCommand) error {
	title, err := valueobjects.NewTitleWithConfig(cmd.Title, h.cfg)
	if err != nil {
		return err
	}
	return h.mutate(ctx, cmd.UserID, aggregates.GraphID(cmd.GraphID), func(graph *aggregates.Graph) error {
		_, err := graph.CreateRoot(title)
		return err
	})
}

func (h *CreateInstanceHandler) createChild(ctx context.Context, cmd CreateChildCommand) error {
	title, err := valueobjects.NewTitleWithConfig(cmd.Title, h.cfg)
	if err != nil {
		return err
	}
	parentID, err := valueobjects.NewInstanceIDFromString(cmd.ParentID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.mutate(ctx, cmd.UserID, aggregates.GraphID(cmd.GraphID), func(graph *aggregates.Graph) error {
		_, err := graph.CreateChild(parentID, title)
		return err
	})
}

func (h *CreateInstanceHandler) createSibling(ctx context.Context, cmd CreateSiblingCommand) error {
	title, err := valueobjects.NewTitleWithConfig(cmd.Title, h.cfg)
	if err != nil {
		return err
	}
	instanceID, err := valueobjects.NewInstanceIDFromString(cmd.InstanceID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.mutate(ctx, cmd.UserID, aggregates.GraphID(cmd.GraphID), func(graph *aggregates.Graph) error {
		_, err := graph.CreateSibling(instanceID, title)
		return err
	})
}
