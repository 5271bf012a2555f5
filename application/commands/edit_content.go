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

// RenameNodeCommand replaces a node's title. Every instance of the
// node shows the new text, and an edited node loses its hyperlink.
type RenameNodeCommand struct {
	UserID  string `json:"user_id" validate:"required"`
	GraphID string `json:"graph_id" validate:"required,uuid"`
	NodeID  string `json:"node_id" validate:"required,uuid"`
	Title   string `json:"title" validate:"max=500"`
}

// Validate validates the command
func (cmd RenameNodeCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if cmd.NodeID == "" {
		return errors.New("node ID is required")
	}
	return nil
}

// LinkNodesCommand sets a hyperlink from one node to another
type LinkNodesCommand struct {
	UserID       string `json:"user_id" validate:"required"`
	GraphID      string `json:"graph_id" validate:"required,uuid"`
	SourceNodeID string `json:"source_node_id" validate:"required,uuid"`
	TargetNodeID string `json:"target_node_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd LinkNodesCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if cmd.SourceNodeID == "" {
		return errors.New("source node ID is required")
	}
	if cmd.TargetNodeID == "" {
		return errors.New("target node ID is required")
	}
	return nil
}

// EditContentHandler handles node-level content commands
type EditContentHandler struct {
	graphMutator
	cfg *config.DomainConfig
}

// NewEditContentHandler creates the handler
func NewEditContentHandler(
	graphRepo ports.GraphRepository,
	history *versioning.Store,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *EditContentHandler {
	return &EditContentHandler{
		graphMutator: newGraphMutator(graphRepo, history, publisher, logger),
		cfg:          cfg,
	}
}

// Handle implements bus.CommandHandler
func (h *EditContentHandler) Handle(ctx context.Context, cmd bus.Command) error {
	switch c := cmd.(type) {
	case RenameNodeCommand:
		return h.renameNode(ctx, c)
	case LinkNodesCommand:
		return h.linkNodes(ctx, c)
	default:
		return pkgerrors.NewInternalError("unsupported command type")
	}
}

func (h *EditContentHandler) renameNode(ctx context.Context, cmd RenameNodeCommand) error {
	title, err := valueobjects.NewTitleWithConfig(cmd.Title, h.cfg)
	if err != nil {
		return err
	}
	nodeID, err := valueobjects.NewNodeIDFromString(cmd.NodeID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.mutate(ctx, cmd.UserID, aggregates.GraphID(cmd.GraphID), func(graph *aggregates.Graph) error {
		return graph.RenameNode(nodeID, title)
	})
}

func (h *EditContentHandler) linkNodes(ctx context.Context, cmd LinkNodesCommand) error {
	sourceID, err := valueobjects.NewNodeIDFromString(cmd.SourceNodeID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	targetID, err := valueobjects.NewNodeIDFromString(cmd.TargetNodeID)
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.mutate(ctx, cmd.UserID, aggregates.GraphID(cmd.GraphID), func(graph *aggregates.Graph) error {
		return graph.LinkNodes(sourceID, targetID)
	})
}
