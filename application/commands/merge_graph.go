package commands

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"mindweave/application/commands/bus"
	"mindweave/application/ports"
	"mindweave/application/queries"
	"mindweave/domain/config"
	"mindweave/domain/core/aggregates"
	"mindweave/domain/core/entities"
	"mindweave/domain/core/valueobjects"
	"mindweave/domain/versioning"
	pkgerrors "mindweave/pkg/errors"
)

// MergeGraphCommand imports an exported graph document into an
// existing graph. Every imported node and instance gets fresh ids.
type MergeGraphCommand struct {
	UserID   string             `json:"user_id" validate:"required"`
	GraphID  string             `json:"graph_id" validate:"required,uuid"`
	Document *queries.GraphView `json:"document" validate:"required"`
}

// Validate validates the command
func (cmd MergeGraphCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.GraphID == "" {
		return errors.New("graph ID is required")
	}
	if cmd.Document == nil {
		return errors.New("import document is required")
	}
	return nil
}

// MergeGraphHandler handles graph import
type MergeGraphHandler struct {
	graphMutator
	cfg *config.DomainConfig
}

// NewMergeGraphHandler creates the handler
func NewMergeGraphHandler(
	graphRepo ports.GraphRepository,
	history *versioning.Store,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *MergeGraphHandler {
	return &MergeGraphHandler{
		graphMutator: newGraphMutator(graphRepo, history, publisher, logger),
		cfg:          cfg,
	}
}

// Handle implements bus.CommandHandler
func (h *MergeGraphHandler) Handle(ctx context.Context, cmd bus.Command) error {
	c, ok := cmd.(MergeGraphCommand)
	if !ok {
		return pkgerrors.NewInternalError("unsupported command type")
	}

	imported, err := h.graphFromDocument(c.UserID, c.Document)
	if err != nil {
		return err
	}
	return h.mutate(ctx, c.UserID, aggregates.GraphID(c.GraphID), func(graph *aggregates.Graph) error {
		return graph.Merge(imported)
	})
}

// graphFromDocument rebuilds an aggregate from an exported view. The
// document's own ids only need to be internally consistent; the merge
// assigns fresh ones.
func (h *MergeGraphHandler) graphFromDocument(userID string, doc *queries.GraphView) (*aggregates.Graph, error) {
	nodes := make([]*entities.Node, 0, len(doc.Nodes))
	for _, nv := range doc.Nodes {
		id, err := valueobjects.NewNodeIDFromString(nv.ID)
		if err != nil {
			return nil, pkgerrors.NewValidationError("import document: " + err.Error())
		}
		title, err := valueobjects.NewTitleWithConfig(nv.Title, h.cfg)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "import document")
		}
		childIDs := make([]valueobjects.NodeID, 0, len(nv.ChildIDs))
		for _, childID := range nv.ChildIDs {
			cid, err := valueobjects.NewNodeIDFromString(childID)
			if err != nil {
				return nil, pkgerrors.NewValidationError("import document: " + err.Error())
			}
			childIDs = append(childIDs, cid)
		}
		hyperlink := valueobjects.NodeID{}
		if nv.HyperlinkTarget != "" {
			hyperlink, err = valueobjects.NewNodeIDFromString(nv.HyperlinkTarget)
			if err != nil {
				return nil, pkgerrors.NewValidationError("import document: " + err.Error())
			}
		}
		createdAt, updatedAt := documentTimes(nv.CreatedAt, nv.UpdatedAt)
		nodes = append(nodes, entities.ReconstructNode(id, title, childIDs, hyperlink, createdAt, updatedAt))
	}

	instances := make([]*entities.Instance, 0, len(doc.Instances))
	for _, iv := range doc.Instances {
		id, err := valueobjects.NewInstanceIDFromString(iv.ID)
		if err != nil {
			return nil, pkgerrors.NewValidationError("import document: " + err.Error())
		}
		nodeID, err := valueobjects.NewNodeIDFromString(iv.NodeID)
		if err != nil {
			return nil, pkgerrors.NewValidationError("import document: " + err.Error())
		}
		parentID := valueobjects.InstanceID{}
		if iv.ParentID != "" {
			parentID, err = valueobjects.NewInstanceIDFromString(iv.ParentID)
			if err != nil {
				return nil, pkgerrors.NewValidationError("import document: " + err.Error())
			}
		}
		pos, err := valueobjects.NewPosition(iv.X, iv.Y)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "import document")
		}
		instances = append(instances, entities.ReconstructInstance(
			id, nodeID, parentID, iv.Depth, iv.SiblingOrder, iv.Collapsed, pos,
		))
	}

	rootNode := valueobjects.NodeID{}
	if doc.RootNodeID != "" {
		if id, err := valueobjects.NewNodeIDFromString(doc.RootNodeID); err == nil {
			rootNode = id
		}
	}

	name := doc.Name
	if name == "" {
		name = "Imported Map"
	}

	return aggregates.ReconstructGraph(
		aggregates.NewGraphID(), userID, name,
		nodes, instances,
		rootNode, valueobjects.InstanceID{},
		time.Now(), time.Now(), 1,
		h.cfg,
	)
}

func documentTimes(createdAt, updatedAt time.Time) (time.Time, time.Time) {
	now := time.Now()
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}
	return createdAt, updatedAt
}
