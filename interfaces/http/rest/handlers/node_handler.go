package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mindweave/application/commands"
	cmdbus "mindweave/application/commands/bus"
	"mindweave/application/queries"
	querybus "mindweave/application/queries/bus"
	"mindweave/pkg/auth"
	"mindweave/pkg/common"
	"mindweave/pkg/utils"
)

// NodeHandler serves content-level endpoints: rename and hyperlink
type NodeHandler struct {
	commandBus *cmdbus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewNodeHandler creates a node handler
func NewNodeHandler(commandBus *cmdbus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

type renameRequest struct {
	Title string `json:"title" validate:"max=500"`
}

type linkRequest struct {
	TargetNodeID string `json:"target_node_id" validate:"required,uuid"`
}

// Rename replaces a node's title. All instances of the node show the
// new text; an edited node loses its hyperlink.
func (h *NodeHandler) Rename(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	var req renameRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	graphID := chi.URLParam(r, "graphID")
	cmd := commands.RenameNodeCommand{
		UserID:  user.UserID,
		GraphID: graphID,
		NodeID:  chi.URLParam(r, "nodeID"),
		Title:   req.Title,
	}
	h.send(w, r, user.UserID, graphID, cmd)
}

// Link sets a hyperlink from this node to a target node
func (h *NodeHandler) Link(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	var req linkRequest
	if err := common.ParseJSONBody(r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	graphID := chi.URLParam(r, "graphID")
	cmd := commands.LinkNodesCommand{
		UserID:       user.UserID,
		GraphID:      graphID,
		SourceNodeID: chi.URLParam(r, "nodeID"),
		TargetNodeID: req.TargetNodeID,
	}
	h.send(w, r, user.UserID, graphID, cmd)
}

func (h *NodeHandler) send(w http.ResponseWriter, r *http.Request, userID, graphID string, cmd cmdbus.Command) {
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		common.RespondAppError(w, err)
		return
	}

	view, err := h.queryBus.Ask(r.Context(), queries.GetGraphQuery{
		UserID:  userID,
		GraphID: graphID,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}
