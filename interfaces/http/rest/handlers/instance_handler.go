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

const maxBodyBytes = 64 << 10

// InstanceHandler serves the structural edit endpoints. Every
// successful edit responds with the refreshed graph view.
type InstanceHandler struct {
	commandBus *cmdbus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewInstanceHandler creates an instance handler
func NewInstanceHandler(commandBus *cmdbus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *InstanceHandler {
	return &InstanceHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

type createInstanceRequest struct {
	Title string `json:"title" validate:"max=500"`
}

type reorderRequest struct {
	NewOrder int `json:"new_order" validate:"min=0"`
}

type reparentRequest struct {
	NewParentID string `json:"new_parent_id" validate:"required,uuid"`
}

func parseBody(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := common.ParseJSONBody(r, req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid request body")
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return false
	}
	return true
}

// CreateRoot adds a new detached root node
func (h *InstanceHandler) CreateRoot(w http.ResponseWriter, r *http.Request) {
	user, graphID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req createInstanceRequest
	if !parseBody(w, r, &req) {
		return
	}

	h.send(w, r, user, graphID, commands.CreateRootCommand{
		UserID:  user,
		GraphID: graphID,
		Title:   req.Title,
	})
}

// CreateChild adds a new node as the last child of an instance
func (h *InstanceHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	user, graphID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req createInstanceRequest
	if !parseBody(w, r, &req) {
		return
	}

	h.send(w, r, user, graphID, commands.CreateChildCommand{
		UserID:   user,
		GraphID:  graphID,
		ParentID: chi.URLParam(r, "instanceID"),
		Title:    req.Title,
	})
}

// CreateSibling adds a new node directly after an instance among its
// siblings
func (h *InstanceHandler) CreateSibling(w http.ResponseWriter, r *http.Request) {
	user, graphID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req createInstanceRequest
	if !parseBody(w, r, &req) {
		return
	}

	h.send(w, r, user, graphID, commands.CreateSiblingCommand{
		UserID:     user,
		GraphID:    graphID,
		InstanceID: chi.URLParam(r, "instanceID"),
		Title:      req.Title,
	})
}

// DeleteInstance removes an instance and its whole subtree
func (h *InstanceHandler) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	user, graphID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	h.send(w, r, user, graphID, commands.DeleteInstanceCommand{
		UserID:     user,
		GraphID:    graphID,
		InstanceID: chi.URLParam(r, "instanceID"),
	})
}

// ToggleCollapse hides or reveals an instance's subtree
func (h *InstanceHandler) ToggleCollapse(w http.ResponseWriter, r *http.Request) {
	user, graphID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	h.send(w, r, user, graphID, commands.ToggleCollapseCommand{
		UserID:     user,
		GraphID:    graphID,
		InstanceID: chi.URLParam(r, "instanceID"),
	})
}

// Reorder moves an instance to a new rank among its siblings
func (h *InstanceHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	user, graphID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req reorderRequest
	if !parseBody(w, r, &req) {
		return
	}

	h.send(w, r, user, graphID, commands.ReorderSiblingCommand{
		UserID:     user,
		GraphID:    graphID,
		InstanceID: chi.URLParam(r, "instanceID"),
		NewOrder:   req.NewOrder,
	})
}

// Reparent moves an instance and its subtree under a new parent
func (h *InstanceHandler) Reparent(w http.ResponseWriter, r *http.Request) {
	user, graphID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	var req reparentRequest
	if !parseBody(w, r, &req) {
		return
	}

	h.send(w, r, user, graphID, commands.ReparentCommand{
		UserID:      user,
		GraphID:     graphID,
		InstanceID:  chi.URLParam(r, "instanceID"),
		NewParentID: req.NewParentID,
	})
}

// SetFocus moves keyboard focus to an instance
func (h *InstanceHandler) SetFocus(w http.ResponseWriter, r *http.Request) {
	user, graphID, ok := h.requestScope(w, r)
	if !ok {
		return
	}

	h.send(w, r, user, graphID, commands.SetFocusCommand{
		UserID:     user,
		GraphID:    graphID,
		InstanceID: chi.URLParam(r, "instanceID"),
	})
}

func (h *InstanceHandler) requestScope(w http.ResponseWriter, r *http.Request) (userID, graphID string, ok bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return "", "", false
	}
	return user.UserID, chi.URLParam(r, "graphID"), true
}

func (h *InstanceHandler) send(w http.ResponseWriter, r *http.Request, userID, graphID string, cmd cmdbus.Command) {
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
