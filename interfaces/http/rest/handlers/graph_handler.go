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
)

const maxImportBytes = 4 << 20

// GraphHandler serves graph-level endpoints: fetch, list, export,
// import and undo/redo.
type GraphHandler struct {
	commandBus *cmdbus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewGraphHandler creates a graph handler
func NewGraphHandler(commandBus *cmdbus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// GetDefaultGraph returns the caller's default graph, creating it on
// first access
func (h *GraphHandler) GetDefaultGraph(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	view, err := h.queryBus.Ask(r.Context(), queries.GetDefaultGraphQuery{UserID: user.UserID})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// GetGraph returns the full view of one graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	view, err := h.queryBus.Ask(r.Context(), queries.GetGraphQuery{
		UserID:  user.UserID,
		GraphID: chi.URLParam(r, "graphID"),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// ListGraphs returns summaries of the caller's graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	summaries, err := h.queryBus.Ask(r.Context(), queries.ListGraphsQuery{UserID: user.UserID})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, summaries)
}

// ExportGraph returns the graph view as a portable document
func (h *GraphHandler) ExportGraph(w http.ResponseWriter, r *http.Request) {
	// The view already is the export format.
	h.GetGraph(w, r)
}

// ImportGraph merges an exported document into the addressed graph
func (h *GraphHandler) ImportGraph(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	var doc queries.GraphView
	if err := common.ParseJSONBody(r, &doc, maxImportBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "invalid import document")
		return
	}

	graphID := chi.URLParam(r, "graphID")
	cmd := commands.MergeGraphCommand{
		UserID:   user.UserID,
		GraphID:  graphID,
		Document: &doc,
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		common.RespondAppError(w, err)
		return
	}
	h.respondGraph(w, r, user.UserID, graphID)
}

// Undo restores the graph to its state before the last edit
func (h *GraphHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.historyStep(w, r, true)
}

// Redo reapplies the most recently undone edit
func (h *GraphHandler) Redo(w http.ResponseWriter, r *http.Request) {
	h.historyStep(w, r, false)
}

func (h *GraphHandler) historyStep(w http.ResponseWriter, r *http.Request, undo bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	graphID := chi.URLParam(r, "graphID")
	var cmd cmdbus.Command
	if undo {
		cmd = commands.UndoCommand{UserID: user.UserID, GraphID: graphID}
	} else {
		cmd = commands.RedoCommand{UserID: user.UserID, GraphID: graphID}
	}
	if err := h.commandBus.Send(r.Context(), cmd); err != nil {
		common.RespondAppError(w, err)
		return
	}
	h.respondGraph(w, r, user.UserID, graphID)
}

// respondGraph answers a successful mutation with the refreshed view,
// so the canvas redraws from the relaid-out positions.
func (h *GraphHandler) respondGraph(w http.ResponseWriter, r *http.Request, userID, graphID string) {
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
