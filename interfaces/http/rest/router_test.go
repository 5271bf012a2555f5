package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindweave/application/queries"
	"mindweave/infrastructure/config"
	"mindweave/infrastructure/di"
	"mindweave/pkg/common"
)

type graphEnvelope struct {
	Success bool              `json:"success"`
	Data    queries.GraphView `json:"data"`
	Error   *common.ErrorInfo `json:"error"`
}

func newTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()
	cfg := &config.Config{
		Environment:    "development",
		StorageBackend: "memory",
		JWTSecret:      "test-secret",
		JWTIssuer:      "mindweave",
		LogLevel:       "error",
	}
	container, err := di.InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)

	router := NewRouter(
		container.CommandBus,
		container.QueryBus,
		container.JWTValidator,
		false,
		container.Logger,
	)

	token, err := container.JWTValidator.IssueToken("user-123", "user@example.com", time.Hour)
	require.NoError(t, err)
	return router.Setup(), token
}

func do(t *testing.T, handler http.Handler, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeGraph(t *testing.T, rec *httptest.ResponseRecorder) queries.GraphView {
	t.Helper()
	var env graphEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Success, "response error: %+v", env.Error)
	return env.Data
}

func TestRouter_HealthIsPublic(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := do(t, handler, "", http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RequiresAuthentication(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := do(t, handler, "", http.MethodGet, "/api/v1/graphs/default", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_EditFlow(t *testing.T) {
	handler, token := newTestServer(t)

	// First access creates the default graph with one root.
	rec := do(t, handler, token, http.MethodGet, "/api/v1/graphs/default", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	graph := decodeGraph(t, rec)
	require.Len(t, graph.Instances, 1)
	rootID := graph.Instances[0].ID

	// Adding a child returns the refreshed, relaid-out view.
	rec = do(t, handler, token, http.MethodPost,
		"/api/v1/graphs/"+graph.ID+"/instances/"+rootID+"/children",
		map[string]string{"title": "first child"})
	require.Equal(t, http.StatusOK, rec.Code)
	graph = decodeGraph(t, rec)
	assert.Len(t, graph.Instances, 2)
	assert.Len(t, graph.Edges, 1)
	assert.True(t, graph.CanUndo)

	// Undo removes it again.
	rec = do(t, handler, token, http.MethodPost, "/api/v1/graphs/"+graph.ID+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	graph = decodeGraph(t, rec)
	assert.Len(t, graph.Instances, 1)
	assert.True(t, graph.CanRedo)

	// Redo brings it back.
	rec = do(t, handler, token, http.MethodPost, "/api/v1/graphs/"+graph.ID+"/redo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	graph = decodeGraph(t, rec)
	assert.Len(t, graph.Instances, 2)
}

func TestRouter_ExportThenImport(t *testing.T) {
	handler, token := newTestServer(t)

	rec := do(t, handler, token, http.MethodGet, "/api/v1/graphs/default", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	graph := decodeGraph(t, rec)

	rec = do(t, handler, token, http.MethodGet, "/api/v1/graphs/"+graph.ID+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := decodeGraph(t, rec)

	// Importing the export doubles the content under fresh ids.
	rec = do(t, handler, token, http.MethodPost,
		"/api/v1/graphs/"+graph.ID+"/import", exported)
	require.Equal(t, http.StatusOK, rec.Code)
	merged := decodeGraph(t, rec)
	assert.Len(t, merged.Instances, 2)
	assert.Len(t, merged.Nodes, 2)
}

func TestRouter_DeleteMissingInstance(t *testing.T) {
	handler, token := newTestServer(t)

	rec := do(t, handler, token, http.MethodGet, "/api/v1/graphs/default", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	graph := decodeGraph(t, rec)

	rec = do(t, handler, token, http.MethodDelete,
		"/api/v1/graphs/"+graph.ID+"/instances/00000000-0000-0000-0000-000000000001/", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
