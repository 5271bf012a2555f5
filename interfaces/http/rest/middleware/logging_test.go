package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveLogged(t *testing.T, status int) (*httptest.ResponseRecorder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)

	handler := chimiddleware.RequestID(Logger(zap.New(core))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}),
	))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/graphs/default", nil))
	return rec, logs
}

func TestLogger_EchoesRequestIDAndLogsOutcome(t *testing.T) {
	rec, logs := serveLogged(t, http.StatusOK)

	echoed := rec.Header().Get("X-Request-ID")
	assert.NotEmpty(t, echoed)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "/api/v1/graphs/default", fields["path"])
	assert.Equal(t, echoed, fields["requestID"])
}

func TestLogger_ServerErrorsLogAtWarn(t *testing.T) {
	_, logs := serveLogged(t, http.StatusInternalServerError)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusInternalServerError), entries[0].ContextMap()["status"])
}
