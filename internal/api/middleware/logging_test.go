package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faqih001/Threads-WebApp/internal/auth"
)

func logOneRequest(t *testing.T, req *http.Request, handler http.HandlerFunc) map[string]interface{} {
	t.Helper()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	rec := httptest.NewRecorder()
	Logger(logger)(handler).ServeHTTP(rec, req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerRecordsRequestFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/users/suggested", nil)
	req.Header.Set("X-Real-IP", "203.0.113.7")
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "token"})

	entry := logOneRequest(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`[]`))
	})

	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/api/users/suggested", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.Equal(t, float64(2), entry["bytes"])
	assert.Equal(t, "203.0.113.7", entry["ip"])
	assert.Equal(t, true, entry["session"])
}

func TestLoggerFlagsAnonymousTraffic(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", nil)

	entry := logOneRequest(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	assert.Equal(t, false, entry["session"])
	assert.Equal(t, float64(http.StatusBadRequest), entry["status"])
}

func TestLoggerMarksWebsocketSessions(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?userId=alice", nil)

	entry := logOneRequest(t, req, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, "websocket session closed", entry["message"])
	assert.Equal(t, "/ws", entry["path"])
}
