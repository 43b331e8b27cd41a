package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenCall struct {
	conversationID string
	userID         string
}

type fakeSeenMarker struct {
	calls chan seenCall
}

func (f *fakeSeenMarker) MarkMessagesSeen(_ context.Context, conversationID, notifyUserID string) error {
	f.calls <- seenCall{conversationID: conversationID, userID: notifyUserID}
	return nil
}

func newTestGateway(t *testing.T) (*Gateway, *httptest.Server) {
	t.Helper()
	gw := NewGateway(zerolog.Nop(), NewPresence())
	srv := httptest.NewServer(http.HandlerFunc(gw.HandleWS))
	t.Cleanup(func() {
		gw.Close()
		srv.Close()
	})
	return gw, srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(srv.URL, "http", "ws", 1) + "/?userId=" + userID
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readEnvelope(t *testing.T, ws *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := ws.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &env))
	return env.Event, env.Data
}

func waitOnline(t *testing.T, gw *Gateway, userID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return gw.presence.Get(userID) != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConnectBroadcastsOnlineUsers(t *testing.T) {
	gw, srv := newTestGateway(t)

	ws := dial(t, srv, "alice")
	waitOnline(t, gw, "alice")

	event, data := readEnvelope(t, ws)
	assert.Equal(t, EventOnlineUsers, event)

	var ids []string
	require.NoError(t, json.Unmarshal(data, &ids))
	assert.Contains(t, ids, "alice")
}

func TestAnonymousConnectionIsNotRegistered(t *testing.T) {
	gw, srv := newTestGateway(t)

	ws := dial(t, srv, "undefined")

	// Anonymous sockets still get the broadcast, with an empty roster.
	event, data := readEnvelope(t, ws)
	assert.Equal(t, EventOnlineUsers, event)

	var ids []string
	require.NoError(t, json.Unmarshal(data, &ids))
	assert.Empty(t, ids)
	assert.Equal(t, 0, gw.presence.Len())
}

func TestNotifyReachesConnectedUser(t *testing.T) {
	gw, srv := newTestGateway(t)

	ws := dial(t, srv, "bob")
	waitOnline(t, gw, "bob")
	readEnvelope(t, ws) // drain the connect broadcast

	delivered := gw.Notify("bob", EventNewMessage, map[string]string{"text": "hi"})
	assert.True(t, delivered)

	event, data := readEnvelope(t, ws)
	assert.Equal(t, EventNewMessage, event)

	var msg map[string]string
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "hi", msg["text"])
}

func TestNotifyOfflineUser(t *testing.T) {
	gw, _ := newTestGateway(t)

	assert.False(t, gw.Notify("nobody", EventNewMessage, "x"))
}

func TestMarkSeenEventDispatchesToService(t *testing.T) {
	gw, srv := newTestGateway(t)
	marker := &fakeSeenMarker{calls: make(chan seenCall, 1)}
	gw.SetSeenMarker(marker)

	ws := dial(t, srv, "carol")
	waitOnline(t, gw, "carol")

	frame := `{"event":"markMessagesAsSeen","data":{"conversationId":"65f1a2b3c4d5e6f708192a3b","userId":"dave"}}`
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(frame)))

	select {
	case call := <-marker.calls:
		assert.Equal(t, "65f1a2b3c4d5e6f708192a3b", call.conversationID)
		assert.Equal(t, "dave", call.userID)
	case <-time.After(2 * time.Second):
		t.Fatal("markMessagesAsSeen never reached the service")
	}
}

func TestDisconnectRemovesFromPresence(t *testing.T) {
	gw, srv := newTestGateway(t)

	ws := dial(t, srv, "erin")
	waitOnline(t, gw, "erin")

	ws.Close()
	require.Eventually(t, func() bool {
		return gw.presence.Get("erin") == nil
	}, 2*time.Second, 10*time.Millisecond)
}
