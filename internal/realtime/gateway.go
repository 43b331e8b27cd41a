// Package realtime is the websocket gateway: it registers connections in
// the presence directory, broadcasts the online-user list, relays new-message
// and messages-seen events, and serves the mark-as-seen request.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Faqih001/Threads-WebApp/internal/metrics"
)

// Event names on the wire.
const (
	EventOnlineUsers  = "getOnlineUsers"
	EventNewMessage   = "newMessage"
	EventMessagesSeen = "messagesSeen"

	eventMarkSeen = "markMessagesAsSeen"
)

// anonymousID is what browser clients send when no user is logged in; it is
// treated as "no identity" and the connection is not registered.
const anonymousID = "undefined"

// Envelope is the wire format for every realtime event.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// SeenMarker is the slice of the messaging service the gateway calls for
// mark-as-seen requests.
type SeenMarker interface {
	MarkMessagesSeen(ctx context.Context, conversationID, notifyUserID string) error
}

// Gateway owns the presence directory and all live websocket connections.
type Gateway struct {
	logger   zerolog.Logger
	presence *Presence
	seen     SeenMarker

	mu    sync.RWMutex
	conns map[*Connection]struct{}

	upgrader websocket.Upgrader
}

// NewGateway constructs a gateway around the given presence directory.
func NewGateway(logger zerolog.Logger, presence *Presence) *Gateway {
	return &Gateway{
		logger:   logger,
		presence: presence,
		conns:    make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// CORS policy is enforced on the API; the socket carries no
				// credentials beyond the user id query parameter.
				return true
			},
		},
	}
}

// SetSeenMarker wires the messaging service in after construction; the
// service itself needs the gateway for delivery, so one side attaches late.
func (g *Gateway) SetSeenMarker(seen SeenMarker) {
	g.seen = seen
}

// HandleWS upgrades the request and runs the connection until it drops.
// The user identity arrives as the userId query parameter; the literal
// string "undefined" means an anonymous session.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == anonymousID {
		userID = ""
	}

	conn := NewConnection(userID, ws)
	conn.Start()
	g.register(conn)

	g.readLoop(conn, ws)

	g.unregister(conn)
}

func (g *Gateway) register(conn *Connection) {
	g.mu.Lock()
	g.conns[conn] = struct{}{}
	g.mu.Unlock()

	if conn.UserID != "" {
		g.presence.Register(conn)
		metrics.OnlineUsers.Set(float64(g.presence.Len()))
		g.logger.Debug().Str("user_id", conn.UserID).Msg("user connected")
	}

	g.broadcastOnlineUsers()
}

func (g *Gateway) unregister(conn *Connection) {
	g.mu.Lock()
	delete(g.conns, conn)
	g.mu.Unlock()

	conn.Close(websocket.CloseNormalClosure, "")

	if conn.UserID != "" {
		if g.presence.Unregister(conn) {
			g.logger.Debug().Str("user_id", conn.UserID).Msg("user disconnected")
		}
		metrics.OnlineUsers.Set(float64(g.presence.Len()))
	}

	g.broadcastOnlineUsers()
}

func (g *Gateway) readLoop(conn *Connection, ws *websocket.Conn) {
	ws.SetReadLimit(maxFrameSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := ws.ReadMessage()
		if err != nil {
			return
		}
		g.handleClientEvent(conn, payload)
	}
}

type clientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type markSeenRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}

// handleClientEvent dispatches an inbound frame. Handler errors are logged
// and swallowed; nothing surfaces to the socket.
func (g *Gateway) handleClientEvent(conn *Connection, payload []byte) {
	var evt clientEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		g.logger.Debug().Err(err).Msg("malformed client event")
		return
	}

	switch evt.Event {
	case eventMarkSeen:
		var req markSeenRequest
		if err := json.Unmarshal(evt.Data, &req); err != nil {
			g.logger.Debug().Err(err).Msg("malformed markMessagesAsSeen payload")
			return
		}
		if g.seen == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := g.seen.MarkMessagesSeen(ctx, req.ConversationID, req.UserID); err != nil {
			g.logger.Error().Err(err).
				Str("conversation_id", req.ConversationID).
				Msg("markMessagesAsSeen failed")
		}
	default:
		g.logger.Debug().Str("event", evt.Event).Msg("unknown client event")
	}
}

// Notify delivers an event to the user's active connection. Returns false
// when the user is not connected; that is never an error for callers.
func (g *Gateway) Notify(userID, event string, data interface{}) bool {
	conn := g.presence.Get(userID)
	if conn == nil {
		return false
	}

	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		g.logger.Error().Err(err).Str("event", event).Msg("marshal realtime event")
		return false
	}

	if err := conn.Send(payload); err != nil {
		return false
	}
	metrics.RealtimeEvents.WithLabelValues(event).Inc()
	return true
}

// broadcastOnlineUsers pushes the current online id list to every connection,
// registered or anonymous. Best effort.
func (g *Gateway) broadcastOnlineUsers() {
	payload, err := json.Marshal(Envelope{Event: EventOnlineUsers, Data: g.presence.OnlineIDs()})
	if err != nil {
		return
	}

	g.mu.RLock()
	for conn := range g.conns {
		_ = conn.Send(payload)
	}
	g.mu.RUnlock()
	metrics.RealtimeEvents.WithLabelValues(EventOnlineUsers).Inc()
}

// Close terminates every tracked connection, for shutdown.
func (g *Gateway) Close() {
	g.mu.Lock()
	conns := make([]*Connection, 0, len(g.conns))
	for conn := range g.conns {
		conns = append(conns, conn)
	}
	g.conns = make(map[*Connection]struct{})
	g.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.CloseGoingAway, "server shutting down")
	}
}
