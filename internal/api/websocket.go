package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/smartconnect-core/internal/auth"
	"github.com/nerrad567/smartconnect-core/internal/event"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/config"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/logging"
)

// Live feed message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	wsSendBufferSize = 256
)

// Live feed channels.
const (
	ChannelEventRecorded       = "event.recorded"
	ChannelSensorStateChanged  = "sensor.state_changed"
	ChannelBarrierStateChanged = "barrier.state_changed"
)

var knownChannels = map[string]struct{}{
	ChannelEventRecorded:       {},
	ChannelSensorStateChanged:  {},
	ChannelBarrierStateChanged: {},
}

// WSMessage is a frame sent to a live feed client.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload names the channels of a subscribe or unsubscribe request.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// wsRequest is a frame received from a client. The payload is decoded
// according to Type.
type wsRequest struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans out access activity to connected clients. It observes the
// event recorder and is told about sensor and barrier state changes by
// the handlers.
type Hub struct {
	logger *logging.Logger

	// mu guards clients. Every send to a client's channel happens under
	// at least the read lock, so a channel is never written after close.
	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one live feed connection.
type WSClient struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	mu            sync.RWMutex
	subscriptions map[string]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origins are enforced by the CORS middleware.
		return true
	},
}

// NewHub creates a hub. The config is accepted for parity with the
// connection pumps, which read their timing from it.
func NewHub(_ config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.drop(client)
	}
}

// Register adds a client.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("live feed client connected", "user_id", client.userID, "clients", n)
}

// Unregister removes a client. Calling it again for the same client is a no-op.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		h.drop(client)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		h.logger.Debug("live feed client disconnected", "user_id", client.userID, "clients", n)
	}
}

// Disconnect closes every connection held by userID and returns how many
// were closed. Used when the user loses the right to read the feed.
func (h *Hub) Disconnect(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for client := range h.clients {
		if client.userID == userID {
			h.drop(client)
			n++
		}
	}
	return n
}

// drop must be called with mu held for writing.
func (h *Hub) drop(client *WSClient) {
	delete(h.clients, client)
	close(client.send)
	if client.conn != nil {
		client.conn.Close()
	}
}

// Broadcast sends payload to every client subscribed to channel.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encoding live feed message failed", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for client := range h.clients {
		if client.isSubscribed(channel) && client.offer(data) {
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("live feed broadcast", "channel", channel, "recipients", sent)
	}
}

// reply delivers a frame to one client if it is still registered.
func (h *Hub) reply(client *WSClient, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client]; ok {
		client.offer(data)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// EventRecorded broadcasts a stored event to the live feed.
func (h *Hub) EventRecorded(_ context.Context, e event.Event) {
	h.Broadcast(ChannelEventRecorded, e)
}

// handleWebSocket upgrades a ticket holder to a live feed connection.
// The ticket's user must still be allowed to read events.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeUnauthorized(w, "ticket query parameter is required")
		return
	}
	userID, ok := s.tickets.redeem(ticket)
	if !ok {
		writeUnauthorized(w, "invalid or expired ticket")
		return
	}
	if !s.mayReadFeed(r.Context(), userID) {
		writeForbidden(w)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		userID:        userID,
		subscriptions: make(map[string]struct{}),
	}
	s.hub.Register(client)

	go client.writePump(s.wsCfg)
	go client.readPump(s.wsCfg)
}

// mayReadFeed reports whether userID currently resolves to a role that
// can read events. Resolution failures deny.
func (s *Server) mayReadFeed(ctx context.Context, userID string) bool {
	principal, err := s.authz.Resolve(ctx, auth.Authenticated(userID))
	if err != nil {
		s.logger.Error("resolving live feed caller failed", "user_id", userID, "error", err)
		return false
	}
	return auth.Decide(principal, auth.ResourceEvent, auth.ActionRead, nil).Allowed()
}

func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer c.hub.Unregister(c)

	wait := time.Duration(cfg.PingInterval+cfg.PongTimeout) * time.Second
	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(wait)) //nolint:errcheck // read below reports a dead conn
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("live feed read failed", "user_id", c.userID, "error", err)
			}
			return
		}
		// Application frames count as liveness too.
		c.conn.SetReadDeadline(time.Now().Add(wait)) //nolint:errcheck // as above
		c.handleMessage(data)
	}
}

func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	ticker := time.NewTicker(time.Duration(cfg.PingInterval) * time.Second)
	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write reports failure
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write reports failure
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.respond(req.ID, WSTypeError, errorPayload("invalid JSON message"))
		return
	}

	switch req.Type {
	case WSTypeSubscribe, WSTypeUnsubscribe:
		c.handleChannels(req)
	case WSTypePing:
		c.respond(req.ID, WSTypePong, nil)
	default:
		c.respond(req.ID, WSTypeError, errorPayload("unknown message type: "+req.Type))
	}
}

// handleChannels applies a subscribe or unsubscribe request. Unknown
// channel names are reported back and otherwise ignored.
func (c *WSClient) handleChannels(req wsRequest) {
	var body WSSubscribePayload
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &body); err != nil {
			c.respond(req.ID, WSTypeError, errorPayload("invalid "+req.Type+" payload"))
			return
		}
	}

	applied := make([]string, 0, len(body.Channels))
	var unknown []string
	c.mu.Lock()
	for _, ch := range body.Channels {
		if _, ok := knownChannels[ch]; !ok {
			unknown = append(unknown, ch)
			continue
		}
		if req.Type == WSTypeSubscribe {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
		applied = append(applied, ch)
	}
	c.mu.Unlock()

	key := "subscribed"
	if req.Type == WSTypeUnsubscribe {
		key = "unsubscribed"
	}
	resp := map[string]any{key: applied}
	if len(unknown) > 0 {
		resp["unknown"] = unknown
	}
	c.respond(req.ID, WSTypeResponse, resp)
}

// offer queues data without blocking; a full buffer drops the frame.
// The caller holds the hub lock.
func (c *WSClient) offer(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

func (c *WSClient) respond(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.hub.reply(c, data)
}

func errorPayload(message string) map[string]string {
	return map[string]string{"message": message}
}
