package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-electrolux/internal/appliance"
	"github.com/nerrad567/gray-logic-electrolux/internal/auth"
	"github.com/nerrad567/gray-logic-electrolux/internal/entity"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-electrolux/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-electrolux/internal/reconciler"
)

// Message types.
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

// Event channels. A client subscribes to a channel for every appliance, or
// to "<channel>:<appliance id>" for one appliance.
const (
	ChannelApplianceState = "appliance.state"
	ChannelEntitiesAdded  = "appliance.entities_added"

	channelScopeSep = ":"
)

var knownChannels = map[string]bool{
	ChannelApplianceState: true,
	ChannelEntitiesAdded:  true,
}

// WSMessage is the envelope for every frame in both directions.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// wsInbound is WSMessage as decoded from a client, payload left raw.
type wsInbound struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload for subscribe/unsubscribe messages.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// applianceStateEvent is the ChannelApplianceState payload.
type applianceStateEvent struct {
	ApplianceID string           `json:"appliance_id"`
	Origin      string           `json:"origin"`
	Connection  string           `json:"connection"`
	Readings    []entity.Reading `json:"readings"`
}

// ScopedChannel returns the channel name limited to one appliance.
func ScopedChannel(channel, applianceID string) string {
	return channel + channelScopeSep + applianceID
}

// Hub fans appliance events out to WebSocket clients. It implements
// reconciler.Observer.
type Hub struct {
	cfg      config.WebSocketConfig
	logger   *logging.Logger
	registry *appliance.Registry
	clients  map[*WSClient]struct{}
	mu       sync.RWMutex
}

// WSClient is one connection and its channel subscriptions.
type WSClient struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	subscriptions map[string]struct{}
	mu            sync.RWMutex
	principal     auth.Principal
}

// Origin checking is left to the CORS middleware.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// NewHub creates a hub reading appliance state from registry.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger, registry *appliance.Registry) *Hub {
	return &Hub{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		clients:  make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n, "subject", client.principal.Subject)
}

// Unregister removes a client. Only the caller that removes it from the map
// closes its send channel.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	n := len(h.clients)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// Broadcast sends an event to every client subscribed to channel.
func (h *Hub) Broadcast(channel string, payload any) {
	h.publish(channel, "", payload)
}

// BroadcastAppliance sends an event about one appliance to clients
// subscribed to channel or to its scoped form for applianceID.
func (h *Hub) BroadcastAppliance(channel, applianceID string, payload any) {
	h.publish(channel, applianceID, payload)
}

func (h *Hub) publish(channel, applianceID string, payload any) {
	data, err := encodeEvent(channel, payload)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "channel", channel, "error", err)
		return
	}

	scoped := ""
	if applianceID != "" {
		scoped = ScopedChannel(channel, applianceID)
	}

	// Snapshot under the hub lock; client locks are taken after release.
	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	sent := 0
	for _, client := range clients {
		if client.isSubscribed(channel) || (scoped != "" && client.isSubscribed(scoped)) {
			client.trySend(data)
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("broadcast sent", "channel", channel, "appliance_id", applianceID, "recipients", sent)
	}
}

func encodeEvent(channel string, payload any) ([]byte, error) {
	return json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects every client so their write pumps exit.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// BatchApplied broadcasts the readings of every appliance touched by an
// update. Newly created entities are announced on ChannelEntitiesAdded
// before the state event.
func (h *Hub) BatchApplied(_ context.Context, u reconciler.Update) {
	if h.ClientCount() == 0 {
		return
	}

	for id, added := range u.Added {
		if len(added) == 0 {
			continue
		}
		keys := make([]string, 0, len(added))
		for _, d := range added {
			keys = append(keys, d.Key())
		}
		h.BroadcastAppliance(ChannelEntitiesAdded, id, map[string]any{
			"appliance_id": id,
			"entities":     keys,
		})
	}

	for _, id := range u.Appliances {
		if event, ok := h.stateEvent(id, u.Origin); ok {
			h.BroadcastAppliance(ChannelApplianceState, id, event)
		}
	}
}

// stateEvent reads the current state of an appliance. Unknown appliances
// report false.
func (h *Hub) stateEvent(id, origin string) (applianceStateEvent, bool) {
	st, err := h.registry.Get(id)
	if err != nil {
		return applianceStateEvent{}, false
	}
	return applianceStateEvent{
		ApplianceID: id,
		Origin:      origin,
		Connection:  st.ConnectionState(),
		Readings:    st.ReadAll(),
	}, true
}

// validateChannel accepts a known channel, optionally scoped to an
// appliance in the registry.
func (h *Hub) validateChannel(ch string) bool {
	base, id, scoped := strings.Cut(ch, channelScopeSep)
	if !knownChannels[base] {
		return false
	}
	if !scoped {
		return true
	}
	_, err := h.registry.Get(id)
	return err == nil
}

// handleWebSocket upgrades the HTTP connection to a WebSocket connection.
// Authentication is via ticket query parameter (obtained from POST /auth/ws-ticket).
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Ticket is required
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeUnauthorized(w, "ticket query parameter is required")
		return
	}
	principal, ok := s.validateTicket(ticket)
	if !ok {
		writeUnauthorized(w, "invalid or expired ticket")
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
		subscriptions: make(map[string]struct{}),
		principal:     principal,
	}

	s.hub.Register(client)

	// Start read/write pumps
	go client.writePump(s.wsCfg)
	go client.readPump(s.wsCfg)
}

// readPump reads messages from the WebSocket connection.
func (c *WSClient) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		// Any client message resets the read deadline (keeps connection alive
		// even if browser doesn't respond to protocol-level pings).
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *WSClient) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches one client frame.
func (c *WSClient) handleMessage(data []byte) {
	var msg wsInbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.handleSubscribe(msg)
	case WSTypeUnsubscribe:
		c.handleUnsubscribe(msg)
	case WSTypePing:
		c.sendResponse(msg.ID, WSTypePong, nil)
	default:
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
	}
}

func decodeChannels(msg wsInbound) ([]string, bool) {
	var sub WSSubscribePayload
	if len(msg.Payload) == 0 || json.Unmarshal(msg.Payload, &sub) != nil || len(sub.Channels) == 0 {
		return nil, false
	}
	return sub.Channels, true
}

// handleSubscribe adds the valid channels and replies with the accepted and
// rejected lists. A new appliance.state subscription is followed by a
// snapshot event per matching appliance.
func (c *WSClient) handleSubscribe(msg wsInbound) {
	channels, ok := decodeChannels(msg)
	if !ok {
		c.sendError(msg.ID, "invalid subscribe payload")
		return
	}

	accepted := make([]string, 0, len(channels))
	var rejected []string
	c.mu.Lock()
	for _, ch := range channels {
		if !c.hub.validateChannel(ch) {
			rejected = append(rejected, ch)
			continue
		}
		c.subscriptions[ch] = struct{}{}
		accepted = append(accepted, ch)
	}
	c.mu.Unlock()

	c.hub.logger.Info("websocket client subscribed",
		"channels", accepted,
		"rejected", rejected,
		"subject", c.principal.Subject,
	)

	resp := map[string]any{"subscribed": accepted}
	if len(rejected) > 0 {
		resp["rejected"] = rejected
	}
	c.sendResponse(msg.ID, WSTypeResponse, resp)

	for _, ch := range accepted {
		c.sendSnapshot(ch)
	}
}

// sendSnapshot sends the current state for an appliance.state channel.
func (c *WSClient) sendSnapshot(ch string) {
	base, id, scoped := strings.Cut(ch, channelScopeSep)
	if base != ChannelApplianceState {
		return
	}
	ids := []string{id}
	if !scoped {
		ids = c.hub.registry.IDs()
	}
	for _, applianceID := range ids {
		event, ok := c.hub.stateEvent(applianceID, "snapshot")
		if !ok {
			continue
		}
		if data, err := encodeEvent(ChannelApplianceState, event); err == nil {
			c.trySend(data)
		}
	}
}

// handleUnsubscribe removes channels from the client's subscription list.
func (c *WSClient) handleUnsubscribe(msg wsInbound) {
	channels, ok := decodeChannels(msg)
	if !ok {
		c.sendError(msg.ID, "invalid unsubscribe payload")
		return
	}

	c.mu.Lock()
	for _, ch := range channels {
		delete(c.subscriptions, ch)
	}
	c.mu.Unlock()

	c.sendResponse(msg.ID, WSTypeResponse, map[string]any{"unsubscribed": channels})
}

// trySend attempts to send data to the client's send channel.
// It silently handles closed channels (client disconnected during broadcast)
// and full buffers (slow client).
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}

// isSubscribed checks if the client is subscribed to a channel.
func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

// sendResponse sends a response message to the client.
// Routes through trySend to safely handle closed channels during shutdown.
func (c *WSClient) sendResponse(id, msgType string, payload any) {
	msg := WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

// sendError sends an error message to the client.
func (c *WSClient) sendError(id, message string) {
	c.sendResponse(id, WSTypeError, map[string]string{"message": message})
}
