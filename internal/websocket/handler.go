package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"promate/internal/hub"
	"promate/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for development. Production deployments should
		// implement stricter origin checking.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Dispatcher receives inbound frames and connection-loss notifications. The
// hub implements it.
type Dispatcher interface {
	Dispatch(sender hub.Sender, frame types.InboundFrame) error
	ConnectionLost(connID string) error
}

// Timing controls the heartbeat. Zero values fall back to defaults.
type Timing struct {
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (t Timing) withDefaults() Timing {
	if t.PingInterval <= 0 {
		t.PingInterval = 30 * time.Second
	}
	if t.ReadTimeout <= 0 {
		t.ReadTimeout = 60 * time.Second
	}
	if t.WriteTimeout <= 0 {
		t.WriteTimeout = 10 * time.Second
	}
	return t
}

// Handler upgrades HTTP requests to WebSocket connections, assigns each a
// server-side identity, and pumps inbound frames into the hub.
type Handler struct {
	registry   *Registry
	dispatcher Dispatcher
	timing     Timing
}

// NewHandler creates a WebSocket handler.
func NewHandler(registry *Registry, dispatcher Dispatcher, timing Timing) *Handler {
	return &Handler{
		registry:   registry,
		dispatcher: dispatcher,
		timing:     timing.withDefaults(),
	}
}

// HandleWebSocket upgrades the request, registers the connection, and tells
// the client its assigned connection ID before any frames are accepted.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	wsConn := NewConnection(conn)

	if err := h.registry.Register(wsConn); err != nil {
		log.Printf("Failed to register connection: %v", err)
		_ = wsConn.Close()
		return
	}

	welcome := types.Event{
		Type:    types.EventConnected,
		Payload: types.ConnectedPayload{ConnectionID: wsConn.ID()},
	}
	if err := wsConn.WriteJSON(welcome); err != nil {
		log.Printf("Failed to send welcome event: %v", err)
		h.registry.Unregister(wsConn)
		_ = wsConn.Close()
		return
	}

	log.Printf("Connection established: conn=%s", wsConn.ID())

	go h.handleConnection(wsConn)
}

// handleConnection is the per-connection read pump with heartbeat
// monitoring. When it exits the connection is unregistered and the hub is
// told, which cascades a leave through every session the connection was in.
func (h *Handler) handleConnection(conn *Connection) {
	defer func() {
		h.registry.Unregister(conn)
		_ = conn.Close()
		if err := h.dispatcher.ConnectionLost(conn.ID()); err != nil {
			log.Printf("Failed to queue connection cleanup: conn=%s: %v", conn.ID(), err)
		}
		log.Printf("Connection closed: conn=%s", conn.ID())
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.timing.ReadTimeout)); err != nil {
		log.Printf("Failed to set read deadline: %v", err)
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.timing.ReadTimeout))
	})

	ticker := time.NewTicker(h.timing.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(h.timing.WriteTimeout)); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: conn=%s: %v", conn.ID(), err)
			}
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var frame types.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("Malformed frame from %s: %v", conn.ID(), err)
			continue
		}

		if err := h.dispatcher.Dispatch(conn, frame); err != nil {
			log.Printf("Failed to dispatch event: type=%s conn=%s: %v", frame.Type, conn.ID(), err)
		}
	}
}
