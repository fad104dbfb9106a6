package websocket

import (
	"log"
	"sync"

	"promate/pkg/types"
)

// Registry tracks live connections by ID and delivers outbound events to
// them. It is the broadcast collaborator the event router hands recipient
// lists to, so delivery is best-effort: a dead connection is logged and
// skipped, never retried.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*Connection),
	}
}

// Register adds a connection. A stale connection under the same ID is closed
// asynchronously to avoid holding the lock across Close.
func (r *Registry) Register(conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.connections[conn.ID()]; exists && existing != conn {
		go func() {
			if err := existing.Close(); err != nil {
				log.Printf("Failed to close replaced connection: %v", err)
			}
		}()
	}

	r.connections[conn.ID()] = conn
	return nil
}

// Unregister removes a connection. Idempotent, and only removes the exact
// instance that is registered so a stale connection cannot evict its
// replacement.
func (r *Registry) Unregister(conn *Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if registered, exists := r.connections[conn.ID()]; exists && registered == conn {
		delete(r.connections, conn.ID())
	}
}

// Get returns the connection for an ID.
func (r *Registry) Get(connID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.connections[connID]
	return conn, exists
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// Send delivers an event to one connection. Unknown or dead connections are
// logged and dropped.
func (r *Registry) Send(connID string, event types.Event) {
	conn, exists := r.Get(connID)
	if !exists {
		log.Printf("Dropping event for unknown connection: type=%s conn=%s", event.Type, connID)
		return
	}

	if err := conn.WriteJSON(event); err != nil {
		log.Printf("Failed to deliver event: type=%s conn=%s: %v", event.Type, connID, err)
	}
}

// SendAll delivers an event to every listed connection, continuing past
// individual failures.
func (r *Registry) SendAll(connIDs []string, event types.Event) {
	for _, connID := range connIDs {
		r.Send(connID, event)
	}
}

// GetStats returns registry statistics for the health endpoint.
func (r *Registry) GetStats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"total_connections": len(r.connections),
	}
}
