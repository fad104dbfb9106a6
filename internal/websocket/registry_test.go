package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"promate/pkg/types"
)

func TestRegistry_NewRegistryInitialization(t *testing.T) {
	registry := NewRegistry()

	if registry == nil {
		t.Fatal("NewRegistry returned nil")
	}

	stats := registry.GetStats()
	if stats["total_connections"] != 0 {
		t.Errorf("Expected 0 initial connections, got %d", stats["total_connections"])
	}
}

func TestRegistry_RegisterNilConnection(t *testing.T) {
	registry := NewRegistry()

	err := registry.Register(nil)
	if err != ErrNilConnection {
		t.Errorf("Expected ErrNilConnection, got %v", err)
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewRegistry()

	wsConn := createTestWebSocketConnection(t)
	defer wsConn.Close()
	conn := NewConnection(wsConn)
	defer conn.Close()

	if err := registry.Register(conn); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, exists := registry.Get(conn.ID())
	if !exists {
		t.Fatal("Registered connection should be retrievable")
	}
	if got != conn {
		t.Error("Get should return the registered instance")
	}
	if registry.Count() != 1 {
		t.Errorf("Expected 1 connection, got %d", registry.Count())
	}
}

func TestRegistry_UnregisterIdempotent(t *testing.T) {
	registry := NewRegistry()

	wsConn := createTestWebSocketConnection(t)
	defer wsConn.Close()
	conn := NewConnection(wsConn)
	defer conn.Close()

	if err := registry.Register(conn); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	registry.Unregister(conn)
	registry.Unregister(conn)
	registry.Unregister(nil)

	if _, exists := registry.Get(conn.ID()); exists {
		t.Error("Connection should be gone after unregister")
	}
	if registry.Count() != 0 {
		t.Errorf("Expected 0 connections, got %d", registry.Count())
	}
}

func TestRegistry_SendDeliversEvent(t *testing.T) {
	registry := NewRegistry()

	received := make(chan []byte, 1)
	clientConn := createEchoingConnection(t, received)
	conn := NewConnection(clientConn)
	defer conn.Close()

	if err := registry.Register(conn); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	event := types.Event{
		Type:    types.EventBackgroundChanged,
		Payload: types.BackgroundChangedPayload{Background: "SaturnHula"},
	}
	registry.Send(conn.ID(), event)

	select {
	case data := <-received:
		var got types.Event
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Failed to decode delivered event: %v", err)
		}
		if got.Type != types.EventBackgroundChanged {
			t.Errorf("Expected background_changed, got %q", got.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not delivered")
	}
}

func TestRegistry_SendToUnknownConnection(t *testing.T) {
	registry := NewRegistry()

	// Must not panic; delivery to unknown connections is dropped.
	registry.Send("no-such-conn", types.Event{Type: types.EventTimerSync})
}

func TestRegistry_SendAllContinuesPastFailures(t *testing.T) {
	registry := NewRegistry()

	received := make(chan []byte, 1)
	clientConn := createEchoingConnection(t, received)
	conn := NewConnection(clientConn)
	defer conn.Close()

	if err := registry.Register(conn); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Unknown recipient first; the live one must still get the event.
	registry.SendAll([]string{"gone-conn", conn.ID()}, types.Event{Type: types.EventTasksSync})

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("Live connection should receive the event despite earlier failure")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	const numConnections = 20
	var wg sync.WaitGroup
	wg.Add(numConnections)

	for i := 0; i < numConnections; i++ {
		go func() {
			defer wg.Done()

			wsConn := createTestWebSocketConnection(t)
			conn := NewConnection(wsConn)

			if err := registry.Register(conn); err != nil {
				t.Errorf("Register failed: %v", err)
				return
			}
			registry.Get(conn.ID())
			registry.Count()
			registry.Unregister(conn)
			conn.Close()
		}()
	}

	wg.Wait()

	if registry.Count() != 0 {
		t.Errorf("Expected empty registry after churn, got %d", registry.Count())
	}
}

// createEchoingConnection dials a server that forwards every frame it reads
// into the received channel, so tests can observe delivery end to end.
func createEchoingConnection(t *testing.T, received chan<- []byte) *websocket.Conn {
	t.Helper()

	return createTestWebSocketConnectionWithReader(t, func(data []byte) {
		select {
		case received <- data:
		default:
		}
	})
}
