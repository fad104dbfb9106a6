package hub

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"promate/internal/core"
	"promate/internal/store"
	"promate/pkg/types"
)

// mockSender records every event written back to the connection.
type mockSender struct {
	id     string
	mu     sync.Mutex
	writes []types.Event
}

func (s *mockSender) ID() string { return s.id }

func (s *mockSender) WriteJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, v.(types.Event))
	return nil
}

func (s *mockSender) acks() []types.AckPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.AckPayload
	for _, ev := range s.writes {
		if ev.Type == types.EventAck {
			out = append(out, ev.Payload.(types.AckPayload))
		}
	}
	return out
}

// mockBroadcaster records fan-out traffic so tests can observe which
// broadcasts the hub-driven core produced.
type mockBroadcaster struct {
	mu   sync.Mutex
	sent []types.Event
}

func (b *mockBroadcaster) Send(connID string, event types.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, event)
}

func (b *mockBroadcaster) SendAll(connIDs []string, event types.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for range connIDs {
		b.sent = append(b.sent, event)
	}
}

func (b *mockBroadcaster) countOf(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, ev := range b.sent {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

func newTestHub(t *testing.T) (*Hub, *core.Core, *mockBroadcaster) {
	t.Helper()
	defaults := types.Settings{FocusSeconds: 1500, BreakSeconds: 300, Background: types.DefaultBackground}
	broadcaster := &mockBroadcaster{}
	c := core.New(store.NewStore(defaults), broadcaster, nil, core.Config{})
	h := NewHub(c)
	if err := h.Start(context.Background()); err != nil {
		t.Fatalf("failed to start hub: %v", err)
	}
	t.Cleanup(func() { _ = h.Stop() })
	return h, c, broadcaster
}

func frame(t *testing.T, eventType, ack string, payload any) types.InboundFrame {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return types.InboundFrame{Type: eventType, Ack: ack, Payload: raw}
}

// waitFor polls until the condition holds or the deadline expires.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestHub_StartStop(t *testing.T) {
	defaults := types.Settings{FocusSeconds: 1500, BreakSeconds: 300, Background: types.DefaultBackground}
	c := core.New(store.NewStore(defaults), &mockBroadcaster{}, nil, core.Config{})
	h := NewHub(c)

	ctx := context.Background()
	if err := h.Start(ctx); err != nil {
		t.Errorf("expected no error starting hub, got %v", err)
	}
	if err := h.Start(ctx); err != ErrHubAlreadyRunning {
		t.Errorf("expected ErrHubAlreadyRunning, got %v", err)
	}
	if err := h.Stop(); err != nil {
		t.Errorf("expected no error stopping hub, got %v", err)
	}
	if err := h.Stop(); err != ErrHubNotRunning {
		t.Errorf("expected ErrHubNotRunning, got %v", err)
	}
}

func TestHub_DispatchBeforeStart(t *testing.T) {
	defaults := types.Settings{FocusSeconds: 1500, BreakSeconds: 300, Background: types.DefaultBackground}
	c := core.New(store.NewStore(defaults), &mockBroadcaster{}, nil, core.Config{})
	h := NewHub(c)

	sender := &mockSender{id: "conn-1"}
	if err := h.Dispatch(sender, types.InboundFrame{Type: types.EventCreateSession, Ack: "1"}); err != ErrHubNotRunning {
		t.Errorf("expected ErrHubNotRunning, got %v", err)
	}
	if err := h.ConnectionLost("conn-1"); err != ErrHubNotRunning {
		t.Errorf("expected ErrHubNotRunning, got %v", err)
	}
}

func TestHub_CreateSessionAck(t *testing.T) {
	h, _, _ := newTestHub(t)
	sender := &mockSender{id: "host-conn"}

	if err := h.Dispatch(sender, types.InboundFrame{Type: types.EventCreateSession, Ack: "1"}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	waitFor(t, func() bool { return len(sender.acks()) == 1 })

	ack := sender.acks()[0]
	if !ack.Success {
		t.Fatalf("expected successful ack, got error %q", ack.Error)
	}
	if len(ack.SessionID) != 6 {
		t.Errorf("expected 6-character session code, got %q", ack.SessionID)
	}
	if ack.Session == nil || ack.Session.HostID != "host-conn" {
		t.Error("ack should carry a snapshot with the creator as host")
	}
}

func TestHub_CheckUnknownSessionAck(t *testing.T) {
	h, _, _ := newTestHub(t)
	sender := &mockSender{id: "conn-1"}

	f := frame(t, types.EventCheckSession, "7", types.SessionRefPayload{SessionID: "NOPE00"})
	if err := h.Dispatch(sender, f); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	waitFor(t, func() bool { return len(sender.acks()) == 1 })

	ack := sender.acks()[0]
	if ack.Success {
		t.Error("expected failure ack for unknown session")
	}
	if ack.Error != "session not found" {
		t.Errorf("expected stable error string, got %q", ack.Error)
	}
}

func TestHub_TimerStartBroadcasts(t *testing.T) {
	h, c, broadcaster := newTestHub(t)
	snap, err := c.CreateSession("host-conn")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	sender := &mockSender{id: "host-conn"}
	f := frame(t, types.EventTimerStart, "", types.SessionRefPayload{SessionID: snap.Code})
	if err := h.Dispatch(sender, f); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	waitFor(t, func() bool { return broadcaster.countOf(types.EventTimerSync) == 1 })
}

func TestHub_MalformedPayloadAck(t *testing.T) {
	h, _, _ := newTestHub(t)
	sender := &mockSender{id: "conn-1"}

	bad := types.InboundFrame{Type: types.EventJoinSession, Ack: "3", Payload: json.RawMessage(`{"sessionId":`)}
	if err := h.Dispatch(sender, bad); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	waitFor(t, func() bool { return len(sender.acks()) == 1 })

	ack := sender.acks()[0]
	if ack.Success || ack.Error != "malformed payload" {
		t.Errorf("expected malformed payload failure, got %+v", ack)
	}
}

func TestHub_FireAndForgetFailureIsSilent(t *testing.T) {
	h, c, broadcaster := newTestHub(t)
	snap, err := c.CreateSession("host-conn")
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	sender := &mockSender{id: "host-conn"}

	// Pausing a stopped timer fails inside the core. Chase it with a
	// direct-reply event so the serialized loop proves the pause has been
	// fully processed by the time the ack lands.
	pause := frame(t, types.EventTimerPause, "", types.SessionRefPayload{SessionID: snap.Code})
	if err := h.Dispatch(sender, pause); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	check := frame(t, types.EventCheckSession, "9", types.SessionRefPayload{SessionID: snap.Code})
	if err := h.Dispatch(sender, check); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	waitFor(t, func() bool { return len(sender.acks()) == 1 })

	if got := broadcaster.countOf(types.EventTimerSync); got != 0 {
		t.Errorf("failed pause should not broadcast, got %d timer_sync events", got)
	}
	if len(sender.writes) != 1 {
		t.Errorf("fire-and-forget failure should not answer the caller, got %d writes", len(sender.writes))
	}
}

func TestHub_ConnectionLostCleansUp(t *testing.T) {
	h, c, _ := newTestHub(t)
	if _, err := c.CreateSession("gone-conn"); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if err := h.ConnectionLost("gone-conn"); err != nil {
		t.Fatalf("failed to queue lost connection: %v", err)
	}

	waitFor(t, func() bool { return c.SessionCount() == 0 })
}
