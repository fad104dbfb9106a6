// Package hub serializes all inbound session events through a single
// goroutine. Each event is processed to completion (state mutation plus
// broadcast hand-off) before the next one starts, so compound updates are
// never observed half-applied regardless of how many socket readers feed it.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"promate/internal/core"
	"promate/internal/store"
	"promate/internal/timer"
	"promate/pkg/types"
)

// Sender is the reply channel back to the originating connection.
type Sender interface {
	ID() string
	WriteJSON(v any) error
}

// eventContext pairs a decoded frame with its originating connection.
type eventContext struct {
	sender Sender
	frame  types.InboundFrame
}

// Hub queues inbound events and connection-loss notifications and processes
// them one at a time.
type Hub struct {
	eventChannel chan *eventContext
	lostChannel  chan string
	shutdown     chan struct{}

	core *core.Core

	running bool
	mu      sync.RWMutex
}

// NewHub creates a hub routing into the given core. Channel buffers absorb
// bursts from many concurrent socket readers without blocking them.
func NewHub(c *core.Core) *Hub {
	return &Hub{
		eventChannel: make(chan *eventContext, 1000),
		lostChannel:  make(chan string, 100),
		shutdown:     make(chan struct{}),
		core:         c,
	}
}

// Start begins hub processing.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrHubAlreadyRunning
	}
	h.running = true
	h.mu.Unlock()

	log.Println("Starting event hub...")
	go h.run(ctx)
	return nil
}

// Stop shuts the hub down. Events still queued are dropped.
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return ErrHubNotRunning
	}
	h.running = false

	select {
	case <-h.shutdown:
	default:
		close(h.shutdown)
	}
	return nil
}

// Dispatch queues an inbound frame for processing.
func (h *Hub) Dispatch(sender Sender, frame types.InboundFrame) error {
	h.mu.RLock()
	if !h.running {
		h.mu.RUnlock()
		return ErrHubNotRunning
	}
	h.mu.RUnlock()

	select {
	case h.eventChannel <- &eventContext{sender: sender, frame: frame}:
		return nil
	default:
		return ErrEventChannelFull
	}
}

// ConnectionLost queues a dropped connection for cleanup. The core treats it
// as a leave from every session the connection belonged to.
func (h *Hub) ConnectionLost(connID string) error {
	h.mu.RLock()
	if !h.running {
		h.mu.RUnlock()
		return ErrHubNotRunning
	}
	h.mu.RUnlock()

	select {
	case h.lostChannel <- connID:
		return nil
	default:
		return ErrLostChannelFull
	}
}

// run is the single processing loop.
func (h *Hub) run(ctx context.Context) {
	defer log.Println("Event hub stopped")

	for {
		select {
		case ev := <-h.eventChannel:
			h.handleEvent(ev)

		case connID := <-h.lostChannel:
			h.core.Disconnect(connID)
			log.Printf("Connection cleanup complete: conn=%s", connID)

		case <-h.shutdown:
			log.Println("Hub shutdown requested")
			return

		case <-ctx.Done():
			log.Println("Hub context cancelled")
			return
		}
	}
}

// handleEvent dispatches one frame. Direct-reply events answer the caller
// with a structured ack; fire-and-forget failures are logged and produce no
// broadcast.
func (h *Hub) handleEvent(ev *eventContext) {
	sender := ev.sender
	frame := ev.frame
	connID := sender.ID()

	switch frame.Type {

	case types.EventCreateSession:
		snap, err := h.core.CreateSession(connID)
		h.ack(sender, frame, snap, err)

	case types.EventCheckSession:
		var p types.SessionRefPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		snap, err := h.core.CheckSession(p.SessionID)
		h.ack(sender, frame, snap, err)

	case types.EventJoinSession:
		var p types.SessionRefPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		snap, err := h.core.JoinDirect(p.SessionID, connID)
		h.ack(sender, frame, snap, err)

	case types.EventRequestJoin:
		var p types.RequestJoinPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		h.ack(sender, frame, nil, h.core.RequestJoin(p.SessionID, connID, p.DisplayName))

	case types.EventApproveRequest:
		var p types.RequestDecisionPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		snap, err := h.core.ApproveRequest(p.SessionID, connID, p.TargetID)
		h.ack(sender, frame, snap, err)

	case types.EventRejectRequest:
		var p types.RequestDecisionPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		h.ack(sender, frame, nil, h.core.RejectRequest(p.SessionID, connID, p.TargetID))

	case types.EventLeaveSession:
		var p types.SessionRefPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		h.silent(frame.Type, connID, h.core.LeaveSession(p.SessionID, connID))

	case types.EventTimerStart:
		var p types.SessionRefPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		_, err := h.core.TimerStart(p.SessionID, connID)
		h.silent(frame.Type, connID, err)

	case types.EventTimerPause:
		var p types.SessionRefPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		_, err := h.core.TimerPause(p.SessionID, connID)
		h.silent(frame.Type, connID, err)

	case types.EventTimerReset:
		var p types.SessionRefPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		_, err := h.core.TimerReset(p.SessionID, connID)
		h.silent(frame.Type, connID, err)

	case types.EventTimerSwitchMode:
		var p types.SwitchModePayload
		if !h.decode(sender, frame, &p) {
			return
		}
		_, err := h.core.SwitchMode(p.SessionID, connID, p.Mode)
		h.silent(frame.Type, connID, err)

	case types.EventChangeBackground:
		var p types.ChangeBackgroundPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		h.silent(frame.Type, connID, h.core.ChangeBackground(p.SessionID, connID, p.Background))

	case types.EventTaskAdd:
		var p types.TaskAddPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		_, err := h.core.AddTask(p.SessionID, connID, p.Text)
		h.silent(frame.Type, connID, err)

	case types.EventTaskToggle:
		var p types.TaskRefPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		_, err := h.core.ToggleTask(p.SessionID, connID, p.TaskID)
		h.silent(frame.Type, connID, err)

	case types.EventTaskRemove:
		var p types.TaskRefPayload
		if !h.decode(sender, frame, &p) {
			return
		}
		_, err := h.core.RemoveTask(p.SessionID, connID, p.TaskID)
		h.silent(frame.Type, connID, err)

	case types.EventSendMessage:
		var p types.SendMessagePayload
		if !h.decode(sender, frame, &p) {
			return
		}
		_, err := h.core.SendMessage(p.SessionID, connID, p.Sender, p.Text)
		h.silent(frame.Type, connID, err)

	default:
		log.Printf("Dropped unknown event: type=%s conn=%s", frame.Type, connID)
	}
}

// decode unmarshals a frame payload, failing the event on malformed JSON.
func (h *Hub) decode(sender Sender, frame types.InboundFrame, into any) bool {
	if len(frame.Payload) == 0 || json.Unmarshal(frame.Payload, into) != nil {
		log.Printf("Malformed payload: type=%s conn=%s", frame.Type, sender.ID())
		if frame.Ack != "" {
			h.writeAck(sender, frame.Ack, types.AckPayload{Success: false, Error: "malformed payload"})
		}
		return false
	}
	return true
}

// ack answers a direct-reply event with a structured success or failure.
// Events submitted without an ack ID fall back to the silent policy.
func (h *Hub) ack(sender Sender, frame types.InboundFrame, snap *types.SessionSnapshot, err error) {
	if frame.Ack == "" {
		h.silent(frame.Type, sender.ID(), err)
		return
	}

	if err != nil {
		h.writeAck(sender, frame.Ack, types.AckPayload{Success: false, Error: ackError(err)})
		return
	}

	payload := types.AckPayload{Success: true}
	if snap != nil {
		payload.SessionID = snap.Code
		payload.Session = snap
	}
	h.writeAck(sender, frame.Ack, payload)
}

func (h *Hub) writeAck(sender Sender, ackID string, payload types.AckPayload) {
	event := types.Event{Type: types.EventAck, Ack: ackID, Payload: payload}
	if err := sender.WriteJSON(event); err != nil {
		log.Printf("Failed to deliver ack to %s: %v", sender.ID(), err)
	}
}

// silent implements the fire-and-forget failure policy: log only, nothing
// surfaced to other participants.
func (h *Hub) silent(eventType, connID string, err error) {
	if err != nil {
		log.Printf("Dropped event: type=%s conn=%s reason=%v", eventType, connID, err)
	}
}

// ackError keeps wire error strings stable for the common failure kinds.
func ackError(err error) string {
	switch {
	case errors.Is(err, store.ErrSessionNotFound):
		return "session not found"
	case errors.Is(err, core.ErrNotAuthorized):
		return "not authorized"
	case errors.Is(err, timer.ErrAlreadyRunning), errors.Is(err, timer.ErrNotRunning):
		return "invalid timer transition"
	default:
		return err.Error()
	}
}
