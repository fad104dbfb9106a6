package types

import "encoding/json"

// Inbound event types. Direct-reply events (create/check/join/request) carry
// an ack correlation id; the rest are fire-and-forget.
const (
	EventCreateSession    = "create_session"
	EventCheckSession     = "check_session"
	EventJoinSession      = "join_session"
	EventRequestJoin      = "request_join"
	EventApproveRequest   = "approve_request"
	EventRejectRequest    = "reject_request"
	EventLeaveSession     = "leave_session"
	EventTimerStart       = "timer_start"
	EventTimerPause       = "timer_pause"
	EventTimerReset       = "timer_reset"
	EventTimerSwitchMode  = "timer_switch_mode"
	EventChangeBackground = "change_background"
	EventTaskAdd          = "task_add"
	EventTaskToggle       = "task_toggle"
	EventTaskRemove       = "task_remove"
	EventSendMessage      = "send_message"
)

// Outbound event types.
const (
	EventConnected         = "connected"
	EventAck               = "ack"
	EventJoinRequest       = "join_request"
	EventJoinApproved      = "join_approved"
	EventJoinRejected      = "join_rejected"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventTimerSync         = "timer_sync"
	EventTasksSync         = "tasks_sync"
	EventChatSync          = "chat_sync"
	EventBackgroundChanged = "background_changed"
)

// InboundFrame is the envelope for every client-to-server event. The payload
// is decoded per event type after dispatch.
type InboundFrame struct {
	Type    string          `json:"type"`
	Ack     string          `json:"ack,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is the envelope for every server-to-client event.
type Event struct {
	Type    string `json:"type"`
	Ack     string `json:"ack,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// Inbound payloads.

type SessionRefPayload struct {
	SessionID string `json:"sessionId"`
}

type RequestJoinPayload struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}

type RequestDecisionPayload struct {
	SessionID string `json:"sessionId"`
	TargetID  string `json:"targetId"`
}

type SwitchModePayload struct {
	SessionID string `json:"sessionId"`
	Mode      string `json:"mode"`
}

type ChangeBackgroundPayload struct {
	SessionID  string `json:"sessionId"`
	Background string `json:"background"`
}

type TaskAddPayload struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
}

type TaskRefPayload struct {
	SessionID string `json:"sessionId"`
	TaskID    string `json:"taskId"`
}

type SendMessagePayload struct {
	SessionID string `json:"sessionId"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
}

// Outbound payloads.

type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

// AckPayload is the structured reply for direct-reply events. Error is set
// only when Success is false.
type AckPayload struct {
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	SessionID string           `json:"sessionId,omitempty"`
	Session   *SessionSnapshot `json:"session,omitempty"`
}

type ParticipantPayload struct {
	ConnectionID string `json:"connectionId"`
}

type JoinApprovedPayload struct {
	SessionID string           `json:"sessionId"`
	Session   *SessionSnapshot `json:"session"`
}

type JoinRejectedPayload struct {
	SessionID string `json:"sessionId"`
}

type BackgroundChangedPayload struct {
	Background string `json:"background"`
}
