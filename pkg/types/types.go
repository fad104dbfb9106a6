package types

import (
	"sync"
)

// Timer modes. The mode axis is orthogonal to the run status and survives
// start/pause/reset transitions.
type TimerMode string

const (
	ModeFocus TimerMode = "focus"
	ModeBreak TimerMode = "break"
)

// Timer run states.
type TimerStatus string

const (
	StatusStopped TimerStatus = "stopped"
	StatusRunning TimerStatus = "running"
	StatusPaused  TimerStatus = "paused"
)

// Timer is the countdown state machine embedded in every session.
//
// While running, StartTimeMs/EndTimeMs are set and TimeRemaining is stale;
// readers derive the live value from EndTimeMs. While stopped or paused the
// inverse holds: TimeRemaining is authoritative and both timestamps are nil.
type Timer struct {
	Mode            TimerMode   `json:"mode"`
	Status          TimerStatus `json:"status"`
	DurationSeconds int         `json:"duration"`
	TimeRemaining   int         `json:"timeRemaining"`
	StartTimeMs     *int64      `json:"startTime"`
	EndTimeMs       *int64      `json:"endTime"`
}

// Task is a shared to-do item. IDs are random tokens unique within one
// session's list, not globally.
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// ChatMessage is one entry in a session's bounded chat log.
type ChatMessage struct {
	ID          string `json:"id"`
	Sender      string `json:"sender"`
	Text        string `json:"text"`
	TimestampMs int64  `json:"timestamp"`
}

// Settings holds per-session preferences. Background is either one of the
// named themes or a "custom:<url>" tagged string.
type Settings struct {
	FocusSeconds int    `json:"focusDuration"`
	BreakSeconds int    `json:"breakDuration"`
	Background   string `json:"background"`
}

// JoinRequest is a pending entry in the gated join flow, waiting for the
// host's decision.
type JoinRequest struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
}

// Session is the root aggregate: one shared focus-timer room identified by a
// short code. All sub-entities are owned exclusively by their session and die
// with it.
//
// The embedded lock is the session's mutual-exclusion boundary. Mutating
// events are already serialized by the hub; the lock additionally protects
// read-only surfaces (HTTP snapshots, live countdown reads) that run outside
// the hub goroutine. Sessions are independent, so no operation ever holds two
// session locks.
type Session struct {
	sync.RWMutex

	Code            string
	HostID          string
	Participants    []string // insertion order, determines host succession
	PendingRequests []JoinRequest
	Timer           Timer
	Tasks           []Task
	Chat            []ChatMessage
	Settings        Settings
}

// HasParticipant reports whether connID is a member. Caller holds the lock.
func (s *Session) HasParticipant(connID string) bool {
	for _, id := range s.Participants {
		if id == connID {
			return true
		}
	}
	return false
}

// SessionSnapshot is an immutable copy of a session's full state, safe to
// hand to the transport after the lock is released. Field names match the
// wire format clients consume.
type SessionSnapshot struct {
	Code            string        `json:"id"`
	HostID          string        `json:"host"`
	Participants    []string      `json:"participants"`
	PendingRequests []JoinRequest `json:"requests"`
	Timer           Timer         `json:"timer"`
	Tasks           []Task        `json:"tasks"`
	Chat            []ChatMessage `json:"chat"`
	Settings        Settings      `json:"settings"`
}

// SnapshotLocked copies the session's state. Caller holds at least a read
// lock.
func (s *Session) SnapshotLocked() *SessionSnapshot {
	snap := &SessionSnapshot{
		Code:            s.Code,
		HostID:          s.HostID,
		Participants:    append([]string(nil), s.Participants...),
		PendingRequests: append([]JoinRequest(nil), s.PendingRequests...),
		Timer:           CopyTimer(s.Timer),
		Tasks:           append([]Task(nil), s.Tasks...),
		Chat:            append([]ChatMessage(nil), s.Chat...),
		Settings:        s.Settings,
	}
	return snap
}

// CopyTimer deep-copies a timer, detaching the timestamp pointers so a
// snapshot cannot observe later mutations.
func CopyTimer(t Timer) Timer {
	out := t
	if t.StartTimeMs != nil {
		v := *t.StartTimeMs
		out.StartTimeMs = &v
	}
	if t.EndTimeMs != nil {
		v := *t.EndTimeMs
		out.EndTimeMs = &v
	}
	return out
}
