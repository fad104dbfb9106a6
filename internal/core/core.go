// Package core is the event router: it validates every inbound event against
// session membership, dispatches to the session's state (timer, tasks, chat,
// membership), and hands the resulting snapshots to the broadcast
// collaborator. It has no knowledge of the transport beyond the Broadcaster
// interface, so it is unit-testable without sockets.
package core

import (
	"promate/internal/store"
	"promate/internal/timer"
	"promate/pkg/types"
)

// Broadcaster delivers outbound events to connections. Delivery is
// best-effort fire-and-forget; the core never waits on it.
type Broadcaster interface {
	Send(connID string, event types.Event)
	SendAll(connIDs []string, event types.Event)
}

// Config carries the tunables the core needs beyond session defaults.
type Config struct {
	ChatHistoryLimit int // max chat messages kept per session
	ChatRateLimit    int // messages per connection per minute
}

// Core routes validated events into session state.
type Core struct {
	store       *store.Store
	broadcaster Broadcaster
	clock       timer.Clock

	chatLimit int
	limiter   *rateLimiter
}

// New creates a core with injected collaborators. A nil clock defaults to
// the system clock.
func New(st *store.Store, b Broadcaster, clock timer.Clock, cfg Config) *Core {
	if clock == nil {
		clock = timer.SystemClock()
	}
	if cfg.ChatHistoryLimit <= 0 {
		cfg.ChatHistoryLimit = 100
	}
	if cfg.ChatRateLimit <= 0 {
		cfg.ChatRateLimit = 60
	}
	return &Core{
		store:       st,
		broadcaster: b,
		clock:       clock,
		chatLimit:   cfg.ChatHistoryLimit,
		limiter:     newRateLimiter(cfg.ChatRateLimit),
	}
}

// CreateSession creates a session with the creator as sole participant and
// host. Direct reply only, never broadcast.
func (c *Core) CreateSession(creatorID string) (*types.SessionSnapshot, error) {
	session, err := c.store.Create(creatorID)
	if err != nil {
		return nil, err
	}

	session.RLock()
	defer session.RUnlock()
	return c.snapshotLocked(session), nil
}

// CheckSession returns a session snapshot without joining. Read-only.
func (c *Core) CheckSession(code string) (*types.SessionSnapshot, error) {
	return c.Snapshot(code)
}

// Snapshot returns a copy of the session's full state with the live remaining
// time filled in, so pollers see the countdown without any timer math.
func (c *Core) Snapshot(code string) (*types.SessionSnapshot, error) {
	session, err := c.store.Get(code)
	if err != nil {
		return nil, err
	}

	session.RLock()
	defer session.RUnlock()
	return c.snapshotLocked(session), nil
}

// SessionCodes lists the codes of all live sessions.
func (c *Core) SessionCodes() []string {
	return c.store.Codes()
}

// SessionCount returns the number of live sessions.
func (c *Core) SessionCount() int {
	return c.store.Len()
}

// snapshotLocked copies session state and overwrites the stale stored
// remaining value with the wall-clock-derived one. Caller holds the lock.
func (c *Core) snapshotLocked(s *types.Session) *types.SessionSnapshot {
	snap := s.SnapshotLocked()
	snap.Timer.TimeRemaining = timer.Remaining(&snap.Timer, c.clock.Now())
	return snap
}

// timerSnapshotLocked copies the timer for a timer_sync broadcast. Caller
// holds the lock.
func timerSnapshotLocked(s *types.Session) types.Timer {
	return types.CopyTimer(s.Timer)
}

// participantsLocked copies the member list for a session-wide broadcast.
// Caller holds the lock.
func participantsLocked(s *types.Session) []string {
	return append([]string(nil), s.Participants...)
}

// othersLocked copies the member list minus one connection. Caller holds the
// lock.
func othersLocked(s *types.Session, exclude string) []string {
	others := make([]string, 0, len(s.Participants))
	for _, id := range s.Participants {
		if id != exclude {
			others = append(others, id)
		}
	}
	return others
}
