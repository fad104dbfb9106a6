package core

import (
	"sync"
	"time"
)

// rateLimiter caps chat messages per connection with a minute-based window.
type rateLimiter struct {
	mu        sync.Mutex
	perMinute int
	conns     map[string]*connWindow
}

type connWindow struct {
	count       int
	windowStart time.Time
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		perMinute: perMinute,
		conns:     make(map[string]*connWindow),
	}
}

// Allow reports whether the connection may send another message in the
// current window.
func (rl *rateLimiter) Allow(connID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	window, exists := rl.conns[connID]
	if !exists || now.Sub(window.windowStart) >= time.Minute {
		rl.conns[connID] = &connWindow{count: 1, windowStart: now}
		return true
	}

	if window.count >= rl.perMinute {
		return false
	}
	window.count++
	return true
}

// Forget drops a connection's window state. Called on disconnect so the map
// doesn't accumulate dead connections.
func (rl *rateLimiter) Forget(connID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.conns, connID)
}
