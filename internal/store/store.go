// Package store holds every live session for the process lifetime. Nothing
// is persisted; a restart loses all sessions.
package store

import (
	crand "crypto/rand"
	"fmt"
	"log"
	"sync"

	"promate/internal/timer"
	"promate/pkg/types"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// codeLength gives ~2.2e9 possible codes; with thousands of live sessions a
// collision retry is already vanishingly rare.
const codeLength = 6

// maxCodeAttempts bounds the collision-retry loop so an (effectively
// impossible) exhausted code space surfaces as an error instead of a hang.
const maxCodeAttempts = 10

// Store maps session codes to live sessions. It is constructed explicitly
// and injected into its consumers, so tests run against isolated instances.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
	defaults types.Settings

	codeFn func() (string, error) // overridable in tests
}

// NewStore creates an empty store. New sessions are initialized with the
// given default settings.
func NewStore(defaults types.Settings) *Store {
	return &Store{
		sessions: make(map[string]*types.Session),
		defaults: defaults,
		codeFn:   randomCode,
	}
}

// Create allocates a collision-checked session code and initializes a session
// with the creator as sole participant and host.
func (s *Store) Create(creatorID string) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var code string
	for attempt := 0; ; attempt++ {
		if attempt >= maxCodeAttempts {
			return nil, ErrCodeSpaceExhausted
		}
		candidate, err := s.codeFn()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session code: %w", err)
		}
		if _, taken := s.sessions[candidate]; !taken {
			code = candidate
			break
		}
	}

	session := &types.Session{
		Code:         code,
		HostID:       creatorID,
		Participants: []string{creatorID},
		Timer:        timer.New(s.defaults),
		Settings:     s.defaults,
	}
	s.sessions[code] = session

	log.Printf("Created session: code=%s host=%s", code, creatorID)
	return session, nil
}

// Get returns the session for a code.
func (s *Store) Get(code string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[code]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session. Deleting an unknown code is a no-op.
func (s *Store) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[code]; exists {
		delete(s.sessions, code)
		log.Printf("Deleted session: code=%s", code)
	}
}

// Codes returns the codes of all live sessions.
func (s *Store) Codes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]string, 0, len(s.sessions))
	for code := range s.sessions {
		codes = append(codes, code)
	}
	return codes
}

// SessionsWithParticipant returns every session the connection belongs to.
// Used to cascade connection loss into per-session leaves.
func (s *Store) SessionsWithParticipant(connID string) []*types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*types.Session
	for _, session := range s.sessions {
		session.RLock()
		member := session.HasParticipant(connID)
		session.RUnlock()
		if member {
			result = append(result, session)
		}
	}
	return result
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// randomCode draws 6 characters from crypto/rand. Modulo bias over a
// 36-symbol alphabet is negligible for code assignment.
func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := crand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
