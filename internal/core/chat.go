package core

import (
	"strings"

	"github.com/google/uuid"

	"promate/pkg/types"
)

// SendMessage appends a chat message with a server-assigned ID and timestamp
// and broadcasts the full updated log. The log is capped: once full, the
// oldest message is evicted first.
func (c *Core) SendMessage(code, connID, sender, text string) ([]types.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, types.ErrEmptyText
	}

	session, err := c.store.Get(code)
	if err != nil {
		return nil, err
	}

	session.Lock()
	if !session.HasParticipant(connID) {
		session.Unlock()
		return nil, ErrNotAuthorized
	}
	if !c.limiter.Allow(connID) {
		session.Unlock()
		return nil, ErrRateLimited
	}

	session.Chat = append(session.Chat, types.ChatMessage{
		ID:          uuid.New().String(),
		Sender:      sender,
		Text:        text,
		TimestampMs: c.clock.Now().UnixMilli(),
	})
	if overflow := len(session.Chat) - c.chatLimit; overflow > 0 {
		session.Chat = append([]types.ChatMessage(nil), session.Chat[overflow:]...)
	}

	chat := append([]types.ChatMessage(nil), session.Chat...)
	recipients := participantsLocked(session)
	session.Unlock()

	c.broadcaster.SendAll(recipients, types.Event{
		Type:    types.EventChatSync,
		Payload: chat,
	})
	return chat, nil
}
