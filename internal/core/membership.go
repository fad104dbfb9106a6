package core

import (
	"log"

	"promate/pkg/types"
)

// JoinDirect adds a connection to a session without host approval. Joining a
// session you are already in is a no-op that still succeeds with a snapshot
// and broadcasts nothing.
func (c *Core) JoinDirect(code, connID string) (*types.SessionSnapshot, error) {
	session, err := c.store.Get(code)
	if err != nil {
		return nil, err
	}

	session.Lock()
	added := false
	if !session.HasParticipant(connID) {
		session.Participants = append(session.Participants, connID)
		added = true
	}
	snap := c.snapshotLocked(session)
	others := othersLocked(session, connID)
	session.Unlock()

	if added {
		c.broadcaster.SendAll(others, types.Event{
			Type:    types.EventParticipantJoined,
			Payload: types.ParticipantPayload{ConnectionID: connID},
		})
	}
	return snap, nil
}

// RequestJoin queues a gated-join request and notifies the host. A repeat
// request from the same connection refreshes the display name instead of
// queueing twice.
func (c *Core) RequestJoin(code, connID, displayName string) error {
	session, err := c.store.Get(code)
	if err != nil {
		return err
	}

	session.Lock()
	pending := false
	for i := range session.PendingRequests {
		if session.PendingRequests[i].ConnectionID == connID {
			session.PendingRequests[i].DisplayName = displayName
			pending = true
			break
		}
	}
	if !pending {
		session.PendingRequests = append(session.PendingRequests, types.JoinRequest{
			ConnectionID: connID,
			DisplayName:  displayName,
		})
	}
	hostID := session.HostID
	session.Unlock()

	c.broadcaster.Send(hostID, types.Event{
		Type:    types.EventJoinRequest,
		Payload: types.JoinRequest{ConnectionID: connID, DisplayName: displayName},
	})
	return nil
}

// ApproveRequest is host-only: it joins the target, clears the pending
// request, notifies the target with a full snapshot, and announces the new
// participant to everyone else.
func (c *Core) ApproveRequest(code, hostID, targetID string) (*types.SessionSnapshot, error) {
	session, err := c.store.Get(code)
	if err != nil {
		return nil, err
	}

	session.Lock()
	if session.HostID != hostID {
		session.Unlock()
		return nil, ErrNotAuthorized
	}
	if !session.HasParticipant(targetID) {
		session.Participants = append(session.Participants, targetID)
	}
	removeRequestLocked(session, targetID)
	snap := c.snapshotLocked(session)
	others := othersLocked(session, targetID)
	session.Unlock()

	c.broadcaster.Send(targetID, types.Event{
		Type:    types.EventJoinApproved,
		Payload: types.JoinApprovedPayload{SessionID: code, Session: snap},
	})
	c.broadcaster.SendAll(others, types.Event{
		Type:    types.EventParticipantJoined,
		Payload: types.ParticipantPayload{ConnectionID: targetID},
	})
	return snap, nil
}

// RejectRequest is host-only: it clears the pending request and notifies the
// requester. Membership is untouched.
func (c *Core) RejectRequest(code, hostID, targetID string) error {
	session, err := c.store.Get(code)
	if err != nil {
		return err
	}

	session.Lock()
	if session.HostID != hostID {
		session.Unlock()
		return ErrNotAuthorized
	}
	removeRequestLocked(session, targetID)
	session.Unlock()

	c.broadcaster.Send(targetID, types.Event{
		Type:    types.EventJoinRejected,
		Payload: types.JoinRejectedPayload{SessionID: code},
	})
	return nil
}

// LeaveSession removes a participant. The departing host's role passes to the
// first remaining participant; an emptied session is destroyed. Leaving a
// session you are not in is a safe no-op.
func (c *Core) LeaveSession(code, connID string) error {
	session, err := c.store.Get(code)
	if err != nil {
		return err
	}

	session.Lock()
	removed := false
	for i, id := range session.Participants {
		if id == connID {
			session.Participants = append(session.Participants[:i], session.Participants[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		session.Unlock()
		return nil
	}

	empty := len(session.Participants) == 0
	if !empty && session.HostID == connID {
		session.HostID = session.Participants[0]
		log.Printf("Host reassigned: session=%s host=%s", code, session.HostID)
	}
	remaining := participantsLocked(session)
	session.Unlock()

	if empty {
		c.store.Delete(code)
		return nil
	}

	c.broadcaster.SendAll(remaining, types.Event{
		Type:    types.EventParticipantLeft,
		Payload: types.ParticipantPayload{ConnectionID: connID},
	})
	return nil
}

// Disconnect treats a lost connection as a leave for every session it
// belonged to.
func (c *Core) Disconnect(connID string) {
	for _, session := range c.store.SessionsWithParticipant(connID) {
		session.RLock()
		code := session.Code
		session.RUnlock()
		if err := c.LeaveSession(code, connID); err != nil {
			log.Printf("Disconnect cleanup failed: session=%s conn=%s err=%v", code, connID, err)
		}
	}
	c.limiter.Forget(connID)
}

// IsParticipant reports whether the connection is a member of the session.
func (c *Core) IsParticipant(code, connID string) bool {
	session, err := c.store.Get(code)
	if err != nil {
		return false
	}
	session.RLock()
	defer session.RUnlock()
	return session.HasParticipant(connID)
}

// IsHost reports whether the connection is the session's host.
func (c *Core) IsHost(code, connID string) bool {
	session, err := c.store.Get(code)
	if err != nil {
		return false
	}
	session.RLock()
	defer session.RUnlock()
	return session.HostID == connID
}

// removeRequestLocked drops the pending request for a connection, if any.
// Caller holds the lock.
func removeRequestLocked(s *types.Session, connID string) {
	for i, req := range s.PendingRequests {
		if req.ConnectionID == connID {
			s.PendingRequests = append(s.PendingRequests[:i], s.PendingRequests[i+1:]...)
			return
		}
	}
}
