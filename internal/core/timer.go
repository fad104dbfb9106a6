package core

import (
	"promate/internal/timer"
	"promate/pkg/types"
)

// TimerStart starts or resumes the countdown. Any participant may drive the
// timer. A successful transition broadcasts timer_sync to the whole session;
// a disallowed one mutates nothing and broadcasts nothing.
func (c *Core) TimerStart(code, connID string) (*types.Timer, error) {
	return c.timerOp(code, connID, func(s *types.Session) error {
		return timer.Start(&s.Timer, c.clock.Now())
	})
}

// TimerPause pauses a running countdown, capturing the leftover seconds.
func (c *Core) TimerPause(code, connID string) (*types.Timer, error) {
	return c.timerOp(code, connID, func(s *types.Session) error {
		return timer.Pause(&s.Timer, c.clock.Now())
	})
}

// TimerReset stops the countdown and reloads the current mode's duration from
// the session settings. Allowed from any state.
func (c *Core) TimerReset(code, connID string) (*types.Timer, error) {
	return c.timerOp(code, connID, func(s *types.Session) error {
		timer.Reset(&s.Timer, s.Settings)
		return nil
	})
}

// SwitchMode changes focus/break and resets to the new mode's duration,
// stopping a running timer in the process.
func (c *Core) SwitchMode(code, connID, mode string) (*types.Timer, error) {
	if !types.IsValidMode(mode) {
		return nil, types.ErrInvalidMode
	}
	return c.timerOp(code, connID, func(s *types.Session) error {
		timer.SwitchMode(&s.Timer, types.TimerMode(mode), s.Settings)
		return nil
	})
}

// ChangeBackground updates the session background and announces it. Any
// participant may change it.
func (c *Core) ChangeBackground(code, connID, background string) error {
	if !types.IsValidBackground(background) {
		return types.ErrInvalidBackground
	}

	session, err := c.store.Get(code)
	if err != nil {
		return err
	}

	session.Lock()
	if !session.HasParticipant(connID) {
		session.Unlock()
		return ErrNotAuthorized
	}
	session.Settings.Background = background
	recipients := participantsLocked(session)
	session.Unlock()

	c.broadcaster.SendAll(recipients, types.Event{
		Type:    types.EventBackgroundChanged,
		Payload: types.BackgroundChangedPayload{Background: background},
	})
	return nil
}

// timerOp runs a transition under the session lock with the participant
// check, then broadcasts the updated timer snapshot on success.
func (c *Core) timerOp(code, connID string, transition func(*types.Session) error) (*types.Timer, error) {
	session, err := c.store.Get(code)
	if err != nil {
		return nil, err
	}

	session.Lock()
	if !session.HasParticipant(connID) {
		session.Unlock()
		return nil, ErrNotAuthorized
	}
	if err := transition(session); err != nil {
		session.Unlock()
		return nil, err
	}
	snap := timerSnapshotLocked(session)
	recipients := participantsLocked(session)
	session.Unlock()

	c.broadcaster.SendAll(recipients, types.Event{
		Type:    types.EventTimerSync,
		Payload: snap,
	})
	return &snap, nil
}
