package core

import (
	crand "crypto/rand"
	"strings"

	"promate/pkg/types"
)

const taskIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const taskIDLength = 7

// AddTask appends a task to the session's list. Text is trimmed and must be
// non-empty. Returns the full updated list, which is also broadcast: the
// contract is full-state replacement, not deltas.
func (c *Core) AddTask(code, connID, text string) ([]types.Task, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, types.ErrEmptyText
	}

	return c.taskOp(code, connID, func(s *types.Session) error {
		id, err := newTaskID()
		if err != nil {
			return err
		}
		s.Tasks = append(s.Tasks, types.Task{ID: id, Text: trimmed})
		return nil
	})
}

// ToggleTask flips a task's completed flag. An unknown ID is a silent no-op
// returning the unchanged list: the task may have just been removed by
// another participant, which is not the caller's fault.
func (c *Core) ToggleTask(code, connID, taskID string) ([]types.Task, error) {
	return c.taskOp(code, connID, func(s *types.Session) error {
		for i := range s.Tasks {
			if s.Tasks[i].ID == taskID {
				s.Tasks[i].Completed = !s.Tasks[i].Completed
				break
			}
		}
		return nil
	})
}

// RemoveTask deletes a task. Unknown IDs are a no-op.
func (c *Core) RemoveTask(code, connID, taskID string) ([]types.Task, error) {
	return c.taskOp(code, connID, func(s *types.Session) error {
		for i := range s.Tasks {
			if s.Tasks[i].ID == taskID {
				s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
				break
			}
		}
		return nil
	})
}

// taskOp runs a list mutation under the session lock with the participant
// check, then broadcasts the full task list.
func (c *Core) taskOp(code, connID string, mutate func(*types.Session) error) ([]types.Task, error) {
	session, err := c.store.Get(code)
	if err != nil {
		return nil, err
	}

	session.Lock()
	if !session.HasParticipant(connID) {
		session.Unlock()
		return nil, ErrNotAuthorized
	}
	if err := mutate(session); err != nil {
		session.Unlock()
		return nil, err
	}
	tasks := append([]types.Task(nil), session.Tasks...)
	recipients := participantsLocked(session)
	session.Unlock()

	c.broadcaster.SendAll(recipients, types.Event{
		Type:    types.EventTasksSync,
		Payload: tasks,
	})
	return tasks, nil
}

// newTaskID returns a short random token, unique enough within a single
// session's task list.
func newTaskID() (string, error) {
	buf := make([]byte, taskIDLength)
	if _, err := crand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = taskIDAlphabet[int(b)%len(taskIDAlphabet)]
	}
	return string(buf), nil
}
