// Package timer implements the countdown state machine shared by all session
// participants.
//
// The running state is anchored to the wall clock: start records an absolute
// end time and every reader derives the live remaining value from it, so
// clients polling at different moments all converge on the same countdown
// without the server ticking anything. Only the stopped and paused states
// store an authoritative remaining value.
package timer

import (
	"time"

	"promate/pkg/types"
)

// Start transitions stopped/paused -> running. TimeRemaining must already
// hold the correct baseline (full duration after a reset, or the paused
// leftover). Returns ErrAlreadyRunning without mutating if the timer is
// running.
func Start(t *types.Timer, now time.Time) error {
	if t.Status == types.StatusRunning {
		return ErrAlreadyRunning
	}
	startMs := now.UnixMilli()
	endMs := startMs + int64(t.TimeRemaining)*1000
	t.Status = types.StatusRunning
	t.StartTimeMs = &startMs
	t.EndTimeMs = &endMs
	return nil
}

// Pause transitions running -> paused, capturing the live remaining value and
// clearing both timestamps. Returns ErrNotRunning without mutating otherwise.
func Pause(t *types.Timer, now time.Time) error {
	if t.Status != types.StatusRunning {
		return ErrNotRunning
	}
	t.TimeRemaining = remainingAt(*t.EndTimeMs, now)
	t.Status = types.StatusPaused
	t.StartTimeMs = nil
	t.EndTimeMs = nil
	return nil
}

// Reset stops the timer from any state and reloads the current mode's full
// duration from settings. The mode itself is untouched.
func Reset(t *types.Timer, settings types.Settings) {
	duration := settings.FocusSeconds
	if t.Mode == types.ModeBreak {
		duration = settings.BreakSeconds
	}
	t.Status = types.StatusStopped
	t.DurationSeconds = duration
	t.TimeRemaining = duration
	t.StartTimeMs = nil
	t.EndTimeMs = nil
}

// SwitchMode sets the mode and performs a full reset with the new mode's
// duration. Switching while running stops the timer, which keeps the
// mode/duration pair consistent.
func SwitchMode(t *types.Timer, mode types.TimerMode, settings types.Settings) {
	t.Mode = mode
	Reset(t, settings)
}

// Remaining returns the live remaining seconds: derived from the end time
// while running, the stored value otherwise.
func Remaining(t *types.Timer, now time.Time) int {
	if t.Status == types.StatusRunning && t.EndTimeMs != nil {
		return remainingAt(*t.EndTimeMs, now)
	}
	return t.TimeRemaining
}

// New returns a stopped focus-mode timer loaded with the focus duration.
func New(settings types.Settings) types.Timer {
	return types.Timer{
		Mode:            types.ModeFocus,
		Status:          types.StatusStopped,
		DurationSeconds: settings.FocusSeconds,
		TimeRemaining:   settings.FocusSeconds,
	}
}

// remainingAt converts a millisecond deadline into whole seconds, rounding up
// so the countdown reaches exactly 0 instead of skipping past it, and never
// goes negative.
func remainingAt(endMs int64, now time.Time) int {
	diff := endMs - now.UnixMilli()
	if diff <= 0 {
		return 0
	}
	return int((diff + 999) / 1000)
}
