package timer

import "errors"

// Disallowed transitions. Both leave the timer untouched.
var (
	ErrAlreadyRunning = errors.New("timer is already running")
	ErrNotRunning     = errors.New("timer is not running")
)
