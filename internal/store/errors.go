package store

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique session code")
)
