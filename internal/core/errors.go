package core

import "errors"

var (
	ErrNotAuthorized = errors.New("connection not authorized for this action")
	ErrRateLimited   = errors.New("chat rate limit exceeded")
)
