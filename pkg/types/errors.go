package types

import "errors"

// Validation errors shared by the core and transport layers.
var (
	ErrEmptyText         = errors.New("text cannot be empty")
	ErrInvalidMode       = errors.New("mode must be 'focus' or 'break'")
	ErrInvalidBackground = errors.New("background must be a named theme or 'custom:<url>'")
)
