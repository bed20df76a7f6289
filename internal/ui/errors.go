package ui

import "errors"

// Sentinel errors for operations rejected before any request is sent.
var (
	ErrEmptyDirectory  = errors.New("project directory required")
	ErrMissingFields   = errors.New("title and description required")
	ErrNoProject       = errors.New("no project selected")
	ErrExecutionActive = errors.New("another task is already executing")
	ErrNotConfirmed    = errors.New("not confirmed")
	ErrEmptyMessage    = errors.New("empty chat message")
)
