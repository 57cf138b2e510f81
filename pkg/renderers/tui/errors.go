package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or declined the
	// final confirmation.
	ErrAborted = errors.New("tui: aborted")
	// ErrNoValidator is returned when Render runs without a field validator.
	ErrNoValidator = errors.New("tui: field validator not configured")
)
