package session

import "errors"

var (
	// ErrNotFound is returned when a session record is missing or unreadable.
	ErrNotFound = errors.New("session not found")

	// ErrStorage wraps failures to create, write, or remove session storage.
	ErrStorage = errors.New("session storage error")

	// ErrPromptRequired is returned when a run is created without a prompt.
	ErrPromptRequired = errors.New("prompt is required")

	// ErrInvalidOptions is returned when run options fail schema validation.
	ErrInvalidOptions = errors.New("invalid run options")

	// ErrInvalidID is returned for ids that are not path-safe.
	ErrInvalidID = errors.New("invalid session id")
)
