package domain

import "errors"

var (
	// ErrNoQuestions is returned when a session would start with an empty question sequence.
	ErrNoQuestions = errors.New("no questions available")
	// ErrSessionNotFound is returned when a quiz session does not exist or was discarded.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrUnknownSessionType indicates a start request for an unsupported session type.
	ErrUnknownSessionType = errors.New("unknown session type")
	// ErrInvalidCatalog indicates question data that violates the catalog invariants.
	ErrInvalidCatalog = errors.New("invalid question catalog")
	// ErrBadgeConflict is returned when a badge update lost its optimistic transaction too many times.
	ErrBadgeConflict = errors.New("badge collection changed concurrently")
)
