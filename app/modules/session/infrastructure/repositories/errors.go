package sessiondb

import "errors"

var (
	// ErrNotFound is returned when a session is not found.
	ErrNotFound = errors.New("session not found")
	// ErrRoundNotFound is returned when no round has the requested index.
	ErrRoundNotFound = errors.New("round not found")
	// ErrRoundConflict is returned when a round index is already taken.
	ErrRoundConflict = errors.New("round index already recorded")
	// ErrExportNotFound is returned when no scoresheet has been stored yet.
	ErrExportNotFound = errors.New("export not found")
)
