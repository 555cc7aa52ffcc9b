package sessiondb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for session persistence.
//
// Every method accepts an optional bun.IDB so callers can run several calls
// in one transaction; a nil db uses the repository's own connection.
type Repository interface {
	// CreateSession inserts the session row and its players.
	CreateSession(ctx context.Context, db bun.IDB, session *Session) error

	// GetSession loads a session with players and both round collections.
	GetSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*Session, error)

	// GetSessionForUpdate is GetSession holding a row lock on the session.
	GetSessionForUpdate(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*Session, error)

	// ListSessions returns sessions with their players, newest first.
	ListSessions(ctx context.Context, db bun.IDB, filter ListFilter) ([]*Session, error)

	AppendRound(ctx context.Context, db bun.IDB, round *Round) error
	// UpdateRoundScores replaces a round's scores in place.
	UpdateRoundScores(ctx context.Context, db bun.IDB, sessionID uuid.UUID, index int, scores map[string]int) error

	AppendSpadesRound(ctx context.Context, db bun.IDB, round *SpadesRound) error
	UpdateSpadesRoundEntries(ctx context.Context, db bun.IDB, sessionID uuid.UUID, index int, entries map[string]SpadesEntry) error

	// MarkCompleted flips is_completed to true. It reports whether this call
	// made the transition.
	MarkCompleted(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (bool, error)

	SetDealerForNextRound(ctx context.Context, db bun.IDB, sessionID uuid.UUID, dealer *string) error

	// DeleteSession removes the session and everything it owns.
	DeleteSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID) error

	SaveExport(ctx context.Context, db bun.IDB, export *Export) error
	GetExport(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*Export, error)
}
