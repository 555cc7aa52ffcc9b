package sessionservice

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the session operations exposed to transports.
type Service interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Standings, error)
	GetStandings(ctx context.Context, sessionID uuid.UUID) (*Standings, error)
	ListSessions(ctx context.Context, filter ListFilter) ([]SessionSummary, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error

	RecordRound(ctx context.Context, sessionID uuid.UUID, scores map[string]int) (*RoundResult, error)
	AmendRound(ctx context.Context, sessionID uuid.UUID, index int, scores map[string]int) (*RoundResult, error)
	RecordSpadesRound(ctx context.Context, sessionID uuid.UUID, entries map[string]SpadesBid) (*RoundResult, error)
	AmendSpadesRound(ctx context.Context, sessionID uuid.UUID, index int, entries map[string]SpadesBid) (*RoundResult, error)

	// OverrideDealer replaces the computed next dealer of a Thirteen game.
	OverrideDealer(ctx context.Context, sessionID uuid.UUID, playerID string) (*Standings, error)

	ExportScoresheet(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
	// StoreScoresheet renders the scoresheet and saves it for later download.
	StoreScoresheet(ctx context.Context, sessionID uuid.UUID) error
	GetStoredScoresheet(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
	RenderProgressChart(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
}

var _ Service = (*SessionService)(nil)
