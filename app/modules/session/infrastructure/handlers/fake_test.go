package sessionhandlers

import (
	"context"
	"sync"
	"time"

	sessionservice "github.com/Black-And-White-Club/scorekeeper/app/modules/session/application"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/observability"
	"github.com/google/uuid"
)

// ------------------------
// Fake Session Service
// ------------------------

type FakeSessionService struct {
	trace []string

	CreateSessionFunc       func(ctx context.Context, req sessionservice.CreateSessionRequest) (*sessionservice.Standings, error)
	GetStandingsFunc        func(ctx context.Context, sessionID uuid.UUID) (*sessionservice.Standings, error)
	ListSessionsFunc        func(ctx context.Context, filter sessionservice.ListFilter) ([]sessionservice.SessionSummary, error)
	DeleteSessionFunc       func(ctx context.Context, sessionID uuid.UUID) error
	RecordRoundFunc         func(ctx context.Context, sessionID uuid.UUID, scores map[string]int) (*sessionservice.RoundResult, error)
	AmendRoundFunc          func(ctx context.Context, sessionID uuid.UUID, index int, scores map[string]int) (*sessionservice.RoundResult, error)
	RecordSpadesRoundFunc   func(ctx context.Context, sessionID uuid.UUID, entries map[string]sessionservice.SpadesBid) (*sessionservice.RoundResult, error)
	AmendSpadesRoundFunc    func(ctx context.Context, sessionID uuid.UUID, index int, entries map[string]sessionservice.SpadesBid) (*sessionservice.RoundResult, error)
	OverrideDealerFunc      func(ctx context.Context, sessionID uuid.UUID, playerID string) (*sessionservice.Standings, error)
	ExportScoresheetFunc    func(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
	GetStoredScoresheetFunc func(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
	RenderProgressChartFunc func(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
}

func NewFakeSessionService() *FakeSessionService {
	return &FakeSessionService{trace: []string{}}
}

func (f *FakeSessionService) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Service Interface Implementation ---

func (f *FakeSessionService) CreateSession(ctx context.Context, req sessionservice.CreateSessionRequest) (*sessionservice.Standings, error) {
	f.record("CreateSession")
	if f.CreateSessionFunc != nil {
		return f.CreateSessionFunc(ctx, req)
	}
	return &sessionservice.Standings{}, nil
}

func (f *FakeSessionService) GetStandings(ctx context.Context, sessionID uuid.UUID) (*sessionservice.Standings, error) {
	f.record("GetStandings")
	if f.GetStandingsFunc != nil {
		return f.GetStandingsFunc(ctx, sessionID)
	}
	return &sessionservice.Standings{SessionID: sessionID.String()}, nil
}

func (f *FakeSessionService) ListSessions(ctx context.Context, filter sessionservice.ListFilter) ([]sessionservice.SessionSummary, error) {
	f.record("ListSessions")
	if f.ListSessionsFunc != nil {
		return f.ListSessionsFunc(ctx, filter)
	}
	return nil, nil
}

func (f *FakeSessionService) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	f.record("DeleteSession")
	if f.DeleteSessionFunc != nil {
		return f.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (f *FakeSessionService) RecordRound(ctx context.Context, sessionID uuid.UUID, scores map[string]int) (*sessionservice.RoundResult, error) {
	f.record("RecordRound")
	if f.RecordRoundFunc != nil {
		return f.RecordRoundFunc(ctx, sessionID, scores)
	}
	return &sessionservice.RoundResult{}, nil
}

func (f *FakeSessionService) AmendRound(ctx context.Context, sessionID uuid.UUID, index int, scores map[string]int) (*sessionservice.RoundResult, error) {
	f.record("AmendRound")
	if f.AmendRoundFunc != nil {
		return f.AmendRoundFunc(ctx, sessionID, index, scores)
	}
	return &sessionservice.RoundResult{RoundIndex: index}, nil
}

func (f *FakeSessionService) RecordSpadesRound(ctx context.Context, sessionID uuid.UUID, entries map[string]sessionservice.SpadesBid) (*sessionservice.RoundResult, error) {
	f.record("RecordSpadesRound")
	if f.RecordSpadesRoundFunc != nil {
		return f.RecordSpadesRoundFunc(ctx, sessionID, entries)
	}
	return &sessionservice.RoundResult{}, nil
}

func (f *FakeSessionService) AmendSpadesRound(ctx context.Context, sessionID uuid.UUID, index int, entries map[string]sessionservice.SpadesBid) (*sessionservice.RoundResult, error) {
	f.record("AmendSpadesRound")
	if f.AmendSpadesRoundFunc != nil {
		return f.AmendSpadesRoundFunc(ctx, sessionID, index, entries)
	}
	return &sessionservice.RoundResult{RoundIndex: index}, nil
}

func (f *FakeSessionService) OverrideDealer(ctx context.Context, sessionID uuid.UUID, playerID string) (*sessionservice.Standings, error) {
	f.record("OverrideDealer")
	if f.OverrideDealerFunc != nil {
		return f.OverrideDealerFunc(ctx, sessionID, playerID)
	}
	return &sessionservice.Standings{Dealer: playerID}, nil
}

func (f *FakeSessionService) ExportScoresheet(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	f.record("ExportScoresheet")
	if f.ExportScoresheetFunc != nil {
		return f.ExportScoresheetFunc(ctx, sessionID)
	}
	return []byte("xlsx"), nil
}

func (f *FakeSessionService) StoreScoresheet(ctx context.Context, sessionID uuid.UUID) error {
	f.record("StoreScoresheet")
	return nil
}

func (f *FakeSessionService) GetStoredScoresheet(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	f.record("GetStoredScoresheet")
	if f.GetStoredScoresheetFunc != nil {
		return f.GetStoredScoresheetFunc(ctx, sessionID)
	}
	return []byte("stored"), nil
}

func (f *FakeSessionService) RenderProgressChart(ctx context.Context, sessionID uuid.UUID) ([]byte, error) {
	f.record("RenderProgressChart")
	if f.RenderProgressChartFunc != nil {
		return f.RenderProgressChartFunc(ctx, sessionID)
	}
	return []byte("png"), nil
}

// --- Accessors for assertions ---

func (f *FakeSessionService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ sessionservice.Service = (*FakeSessionService)(nil)

// ------------------------
// Fake Export Enqueuer
// ------------------------

type FakeEnqueuer struct {
	mu       sync.Mutex
	enqueued []uuid.UUID
	err      error
}

func (f *FakeEnqueuer) EnqueueExport(ctx context.Context, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, sessionID)
	return nil
}

func (f *FakeEnqueuer) Enqueued() []uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uuid.UUID, len(f.enqueued))
	copy(out, f.enqueued)
	return out
}

var _ ExportEnqueuer = (*FakeEnqueuer)(nil)

// ------------------------
// Fake Metrics
// ------------------------

type FakeMetrics struct {
	mu             sync.Mutex
	gamesCompleted map[string]int
	roundsRecorded map[string]int
}

func NewFakeMetrics() *FakeMetrics {
	return &FakeMetrics{gamesCompleted: map[string]int{}, roundsRecorded: map[string]int{}}
}

func (m *FakeMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (m *FakeMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (m *FakeMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (m *FakeMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}

func (m *FakeMetrics) RecordGameCompleted(_ context.Context, gameType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gamesCompleted[gameType]++
}

func (m *FakeMetrics) RecordRoundRecorded(_ context.Context, gameType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roundsRecorded[gameType]++
}

var _ observability.Metrics = (*FakeMetrics)(nil)
