package sessionservice

import (
	"context"
	"maps"
	"slices"
	"sync"

	sessiondb "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/repositories"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Session Repo
// ------------------------

// FakeSessionRepo keeps sessions in memory. Any XxxFunc that is set replaces
// the in-memory behavior for that method.
type FakeSessionRepo struct {
	mu       sync.Mutex
	trace    []string
	sessions map[uuid.UUID]*sessiondb.Session
	exports  map[uuid.UUID]*sessiondb.Export

	GetSessionFunc        func(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*sessiondb.Session, error)
	ListSessionsFunc      func(ctx context.Context, db bun.IDB, filter sessiondb.ListFilter) ([]*sessiondb.Session, error)
	AppendRoundFunc       func(ctx context.Context, db bun.IDB, round *sessiondb.Round) error
	AppendSpadesRoundFunc func(ctx context.Context, db bun.IDB, round *sessiondb.SpadesRound) error
	MarkCompletedFunc     func(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (bool, error)
	SaveExportFunc        func(ctx context.Context, db bun.IDB, export *sessiondb.Export) error
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		trace:    []string{},
		sessions: map[uuid.UUID]*sessiondb.Session{},
		exports:  map[uuid.UUID]*sessiondb.Export{},
	}
}

func (f *FakeSessionRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func cloneSession(s *sessiondb.Session) *sessiondb.Session {
	out := *s
	if s.DealerForNextRound != nil {
		d := *s.DealerForNextRound
		out.DealerForNextRound = &d
	}
	out.PlayerOrder = slices.Clone(s.PlayerOrder)
	out.Players = nil
	for _, p := range s.Players {
		cp := *p
		out.Players = append(out.Players, &cp)
	}
	out.Rounds = nil
	for _, r := range s.Rounds {
		cr := *r
		cr.Scores = maps.Clone(r.Scores)
		out.Rounds = append(out.Rounds, &cr)
	}
	out.SpadesRounds = nil
	for _, r := range s.SpadesRounds {
		cr := *r
		cr.Entries = maps.Clone(r.Entries)
		out.SpadesRounds = append(out.SpadesRounds, &cr)
	}
	return &out
}

// --- Repository Interface Implementation ---

func (f *FakeSessionRepo) CreateSession(ctx context.Context, db bun.IDB, session *sessiondb.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateSession")
	f.sessions[session.ID] = cloneSession(session)
	return nil
}

func (f *FakeSessionRepo) GetSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*sessiondb.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetSession")
	return f.get(ctx, db, sessionID)
}

func (f *FakeSessionRepo) GetSessionForUpdate(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*sessiondb.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetSessionForUpdate")
	return f.get(ctx, db, sessionID)
}

func (f *FakeSessionRepo) get(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*sessiondb.Session, error) {
	if f.GetSessionFunc != nil {
		return f.GetSessionFunc(ctx, db, sessionID)
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, sessiondb.ErrNotFound
	}
	return cloneSession(s), nil
}

func (f *FakeSessionRepo) ListSessions(ctx context.Context, db bun.IDB, filter sessiondb.ListFilter) ([]*sessiondb.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListSessions")
	if f.ListSessionsFunc != nil {
		return f.ListSessionsFunc(ctx, db, filter)
	}
	var out []*sessiondb.Session
	for _, s := range f.sessions {
		if filter.GameType != "" && s.GameType != filter.GameType {
			continue
		}
		if filter.Completed != nil && s.IsCompleted != *filter.Completed {
			continue
		}
		if filter.Since != nil && s.CreatedAt.Before(*filter.Since) {
			continue
		}
		out = append(out, cloneSession(s))
	}
	slices.SortFunc(out, func(a, b *sessiondb.Session) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *FakeSessionRepo) AppendRound(ctx context.Context, db bun.IDB, round *sessiondb.Round) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AppendRound")
	if f.AppendRoundFunc != nil {
		return f.AppendRoundFunc(ctx, db, round)
	}
	s, ok := f.sessions[round.SessionID]
	if !ok {
		return sessiondb.ErrNotFound
	}
	for _, r := range s.Rounds {
		if r.Index == round.Index {
			return sessiondb.ErrRoundConflict
		}
	}
	cr := *round
	cr.Scores = maps.Clone(round.Scores)
	s.Rounds = append(s.Rounds, &cr)
	return nil
}

func (f *FakeSessionRepo) UpdateRoundScores(ctx context.Context, db bun.IDB, sessionID uuid.UUID, index int, scores map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateRoundScores")
	s, ok := f.sessions[sessionID]
	if !ok {
		return sessiondb.ErrNotFound
	}
	for _, r := range s.Rounds {
		if r.Index == index {
			r.Scores = maps.Clone(scores)
			return nil
		}
	}
	return sessiondb.ErrRoundNotFound
}

func (f *FakeSessionRepo) AppendSpadesRound(ctx context.Context, db bun.IDB, round *sessiondb.SpadesRound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AppendSpadesRound")
	if f.AppendSpadesRoundFunc != nil {
		return f.AppendSpadesRoundFunc(ctx, db, round)
	}
	s, ok := f.sessions[round.SessionID]
	if !ok {
		return sessiondb.ErrNotFound
	}
	for _, r := range s.SpadesRounds {
		if r.Index == round.Index {
			return sessiondb.ErrRoundConflict
		}
	}
	cr := *round
	cr.Entries = maps.Clone(round.Entries)
	s.SpadesRounds = append(s.SpadesRounds, &cr)
	return nil
}

func (f *FakeSessionRepo) UpdateSpadesRoundEntries(ctx context.Context, db bun.IDB, sessionID uuid.UUID, index int, entries map[string]sessiondb.SpadesEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateSpadesRoundEntries")
	s, ok := f.sessions[sessionID]
	if !ok {
		return sessiondb.ErrNotFound
	}
	for _, r := range s.SpadesRounds {
		if r.Index == index {
			r.Entries = maps.Clone(entries)
			return nil
		}
	}
	return sessiondb.ErrRoundNotFound
}

func (f *FakeSessionRepo) MarkCompleted(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("MarkCompleted")
	if f.MarkCompletedFunc != nil {
		return f.MarkCompletedFunc(ctx, db, sessionID)
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return false, sessiondb.ErrNotFound
	}
	if s.IsCompleted {
		return false, nil
	}
	s.IsCompleted = true
	return true, nil
}

func (f *FakeSessionRepo) SetDealerForNextRound(ctx context.Context, db bun.IDB, sessionID uuid.UUID, dealer *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetDealerForNextRound")
	s, ok := f.sessions[sessionID]
	if !ok {
		return sessiondb.ErrNotFound
	}
	if dealer == nil {
		s.DealerForNextRound = nil
		return nil
	}
	d := *dealer
	s.DealerForNextRound = &d
	return nil
}

func (f *FakeSessionRepo) DeleteSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteSession")
	if _, ok := f.sessions[sessionID]; !ok {
		return sessiondb.ErrNotFound
	}
	delete(f.sessions, sessionID)
	delete(f.exports, sessionID)
	return nil
}

func (f *FakeSessionRepo) SaveExport(ctx context.Context, db bun.IDB, export *sessiondb.Export) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SaveExport")
	if f.SaveExportFunc != nil {
		return f.SaveExportFunc(ctx, db, export)
	}
	cp := *export
	f.exports[export.SessionID] = &cp
	return nil
}

func (f *FakeSessionRepo) GetExport(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*sessiondb.Export, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetExport")
	e, ok := f.exports[sessionID]
	if !ok {
		return nil, sessiondb.ErrExportNotFound
	}
	cp := *e
	return &cp, nil
}

// --- Accessors for assertions ---

func (f *FakeSessionRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Stored returns the in-memory row for sessionID.
func (f *FakeSessionRepo) Stored(sessionID uuid.UUID) *sessiondb.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[sessionID]; ok {
		return cloneSession(s)
	}
	return nil
}

// Ensure the fake actually satisfies the interface
var _ sessiondb.Repository = (*FakeSessionRepo)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu       sync.Mutex
	messages map[string][]*message.Message
	topics   []string
	err      error
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{messages: map[string][]*message.Message{}}
}

func (p *FakePublisher) Publish(topic string, messages ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.messages[topic] = append(p.messages[topic], messages...)
	return nil
}

func (p *FakePublisher) Close() error { return nil }

func (p *FakePublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.topics)
}

func (p *FakePublisher) Messages(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.messages[topic])
}

var _ message.Publisher = (*FakePublisher)(nil)
