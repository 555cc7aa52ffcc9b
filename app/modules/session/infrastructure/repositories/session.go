package sessiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new session repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

// stampRound fills zero round timestamps with the current time.
func stampRound(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

// CreateSession inserts the session row followed by its players.
func (r *Impl) CreateSession(ctx context.Context, db bun.IDB, session *Session) error {
	db = r.resolveDB(db)
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.PlayerOrder == nil {
		session.PlayerOrder = []string{}
	}

	if _, err := db.NewInsert().Model(session).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	if len(session.Players) == 0 {
		return nil
	}
	for _, p := range session.Players {
		p.SessionID = session.ID
	}
	if _, err := db.NewInsert().Model(&session.Players).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert players: %w", err)
	}
	return nil
}

// GetSession loads a session snapshot.
func (r *Impl) GetSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*Session, error) {
	return r.loadSession(ctx, r.resolveDB(db), sessionID, false)
}

// GetSessionForUpdate loads a session snapshot and locks its row until the
// surrounding transaction ends.
func (r *Impl) GetSessionForUpdate(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*Session, error) {
	return r.loadSession(ctx, r.resolveDB(db), sessionID, true)
}

func (r *Impl) loadSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID, forUpdate bool) (*Session, error) {
	session := new(Session)
	q := db.NewSelect().
		Model(session).
		Relation("Players", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("p.seat ASC")
		}).
		Relation("Rounds", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("r.idx ASC")
		}).
		Relation("SpadesRounds", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("sr.idx ASC")
		}).
		Where("s.id = ?", sessionID)
	if forUpdate {
		q = q.For("UPDATE OF s")
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListSessions returns matching sessions with their players, newest first.
func (r *Impl) ListSessions(ctx context.Context, db bun.IDB, filter ListFilter) ([]*Session, error) {
	db = r.resolveDB(db)
	var sessions []*Session
	q := db.NewSelect().
		Model(&sessions).
		Relation("Players", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("p.seat ASC")
		}).
		Order("s.created_at DESC")

	if filter.GameType != "" {
		q = q.Where("s.game_type = ?", filter.GameType)
	}
	if filter.Completed != nil {
		q = q.Where("s.is_completed = ?", *filter.Completed)
	}
	if filter.Since != nil {
		q = q.Where("s.created_at >= ?", *filter.Since)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// AppendRound inserts a new round.
func (r *Impl) AppendRound(ctx context.Context, db bun.IDB, round *Round) error {
	db = r.resolveDB(db)
	if round.ID == uuid.Nil {
		round.ID = uuid.New()
	}
	stampRound(&round.CreatedAt, &round.UpdatedAt)

	if _, err := db.NewInsert().Model(round).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrRoundConflict
		}
		return fmt.Errorf("failed to insert round: %w", err)
	}
	return nil
}

// UpdateRoundScores replaces the scores of the round at index.
func (r *Impl) UpdateRoundScores(ctx context.Context, db bun.IDB, sessionID uuid.UUID, index int, scores map[string]int) error {
	db = r.resolveDB(db)
	round := &Round{Scores: scores, UpdatedAt: time.Now().UTC()}
	result, err := db.NewUpdate().
		Model(round).
		Column("scores", "updated_at").
		Where("session_id = ?", sessionID).
		Where("idx = ?", index).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update round scores: %w", err)
	}
	return requireRow(result, ErrRoundNotFound)
}

// AppendSpadesRound inserts a new Spades hand.
func (r *Impl) AppendSpadesRound(ctx context.Context, db bun.IDB, round *SpadesRound) error {
	db = r.resolveDB(db)
	if round.ID == uuid.Nil {
		round.ID = uuid.New()
	}
	stampRound(&round.CreatedAt, &round.UpdatedAt)

	if _, err := db.NewInsert().Model(round).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return ErrRoundConflict
		}
		return fmt.Errorf("failed to insert spades round: %w", err)
	}
	return nil
}

// UpdateSpadesRoundEntries replaces the entries of the hand at index.
func (r *Impl) UpdateSpadesRoundEntries(ctx context.Context, db bun.IDB, sessionID uuid.UUID, index int, entries map[string]SpadesEntry) error {
	db = r.resolveDB(db)
	round := &SpadesRound{Entries: entries, UpdatedAt: time.Now().UTC()}
	result, err := db.NewUpdate().
		Model(round).
		Column("entries", "updated_at").
		Where("session_id = ?", sessionID).
		Where("idx = ?", index).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update spades round entries: %w", err)
	}
	return requireRow(result, ErrRoundNotFound)
}

// MarkCompleted sets is_completed once. A session that is already complete
// is left untouched and reported as false.
func (r *Impl) MarkCompleted(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (bool, error) {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Session)(nil)).
		Set("is_completed = TRUE").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", sessionID).
		Where("is_completed = FALSE").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to mark session completed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// SetDealerForNextRound stores the next dealer. nil clears it.
func (r *Impl) SetDealerForNextRound(ctx context.Context, db bun.IDB, sessionID uuid.UUID, dealer *string) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Session)(nil)).
		Set("dealer_for_next_round = ?", dealer).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set dealer: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// DeleteSession removes the session's exports, rounds and players, then the
// session itself. Callers wanting atomicity pass a transaction.
func (r *Impl) DeleteSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID) error {
	db = r.resolveDB(db)

	owned := []any{(*Export)(nil), (*Round)(nil), (*SpadesRound)(nil), (*Player)(nil)}
	for _, model := range owned {
		if _, err := db.NewDelete().Model(model).Where("session_id = ?", sessionID).Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete session children: %w", err)
		}
	}

	result, err := db.NewDelete().Model((*Session)(nil)).Where("id = ?", sessionID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return requireRow(result, ErrNotFound)
}

// SaveExport stores or replaces the session's scoresheet. A zero CreatedAt
// is stamped with the current time.
func (r *Impl) SaveExport(ctx context.Context, db bun.IDB, export *Export) error {
	db = r.resolveDB(db)
	if export.CreatedAt.IsZero() {
		export.CreatedAt = time.Now().UTC()
	}
	_, err := db.NewInsert().
		Model(export).
		On("CONFLICT (session_id) DO UPDATE").
		Set("content_type = EXCLUDED.content_type").
		Set("content = EXCLUDED.content").
		Set("created_at = EXCLUDED.created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save export: %w", err)
	}
	return nil
}

// GetExport returns the stored scoresheet.
func (r *Impl) GetExport(ctx context.Context, db bun.IDB, sessionID uuid.UUID) (*Export, error) {
	db = r.resolveDB(db)
	export := new(Export)
	err := db.NewSelect().
		Model(export).
		Where("session_id = ?", sessionID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExportNotFound
		}
		return nil, fmt.Errorf("failed to get export: %w", err)
	}
	return export, nil
}

func requireRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
