package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	sessionevents "github.com/Black-And-White-Club/scorekeeper/app/modules/session/domain/events"
	sessiondb "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type (
	standingsResult = results.OperationResult[*Standings, error]
	listResult      = results.OperationResult[[]SessionSummary, error]
	emptyResult     = results.OperationResult[struct{}, error]
)

// CreateSession validates the request and stores a new session.
func (s *SessionService) CreateSession(ctx context.Context, req CreateSessionRequest) (*Standings, error) {
	ob := &outbox{}
	return execute(s, ctx, "CreateSession", req.GameType, ob, func(ctx context.Context, db bun.IDB) (standingsResult, error) {
		return s.createSessionLogic(ctx, db, req, ob)
	})
}

func (s *SessionService) createSessionLogic(ctx context.Context, db bun.IDB, req CreateSessionRequest, ob *outbox) (standingsResult, error) {
	gt, err := scoringdomain.ParseGameType(req.GameType)
	if err != nil {
		return results.FailureResult[*Standings, error](err), nil
	}
	rules, err := scoringdomain.LookupRules(gt)
	if err != nil {
		return results.FailureResult[*Standings, error](err), nil
	}
	if err := rules.ValidatePlayerCount(len(req.PlayerNames)); err != nil {
		return results.FailureResult[*Standings, error](err), nil
	}

	now := s.clock.Now()
	row := &sessiondb.Session{
		ID:          uuid.New(),
		GameType:    string(gt),
		TargetScore: rules.ClampTarget(req.TargetScore),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	var players []scoringdomain.Player
	for seat, raw := range req.PlayerNames {
		name := strings.TrimSpace(raw)
		if name == "" {
			return results.FailureResult[*Standings, error](ErrBlankPlayerName), nil
		}
		p := &sessiondb.Player{ID: uuid.NewString(), SessionID: row.ID, Name: name, Seat: seat}
		row.Players = append(row.Players, p)
		row.PlayerOrder = append(row.PlayerOrder, p.ID)
		players = append(players, scoringdomain.Player{ID: scoringdomain.PlayerID(p.ID), Name: name})
	}

	if gt == scoringdomain.GameTypeThirteen {
		if dealer, ok := scoringdomain.PickInitialDealer(players, s.rng); ok {
			d := dealer.String()
			row.DealerForNextRound = &d
		}
	}

	if err := s.repo.CreateSession(ctx, db, row); err != nil {
		return standingsResult{}, fmt.Errorf("failed to create session: %w", err)
	}

	st, err := s.standingsFor(row)
	if err != nil {
		return standingsResult{}, err
	}
	ob.add(sessionevents.SessionCreatedV1, sessionevents.SessionCreatedPayloadV1{
		SessionID:   row.ID.String(),
		GameType:    row.GameType,
		PlayerIDs:   row.PlayerOrder,
		TargetScore: row.TargetScore,
		CreatedAt:   row.CreatedAt,
	})
	return results.SuccessResult[*Standings, error](st), nil
}

// GetStandings evaluates the stored session.
func (s *SessionService) GetStandings(ctx context.Context, sessionID uuid.UUID) (*Standings, error) {
	return execute(s, ctx, "GetStandings", sessionID.String(), nil, func(ctx context.Context, db bun.IDB) (standingsResult, error) {
		row, failure, err := s.loadSession(ctx, db, sessionID, false)
		if failure != nil || err != nil {
			return standingsResult{Failure: failure}, err
		}
		st, err := s.standingsFor(row)
		if err != nil {
			return standingsResult{}, err
		}
		return results.SuccessResult[*Standings, error](st), nil
	})
}

// ListSessions returns stored sessions matching filter, newest first.
func (s *SessionService) ListSessions(ctx context.Context, filter ListFilter) ([]SessionSummary, error) {
	return execute(s, ctx, "ListSessions", filter.GameType, nil, func(ctx context.Context, db bun.IDB) (listResult, error) {
		return s.listSessionsLogic(ctx, db, filter)
	})
}

func (s *SessionService) listSessionsLogic(ctx context.Context, db bun.IDB, filter ListFilter) (listResult, error) {
	dbFilter := sessiondb.ListFilter{Completed: filter.Completed, Limit: filter.Limit}
	if strings.TrimSpace(filter.GameType) != "" {
		gt, err := scoringdomain.ParseGameType(filter.GameType)
		if err != nil {
			return results.FailureResult[[]SessionSummary, error](err), nil
		}
		dbFilter.GameType = string(gt)
	}
	if strings.TrimSpace(filter.Since) != "" {
		since, err := s.since.ParseSince(filter.Since, s.clock)
		if err != nil {
			return results.FailureResult[[]SessionSummary, error](fmt.Errorf("%w: %v", ErrInvalidSince, err)), nil
		}
		dbFilter.Since = &since
	}

	rows, err := s.repo.ListSessions(ctx, db, dbFilter)
	if err != nil {
		return listResult{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]SessionSummary, 0, len(rows))
	for _, row := range rows {
		snap := sessiondb.ToDomain(row)
		names := make([]string, len(snap.Players))
		for i, p := range snap.Players {
			names[i] = p.Name
		}
		summaries = append(summaries, SessionSummary{
			SessionID:   row.ID.String(),
			GameType:    snap.GameType,
			TargetScore: row.TargetScore,
			IsCompleted: row.IsCompleted,
			Players:     names,
			CreatedAt:   row.CreatedAt,
		})
	}
	return results.SuccessResult[[]SessionSummary, error](summaries), nil
}

// DeleteSession removes the session with its players and rounds.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	ob := &outbox{}
	_, err := execute(s, ctx, "DeleteSession", sessionID.String(), ob, func(ctx context.Context, db bun.IDB) (emptyResult, error) {
		row, failure, err := s.loadSession(ctx, db, sessionID, true)
		if failure != nil || err != nil {
			return emptyResult{Failure: failure}, err
		}
		if err := s.repo.DeleteSession(ctx, db, sessionID); err != nil {
			if errors.Is(err, sessiondb.ErrNotFound) {
				return results.FailureResult[struct{}, error](err), nil
			}
			return emptyResult{}, fmt.Errorf("failed to delete session: %w", err)
		}
		ob.add(sessionevents.SessionDeletedV1, sessionevents.SessionDeletedPayloadV1{
			SessionID: sessionID.String(),
			GameType:  row.GameType,
		})
		return results.SuccessResult[struct{}, error](struct{}{}), nil
	})
	return err
}

// OverrideDealer replaces the next dealer of an active Thirteen game.
func (s *SessionService) OverrideDealer(ctx context.Context, sessionID uuid.UUID, playerID string) (*Standings, error) {
	return execute(s, ctx, "OverrideDealer", sessionID.String(), nil, func(ctx context.Context, db bun.IDB) (standingsResult, error) {
		return s.overrideDealerLogic(ctx, db, sessionID, playerID)
	})
}

func (s *SessionService) overrideDealerLogic(ctx context.Context, db bun.IDB, sessionID uuid.UUID, playerID string) (standingsResult, error) {
	row, failure, err := s.loadSession(ctx, db, sessionID, true)
	if failure != nil || err != nil {
		return standingsResult{Failure: failure}, err
	}
	snap := sessiondb.ToDomain(row)
	if snap.GameType != scoringdomain.GameTypeThirteen {
		return results.FailureResult[*Standings, error](ErrWrongGameType), nil
	}
	if snap.IsCompleted {
		return results.FailureResult[*Standings, error](ErrSessionCompleted), nil
	}
	if !snap.HasPlayer(scoringdomain.PlayerID(playerID)) {
		return results.FailureResult[*Standings, error](ErrUnknownPlayer), nil
	}

	if err := s.repo.SetDealerForNextRound(ctx, db, sessionID, &playerID); err != nil {
		return standingsResult{}, fmt.Errorf("failed to set dealer: %w", err)
	}
	row.DealerForNextRound = &playerID

	st, err := s.standingsFor(row)
	if err != nil {
		return standingsResult{}, err
	}
	return results.SuccessResult[*Standings, error](st), nil
}

// loadSession fetches a session, optionally locking it. A missing session is
// returned as a failure rather than an error.
func (s *SessionService) loadSession(ctx context.Context, db bun.IDB, sessionID uuid.UUID, forUpdate bool) (*sessiondb.Session, *error, error) {
	var (
		row *sessiondb.Session
		err error
	)
	if forUpdate {
		row, err = s.repo.GetSessionForUpdate(ctx, db, sessionID)
	} else {
		row, err = s.repo.GetSession(ctx, db, sessionID)
	}
	if err != nil {
		if errors.Is(err, sessiondb.ErrNotFound) {
			return nil, &err, nil
		}
		return nil, nil, fmt.Errorf("failed to load session: %w", err)
	}
	return row, nil, nil
}
