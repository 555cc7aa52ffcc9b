package sessionservice

import (
	"context"
	"errors"
	"fmt"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	sessionevents "github.com/Black-And-White-Club/scorekeeper/app/modules/session/domain/events"
	sessiondb "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/repositories"
	"github.com/Black-And-White-Club/scorekeeper/app/shared/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type roundResult = results.OperationResult[*RoundResult, error]

func roundFailure(err error) (roundResult, error) {
	return results.FailureResult[*RoundResult, error](err), nil
}

// RecordRound appends a hand to a Thirteen, Hearts, UNO or Cabo session.
// Players missing from scores are recorded with 0.
func (s *SessionService) RecordRound(ctx context.Context, sessionID uuid.UUID, scores map[string]int) (*RoundResult, error) {
	ob := &outbox{}
	return execute(s, ctx, "RecordRound", sessionID.String(), ob, func(ctx context.Context, db bun.IDB) (roundResult, error) {
		return s.recordRoundLogic(ctx, db, sessionID, scores, ob)
	})
}

func (s *SessionService) recordRoundLogic(ctx context.Context, db bun.IDB, sessionID uuid.UUID, scores map[string]int, ob *outbox) (roundResult, error) {
	row, failure, err := s.loadSession(ctx, db, sessionID, true)
	if failure != nil || err != nil {
		return roundResult{Failure: failure}, err
	}
	snap := sessiondb.ToDomain(row)
	if snap.GameType == scoringdomain.GameTypeSpades {
		return roundFailure(ErrWrongGameType)
	}
	if snap.IsCompleted {
		return roundFailure(ErrSessionCompleted)
	}
	normalized, err := normalizeScores(snap, scores)
	if err != nil {
		return roundFailure(err)
	}

	now := s.clock.Now()
	round := &sessiondb.Round{
		ID:        uuid.New(),
		SessionID: sessionID,
		Index:     snap.NextRoundIndex(),
		Scores:    sessiondb.ScoresFromDomain(normalized),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if snap.GameType == scoringdomain.GameTypeThirteen {
		round.Label = scoringdomain.RoundLabel(round.Index)
		if dealer, ok := scoringdomain.PickDealerForNextRound(snap, normalized, s.rng); ok {
			d := dealer.String()
			round.DealerForNextRound = &d
		}
	}

	if err := s.repo.AppendRound(ctx, db, round); err != nil {
		return roundResult{}, fmt.Errorf("failed to append round: %w", err)
	}
	if round.DealerForNextRound != nil {
		if err := s.repo.SetDealerForNextRound(ctx, db, sessionID, round.DealerForNextRound); err != nil {
			return roundResult{}, fmt.Errorf("failed to set dealer: %w", err)
		}
		d := scoringdomain.PlayerID(*round.DealerForNextRound)
		snap.DealerForNextRound = &d
	}
	snap.Rounds = append(snap.Rounds, sessiondb.RoundToDomain(round))

	res, err := s.finishRound(ctx, db, &snap, round.Index, row, ob)
	if err != nil {
		return roundResult{}, err
	}
	ob.add(sessionevents.RoundRecordedV1, roundPayload(snap, round.Index, round.Label, res.Standings.GameOver))
	return results.SuccessResult[*RoundResult, error](res), nil
}

// AmendRound replaces the scores of a stored hand. The index and any dealer
// chosen after that hand are kept.
func (s *SessionService) AmendRound(ctx context.Context, sessionID uuid.UUID, index int, scores map[string]int) (*RoundResult, error) {
	ob := &outbox{}
	return execute(s, ctx, "AmendRound", sessionID.String(), ob, func(ctx context.Context, db bun.IDB) (roundResult, error) {
		return s.amendRoundLogic(ctx, db, sessionID, index, scores, ob)
	})
}

func (s *SessionService) amendRoundLogic(ctx context.Context, db bun.IDB, sessionID uuid.UUID, index int, scores map[string]int, ob *outbox) (roundResult, error) {
	row, failure, err := s.loadSession(ctx, db, sessionID, true)
	if failure != nil || err != nil {
		return roundResult{Failure: failure}, err
	}
	snap := sessiondb.ToDomain(row)
	if snap.GameType == scoringdomain.GameTypeSpades {
		return roundFailure(ErrWrongGameType)
	}
	pos := -1
	for i, r := range snap.Rounds {
		if r.Index == index {
			pos = i
			break
		}
	}
	if pos < 0 {
		return roundFailure(sessiondb.ErrRoundNotFound)
	}
	normalized, err := normalizeScores(snap, scores)
	if err != nil {
		return roundFailure(err)
	}

	if err := s.repo.UpdateRoundScores(ctx, db, sessionID, index, sessiondb.ScoresFromDomain(normalized)); err != nil {
		if errors.Is(err, sessiondb.ErrRoundNotFound) {
			return roundFailure(err)
		}
		return roundResult{}, fmt.Errorf("failed to update round: %w", err)
	}
	snap.Rounds[pos].Scores = normalized

	res, err := s.finishRound(ctx, db, &snap, index, row, ob)
	if err != nil {
		return roundResult{}, err
	}
	ob.add(sessionevents.RoundAmendedV1, roundPayload(snap, index, snap.Rounds[pos].Label, res.Standings.GameOver))
	return results.SuccessResult[*RoundResult, error](res), nil
}

// RecordSpadesRound appends a Spades hand. Bids and tricks are clamped to the
// number of tricks in a hand.
func (s *SessionService) RecordSpadesRound(ctx context.Context, sessionID uuid.UUID, entries map[string]SpadesBid) (*RoundResult, error) {
	ob := &outbox{}
	return execute(s, ctx, "RecordSpadesRound", sessionID.String(), ob, func(ctx context.Context, db bun.IDB) (roundResult, error) {
		return s.recordSpadesRoundLogic(ctx, db, sessionID, entries, ob)
	})
}

func (s *SessionService) recordSpadesRoundLogic(ctx context.Context, db bun.IDB, sessionID uuid.UUID, entries map[string]SpadesBid, ob *outbox) (roundResult, error) {
	row, failure, err := s.loadSession(ctx, db, sessionID, true)
	if failure != nil || err != nil {
		return roundResult{Failure: failure}, err
	}
	snap := sessiondb.ToDomain(row)
	if snap.GameType != scoringdomain.GameTypeSpades {
		return roundFailure(ErrWrongGameType)
	}
	if snap.IsCompleted {
		return roundFailure(ErrSessionCompleted)
	}
	normalized, err := normalizeSpades(snap, entries)
	if err != nil {
		return roundFailure(err)
	}

	now := s.clock.Now()
	round := &sessiondb.SpadesRound{
		ID:        uuid.New(),
		SessionID: sessionID,
		Index:     snap.NextRoundIndex(),
		Entries:   sessiondb.EntriesFromDomain(normalized),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.AppendSpadesRound(ctx, db, round); err != nil {
		return roundResult{}, fmt.Errorf("failed to append spades round: %w", err)
	}
	snap.SpadesRounds = append(snap.SpadesRounds, sessiondb.SpadesRoundToDomain(round))

	res, err := s.finishRound(ctx, db, &snap, round.Index, row, ob)
	if err != nil {
		return roundResult{}, err
	}
	ob.add(sessionevents.RoundRecordedV1, roundPayload(snap, round.Index, "", res.Standings.GameOver))
	return results.SuccessResult[*RoundResult, error](res), nil
}

// AmendSpadesRound replaces the entries of a stored Spades hand.
func (s *SessionService) AmendSpadesRound(ctx context.Context, sessionID uuid.UUID, index int, entries map[string]SpadesBid) (*RoundResult, error) {
	ob := &outbox{}
	return execute(s, ctx, "AmendSpadesRound", sessionID.String(), ob, func(ctx context.Context, db bun.IDB) (roundResult, error) {
		return s.amendSpadesRoundLogic(ctx, db, sessionID, index, entries, ob)
	})
}

func (s *SessionService) amendSpadesRoundLogic(ctx context.Context, db bun.IDB, sessionID uuid.UUID, index int, entries map[string]SpadesBid, ob *outbox) (roundResult, error) {
	row, failure, err := s.loadSession(ctx, db, sessionID, true)
	if failure != nil || err != nil {
		return roundResult{Failure: failure}, err
	}
	snap := sessiondb.ToDomain(row)
	if snap.GameType != scoringdomain.GameTypeSpades {
		return roundFailure(ErrWrongGameType)
	}
	pos := -1
	for i, r := range snap.SpadesRounds {
		if r.Index == index {
			pos = i
			break
		}
	}
	if pos < 0 {
		return roundFailure(sessiondb.ErrRoundNotFound)
	}
	normalized, err := normalizeSpades(snap, entries)
	if err != nil {
		return roundFailure(err)
	}

	if err := s.repo.UpdateSpadesRoundEntries(ctx, db, sessionID, index, sessiondb.EntriesFromDomain(normalized)); err != nil {
		if errors.Is(err, sessiondb.ErrRoundNotFound) {
			return roundFailure(err)
		}
		return roundResult{}, fmt.Errorf("failed to update spades round: %w", err)
	}
	snap.SpadesRounds[pos].Entries = normalized

	res, err := s.finishRound(ctx, db, &snap, index, row, ob)
	if err != nil {
		return roundResult{}, err
	}
	ob.add(sessionevents.RoundAmendedV1, roundPayload(snap, index, "", res.Standings.GameOver))
	return results.SuccessResult[*RoundResult, error](res), nil
}

// finishRound evaluates snap and marks the session completed the first time
// the game is over. A completed session is never reopened.
func (s *SessionService) finishRound(ctx context.Context, db bun.IDB, snap *scoringdomain.Session, index int, row *sessiondb.Session, ob *outbox) (*RoundResult, error) {
	outcome, err := s.evaluate(*snap)
	if err != nil {
		return nil, err
	}

	completedNow := false
	if outcome.GameOver && !snap.IsCompleted {
		completedNow, err = s.repo.MarkCompleted(ctx, db, row.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to mark session completed: %w", err)
		}
		snap.IsCompleted = true
	}

	st := buildStandings(*snap, outcome, s.spades, row.CreatedAt)
	if completedNow {
		ob.add(sessionevents.SessionCompletedV1, sessionevents.SessionCompletedPayloadV1{
			SessionID:    snap.ID,
			GameType:     string(snap.GameType),
			RoundCount:   snap.RoundCount(),
			Winners:      st.Winners,
			WinningTeams: st.WinningTeams,
		})
	}
	return &RoundResult{RoundIndex: index, Completed: completedNow, Standings: st}, nil
}

func roundPayload(snap scoringdomain.Session, index int, label string, gameOver bool) sessionevents.RoundRecordedPayloadV1 {
	p := sessionevents.RoundRecordedPayloadV1{
		SessionID:  snap.ID,
		GameType:   string(snap.GameType),
		RoundIndex: index,
		RoundLabel: label,
		GameOver:   gameOver,
	}
	if snap.GameType == scoringdomain.GameTypeThirteen && snap.DealerForNextRound != nil {
		p.DealerForNextRound = snap.DealerForNextRound.String()
	}
	return p
}

// normalizeScores clamps each score to the game's bounds and fills absent
// players with 0.
func normalizeScores(snap scoringdomain.Session, scores map[string]int) (map[scoringdomain.PlayerID]int, error) {
	rules, err := scoringdomain.LookupRules(snap.GameType)
	if err != nil {
		return nil, err
	}
	for pid := range scores {
		if !snap.HasPlayer(scoringdomain.PlayerID(pid)) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, pid)
		}
	}
	out := make(map[scoringdomain.PlayerID]int, len(snap.Players))
	for _, p := range snap.Players {
		out[p.ID] = rules.ClampRoundScore(scores[p.ID.String()])
	}
	return out, nil
}

func normalizeSpades(snap scoringdomain.Session, entries map[string]SpadesBid) (map[scoringdomain.PlayerID]scoringdomain.SpadesEntry, error) {
	rules, err := scoringdomain.LookupRules(snap.GameType)
	if err != nil {
		return nil, err
	}
	for pid := range entries {
		if !snap.HasPlayer(scoringdomain.PlayerID(pid)) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, pid)
		}
	}
	out := make(map[scoringdomain.PlayerID]scoringdomain.SpadesEntry, len(snap.Players))
	for _, p := range snap.Players {
		bid := entries[p.ID.String()]
		out[p.ID] = scoringdomain.NewSpadesEntry(rules.ClampRoundScore(bid.Bid), bid.BlindNil, rules.ClampRoundScore(bid.Tricks))
	}
	return out, nil
}
