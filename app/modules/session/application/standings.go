package sessionservice

import (
	"fmt"
	"slices"
	"time"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	sessiondb "github.com/Black-And-White-Club/scorekeeper/app/modules/session/infrastructure/repositories"
)

func (s *SessionService) engineFor(gt scoringdomain.GameType) (scoringdomain.Engine, error) {
	engine, err := scoringdomain.EngineWithSettings(gt, s.spades)
	if err != nil {
		return nil, fmt.Errorf("stored session has unsupported game type %q: %w", gt, err)
	}
	return engine, nil
}

// evaluate runs the session's engine over snap.
func (s *SessionService) evaluate(snap scoringdomain.Session) (scoringdomain.Outcome, error) {
	engine, err := s.engineFor(snap.GameType)
	if err != nil {
		return scoringdomain.Outcome{}, err
	}
	return engine.Evaluate(snap), nil
}

func (s *SessionService) standingsFor(row *sessiondb.Session) (*Standings, error) {
	snap := sessiondb.ToDomain(row)
	outcome, err := s.evaluate(snap)
	if err != nil {
		return nil, err
	}
	return buildStandings(snap, outcome, s.spades, row.CreatedAt), nil
}

func buildStandings(snap scoringdomain.Session, outcome scoringdomain.Outcome, settings scoringdomain.SpadesSettings, createdAt time.Time) *Standings {
	st := &Standings{
		SessionID:   snap.ID,
		GameType:    snap.GameType,
		TargetScore: snap.TargetScore,
		IsCompleted: snap.IsCompleted,
		GameOver:    outcome.GameOver,
		RoundCount:  snap.RoundCount(),
		CreatedAt:   createdAt,
		snapshot:    snap,
	}

	if snap.GameType == scoringdomain.GameTypeThirteen {
		if snap.DealerForNextRound != nil {
			st.Dealer = snap.DealerForNextRound.String()
		}
		if !outcome.GameOver {
			st.NextRoundLabel = scoringdomain.RoundLabel(len(snap.Rounds))
		}
	}

	for _, w := range outcome.Winners {
		st.Winners = append(st.Winners, w.String())
	}
	for _, t := range outcome.WinningTeams {
		st.WinningTeams = append(st.WinningTeams, string(t))
	}

	for seat, p := range snap.Players {
		ps := PlayerStanding{
			PlayerID: p.ID.String(),
			Name:     p.Name,
			Seat:     seat,
			Total:    outcome.Totals[p.ID],
			IsWinner: slices.Contains(outcome.Winners, p.ID),
			IsDealer: st.Dealer != "" && st.Dealer == p.ID.String(),
		}
		if outcome.Teams != nil {
			if label, ok := scoringdomain.TeamOf(snap.Players, p.ID); ok {
				ps.Team = string(label)
			}
		}
		st.Players = append(st.Players, ps)
	}

	if outcome.Teams != nil {
		st.Teams = []TeamStanding{
			teamStanding(scoringdomain.TeamA, outcome.Teams.TeamA, outcome.Teams.TeamAPlayers, outcome.WinningTeams),
			teamStanding(scoringdomain.TeamB, outcome.Teams.TeamB, outcome.Teams.TeamBPlayers, outcome.WinningTeams),
		}
	}

	for _, r := range snap.Rounds {
		rv := RoundView{Index: r.Index, Label: r.Label, Scores: make(map[string]int, len(r.Scores))}
		for pid, v := range r.Scores {
			rv.Scores[pid.String()] = v
		}
		if r.DealerForNextRound != nil {
			rv.DealerForNextRound = r.DealerForNextRound.String()
		}
		st.Rounds = append(st.Rounds, rv)
	}

	if snap.GameType == scoringdomain.GameTypeSpades {
		history := scoringdomain.SpadesHistory(snap.Players, snap.SpadesRounds, settings)
		for i, r := range snap.SpadesRounds {
			rv := SpadesRoundView{Index: r.Index, Entries: make(map[string]SpadesEntryView, len(r.Entries))}
			for pid, e := range r.Entries {
				rv.Entries[pid.String()] = SpadesEntryView{Bid: e.Bid, IsNil: e.IsNil, IsBlindNil: e.IsBlindNil, Tricks: e.Tricks}
			}
			if i < len(history) {
				rv.TeamAScore, rv.TeamABags = history[i][0].Score, history[i][0].Bags
				rv.TeamBScore, rv.TeamBBags = history[i][1].Score, history[i][1].Bags
			}
			st.SpadesRounds = append(st.SpadesRounds, rv)
		}
	}

	return st
}

func teamStanding(label scoringdomain.TeamLabel, snap scoringdomain.TeamSnapshot, players []scoringdomain.PlayerID, winners []scoringdomain.TeamLabel) TeamStanding {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.String()
	}
	return TeamStanding{
		Label:     string(label),
		PlayerIDs: ids,
		Score:     snap.Score,
		Bags:      snap.Bags,
		IsWinner:  slices.Contains(winners, label),
	}
}
