package scoringdomain

// Engine evaluates a session snapshot under one game's rules.
type Engine interface {
	GameType() GameType
	Evaluate(session Session) Outcome
}

// TeamStandings is the Spades partnership view of a session.
type TeamStandings struct {
	TeamA        TeamSnapshot
	TeamB        TeamSnapshot
	TeamAPlayers []PlayerID
	TeamBPlayers []PlayerID
}

// Outcome is the result of evaluating a session. Winners are only set once
// the game is over.
type Outcome struct {
	Totals       map[PlayerID]int
	Teams        *TeamStandings
	GameOver     bool
	Winners      []PlayerID
	WinningTeams []TeamLabel
}

type totalsEngine struct {
	gameType GameType
	lowWins  bool
}

func (e totalsEngine) GameType() GameType { return e.gameType }

func (e totalsEngine) Evaluate(s Session) Outcome {
	totals := RunningTotals(s.Players, s.Rounds)
	out := Outcome{Totals: totals}
	if len(s.Players) == 0 || !IsGameOver(totals, s.TargetScore) {
		return out
	}
	out.GameOver = true
	out.Winners = winners(totals, s.Players, e.lowWins)
	return out
}

type thirteenEngine struct{}

func (thirteenEngine) GameType() GameType { return GameTypeThirteen }

func (thirteenEngine) Evaluate(s Session) Outcome {
	totals := RunningTotals(s.Players, s.Rounds)
	out := Outcome{Totals: totals}
	if len(s.Players) == 0 || len(s.Rounds) < ThirteenRoundCount {
		return out
	}
	out.GameOver = true
	out.Winners = winners(totals, s.Players, true)
	return out
}

type spadesEngine struct {
	settings SpadesSettings
}

func (spadesEngine) GameType() GameType { return GameTypeSpades }

func (e spadesEngine) Evaluate(s Session) Outcome {
	a, b := RunningTeamSnapshots(s.Players, s.SpadesRounds, e.settings)
	teamA, teamB := Teams(s.Players)

	standings := &TeamStandings{TeamA: a, TeamB: b}
	totals := make(map[PlayerID]int, len(s.Players))
	for _, p := range s.Players {
		totals[p.ID] = 0
	}
	for _, p := range teamA {
		standings.TeamAPlayers = append(standings.TeamAPlayers, p.ID)
		totals[p.ID] = a.Score
	}
	for _, p := range teamB {
		standings.TeamBPlayers = append(standings.TeamBPlayers, p.ID)
		totals[p.ID] = b.Score
	}

	out := Outcome{Totals: totals, Teams: standings}
	if len(teamA) == 0 || !IsSpadesGameOver(a, b, s.TargetScore) {
		return out
	}
	out.GameOver = true
	out.WinningTeams = SpadesWinners(a, b)
	for _, label := range out.WinningTeams {
		if label == TeamA {
			out.Winners = append(out.Winners, standings.TeamAPlayers...)
		} else {
			out.Winners = append(out.Winners, standings.TeamBPlayers...)
		}
	}
	out.Winners = InSeatOrder(out.Winners, s.Players)
	return out
}

func winners(totals map[PlayerID]int, players []Player, lowWins bool) []PlayerID {
	var ids []PlayerID
	if lowWins {
		ids = WinnersLowestTotal(totals)
	} else {
		ids = WinnersHighestTotal(totals)
	}
	return InSeatOrder(ids, players)
}
