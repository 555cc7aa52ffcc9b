package scoringdomain

import (
	"cmp"
	"slices"
)

// Spades bids and tricks live in [0, SpadesMaxTricks].
const SpadesMaxTricks = 13

// TeamLabel names a Spades partnership.
type TeamLabel string

const (
	TeamA TeamLabel = "Team A"
	TeamB TeamLabel = "Team B"
)

// SpadesSettings holds the house-rule constants for Spades scoring.
type SpadesSettings struct {
	NilBonus         int
	BlindNilBonus    int
	BagsPenaltyEvery int
	BagsPenalty      int
}

// DefaultSpadesSettings returns the standard bonus and bag values.
func DefaultSpadesSettings() SpadesSettings {
	return SpadesSettings{
		NilBonus:         100,
		BlindNilBonus:    200,
		BagsPenaltyEvery: 10,
		BagsPenalty:      100,
	}
}

// TeamSnapshot is a team's running score and unpenalized bag count.
type TeamSnapshot struct {
	Score int
	Bags  int
}

// SpadesRoundResult holds the per-team deltas of a single hand.
// The bag penalty is never part of these deltas.
type SpadesRoundResult struct {
	TeamADeltaScore int
	TeamADeltaBags  int
	TeamBDeltaScore int
	TeamBDeltaBags  int
}

// Teams splits four seated players into partnerships: seats 0 and 2 against
// seats 1 and 3. Any other table size yields two empty teams.
func Teams(players []Player) (teamA, teamB []Player) {
	if len(players) != 4 {
		return nil, nil
	}
	return []Player{players[0], players[2]}, []Player{players[1], players[3]}
}

// TeamOf returns the partnership a player sits in.
func TeamOf(players []Player, pid PlayerID) (TeamLabel, bool) {
	a, b := Teams(players)
	for _, p := range a {
		if p.ID == pid {
			return TeamA, true
		}
	}
	for _, p := range b {
		if p.ID == pid {
			return TeamB, true
		}
	}
	return "", false
}

func clampTricks(v int) int {
	return max(0, min(v, SpadesMaxTricks))
}

func nilDelta(e SpadesEntry, tricks int, settings SpadesSettings) int {
	switch {
	case e.IsBlindNil:
		if tricks == 0 {
			return settings.BlindNilBonus
		}
		return -settings.BlindNilBonus
	case e.IsNil:
		if tricks == 0 {
			return settings.NilBonus
		}
		return -settings.NilBonus
	default:
		return 0
	}
}

func contractDelta(bid, tricks int) (score, bags int) {
	if tricks >= bid {
		return 10 * bid, tricks - bid
	}
	return -10 * bid, 0
}

type teamTally struct {
	bid, tricks, nilBonus int
}

func tallyTeam(team []Player, round SpadesRound, settings SpadesSettings) teamTally {
	var t teamTally
	for _, p := range team {
		e := round.Entry(p.ID)
		bid := clampTricks(e.Bid)
		tricks := clampTricks(e.Tricks)
		t.bid += bid
		t.tricks += tricks
		t.nilBonus += nilDelta(e, tricks, settings)
	}
	return t
}

// ScoreRound computes both teams' score and bag deltas for one hand.
func ScoreRound(players []Player, round SpadesRound, settings SpadesSettings) SpadesRoundResult {
	teamA, teamB := Teams(players)

	a := tallyTeam(teamA, round, settings)
	b := tallyTeam(teamB, round, settings)

	aScore, aBags := contractDelta(a.bid, a.tricks)
	bScore, bBags := contractDelta(b.bid, b.tricks)

	return SpadesRoundResult{
		TeamADeltaScore: aScore + a.nilBonus,
		TeamADeltaBags:  aBags,
		TeamBDeltaScore: bScore + b.nilBonus,
		TeamBDeltaBags:  bBags,
	}
}

// ApplyBagsPenalty charges the bag penalty once per full interval of bags.
func ApplyBagsPenalty(s TeamSnapshot, settings SpadesSettings) TeamSnapshot {
	if settings.BagsPenaltyEvery <= 0 {
		return s
	}
	for s.Bags >= settings.BagsPenaltyEvery {
		s.Score -= settings.BagsPenalty
		s.Bags -= settings.BagsPenaltyEvery
	}
	return s
}

// SortedSpadesRounds returns a copy of rounds in ascending index order.
func SortedSpadesRounds(rounds []SpadesRound) []SpadesRound {
	sorted := slices.Clone(rounds)
	slices.SortStableFunc(sorted, func(a, b SpadesRound) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return sorted
}

// RunningTeamSnapshots folds every hand into the two team snapshots,
// applying the bag penalty to both teams after each hand.
func RunningTeamSnapshots(players []Player, rounds []SpadesRound, settings SpadesSettings) (TeamSnapshot, TeamSnapshot) {
	var a, b TeamSnapshot
	for _, r := range SortedSpadesRounds(rounds) {
		a, b = applySpadesRound(players, r, settings, a, b)
	}
	return a, b
}

// SpadesHistory returns the team snapshots after each hand, in index order.
func SpadesHistory(players []Player, rounds []SpadesRound, settings SpadesSettings) [][2]TeamSnapshot {
	sorted := SortedSpadesRounds(rounds)
	history := make([][2]TeamSnapshot, 0, len(sorted))
	var a, b TeamSnapshot
	for _, r := range sorted {
		a, b = applySpadesRound(players, r, settings, a, b)
		history = append(history, [2]TeamSnapshot{a, b})
	}
	return history
}

func applySpadesRound(players []Player, r SpadesRound, settings SpadesSettings, a, b TeamSnapshot) (TeamSnapshot, TeamSnapshot) {
	delta := ScoreRound(players, r, settings)
	a.Score += delta.TeamADeltaScore
	a.Bags += delta.TeamADeltaBags
	b.Score += delta.TeamBDeltaScore
	b.Bags += delta.TeamBDeltaBags
	return ApplyBagsPenalty(a, settings), ApplyBagsPenalty(b, settings)
}

// IsSpadesGameOver reports whether either team has reached the target.
func IsSpadesGameOver(a, b TeamSnapshot, target int) bool {
	return a.Score >= target || b.Score >= target
}

// SpadesWinners returns the higher-scoring team, or both on an exact tie.
func SpadesWinners(a, b TeamSnapshot) []TeamLabel {
	if a.Score == b.Score {
		return []TeamLabel{TeamA, TeamB}
	}
	if a.Score > b.Score {
		return []TeamLabel{TeamA}
	}
	return []TeamLabel{TeamB}
}
