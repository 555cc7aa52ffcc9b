package scoringdomain

import (
	"math/rand/v2"
)

// ThirteenRoundCount is the number of hands in a Thirteen game, one per rank.
const ThirteenRoundCount = 13

// ThirteenRoundLabels names each Thirteen hand by the rank dealt.
var ThirteenRoundLabels = [ThirteenRoundCount]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K"}

// RoundLabel returns the label for a Thirteen round index. Indexes past the
// last hand keep the final label.
func RoundLabel(index int) string {
	if index < 0 {
		index = 0
	}
	if index >= ThirteenRoundCount {
		index = ThirteenRoundCount - 1
	}
	return ThirteenRoundLabels[index]
}

// Rand is the randomness source used for tie-break fallbacks.
// *rand.Rand from math/rand/v2 satisfies it; tests pass a seeded one.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand returns a source backed by the runtime's global generator.
func DefaultRand() Rand {
	return globalRand{}
}

// PickDealerForNextRound chooses who deals the following Thirteen hand.
//
// The highest scorer of the hand deals. Ties go to the highest cumulative
// total once this hand is added, and any tie that survives is settled by a
// uniform draw from rng. session.Rounds must hold only the rounds played
// before roundScores.
func PickDealerForNextRound(session Session, roundScores map[PlayerID]int, rng Rand) (PlayerID, bool) {
	if len(roundScores) == 0 {
		return "", false
	}

	candidates := InSeatOrder(playersAt(roundScores, extreme(roundScores, func(a, b int) bool { return a > b })), session.Players)
	if len(candidates) == 1 {
		return candidates[0], true
	}

	totalsAfter := RunningTotals(session.Players, session.Rounds)
	for pid, s := range roundScores {
		totalsAfter[pid] += s
	}

	maxTotal := totalsAfter[candidates[0]]
	for _, pid := range candidates[1:] {
		if totalsAfter[pid] > maxTotal {
			maxTotal = totalsAfter[pid]
		}
	}

	var remaining []PlayerID
	for _, pid := range candidates {
		if totalsAfter[pid] == maxTotal {
			remaining = append(remaining, pid)
		}
	}
	if len(remaining) == 1 {
		return remaining[0], true
	}

	if rng == nil {
		rng = DefaultRand()
	}
	return remaining[rng.IntN(len(remaining))], true
}

// PickInitialDealer draws the first dealer of a game at random.
func PickInitialDealer(players []Player, rng Rand) (PlayerID, bool) {
	if len(players) == 0 {
		return "", false
	}
	if rng == nil {
		rng = DefaultRand()
	}
	return players[rng.IntN(len(players))].ID, true
}
