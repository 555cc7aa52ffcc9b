package scoringdomain

import (
	"cmp"
	"slices"
)

// RunningTotals sums every round into a per-player total.
//
// Every seated player starts at 0 so players without any recorded score still
// appear. Round entries for ids outside the session are ignored.
func RunningTotals(players []Player, rounds []Round) map[PlayerID]int {
	totals := make(map[PlayerID]int, len(players))
	for _, p := range players {
		totals[p.ID] = 0
	}

	for _, r := range rounds {
		for _, p := range players {
			totals[p.ID] += r.Score(p.ID)
		}
	}
	return totals
}

// IsGameOver reports whether any total has reached the target.
func IsGameOver(totals map[PlayerID]int, target int) bool {
	for _, v := range totals {
		if v >= target {
			return true
		}
	}
	return false
}

// WinnersLowestTotal returns every player tied at the minimum total.
func WinnersLowestTotal(totals map[PlayerID]int) []PlayerID {
	if len(totals) == 0 {
		return nil
	}
	best := extreme(totals, func(a, b int) bool { return a < b })
	return playersAt(totals, best)
}

// WinnersHighestTotal returns every player tied at the maximum total.
func WinnersHighestTotal(totals map[PlayerID]int) []PlayerID {
	if len(totals) == 0 {
		return nil
	}
	best := extreme(totals, func(a, b int) bool { return a > b })
	return playersAt(totals, best)
}

func extreme(totals map[PlayerID]int, better func(a, b int) bool) int {
	first := true
	var best int
	for _, v := range totals {
		if first || better(v, best) {
			best = v
			first = false
		}
	}
	return best
}

// playersAt returns the ids holding value, sorted by id for stable output.
func playersAt(totals map[PlayerID]int, value int) []PlayerID {
	var out []PlayerID
	for pid, v := range totals {
		if v == value {
			out = append(out, pid)
		}
	}
	slices.Sort(out)
	return out
}

// InSeatOrder reorders ids to follow the session's seat order.
// Ids that are not seated keep a stable id order after the seated ones.
func InSeatOrder(ids []PlayerID, players []Player) []PlayerID {
	seat := make(map[PlayerID]int, len(players))
	for i, p := range players {
		seat[p.ID] = i
	}

	out := slices.Clone(ids)
	slices.SortStableFunc(out, func(a, b PlayerID) int {
		sa, okA := seat[a]
		sb, okB := seat[b]
		switch {
		case okA && okB:
			return cmp.Compare(sa, sb)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return cmp.Compare(a, b)
		}
	})
	return out
}
