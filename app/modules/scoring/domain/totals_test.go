package scoringdomain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func seats(ids ...PlayerID) []Player {
	players := make([]Player, len(ids))
	for i, id := range ids {
		players[i] = Player{ID: id, Name: string(id)}
	}
	return players
}

func TestRunningTotals(t *testing.T) {
	players := seats("a", "b", "c")

	tests := []struct {
		name   string
		rounds []Round
		want   map[PlayerID]int
	}{
		{
			name:   "no rounds yields zero for every player",
			rounds: nil,
			want:   map[PlayerID]int{"a": 0, "b": 0, "c": 0},
		},
		{
			name: "absent players show zero",
			rounds: []Round{
				{Index: 0, Scores: map[PlayerID]int{"a": 5}},
				{Index: 1, Scores: map[PlayerID]int{"a": 2, "b": 3}},
			},
			want: map[PlayerID]int{"a": 7, "b": 3, "c": 0},
		},
		{
			name: "unknown ids are ignored",
			rounds: []Round{
				{Index: 0, Scores: map[PlayerID]int{"a": 1, "ghost": 40}},
			},
			want: map[PlayerID]int{"a": 1, "b": 0, "c": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RunningTotals(players, tt.rounds)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("RunningTotals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunningTotalsOrderInvariant(t *testing.T) {
	players := seats("a", "b")
	rounds := []Round{
		{Index: 0, Scores: map[PlayerID]int{"a": 3, "b": 9}},
		{Index: 1, Scores: map[PlayerID]int{"a": 11, "b": 0}},
		{Index: 2, Scores: map[PlayerID]int{"a": 4, "b": 6}},
	}
	reversed := []Round{rounds[2], rounds[0], rounds[1]}

	first := RunningTotals(players, rounds)
	assert.Equal(t, first, RunningTotals(players, reversed))
	assert.Equal(t, first, RunningTotals(players, rounds), "repeat calls must agree")
	assert.Equal(t, map[PlayerID]int{"a": 18, "b": 15}, first)
}

func TestGameOverAndWinners(t *testing.T) {
	totals := map[PlayerID]int{"A": 50, "B": 30, "C": 30, "D": 70}
	assert.False(t, IsGameOver(totals, 100))

	totals["D"] = 105
	assert.True(t, IsGameOver(totals, 100))
	assert.Equal(t, []PlayerID{"B", "C"}, WinnersLowestTotal(totals))
	assert.Equal(t, []PlayerID{"D"}, WinnersHighestTotal(totals))
}

func TestWinnersHighestTotalUno(t *testing.T) {
	totals := map[PlayerID]int{"A": 520, "B": 300}
	assert.True(t, IsGameOver(totals, 500))
	assert.Equal(t, []PlayerID{"A"}, WinnersHighestTotal(totals))
}

func TestWinnersEmpty(t *testing.T) {
	assert.Nil(t, WinnersLowestTotal(map[PlayerID]int{}))
	assert.Nil(t, WinnersHighestTotal(nil))
	assert.False(t, IsGameOver(nil, 10))
}

func TestInSeatOrder(t *testing.T) {
	players := seats("z", "m", "a")
	got := InSeatOrder([]PlayerID{"a", "x", "z", "b"}, players)
	assert.Equal(t, []PlayerID{"z", "a", "b", "x"}, got)
}
