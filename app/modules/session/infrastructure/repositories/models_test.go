package sessiondb

import (
	"testing"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestToDomain(t *testing.T) {
	dealer := "p3"
	row := &Session{
		ID:                 uuid.MustParse("6f1c2f8e-9a5e-4a55-9b61-2d7c0c1f4e10"),
		GameType:           "thirteen",
		DealerForNextRound: &dealer,
		PlayerOrder:        []string{"p2", "p1"},
		Players: []*Player{
			{ID: "p1", Name: "Ann", Seat: 0},
			{ID: "p2", Name: "Bo", Seat: 1},
			{ID: "p3", Name: "Cy", Seat: 2},
		},
		Rounds: []*Round{
			{Index: 1, Label: "2", Scores: map[string]int{"p1": 4}},
			{Index: 0, Label: "A", Scores: map[string]int{"p1": 1, "p2": 2}, DealerForNextRound: &dealer},
		},
	}

	got := ToDomain(row)

	wantPlayers := []scoringdomain.Player{
		{ID: "p2", Name: "Bo"},
		{ID: "p1", Name: "Ann"},
		{ID: "p3", Name: "Cy"},
	}
	if diff := cmp.Diff(wantPlayers, got.Players); diff != "" {
		t.Errorf("players mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, scoringdomain.GameTypeThirteen, got.GameType)
	assert.Equal(t, row.ID.String(), got.ID)
	if assert.NotNil(t, got.DealerForNextRound) {
		assert.Equal(t, scoringdomain.PlayerID("p3"), *got.DealerForNextRound)
	}
	if assert.Len(t, got.Rounds, 2) {
		assert.Equal(t, 0, got.Rounds[0].Index)
		assert.Equal(t, "A", got.Rounds[0].Label)
		assert.Equal(t, 4, got.Rounds[1].Score("p1"))
	}
}

func TestSpadesConversionsRoundTrip(t *testing.T) {
	entries := map[scoringdomain.PlayerID]scoringdomain.SpadesEntry{
		"a": scoringdomain.NewSpadesEntry(4, false, 5),
		"b": scoringdomain.NewSpadesEntry(0, true, 0),
	}
	stored := EntriesFromDomain(entries)
	assert.True(t, stored["b"].IsBlindNil)

	back := SpadesRoundToDomain(&SpadesRound{Index: 3, Entries: stored})
	assert.Equal(t, 3, back.Index)
	if diff := cmp.Diff(entries, back.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	scores := ScoresFromDomain(map[scoringdomain.PlayerID]int{"a": 7})
	assert.Equal(t, map[string]int{"a": 7}, scores)
}
