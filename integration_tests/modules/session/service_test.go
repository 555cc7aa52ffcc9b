//go:build integration

package session_test

import (
	"sync"
	"testing"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	sessionservice "github.com/Black-And-White-Club/scorekeeper/app/modules/session/application"
	"github.com/Black-And-White-Club/scorekeeper/integration_tests/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerIDs(st *sessionservice.Standings) []string {
	out := make([]string, len(st.Players))
	for i, p := range st.Players {
		out[i] = p.PlayerID
	}
	return out
}

func TestSessionService_HeartsGameToCompletion(t *testing.T) {
	svc := newService(t, nil)
	ctx := testEnv.Ctx
	gen := testutils.NewTestDataGenerator(42)

	st, err := svc.CreateSession(ctx, sessionservice.CreateSessionRequest{
		GameType:    "hearts",
		PlayerNames: gen.PlayerNames(4),
		TargetScore: 30,
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(st.SessionID)
	ids := playerIDs(st)

	res, err := svc.RecordRound(ctx, sessionID, map[string]int{ids[0]: 26})
	require.NoError(t, err)
	assert.Equal(t, 0, res.RoundIndex)
	assert.False(t, res.Standings.GameOver)

	res, err = svc.RecordRound(ctx, sessionID, map[string]int{ids[0]: 10, ids[1]: 16})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RoundIndex)
	assert.True(t, res.Completed)
	assert.True(t, res.Standings.IsCompleted)
	assert.ElementsMatch(t, []string{ids[2], ids[3]}, winnerIDs(res.Standings))

	_, err = svc.RecordRound(ctx, sessionID, map[string]int{ids[0]: 1})
	assert.ErrorIs(t, err, sessionservice.ErrSessionCompleted)

	// Amending after completion keeps the session complete.
	res, err = svc.AmendRound(ctx, sessionID, 1, map[string]int{ids[0]: 0})
	require.NoError(t, err)
	assert.True(t, res.Standings.IsCompleted)

	reloaded, err := svc.GetStandings(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.RoundCount)
	assert.Equal(t, 26, reloaded.Players[0].Total)

	completed := true
	list, err := svc.ListSessions(ctx, sessionservice.ListFilter{GameType: "hearts", Completed: &completed})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, st.SessionID, list[0].SessionID)

	require.NoError(t, svc.StoreScoresheet(ctx, sessionID))
	sheet, err := svc.GetStoredScoresheet(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(sheet[:2]))

	chart, err := svc.RenderProgressChart(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(chart[:4]))

	require.NoError(t, svc.DeleteSession(ctx, sessionID))
	_, err = svc.GetStandings(ctx, sessionID)
	assert.True(t, sessionservice.IsNotFound(err))
}

func winnerIDs(st *sessionservice.Standings) []string {
	var out []string
	for _, p := range st.Players {
		if p.IsWinner {
			out = append(out, p.PlayerID)
		}
	}
	return out
}

func TestSessionService_SpadesHands(t *testing.T) {
	svc := newService(t, nil)
	ctx := testEnv.Ctx

	st, err := svc.CreateSession(ctx, sessionservice.CreateSessionRequest{
		GameType:    "spades",
		PlayerNames: []string{"North", "East", "South", "West"},
		TargetScore: 100,
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(st.SessionID)
	ids := playerIDs(st)

	res, err := svc.RecordSpadesRound(ctx, sessionID, map[string]sessionservice.SpadesBid{
		ids[0]: {Bid: 4, Tricks: 5},
		ids[1]: {Bid: 3, Tricks: 3},
		ids[2]: {Bid: 3, Tricks: 3},
		ids[3]: {Bid: 2, Tricks: 2},
	})
	require.NoError(t, err)
	require.Len(t, res.Standings.SpadesRounds, 1)
	require.Len(t, res.Standings.Teams, 2)
	assert.Equal(t, 70, res.Standings.Teams[0].Score)
	assert.Equal(t, 1, res.Standings.Teams[0].Bags)
	assert.Equal(t, 50, res.Standings.Teams[1].Score)

	_, err = svc.RecordRound(ctx, sessionID, map[string]int{ids[0]: 1})
	assert.ErrorIs(t, err, sessionservice.ErrWrongGameType)
}

// Concurrent appends are serialized by the session row lock.
func TestSessionService_ConcurrentRecordRound(t *testing.T) {
	svc := newService(t, nil)
	ctx := testEnv.Ctx

	st, err := svc.CreateSession(ctx, sessionservice.CreateSessionRequest{
		GameType:    "uno",
		PlayerNames: []string{"Ann", "Bo"},
		TargetScore: 2000,
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(st.SessionID)
	ids := playerIDs(st)

	const writers = 8
	var wg sync.WaitGroup
	indexes := make(chan int, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.RecordRound(ctx, sessionID, map[string]int{ids[0]: 10})
			if assert.NoError(t, err) {
				indexes <- res.RoundIndex
			}
		}()
	}
	wg.Wait()
	close(indexes)

	seen := map[int]bool{}
	for idx := range indexes {
		assert.False(t, seen[idx], "duplicate index %d", idx)
		seen[idx] = true
	}
	assert.Len(t, seen, writers)

	final, err := svc.GetStandings(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, writers*10, final.Players[0].Total)
}

func TestSessionService_ThirteenDealerPersists(t *testing.T) {
	svc := newService(t, nil)
	ctx := testEnv.Ctx

	st, err := svc.CreateSession(ctx, sessionservice.CreateSessionRequest{
		GameType:    string(scoringdomain.GameTypeThirteen),
		PlayerNames: []string{"Ann", "Bo", "Cy"},
	})
	require.NoError(t, err)
	sessionID := uuid.MustParse(st.SessionID)
	ids := playerIDs(st)

	overridden, err := svc.OverrideDealer(ctx, sessionID, ids[2])
	require.NoError(t, err)
	assert.Equal(t, ids[2], overridden.Dealer)

	res, err := svc.RecordRound(ctx, sessionID, map[string]int{ids[0]: 3, ids[1]: 1, ids[2]: 0})
	require.NoError(t, err)
	require.Len(t, res.Standings.Rounds, 1)
	assert.Equal(t, "A", res.Standings.Rounds[0].Label)
	assert.Equal(t, ids[0], res.Standings.Dealer, "the round loser deals next")

	reloaded, err := svc.GetStandings(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, ids[0], reloaded.Dealer)
	assert.Equal(t, "2", reloaded.NextRoundLabel)
}
