// Package sessionevents defines the topics and payloads published by the
// session module.
package sessionevents

import "time"

const (
	// SessionCreatedV1 is published once a session and its players are stored.
	SessionCreatedV1 = "scorekeeper.session.created.v1"
	// RoundRecordedV1 is published for every appended round, Spades included.
	RoundRecordedV1 = "scorekeeper.round.recorded.v1"
	// RoundAmendedV1 is published when a stored round's scores are replaced.
	RoundAmendedV1 = "scorekeeper.round.amended.v1"
	// SessionCompletedV1 is published exactly once, when a game first ends.
	SessionCompletedV1 = "scorekeeper.session.completed.v1"
	// SessionDeletedV1 is published after a session is removed.
	SessionDeletedV1 = "scorekeeper.session.deleted.v1"
)

// SessionCreatedPayloadV1 announces a new game.
type SessionCreatedPayloadV1 struct {
	SessionID   string    `json:"session_id"`
	GameType    string    `json:"game_type"`
	PlayerIDs   []string  `json:"player_ids"`
	TargetScore int       `json:"target_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoundRecordedPayloadV1 announces an appended or amended round.
type RoundRecordedPayloadV1 struct {
	SessionID  string `json:"session_id"`
	GameType   string `json:"game_type"`
	RoundIndex int    `json:"round_index"`
	RoundLabel string `json:"round_label,omitempty"`
	// DealerForNextRound is set for Thirteen only.
	DealerForNextRound string `json:"dealer_for_next_round,omitempty"`
	GameOver           bool   `json:"game_over"`
}

// SessionCompletedPayloadV1 announces the end of a game.
type SessionCompletedPayloadV1 struct {
	SessionID    string   `json:"session_id"`
	GameType     string   `json:"game_type"`
	RoundCount   int      `json:"round_count"`
	Winners      []string `json:"winners"`
	WinningTeams []string `json:"winning_teams,omitempty"`
}

// SessionDeletedPayloadV1 announces a removed session.
type SessionDeletedPayloadV1 struct {
	SessionID string `json:"session_id"`
	GameType  string `json:"game_type"`
}
