package sessionservice

import (
	"time"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
)

// CreateSessionRequest describes a new game. A zero TargetScore selects the
// game's default.
type CreateSessionRequest struct {
	GameType    string   `json:"game_type"`
	PlayerNames []string `json:"player_names"`
	TargetScore int      `json:"target_score"`
}

// SpadesBid is one player's input for a Spades hand.
type SpadesBid struct {
	Bid      int  `json:"bid"`
	BlindNil bool `json:"blind_nil"`
	Tricks   int  `json:"tricks"`
}

// ListFilter narrows ListSessions. Since accepts natural language such as
// "yesterday" or an ISO date.
type ListFilter struct {
	GameType  string
	Completed *bool
	Since     string
	Limit     int
}

// PlayerStanding is one player's line in the standings.
type PlayerStanding struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Seat     int    `json:"seat"`
	Total    int    `json:"total"`
	Team     string `json:"team,omitempty"`
	IsWinner bool   `json:"is_winner"`
	IsDealer bool   `json:"is_dealer"`
}

// TeamStanding is a Spades partnership's line in the standings.
type TeamStanding struct {
	Label     string   `json:"label"`
	PlayerIDs []string `json:"player_ids"`
	Score     int      `json:"score"`
	Bags      int      `json:"bags"`
	IsWinner  bool     `json:"is_winner"`
}

// RoundView is a stored round as exposed to callers.
type RoundView struct {
	Index              int            `json:"index"`
	Label              string         `json:"label,omitempty"`
	Scores             map[string]int `json:"scores"`
	DealerForNextRound string         `json:"dealer_for_next_round,omitempty"`
}

// SpadesEntryView is a stored Spades entry.
type SpadesEntryView struct {
	Bid        int  `json:"bid"`
	IsNil      bool `json:"is_nil"`
	IsBlindNil bool `json:"is_blind_nil"`
	Tricks     int  `json:"tricks"`
}

// SpadesRoundView is a stored hand plus the team totals after it.
type SpadesRoundView struct {
	Index      int                        `json:"index"`
	Entries    map[string]SpadesEntryView `json:"entries"`
	TeamAScore int                        `json:"team_a_score"`
	TeamABags  int                        `json:"team_a_bags"`
	TeamBScore int                        `json:"team_b_score"`
	TeamBBags  int                        `json:"team_b_bags"`
}

// Standings is the evaluated view of a session.
type Standings struct {
	SessionID   string                 `json:"session_id"`
	GameType    scoringdomain.GameType `json:"game_type"`
	TargetScore int                    `json:"target_score"`
	IsCompleted bool                   `json:"is_completed"`
	GameOver    bool                   `json:"game_over"`
	RoundCount  int                    `json:"round_count"`
	// NextRoundLabel is the Thirteen rank of the next hand.
	NextRoundLabel string            `json:"next_round_label,omitempty"`
	Dealer         string            `json:"dealer,omitempty"`
	Players        []PlayerStanding  `json:"players"`
	Teams          []TeamStanding    `json:"teams,omitempty"`
	Winners        []string          `json:"winners,omitempty"`
	WinningTeams   []string          `json:"winning_teams,omitempty"`
	Rounds         []RoundView       `json:"rounds,omitempty"`
	SpadesRounds   []SpadesRoundView `json:"spades_rounds,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`

	snapshot scoringdomain.Session
}

// Snapshot returns the engine snapshot the standings were computed from.
func (s *Standings) Snapshot() scoringdomain.Session {
	return s.snapshot
}

// RoundResult is returned after a round is recorded or amended.
type RoundResult struct {
	RoundIndex int        `json:"round_index"`
	Completed  bool       `json:"completed_now"`
	Standings  *Standings `json:"standings"`
}

// SessionSummary is a session line in a listing.
type SessionSummary struct {
	SessionID   string                 `json:"session_id"`
	GameType    scoringdomain.GameType `json:"game_type"`
	TargetScore int                    `json:"target_score"`
	IsCompleted bool                   `json:"is_completed"`
	Players     []string               `json:"players"`
	CreatedAt   time.Time              `json:"created_at"`
}
