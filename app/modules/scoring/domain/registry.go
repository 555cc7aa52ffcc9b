package scoringdomain

import (
	"errors"
	"fmt"
	"strings"
)

// GameType tags which rules and engine a session uses.
type GameType string

const (
	GameTypeThirteen GameType = "thirteen"
	GameTypeSpades   GameType = "spades"
	GameTypeHearts   GameType = "hearts"
	GameTypeUno      GameType = "uno"
	GameTypeCabo     GameType = "cabo"
)

var (
	ErrUnknownGameType    = errors.New("unknown game type")
	ErrInvalidPlayerCount = errors.New("invalid player count")
)

// Rules holds a game's static setup constants.
type Rules struct {
	GameType   GameType `json:"game_type"`
	Label      string   `json:"label"`
	MinPlayers int      `json:"min_players"`
	MaxPlayers int      `json:"max_players"`
	// DefaultTarget is 0 for games that end on round count.
	DefaultTarget int  `json:"default_target"`
	MinTarget     int  `json:"min_target"`
	MaxTarget     int  `json:"max_target"`
	MaxRoundScore int  `json:"max_round_score"`
	LowWins       bool `json:"low_wins"`
}

// HasTarget reports whether the game ends on a target score.
func (r Rules) HasTarget() bool {
	return r.DefaultTarget > 0
}

// ValidatePlayerCount checks n against the seat bounds.
func (r Rules) ValidatePlayerCount(n int) error {
	if n < r.MinPlayers || n > r.MaxPlayers {
		if r.MinPlayers == r.MaxPlayers {
			return fmt.Errorf("%w: %s needs exactly %d players, got %d", ErrInvalidPlayerCount, r.Label, r.MinPlayers, n)
		}
		return fmt.Errorf("%w: %s needs %d-%d players, got %d", ErrInvalidPlayerCount, r.Label, r.MinPlayers, r.MaxPlayers, n)
	}
	return nil
}

// ClampTarget bounds a requested target. Zero or negative selects the default.
func (r Rules) ClampTarget(target int) int {
	if !r.HasTarget() {
		return 0
	}
	if target <= 0 {
		return r.DefaultTarget
	}
	return max(r.MinTarget, min(target, r.MaxTarget))
}

// ClampRoundScore bounds a single round score entry.
func (r Rules) ClampRoundScore(v int) int {
	return max(0, min(v, r.MaxRoundScore))
}

var rulesTable = []Rules{
	{
		GameType:      GameTypeThirteen,
		Label:         "Thirteen",
		MinPlayers:    2,
		MaxPlayers:    8,
		MaxRoundScore: 9999,
		LowWins:       true,
	},
	{
		GameType:      GameTypeSpades,
		Label:         "Spades",
		MinPlayers:    4,
		MaxPlayers:    4,
		DefaultTarget: 500,
		MinTarget:     50,
		MaxTarget:     5000,
		MaxRoundScore: SpadesMaxTricks,
	},
	{
		GameType:      GameTypeHearts,
		Label:         "Hearts",
		MinPlayers:    3,
		MaxPlayers:    6,
		DefaultTarget: 100,
		MinTarget:     10,
		MaxTarget:     500,
		MaxRoundScore: 26,
		LowWins:       true,
	},
	{
		GameType:      GameTypeUno,
		Label:         "UNO",
		MinPlayers:    2,
		MaxPlayers:    10,
		DefaultTarget: 500,
		MinTarget:     10,
		MaxTarget:     2000,
		MaxRoundScore: 2000,
	},
	{
		GameType:      GameTypeCabo,
		Label:         "Cabo",
		MinPlayers:    2,
		MaxPlayers:    6,
		DefaultTarget: 100,
		MinTarget:     10,
		MaxTarget:     500,
		MaxRoundScore: 500,
		LowWins:       true,
	},
}

// AllRules returns the rules of every supported game in display order.
func AllRules() []Rules {
	out := make([]Rules, len(rulesTable))
	copy(out, rulesTable)
	return out
}

// LookupRules returns the rules for gt.
func LookupRules(gt GameType) (Rules, error) {
	for _, r := range rulesTable {
		if r.GameType == gt {
			return r, nil
		}
	}
	return Rules{}, fmt.Errorf("%w: %q", ErrUnknownGameType, gt)
}

// ParseGameType accepts a game tag case-insensitively.
func ParseGameType(s string) (GameType, error) {
	gt := GameType(strings.ToLower(strings.TrimSpace(s)))
	if _, err := LookupRules(gt); err != nil {
		return "", err
	}
	return gt, nil
}

// EngineFor returns the scoring engine for gt using default Spades settings.
func EngineFor(gt GameType) (Engine, error) {
	return EngineWithSettings(gt, DefaultSpadesSettings())
}

// EngineWithSettings returns the scoring engine for gt. settings only apply to Spades.
func EngineWithSettings(gt GameType, settings SpadesSettings) (Engine, error) {
	switch gt {
	case GameTypeThirteen:
		return thirteenEngine{}, nil
	case GameTypeSpades:
		return spadesEngine{settings: settings}, nil
	case GameTypeHearts, GameTypeCabo:
		return totalsEngine{gameType: gt, lowWins: true}, nil
	case GameTypeUno:
		return totalsEngine{gameType: gt, lowWins: false}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGameType, gt)
	}
}
