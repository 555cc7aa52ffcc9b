package sessiondb

import (
	"cmp"
	"slices"
	"time"

	scoringdomain "github.com/Black-And-White-Club/scorekeeper/app/modules/scoring/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Session is the sessions table row plus its owned players and rounds.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID                 uuid.UUID `bun:"id,pk,type:uuid"`
	GameType           string    `bun:"game_type,notnull"`
	TargetScore        int       `bun:"target_score,notnull"`
	IsCompleted        bool      `bun:"is_completed,notnull"`
	DealerForNextRound *string   `bun:"dealer_for_next_round"`
	// PlayerOrder is the authoritative seat order.
	PlayerOrder []string  `bun:"player_order,type:jsonb,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Players      []*Player      `bun:"rel:has-many,join:id=session_id"`
	Rounds       []*Round       `bun:"rel:has-many,join:id=session_id"`
	SpadesRounds []*SpadesRound `bun:"rel:has-many,join:id=session_id"`
}

// Player is a seated participant.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID        string    `bun:"id,pk"`
	SessionID uuid.UUID `bun:"session_id,type:uuid,notnull"`
	Name      string    `bun:"name,notnull"`
	Seat      int       `bun:"seat,notnull"`
}

// Round stores one Thirteen, Hearts, UNO or Cabo hand.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID                 uuid.UUID      `bun:"id,pk,type:uuid"`
	SessionID          uuid.UUID      `bun:"session_id,type:uuid,notnull"`
	Index              int            `bun:"idx,notnull"`
	Label              string         `bun:"label"`
	Scores             map[string]int `bun:"scores,type:jsonb,notnull"`
	DealerForNextRound *string        `bun:"dealer_for_next_round"`
	CreatedAt          time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt          time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// SpadesEntry is the stored form of one player's bid and tricks.
type SpadesEntry struct {
	Bid        int  `json:"bid"`
	IsNil      bool `json:"is_nil"`
	IsBlindNil bool `json:"is_blind_nil"`
	Tricks     int  `json:"tricks"`
}

// SpadesRound stores one Spades hand.
type SpadesRound struct {
	bun.BaseModel `bun:"table:spades_rounds,alias:sr"`

	ID        uuid.UUID              `bun:"id,pk,type:uuid"`
	SessionID uuid.UUID              `bun:"session_id,type:uuid,notnull"`
	Index     int                    `bun:"idx,notnull"`
	Entries   map[string]SpadesEntry `bun:"entries,type:jsonb,notnull"`
	CreatedAt time.Time              `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time              `bun:"updated_at,notnull,default:current_timestamp"`
}

// Export is a rendered scoresheet kept for download.
type Export struct {
	bun.BaseModel `bun:"table:exports,alias:e"`

	SessionID   uuid.UUID `bun:"session_id,pk,type:uuid"`
	ContentType string    `bun:"content_type,notnull"`
	Content     []byte    `bun:"content,type:bytea,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// ListFilter narrows ListSessions. Zero values match everything.
type ListFilter struct {
	GameType  string
	Completed *bool
	Since     *time.Time
	Limit     int
}

// ToDomain converts a loaded row into the engine snapshot. Players follow
// PlayerOrder; players missing from it keep their seat order after the
// ordered ones.
func ToDomain(s *Session) scoringdomain.Session {
	out := scoringdomain.Session{
		ID:          s.ID.String(),
		GameType:    scoringdomain.GameType(s.GameType),
		TargetScore: s.TargetScore,
		IsCompleted: s.IsCompleted,
	}
	if s.DealerForNextRound != nil {
		d := scoringdomain.PlayerID(*s.DealerForNextRound)
		out.DealerForNextRound = &d
	}

	order := make(map[string]int, len(s.PlayerOrder))
	for i, id := range s.PlayerOrder {
		order[id] = i
	}
	players := slices.Clone(s.Players)
	slices.SortStableFunc(players, func(a, b *Player) int {
		ia, okA := order[a.ID]
		ib, okB := order[b.ID]
		switch {
		case okA && okB:
			return cmp.Compare(ia, ib)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return cmp.Compare(a.Seat, b.Seat)
		}
	})
	for _, p := range players {
		out.Players = append(out.Players, scoringdomain.Player{ID: scoringdomain.PlayerID(p.ID), Name: p.Name})
	}

	for _, r := range s.Rounds {
		out.Rounds = append(out.Rounds, RoundToDomain(r))
	}
	slices.SortStableFunc(out.Rounds, func(a, b scoringdomain.Round) int { return cmp.Compare(a.Index, b.Index) })

	for _, r := range s.SpadesRounds {
		out.SpadesRounds = append(out.SpadesRounds, SpadesRoundToDomain(r))
	}
	out.SpadesRounds = scoringdomain.SortedSpadesRounds(out.SpadesRounds)
	return out
}

// RoundToDomain converts a stored round.
func RoundToDomain(r *Round) scoringdomain.Round {
	scores := make(map[scoringdomain.PlayerID]int, len(r.Scores))
	for k, v := range r.Scores {
		scores[scoringdomain.PlayerID(k)] = v
	}
	out := scoringdomain.Round{Index: r.Index, Label: r.Label, Scores: scores}
	if r.DealerForNextRound != nil {
		d := scoringdomain.PlayerID(*r.DealerForNextRound)
		out.DealerForNextRound = &d
	}
	return out
}

// SpadesRoundToDomain converts a stored Spades hand.
func SpadesRoundToDomain(r *SpadesRound) scoringdomain.SpadesRound {
	entries := make(map[scoringdomain.PlayerID]scoringdomain.SpadesEntry, len(r.Entries))
	for k, e := range r.Entries {
		entries[scoringdomain.PlayerID(k)] = scoringdomain.SpadesEntry{
			Bid:        e.Bid,
			IsNil:      e.IsNil,
			IsBlindNil: e.IsBlindNil,
			Tricks:     e.Tricks,
		}
	}
	return scoringdomain.SpadesRound{Index: r.Index, Entries: entries}
}

// ScoresFromDomain converts an engine score map for storage.
func ScoresFromDomain(scores map[scoringdomain.PlayerID]int) map[string]int {
	out := make(map[string]int, len(scores))
	for k, v := range scores {
		out[string(k)] = v
	}
	return out
}

// EntriesFromDomain converts engine Spades entries for storage.
func EntriesFromDomain(entries map[scoringdomain.PlayerID]scoringdomain.SpadesEntry) map[string]SpadesEntry {
	out := make(map[string]SpadesEntry, len(entries))
	for k, e := range entries {
		out[string(k)] = SpadesEntry{Bid: e.Bid, IsNil: e.IsNil, IsBlindNil: e.IsBlindNil, Tricks: e.Tricks}
	}
	return out
}
