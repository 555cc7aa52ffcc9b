package scoringdomain

// PlayerID is the opaque identity of a player within a session.
type PlayerID string

// String returns the raw id.
func (id PlayerID) String() string {
	return string(id)
}

// Player is a seated participant. Players never change once a session is created.
type Player struct {
	ID   PlayerID
	Name string
}

// Round is one scored hand for Thirteen, Hearts, UNO and Cabo.
type Round struct {
	Index  int
	Label  string
	Scores map[PlayerID]int
	// DealerForNextRound is only populated for Thirteen.
	DealerForNextRound *PlayerID
}

// Score returns the player's delta for this round, 0 when absent.
func (r Round) Score(pid PlayerID) int {
	return r.Scores[pid]
}

// SpadesEntry is a single player's bid and result for one Spades hand.
type SpadesEntry struct {
	Bid        int
	IsNil      bool
	IsBlindNil bool
	Tricks     int
}

// NewSpadesEntry builds an entry with the nil flag derived from the bid.
// A blind nil always carries a bid of zero.
func NewSpadesEntry(bid int, blindNil bool, tricks int) SpadesEntry {
	if blindNil {
		bid = 0
	}
	return SpadesEntry{
		Bid:        bid,
		IsNil:      !blindNil && bid == 0,
		IsBlindNil: blindNil,
		Tricks:     tricks,
	}
}

// SpadesRound is one scored Spades hand.
type SpadesRound struct {
	Index   int
	Entries map[PlayerID]SpadesEntry
}

// Entry returns the player's entry, the zero entry when absent.
func (r SpadesRound) Entry(pid PlayerID) SpadesEntry {
	return r.Entries[pid]
}

// Session is the read-only snapshot every engine operates on.
type Session struct {
	ID          string
	GameType    GameType
	Players     []Player
	TargetScore int
	IsCompleted bool

	Rounds       []Round
	SpadesRounds []SpadesRound

	DealerForNextRound *PlayerID
}

// PlayerIDs returns the ids in seat order.
func (s Session) PlayerIDs() []PlayerID {
	ids := make([]PlayerID, len(s.Players))
	for i, p := range s.Players {
		ids[i] = p.ID
	}
	return ids
}

// HasPlayer reports whether pid is seated in the session.
func (s Session) HasPlayer(pid PlayerID) bool {
	for _, p := range s.Players {
		if p.ID == pid {
			return true
		}
	}
	return false
}

// NextRoundIndex returns the index the next appended round should use.
func (s Session) NextRoundIndex() int {
	next := 0
	if s.GameType == GameTypeSpades {
		for _, r := range s.SpadesRounds {
			if r.Index >= next {
				next = r.Index + 1
			}
		}
		return next
	}
	for _, r := range s.Rounds {
		if r.Index >= next {
			next = r.Index + 1
		}
	}
	return next
}

// RoundCount returns the number of rounds in the active collection.
func (s Session) RoundCount() int {
	if s.GameType == GameTypeSpades {
		return len(s.SpadesRounds)
	}
	return len(s.Rounds)
}
