package domain

import (
	"errors"
	"math/rand"
)

// Phase represents the lifecycle stage of a session.
type Phase string

const (
	// PhasePlaying indicates the session is actively in progress.
	PhasePlaying Phase = "playing"
	// PhaseFinished indicates the session has concluded.
	PhaseFinished Phase = "finished"
)

// Direction is the turn order: forward walks seats upward, backward downward.
type Direction int

const (
	DirectionForward  Direction = 1
	DirectionBackward Direction = -1
)

// Reversed returns the opposite direction.
func (d Direction) Reversed() Direction {
	return -d
}

// SuitChangeType tags how the active suit was last changed.
type SuitChangeType string

// SuitChangeWild marks a change made through an 8 or a Jack. Ordinary
// rank/suit-matched plays never record a change.
const SuitChangeWild SuitChangeType = "wild"

// SuitChangeMemory records a wild-triggered suit change. Exactly the single
// immediate next player is barred from changing suit with their own wild until
// one of the clearing actions happens.
type SuitChangeMemory struct {
	PlayerIndex     int            `json:"player_index"`
	RestrictedIndex int            `json:"restricted_index"`
	ChangeType      SuitChangeType `json:"change_type"`
}

// Seat pairs a user with the amount they staked for the session.
type Seat struct {
	UserID string `json:"user_id"`
	Stake  int64  `json:"stake"`
}

// PlayerSlot holds the per-seat state of a session.
type PlayerSlot struct {
	UserID        string `json:"user_id"`
	Hand          []Card `json:"hand"`
	Stake         int64  `json:"stake"`
	PenaltyCount  int    `json:"penalty_count"`
	MistakeCount  int    `json:"mistake_count"`
	DeclaredLow   bool   `json:"declared_low"`
	DrawnThisTurn bool   `json:"drawn_this_turn"`
	Forfeited     bool   `json:"forfeited,omitempty"`
}

// GameSession is the full persisted state of one Crazy game. It is rehydrated
// from storage at the start of every action and written back at the end.
type GameSession struct {
	ID            string            `json:"id"`
	RoomID        string            `json:"room_id"`
	Players       []PlayerSlot      `json:"players"`
	Deck          []Card            `json:"deck"`
	Discard       []Card            `json:"discard"`
	CurrentSuit   Suit              `json:"current_suit,omitempty"`
	Current       int               `json:"current_player"`
	Direction     Direction         `json:"direction"`
	PenaltyChain  int               `json:"penalty_chain"`
	PenaltyTarget int               `json:"penalty_target"` // -1 unless a chain is pending
	TurnCounter   int               `json:"turn_counter"`
	SuitChange    *SuitChangeMemory `json:"suit_change,omitempty"`
	Phase         Phase             `json:"phase"`
	Winner        int               `json:"winner"` // -1 until finished
	Corrupted     bool              `json:"corrupted,omitempty"`
	CreatedAt     int64             `json:"created_at"`
	LastActionAt  int64             `json:"last_action_at"`
	Settlement    *SettlementRecord `json:"settlement,omitempty"`
}

const (
	// MinPlayers and MaxPlayers bound the supported table sizes.
	MinPlayers = 2
	MaxPlayers = 8
)

var ErrBadSeatCount = errors.New("player count must be between 2 and 8")

// NewSession deals a fresh session for the given seats. The discard pile
// starts empty: the first play is unconditionally legal and sets the suit.
func NewSession(id, roomID string, seats []Seat, handSize int, rng *rand.Rand) (*GameSession, error) {
	if len(seats) < MinPlayers || len(seats) > MaxPlayers {
		return nil, ErrBadSeatCount
	}

	deck := NewDoubleDeck()
	ShuffleDeck(rng, deck)

	players := make([]PlayerSlot, len(seats))
	idx := 0
	for i, seat := range seats {
		players[i] = PlayerSlot{
			UserID: seat.UserID,
			Stake:  seat.Stake,
			Hand:   append([]Card(nil), deck[idx:idx+handSize]...),
		}
		idx += handSize
	}

	return &GameSession{
		ID:            id,
		RoomID:        roomID,
		Players:       players,
		Deck:          deck[idx:],
		Discard:       []Card{},
		Direction:     DirectionForward,
		PenaltyTarget: -1,
		Phase:         PhasePlaying,
		Winner:        -1,
	}, nil
}

// NextIndex walks steps seats from the given index in the current direction.
func (s *GameSession) NextIndex(from, steps int) int {
	n := len(s.Players)
	i := from
	for k := 0; k < steps; k++ {
		i = (i + int(s.Direction) + n) % n
	}
	return i
}

// TopDiscard returns the current card, or nil when nothing has been played.
func (s *GameSession) TopDiscard() *Card {
	if len(s.Discard) == 0 {
		return nil
	}
	c := s.Discard[len(s.Discard)-1]
	return &c
}

// SeatOf returns the seat index for a user, or -1 if they are not seated.
func (s *GameSession) SeatOf(userID string) int {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// PenaltyPendingFor reports whether the pending chain targets the given seat.
func (s *GameSession) PenaltyPendingFor(seat int) bool {
	return s.PenaltyChain > 0 && s.PenaltyTarget == seat
}

// Intact performs the structural checks a rehydrated document must pass
// before the state machine may act on it. Failing sessions are quarantined
// rather than left stuck.
func (s *GameSession) Intact() bool {
	n := len(s.Players)
	if n < MinPlayers || n > MaxPlayers {
		return false
	}
	if s.Current < 0 || s.Current >= n {
		return false
	}
	if s.Direction != DirectionForward && s.Direction != DirectionBackward {
		return false
	}
	if s.Phase != PhasePlaying && s.Phase != PhaseFinished {
		return false
	}
	if s.PenaltyChain < 0 || s.PenaltyTarget >= n {
		return false
	}
	if s.Winner >= n {
		return false
	}
	return true
}

func (s *GameSession) restricted(seat int) bool {
	return s.SuitChange != nil && s.SuitChange.RestrictedIndex == seat
}

func (s *GameSession) advanceTo(seat int) {
	s.Current = seat
	s.TurnCounter++
}
