package app

import "github.com/nashgetch/rg-ahaz-be-sub000/internal/domain"

// OpponentView shows another seat with the hand hidden behind its count.
type OpponentView struct {
	Seat         int    `json:"seat"`
	UserID       string `json:"user_id"`
	CardCount    int    `json:"card_count"`
	PenaltyCount int    `json:"penalty_count"`
	DeclaredLow  bool   `json:"declared_low"`
	Forfeited    bool   `json:"forfeited,omitempty"`
}

// PlayerView is the player-filtered snapshot of a session: the viewer's own
// hand, opaque counts for everyone else, the discard top and the active suit.
type PlayerView struct {
	SessionID     string           `json:"session_id"`
	Phase         domain.Phase     `json:"phase"`
	Seat          int              `json:"seat"`
	Hand          []domain.Card    `json:"hand"`
	Opponents     []OpponentView   `json:"opponents"`
	DiscardTop    *domain.Card     `json:"discard_top,omitempty"`
	CurrentSuit   domain.Suit      `json:"current_suit,omitempty"`
	CurrentSeat   int              `json:"current_seat"`
	Direction     domain.Direction `json:"direction"`
	PenaltyChain  int              `json:"penalty_chain"`
	PenaltyTarget int              `json:"penalty_target"`
	DeckCount     int              `json:"deck_count"`
	TurnCounter   int              `json:"turn_counter"`
	DrawnThisTurn bool             `json:"drawn_this_turn"`
	DeclaredLow   bool             `json:"declared_low"`
	WinnerSeat    int              `json:"winner_seat"`
}

// RankEntry is one line of the ranking snapshot.
type RankEntry struct {
	Rank       int    `json:"rank"`
	Seat       int    `json:"seat"`
	UserID     string `json:"user_id"`
	Score      int64  `json:"score"`
	TokenDelta int64  `json:"token_delta"`
}

// BuildPlayerView filters the session for one seat. Only the viewer's hand is
// revealed; a seat of -1 (viewer not seated, e.g. a quarantined record) hides
// every hand.
func BuildPlayerView(s *domain.GameSession, seat int) PlayerView {
	view := PlayerView{
		SessionID:     s.ID,
		Phase:         s.Phase,
		Seat:          seat,
		Hand:          []domain.Card{},
		DiscardTop:    s.TopDiscard(),
		CurrentSuit:   s.CurrentSuit,
		CurrentSeat:   s.Current,
		Direction:     s.Direction,
		PenaltyChain:  s.PenaltyChain,
		PenaltyTarget: s.PenaltyTarget,
		DeckCount:     len(s.Deck),
		TurnCounter:   s.TurnCounter,
		WinnerSeat:    s.Winner,
	}
	for i := range s.Players {
		p := &s.Players[i]
		if i == seat {
			view.Hand = append(view.Hand, p.Hand...)
			view.DrawnThisTurn = p.DrawnThisTurn
			view.DeclaredLow = p.DeclaredLow
			continue
		}
		view.Opponents = append(view.Opponents, OpponentView{
			Seat:         i,
			UserID:       p.UserID,
			CardCount:    len(p.Hand),
			PenaltyCount: p.PenaltyCount,
			DeclaredLow:  p.DeclaredLow,
			Forfeited:    p.Forfeited,
		})
	}
	return view
}

// RankingSnapshot flattens a settlement record into rank order.
func RankingSnapshot(rec *domain.SettlementRecord) []RankEntry {
	entries := make([]RankEntry, 0, len(rec.PerPlayer))
	for _, ps := range rec.PerPlayer {
		entries = append(entries, RankEntry{
			Rank:       ps.Rank,
			Seat:       ps.Seat,
			UserID:     ps.UserID,
			Score:      ps.Score,
			TokenDelta: ps.TokenDelta,
		})
	}
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			if entries[j].Rank < entries[i].Rank {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}
	return entries
}
