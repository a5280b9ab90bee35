package domain

import (
	"errors"
	"math/rand"
	"time"
)

// Hard rejections. None of these leave any trace on the session.
var (
	ErrSessionFinished  = errors.New("session already finished")
	ErrNotYourTurn      = errors.New("not this player's turn")
	ErrSeatOutOfRange   = errors.New("seat index out of range")
	ErrCardNotOwned     = errors.New("card not in player's hand")
	ErrEmptyPlay        = errors.New("no cards in play")
	ErrInvalidSet       = errors.New("cards do not form a playable set")
	ErrAlreadyDrawn     = errors.New("already drew a card this turn")
	ErrDrawWhilePenalty = errors.New("a penalty is pending; accept it or counter it")
	ErrPlayWhilePenalty = errors.New("only a counter card can answer a pending penalty")
	ErrPassWithoutDraw  = errors.New("must draw before passing")
	ErrNoPenaltyPending = errors.New("no penalty to accept")
	ErrNotDownToOneCard = errors.New("declaring requires exactly one card in hand")
	ErrAlreadyDeclared  = errors.New("low already declared")
	ErrCallOutSelf      = errors.New("cannot call out yourself")
	ErrCallOutMiss      = errors.New("target does not hold a single undeclared card")
	ErrDeckExhausted    = errors.New("no cards left to draw")
)

const (
	// MistakePenaltyCards is the fixed draw absorbed by an illegal play.
	MistakePenaltyCards = 2
	// CallOutPenaltyCards is drawn by a player caught with one undeclared card.
	CallOutPenaltyCards = 2
	// TwoPenalty is added to the chain per 2 played.
	TwoPenalty = 2
	// SpadeAcePenalty is the absolute chain value set by the Ace of Spades.
	SpadeAcePenalty = 5
)

// Machine applies player actions to a GameSession. It owns the randomness
// used when the discard pile is reshuffled back into the deck.
type Machine struct {
	rng *rand.Rand
}

// NewMachine constructs a Machine with the provided rng or a time-seeded default.
func NewMachine(rng *rand.Rand) *Machine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Machine{rng: rng}
}

// PlayResult reports what an accepted (or soft-failed) play did.
type PlayResult struct {
	SoftFail     bool   // illegal play absorbed as a fixed penalty; turn kept
	PenaltyDrawn []Card // cards drawn by the actor on a soft fail
	SuitChanged  bool   // a wild pick took effect
	SuitBlocked  bool   // a wild pick was ignored because of the restriction
	Reversed     bool
	Skipped      int
	ChainSize    int // pending chain after the play
	ForcedOnWin  int // chain cards force-drawn by the target on a winning play
	Won          bool
	NextSeat     int
}

// PassResult reports the outcome of a pass ("yelegnm").
type PassResult struct {
	ForcedPenalty int // cards drawn when passing against a pending chain
	NextSeat      int
}

func (s *GameSession) guardTurn(actor int) error {
	if s.Phase != PhasePlaying {
		return ErrSessionFinished
	}
	if actor < 0 || actor >= len(s.Players) {
		return ErrSeatOutOfRange
	}
	if actor != s.Current {
		return ErrNotYourTurn
	}
	return nil
}

// Draw takes the top card of the deck, at most once per turn. It never
// advances the turn. While a penalty targets the actor the only way to draw
// is to accept the chain.
func (m *Machine) Draw(s *GameSession, actor int) (Card, error) {
	if err := s.guardTurn(actor); err != nil {
		return Card{}, err
	}
	if s.PenaltyPendingFor(actor) {
		return Card{}, ErrDrawWhilePenalty
	}
	slot := &s.Players[actor]
	if slot.DrawnThisTurn {
		return Card{}, ErrAlreadyDrawn
	}
	card, ok := m.drawOne(s)
	if !ok {
		return Card{}, ErrDeckExhausted
	}
	slot.Hand = append(slot.Hand, card)
	slot.DrawnThisTurn = true
	return card, nil
}

// Play resolves a card play. Hard validation failures (wrong turn, unowned
// cards, malformed sets) reject with zero side effects. A structurally valid
// play that breaks the matching rules takes the soft-fail path instead: the
// actor draws a fixed penalty, the cards stay in hand, the turn does not move.
func (m *Machine) Play(s *GameSession, actor int, cardIDs []int, suitChoice Suit) (PlayResult, error) {
	var res PlayResult
	if err := s.guardTurn(actor); err != nil {
		return res, err
	}
	if len(cardIDs) == 0 {
		return res, ErrEmptyPlay
	}
	slot := &s.Players[actor]
	cards, err := pickCards(slot.Hand, cardIDs)
	if err != nil {
		return res, err
	}
	if !ValidatePlaySet(cards) {
		return res, ErrInvalidSet
	}
	if s.PenaltyPendingFor(actor) && !isCounter(cards[0]) {
		return res, ErrPlayWhilePenalty
	}

	if !IsLegalPlay(cards[0], s.TopDiscard(), s.CurrentSuit) {
		res.SoftFail = true
		res.PenaltyDrawn = m.penaltyDraw(s, actor, MistakePenaltyCards)
		slot.MistakeCount++
		res.NextSeat = s.Current
		return res, nil
	}

	wasRestricted := s.restricted(actor)
	slot.Hand = removeByID(slot.Hand, cardIDs)
	s.Discard = append(s.Discard, cards...)

	// Each card applies its effect in play order; advancement happens once,
	// after the last card.
	penalty := false
	skips := 0
	for _, c := range cards {
		switch ClassifyEffect(c) {
		case EffectDrawTwo:
			s.PenaltyChain += TwoPenalty
			penalty = true
		case EffectDrawFive:
			s.PenaltyChain = SpadeAcePenalty
			penalty = true
		case EffectReverse:
			s.Direction = s.Direction.Reversed()
			// Head to head a reversal acts as a skip, handing the turn back
			// to the actor.
			if len(s.Players) == 2 {
				skips++
			}
			res.Reversed = true
		case EffectSkipNext:
			skips++
		}
	}

	last := cards[len(cards)-1]
	if last.IsWild() {
		if wasRestricted {
			// The pick is ignored and the active suit keeps its value; the
			// attempt itself lifts the restriction.
			res.SuitBlocked = true
			s.SuitChange = nil
		} else {
			chosen := suitChoice
			if chosen == "" {
				chosen = last.Suit
			}
			s.CurrentSuit = chosen
			s.SuitChange = &SuitChangeMemory{
				PlayerIndex:     actor,
				RestrictedIndex: s.NextIndex(actor, 1),
				ChangeType:      SuitChangeWild,
			}
			res.SuitChanged = true
		}
	} else {
		s.CurrentSuit = last.Suit
		if wasRestricted {
			s.SuitChange = nil
		}
	}

	// A penalty effect drags the turn straight onto its target; everything
	// else advances one seat plus any skips.
	if penalty {
		target := s.NextIndex(actor, 1)
		s.PenaltyTarget = target
		s.advanceTo(target)
	} else {
		s.advanceTo(s.NextIndex(actor, 1+skips))
	}
	res.Skipped = skips
	slot.DrawnThisTurn = false
	if len(slot.Hand) == 1 {
		slot.DeclaredLow = false
	}
	res.ChainSize = s.PenaltyChain

	// The win check runs after effect processing so a winning special card
	// still lands on the next player.
	if len(slot.Hand) == 0 {
		if s.PenaltyChain > 0 && s.PenaltyTarget >= 0 {
			res.ForcedOnWin = len(m.applyPenalty(s, s.PenaltyTarget))
		}
		s.Phase = PhaseFinished
		s.Winner = actor
		res.Won = true
	}
	res.NextSeat = s.Current
	return res, nil
}

// Pass ends the turn ("yelegnm"). It requires a prior draw this turn, except
// when a chain targets the actor: then passing means accepting the whole
// chain first.
func (m *Machine) Pass(s *GameSession, actor int) (PassResult, error) {
	var res PassResult
	if err := s.guardTurn(actor); err != nil {
		return res, err
	}
	slot := &s.Players[actor]
	if s.PenaltyPendingFor(actor) {
		res.ForcedPenalty = len(m.applyPenalty(s, actor))
	} else if !slot.DrawnThisTurn {
		return res, ErrPassWithoutDraw
	}
	if s.restricted(actor) {
		s.SuitChange = nil
	}
	slot.DrawnThisTurn = false
	s.advanceTo(s.NextIndex(actor, 1))
	res.NextSeat = s.Current
	return res, nil
}

// AcceptPenalty explicitly absorbs the pending chain. The turn is kept: the
// player may still play after drawing.
func (m *Machine) AcceptPenalty(s *GameSession, actor int) ([]Card, error) {
	if err := s.guardTurn(actor); err != nil {
		return nil, err
	}
	if !s.PenaltyPendingFor(actor) {
		return nil, ErrNoPenaltyPending
	}
	return m.applyPenalty(s, actor), nil
}

// DeclareLow announces a one-card hand ("qeregn"). It is not turn-bound, and
// a declaration anywhere lifts the suit-change restriction.
func (m *Machine) DeclareLow(s *GameSession, actor int) error {
	if s.Phase != PhasePlaying {
		return ErrSessionFinished
	}
	if actor < 0 || actor >= len(s.Players) {
		return ErrSeatOutOfRange
	}
	slot := &s.Players[actor]
	if len(slot.Hand) != 1 {
		return ErrNotDownToOneCard
	}
	if slot.DeclaredLow {
		return ErrAlreadyDeclared
	}
	slot.DeclaredLow = true
	s.SuitChange = nil
	return nil
}

// CallOut challenges a player sitting on exactly one undeclared card
// ("crazy"). Any seat may call out any other; the target draws the fixed
// penalty and the turn is unaffected.
func (m *Machine) CallOut(s *GameSession, actor, target int) ([]Card, error) {
	if s.Phase != PhasePlaying {
		return nil, ErrSessionFinished
	}
	if actor < 0 || actor >= len(s.Players) || target < 0 || target >= len(s.Players) {
		return nil, ErrSeatOutOfRange
	}
	if actor == target {
		return nil, ErrCallOutSelf
	}
	t := &s.Players[target]
	if len(t.Hand) != 1 || t.DeclaredLow {
		return nil, ErrCallOutMiss
	}
	return m.penaltyDraw(s, target, CallOutPenaltyCards), nil
}

// Forfeit ends the session against the given seat, used for inactivity and
// quarantined records. The winner is the remaining seat holding the fewest
// cards, earliest seat on ties.
func (m *Machine) Forfeit(s *GameSession, seat int) error {
	if s.Phase != PhasePlaying {
		return ErrSessionFinished
	}
	if seat < 0 || seat >= len(s.Players) {
		return ErrSeatOutOfRange
	}
	s.Players[seat].Forfeited = true
	winner := -1
	for i := range s.Players {
		if i == seat || s.Players[i].Forfeited {
			continue
		}
		if winner == -1 || len(s.Players[i].Hand) < len(s.Players[winner].Hand) {
			winner = i
		}
	}
	s.Phase = PhaseFinished
	s.Winner = winner
	s.PenaltyChain = 0
	s.PenaltyTarget = -1
	s.SuitChange = nil
	return nil
}

// Quarantine force-completes a session whose document failed the structural
// checks, flagging it for the audit trail instead of leaving it stuck.
func Quarantine(s *GameSession) {
	s.Corrupted = true
	s.Phase = PhaseFinished
	s.PenaltyChain = 0
	s.PenaltyTarget = -1
	s.SuitChange = nil
	if s.Winner < 0 || s.Winner >= len(s.Players) {
		winner := -1
		for i := range s.Players {
			if winner == -1 || len(s.Players[i].Hand) < len(s.Players[winner].Hand) {
				winner = i
			}
		}
		s.Winner = winner
	}
	if s.Current < 0 || s.Current >= len(s.Players) {
		s.Current = 0
	}
}

// applyPenalty makes seat draw the whole pending chain and resets it.
func (m *Machine) applyPenalty(s *GameSession, seat int) []Card {
	drawn := m.penaltyDraw(s, seat, s.PenaltyChain)
	s.PenaltyChain = 0
	s.PenaltyTarget = -1
	if s.restricted(seat) {
		s.SuitChange = nil
	}
	return drawn
}

// penaltyDraw forces seat to draw n cards, counting them as penalties.
func (m *Machine) penaltyDraw(s *GameSession, seat, n int) []Card {
	slot := &s.Players[seat]
	drawn := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		card, ok := m.drawOne(s)
		if !ok {
			break
		}
		drawn = append(drawn, card)
	}
	slot.Hand = append(slot.Hand, drawn...)
	slot.PenaltyCount += len(drawn)
	return drawn
}

func (m *Machine) drawOne(s *GameSession) (Card, bool) {
	if len(s.Deck) == 0 {
		m.reshuffle(s)
	}
	if len(s.Deck) == 0 {
		return Card{}, false
	}
	card := s.Deck[0]
	s.Deck = s.Deck[1:]
	return card, true
}

// reshuffle folds the discard pile, minus its top card, back into the deck.
func (m *Machine) reshuffle(s *GameSession) {
	if len(s.Discard) <= 1 {
		return
	}
	top := s.Discard[len(s.Discard)-1]
	rest := append([]Card(nil), s.Discard[:len(s.Discard)-1]...)
	ShuffleDeck(m.rng, rest)
	s.Deck = append(s.Deck, rest...)
	s.Discard = []Card{top}
}

// isCounter reports whether the card may answer a pending chain.
func isCounter(c Card) bool {
	e := ClassifyEffect(c)
	return e == EffectDrawTwo || e == EffectDrawFive
}

// pickCards resolves card IDs against a hand without mutating it. Duplicate
// IDs or IDs not in the hand reject the whole play.
func pickCards(hand []Card, cardIDs []int) ([]Card, error) {
	byID := make(map[int]Card, len(hand))
	for _, c := range hand {
		byID[c.ID] = c
	}
	cards := make([]Card, 0, len(cardIDs))
	seen := make(map[int]bool, len(cardIDs))
	for _, id := range cardIDs {
		c, ok := byID[id]
		if !ok || seen[id] {
			return nil, ErrCardNotOwned
		}
		seen[id] = true
		cards = append(cards, c)
	}
	return cards, nil
}

func removeByID(hand []Card, cardIDs []int) []Card {
	drop := make(map[int]bool, len(cardIDs))
	for _, id := range cardIDs {
		drop[id] = true
	}
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		if drop[c.ID] {
			continue
		}
		out = append(out, c)
	}
	return out
}
