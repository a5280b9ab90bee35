package domain

import (
	"errors"
	"math/rand"
	"testing"
)

func buildSession(hands [][]Card, deck, discard []Card, suit Suit) *GameSession {
	players := make([]PlayerSlot, len(hands))
	for i, h := range hands {
		players[i] = PlayerSlot{UserID: userID(i), Hand: append([]Card(nil), h...)}
	}
	return &GameSession{
		ID:            "machine-test",
		RoomID:        "room-1",
		Players:       players,
		Deck:          append([]Card(nil), deck...),
		Discard:       append([]Card(nil), discard...),
		CurrentSuit:   suit,
		Direction:     DirectionForward,
		PenaltyTarget: -1,
		Phase:         PhasePlaying,
		Winner:        -1,
	}
}

func testMachine() *Machine {
	return NewMachine(rand.New(rand.NewSource(7)))
}

func TestDrawOncePerTurn(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{{card(RankFour, SuitHearts, 0)}, {card(RankNine, SuitClubs, 1)}},
		[]Card{card(RankTen, SuitSpades, 2), card(RankSix, SuitHearts, 3)},
		[]Card{card(RankNine, SuitDiamonds, 4)},
		SuitDiamonds,
	)

	drawn, err := m.Draw(s, 0)
	if err != nil {
		t.Fatalf("first draw failed: %v", err)
	}
	if drawn.ID != 2 {
		t.Errorf("drew card id %d, want 2", drawn.ID)
	}
	if s.Current != 0 {
		t.Errorf("draw moved the turn to seat %d", s.Current)
	}

	if _, err := m.Draw(s, 0); !errors.Is(err, ErrAlreadyDrawn) {
		t.Fatalf("second draw error = %v, want ErrAlreadyDrawn", err)
	}
}

func TestDrawFromExhaustedDeck(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{{card(RankFour, SuitHearts, 0)}, {card(RankNine, SuitClubs, 1)}},
		nil,
		[]Card{card(RankNine, SuitDiamonds, 4)},
		SuitDiamonds,
	)

	if _, err := m.Draw(s, 0); !errors.Is(err, ErrDeckExhausted) {
		t.Fatalf("draw error = %v, want ErrDeckExhausted", err)
	}
}

func TestPassRequiresDraw(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{{card(RankFour, SuitHearts, 0)}, {card(RankNine, SuitClubs, 1)}},
		[]Card{card(RankTen, SuitSpades, 2)},
		[]Card{card(RankNine, SuitDiamonds, 4)},
		SuitDiamonds,
	)

	if _, err := m.Pass(s, 0); !errors.Is(err, ErrPassWithoutDraw) {
		t.Fatalf("pass error = %v, want ErrPassWithoutDraw", err)
	}

	if _, err := m.Draw(s, 0); err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	res, err := m.Pass(s, 0)
	if err != nil {
		t.Fatalf("pass after draw failed: %v", err)
	}
	if res.NextSeat != 1 || s.Current != 1 {
		t.Errorf("turn moved to seat %d, want 1", s.Current)
	}
	if s.Players[0].DrawnThisTurn {
		t.Error("DrawnThisTurn not reset after pass")
	}
}

func TestIllegalPlaySoftFails(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankFour, SuitHearts, 0), card(RankNine, SuitClubs, 5)},
			{card(RankKing, SuitClubs, 1)},
		},
		[]Card{card(RankTen, SuitSpades, 2), card(RankSix, SuitHearts, 3), card(RankThree, SuitClubs, 6)},
		[]Card{card(RankNine, SuitDiamonds, 4)},
		SuitDiamonds,
	)

	res, err := m.Play(s, 0, []int{0}, "")
	if err != nil {
		t.Fatalf("soft fail surfaced as an error: %v", err)
	}
	if !res.SoftFail {
		t.Fatal("expected a soft fail")
	}
	if len(res.PenaltyDrawn) != MistakePenaltyCards {
		t.Errorf("penalty drew %d cards, want %d", len(res.PenaltyDrawn), MistakePenaltyCards)
	}
	if s.Current != 0 {
		t.Errorf("soft fail moved the turn to seat %d", s.Current)
	}
	if got := len(s.Players[0].Hand); got != 4 {
		t.Errorf("hand has %d cards, want 4 (original 2 plus penalty 2)", got)
	}
	if s.Players[0].MistakeCount != 1 {
		t.Errorf("mistake count = %d, want 1", s.Players[0].MistakeCount)
	}

	// The same player may retry with a legal card.
	res, err = m.Play(s, 0, []int{5}, "")
	if err != nil || res.SoftFail {
		t.Fatalf("legal retry rejected: res=%+v err=%v", res, err)
	}
	if s.Current != 1 {
		t.Errorf("turn at seat %d after legal play, want 1", s.Current)
	}
	if s.CurrentSuit != SuitClubs {
		t.Errorf("active suit %q, want clubs", s.CurrentSuit)
	}
}

func TestPenaltyChainCounterThenAccept(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankTwo, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankTwo, SuitClubs, 2), card(RankQueen, SuitHearts, 3)},
		},
		[]Card{
			card(RankThree, SuitHearts, 4), card(RankFour, SuitHearts, 5),
			card(RankSix, SuitHearts, 6), card(RankTen, SuitHearts, 7),
			card(RankNine, SuitHearts, 8),
		},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	res, err := m.Play(s, 0, []int{0}, "")
	if err != nil {
		t.Fatalf("playing the 2 failed: %v", err)
	}
	if res.ChainSize != TwoPenalty {
		t.Errorf("chain = %d, want %d", res.ChainSize, TwoPenalty)
	}
	if s.PenaltyTarget != 1 || s.Current != 1 {
		t.Fatalf("penalty target %d current %d, want both 1", s.PenaltyTarget, s.Current)
	}

	// The target may not draw or play a plain card while the chain is pending.
	if _, err := m.Draw(s, 1); !errors.Is(err, ErrDrawWhilePenalty) {
		t.Fatalf("draw error = %v, want ErrDrawWhilePenalty", err)
	}
	if _, err := m.Play(s, 1, []int{3}, ""); !errors.Is(err, ErrPlayWhilePenalty) {
		t.Fatalf("plain play error = %v, want ErrPlayWhilePenalty", err)
	}

	// Countering stacks the chain and bounces it back.
	res, err = m.Play(s, 1, []int{2}, "")
	if err != nil {
		t.Fatalf("counter failed: %v", err)
	}
	if res.ChainSize != 2*TwoPenalty {
		t.Errorf("chain = %d, want %d", res.ChainSize, 2*TwoPenalty)
	}
	if s.PenaltyTarget != 0 || s.Current != 0 {
		t.Fatalf("penalty target %d current %d, want both 0", s.PenaltyTarget, s.Current)
	}

	// Accepting drains the whole chain and keeps the turn.
	drawn, err := m.AcceptPenalty(s, 0)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if len(drawn) != 4 {
		t.Errorf("accepted %d cards, want 4", len(drawn))
	}
	if s.PenaltyChain != 0 || s.PenaltyTarget != -1 {
		t.Errorf("chain %d target %d after accept, want 0 and -1", s.PenaltyChain, s.PenaltyTarget)
	}
	if s.Current != 0 {
		t.Errorf("accept moved the turn to seat %d", s.Current)
	}
	if s.Players[0].PenaltyCount != 4 {
		t.Errorf("penalty count = %d, want 4", s.Players[0].PenaltyCount)
	}
}

func TestSpadeAceSetsChainToFive(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankTwo, SuitSpades, 0), card(RankKing, SuitHearts, 1)},
			{card(RankAce, SuitSpades, 2), card(RankQueen, SuitHearts, 3)},
		},
		[]Card{
			card(RankThree, SuitHearts, 4), card(RankFour, SuitHearts, 5),
			card(RankSix, SuitHearts, 6), card(RankTen, SuitHearts, 7),
			card(RankNine, SuitHearts, 8), card(RankFive, SuitHearts, 10),
		},
		[]Card{card(RankNine, SuitSpades, 9)},
		SuitSpades,
	)

	if _, err := m.Play(s, 0, []int{0}, ""); err != nil {
		t.Fatalf("playing the 2 failed: %v", err)
	}

	// The Ace of Spades overrides the pending chain instead of stacking.
	res, err := m.Play(s, 1, []int{2}, "")
	if err != nil {
		t.Fatalf("ace counter failed: %v", err)
	}
	if res.ChainSize != SpadeAcePenalty {
		t.Errorf("chain = %d, want %d", res.ChainSize, SpadeAcePenalty)
	}
	if s.PenaltyTarget != 0 {
		t.Errorf("penalty target %d, want 0", s.PenaltyTarget)
	}

	drawn, err := m.AcceptPenalty(s, 0)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if len(drawn) != SpadeAcePenalty {
		t.Errorf("accepted %d cards, want %d", len(drawn), SpadeAcePenalty)
	}
}

func TestOffSuitSpadeAceCounterSoftFails(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankTwo, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankAce, SuitSpades, 2), card(RankQueen, SuitHearts, 3)},
		},
		[]Card{
			card(RankThree, SuitHearts, 4), card(RankFour, SuitHearts, 5),
			card(RankSix, SuitHearts, 6), card(RankTen, SuitHearts, 7),
		},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	if _, err := m.Play(s, 0, []int{0}, ""); err != nil {
		t.Fatalf("playing the 2 failed: %v", err)
	}

	// The Ace of Spades gets past the chain gate but still has to match the
	// top card by suit or rank. Off suit it soft-fails like any other play,
	// leaving the chain pending against the same target.
	res, err := m.Play(s, 1, []int{2}, "")
	if err != nil {
		t.Fatalf("off-suit ace play errored: %v", err)
	}
	if !res.SoftFail {
		t.Fatal("off-suit ace counter did not soft-fail")
	}
	if len(res.PenaltyDrawn) != MistakePenaltyCards {
		t.Errorf("drew %d cards, want %d", len(res.PenaltyDrawn), MistakePenaltyCards)
	}
	if s.PenaltyChain != TwoPenalty || s.PenaltyTarget != 1 {
		t.Errorf("chain %d target %d after soft-fail, want %d and 1", s.PenaltyChain, s.PenaltyTarget, TwoPenalty)
	}
	if s.Current != 1 {
		t.Errorf("turn moved to seat %d, want 1", s.Current)
	}
	if got := len(s.Players[1].Hand); got != 4 {
		t.Errorf("hand size = %d, want 4", got)
	}
	if s.Players[1].MistakeCount != 1 {
		t.Errorf("mistake count = %d, want 1", s.Players[1].MistakeCount)
	}
}

func TestPassAgainstPendingChainAbsorbsIt(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankTwo, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankQueen, SuitHearts, 3)},
		},
		[]Card{card(RankThree, SuitHearts, 4), card(RankFour, SuitHearts, 5), card(RankSix, SuitHearts, 6)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	if _, err := m.Play(s, 0, []int{0}, ""); err != nil {
		t.Fatalf("playing the 2 failed: %v", err)
	}

	res, err := m.Pass(s, 1)
	if err != nil {
		t.Fatalf("pass against chain failed: %v", err)
	}
	if res.ForcedPenalty != TwoPenalty {
		t.Errorf("forced penalty = %d, want %d", res.ForcedPenalty, TwoPenalty)
	}
	if s.PenaltyChain != 0 || s.Current != 0 {
		t.Errorf("chain %d current %d after forced pass, want 0 and 0", s.PenaltyChain, s.Current)
	}
}

func TestReverseFlipsDirection(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankFive, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankQueen, SuitHearts, 2)},
			{card(RankTen, SuitHearts, 3)},
		},
		[]Card{card(RankThree, SuitHearts, 4)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	res, err := m.Play(s, 0, []int{0}, "")
	if err != nil {
		t.Fatalf("playing the 5 failed: %v", err)
	}
	if !res.Reversed {
		t.Error("expected a reversal")
	}
	if s.Direction != DirectionBackward {
		t.Errorf("direction = %d, want backward", s.Direction)
	}
	if s.Current != 2 {
		t.Errorf("turn at seat %d, want 2", s.Current)
	}
}

func TestSevenSkipsNextPlayer(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankSeven, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankQueen, SuitHearts, 2)},
			{card(RankTen, SuitHearts, 3)},
		},
		[]Card{card(RankThree, SuitHearts, 4)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	res, err := m.Play(s, 0, []int{0}, "")
	if err != nil {
		t.Fatalf("playing the 7 failed: %v", err)
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if s.Current != 2 {
		t.Errorf("turn at seat %d, want 2", s.Current)
	}
}

func TestTwoPlayerSevenGrantsAnotherTurn(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankSeven, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankQueen, SuitHearts, 2)},
		},
		[]Card{card(RankThree, SuitHearts, 4)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	// Skipping the only opponent lands the turn back on the actor.
	res, err := m.Play(s, 0, []int{0}, "")
	if err != nil {
		t.Fatalf("playing the 7 failed: %v", err)
	}
	if res.NextSeat != 0 || s.Current != 0 {
		t.Errorf("turn at seat %d, want back at 0", s.Current)
	}
}

func TestTwoPlayerFiveReturnsTurnToActor(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankFive, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankQueen, SuitHearts, 2)},
		},
		[]Card{card(RankThree, SuitHearts, 4)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	res, err := m.Play(s, 0, []int{0}, "")
	if err != nil {
		t.Fatalf("playing the 5 failed: %v", err)
	}
	if !res.Reversed || s.Direction != DirectionBackward {
		t.Errorf("direction = %d reversed = %v, want a recorded flip", s.Direction, res.Reversed)
	}
	// Head to head, reversing hands the turn straight back.
	if s.Current != 0 {
		t.Errorf("turn at seat %d, want back at 0", s.Current)
	}
}

func TestSevenComboRunsEveryEffect(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankSeven, SuitDiamonds, 0), card(RankSix, SuitDiamonds, 1), card(RankKing, SuitHearts, 2)},
			{card(RankQueen, SuitHearts, 3)},
			{card(RankTen, SuitHearts, 4)},
		},
		[]Card{card(RankThree, SuitHearts, 5)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	res, err := m.Play(s, 0, []int{0, 1}, "")
	if err != nil {
		t.Fatalf("seven combo failed: %v", err)
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (only the lead 7 skips)", res.Skipped)
	}
	if s.Current != 2 {
		t.Errorf("turn at seat %d, want 2", s.Current)
	}
	if s.CurrentSuit != SuitDiamonds {
		t.Errorf("active suit %q, want diamonds", s.CurrentSuit)
	}
	if got := len(s.Discard); got != 3 {
		t.Errorf("discard has %d cards, want 3", got)
	}
}

func TestWildChangesSuitAndRestrictsNext(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankEight, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankJack, SuitClubs, 2), card(RankQueen, SuitHearts, 3)},
			{card(RankEight, SuitClubs, 4), card(RankTen, SuitHearts, 5)},
		},
		[]Card{card(RankThree, SuitHearts, 6)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	res, err := m.Play(s, 0, []int{0}, SuitSpades)
	if err != nil {
		t.Fatalf("wild play failed: %v", err)
	}
	if !res.SuitChanged {
		t.Fatal("expected a suit change")
	}
	if s.CurrentSuit != SuitSpades {
		t.Errorf("active suit %q, want spades", s.CurrentSuit)
	}
	if s.SuitChange == nil || s.SuitChange.RestrictedIndex != 1 {
		t.Fatalf("restriction = %+v, want restricted index 1", s.SuitChange)
	}

	// The restricted player's wild still plays, but the pick is ignored and
	// the attempt lifts the restriction.
	res, err = m.Play(s, 1, []int{2}, SuitHearts)
	if err != nil {
		t.Fatalf("restricted wild failed: %v", err)
	}
	if !res.SuitBlocked || res.SuitChanged {
		t.Fatalf("res = %+v, want SuitBlocked without SuitChanged", res)
	}
	if s.CurrentSuit != SuitSpades {
		t.Errorf("active suit %q after blocked pick, want spades", s.CurrentSuit)
	}
	if s.SuitChange != nil {
		t.Errorf("restriction still set: %+v", s.SuitChange)
	}

	// One seat further on, wild picks work again.
	res, err = m.Play(s, 2, []int{4}, SuitHearts)
	if err != nil {
		t.Fatalf("third wild failed: %v", err)
	}
	if !res.SuitChanged || s.CurrentSuit != SuitHearts {
		t.Errorf("res = %+v suit %q, want a change to hearts", res, s.CurrentSuit)
	}
}

func TestMatchedPlayLiftsRestriction(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankEight, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankFour, SuitSpades, 2), card(RankQueen, SuitHearts, 3)},
		},
		[]Card{card(RankThree, SuitHearts, 6)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	if _, err := m.Play(s, 0, []int{0}, SuitSpades); err != nil {
		t.Fatalf("wild play failed: %v", err)
	}
	if _, err := m.Play(s, 1, []int{2}, ""); err != nil {
		t.Fatalf("matched play failed: %v", err)
	}
	if s.SuitChange != nil {
		t.Errorf("restriction survived a matched play: %+v", s.SuitChange)
	}
}

func TestDeclareLow(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankEight, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankQueen, SuitHearts, 2)},
		},
		[]Card{card(RankThree, SuitHearts, 6)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	if err := m.DeclareLow(s, 0); !errors.Is(err, ErrNotDownToOneCard) {
		t.Fatalf("declare with two cards error = %v, want ErrNotDownToOneCard", err)
	}

	// Declaring is not turn-bound and clears any pending restriction.
	if _, err := m.Play(s, 0, []int{0}, SuitSpades); err != nil {
		t.Fatalf("wild play failed: %v", err)
	}
	if err := m.DeclareLow(s, 1); err != nil {
		t.Fatalf("declare failed: %v", err)
	}
	if !s.Players[1].DeclaredLow {
		t.Error("declaration not recorded")
	}
	if s.SuitChange != nil {
		t.Errorf("restriction survived a declaration: %+v", s.SuitChange)
	}

	if err := m.DeclareLow(s, 1); !errors.Is(err, ErrAlreadyDeclared) {
		t.Fatalf("second declare error = %v, want ErrAlreadyDeclared", err)
	}
}

func TestCallOut(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankEight, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankQueen, SuitHearts, 2)},
			{card(RankTen, SuitHearts, 3), card(RankFour, SuitClubs, 4)},
		},
		[]Card{card(RankThree, SuitHearts, 6), card(RankTwo, SuitHearts, 7)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	if _, err := m.CallOut(s, 0, 0); !errors.Is(err, ErrCallOutSelf) {
		t.Fatalf("self call error = %v, want ErrCallOutSelf", err)
	}
	if _, err := m.CallOut(s, 0, 2); !errors.Is(err, ErrCallOutMiss) {
		t.Fatalf("two-card target error = %v, want ErrCallOutMiss", err)
	}

	drawn, err := m.CallOut(s, 2, 1)
	if err != nil {
		t.Fatalf("call out failed: %v", err)
	}
	if len(drawn) != CallOutPenaltyCards {
		t.Errorf("target drew %d, want %d", len(drawn), CallOutPenaltyCards)
	}
	if s.Current != 0 {
		t.Errorf("call out moved the turn to seat %d", s.Current)
	}

	// A declared player cannot be called out.
	s.Players[1].Hand = s.Players[1].Hand[:1]
	s.Players[1].DeclaredLow = true
	if _, err := m.CallOut(s, 0, 1); !errors.Is(err, ErrCallOutMiss) {
		t.Fatalf("declared target error = %v, want ErrCallOutMiss", err)
	}
}

func TestReachingOneCardResetsDeclaration(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankFour, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankQueen, SuitHearts, 2)},
		},
		[]Card{card(RankThree, SuitHearts, 6)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)
	s.Players[0].DeclaredLow = true

	if _, err := m.Play(s, 0, []int{0}, ""); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if s.Players[0].DeclaredLow {
		t.Error("stale declaration kept after dropping to one card")
	}
}

func TestWinningPenaltyCardForcesTargetDraw(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankTwo, SuitDiamonds, 0)},
			{card(RankQueen, SuitHearts, 2)},
		},
		[]Card{card(RankThree, SuitHearts, 6), card(RankFour, SuitHearts, 7)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	res, err := m.Play(s, 0, []int{0}, "")
	if err != nil {
		t.Fatalf("winning play failed: %v", err)
	}
	if !res.Won {
		t.Fatal("expected a win")
	}
	if res.ForcedOnWin != TwoPenalty {
		t.Errorf("forced %d cards on win, want %d", res.ForcedOnWin, TwoPenalty)
	}
	if s.Phase != PhaseFinished || s.Winner != 0 {
		t.Errorf("phase %q winner %d, want finished and 0", s.Phase, s.Winner)
	}
	if got := len(s.Players[1].Hand); got != 3 {
		t.Errorf("target holds %d cards, want 3", got)
	}
	if s.PenaltyChain != 0 {
		t.Errorf("chain %d after win, want 0", s.PenaltyChain)
	}
}

func TestWinningWithWildNeedsNoSuitChoice(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankEight, SuitDiamonds, 0)},
			{card(RankQueen, SuitHearts, 2)},
		},
		[]Card{card(RankThree, SuitHearts, 6)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	res, err := m.Play(s, 0, []int{0}, "")
	if err != nil {
		t.Fatalf("winning wild rejected: %v", err)
	}
	if !res.Won {
		t.Fatal("expected a win")
	}
	// With no pick, the wild's own suit stands in.
	if s.CurrentSuit != SuitDiamonds {
		t.Errorf("active suit %q, want the card's own suit", s.CurrentSuit)
	}
}

func TestFinishedSessionRejectsActions(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankFour, SuitDiamonds, 0)},
			{card(RankQueen, SuitHearts, 2)},
		},
		[]Card{card(RankThree, SuitHearts, 6)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)
	s.Phase = PhaseFinished
	s.Winner = 0

	if _, err := m.Draw(s, 0); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("draw error = %v, want ErrSessionFinished", err)
	}
	if _, err := m.Play(s, 0, []int{0}, ""); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("play error = %v, want ErrSessionFinished", err)
	}
	if err := m.DeclareLow(s, 0); !errors.Is(err, ErrSessionFinished) {
		t.Errorf("declare error = %v, want ErrSessionFinished", err)
	}
}

func TestPlayRejectsUnownedAndDuplicateIDs(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankFour, SuitDiamonds, 0), card(RankFour, SuitDiamonds, 52)},
			{card(RankQueen, SuitHearts, 2)},
		},
		[]Card{card(RankThree, SuitHearts, 6)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	if _, err := m.Play(s, 0, []int{99}, ""); !errors.Is(err, ErrCardNotOwned) {
		t.Errorf("unowned id error = %v, want ErrCardNotOwned", err)
	}
	if _, err := m.Play(s, 0, []int{0, 0}, ""); !errors.Is(err, ErrCardNotOwned) {
		t.Errorf("duplicate id error = %v, want ErrCardNotOwned", err)
	}
	if _, err := m.Play(s, 1, []int{2}, ""); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("off-turn error = %v, want ErrNotYourTurn", err)
	}
}

func TestReshuffleRecyclesDiscard(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankFour, SuitDiamonds, 0)},
			{card(RankQueen, SuitHearts, 2)},
		},
		nil,
		[]Card{
			card(RankThree, SuitHearts, 6),
			card(RankFour, SuitHearts, 7),
			card(RankNine, SuitDiamonds, 9),
		},
		SuitDiamonds,
	)

	if _, err := m.Draw(s, 0); err != nil {
		t.Fatalf("draw with empty deck failed: %v", err)
	}
	if len(s.Discard) != 1 || s.Discard[0].ID != 9 {
		t.Errorf("discard = %v, want only the top card (id 9)", s.Discard)
	}
	// Two cards were recycled, one was drawn.
	if len(s.Deck) != 1 {
		t.Errorf("deck has %d cards, want 1", len(s.Deck))
	}
}

func TestForfeitPicksSmallestRemainingHand(t *testing.T) {
	m := testMachine()
	s := buildSession(
		[][]Card{
			{card(RankFour, SuitDiamonds, 0), card(RankKing, SuitHearts, 1)},
			{card(RankQueen, SuitHearts, 2)},
			{card(RankTen, SuitHearts, 3), card(RankNine, SuitClubs, 4), card(RankSix, SuitSpades, 5)},
		},
		[]Card{card(RankThree, SuitHearts, 6)},
		[]Card{card(RankNine, SuitDiamonds, 9)},
		SuitDiamonds,
	)

	if err := m.Forfeit(s, 1); err != nil {
		t.Fatalf("forfeit failed: %v", err)
	}
	if s.Phase != PhaseFinished {
		t.Fatalf("phase %q, want finished", s.Phase)
	}
	// Seat 1 is out; seat 0 holds fewer cards than seat 2.
	if s.Winner != 0 {
		t.Errorf("winner %d, want 0", s.Winner)
	}
	if !s.Players[1].Forfeited {
		t.Error("forfeit flag not set")
	}
}

func TestRandomPlayConservesCards(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seats := []Seat{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}}
	s, err := NewSession("fuzz", "room-1", seats, 5, rng)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	m := NewMachine(rng)

	for i := 0; i < 500 && s.Phase == PhasePlaying; i++ {
		actor := s.Current
		switch rng.Intn(5) {
		case 0:
			m.Draw(s, actor)
		case 1, 2:
			hand := s.Players[actor].Hand
			if len(hand) > 0 {
				c := hand[rng.Intn(len(hand))]
				m.Play(s, actor, []int{c.ID}, "")
			}
		case 3:
			m.Pass(s, actor)
		case 4:
			m.AcceptPenalty(s, actor)
		}
		if violations := Audit(s); len(violations) != 0 {
			t.Fatalf("audit failed after %d actions: %v", i+1, violations)
		}
	}
}
