package domain

// Effect is the special behavior a card triggers when played.
type Effect int

const (
	EffectNone Effect = iota
	// EffectDrawTwo adds two forced draws to the penalty chain.
	EffectDrawTwo
	// EffectDrawFive is the Ace of Spades: the chain becomes exactly five,
	// overriding whatever was pending.
	EffectDrawFive
	// EffectChangeSuit lets the player pick the active suit (8 or Jack).
	EffectChangeSuit
	// EffectReverse flips the direction of play.
	EffectReverse
	// EffectSkipNext jumps over the next player.
	EffectSkipNext
)

// IsLegalPlay reports whether card may be placed on the discard pile.
// The first play on an empty pile is always legal; wilds are always legal;
// otherwise the card must match the active suit or the top card's rank.
func IsLegalPlay(card Card, top *Card, currentSuit Suit) bool {
	if top == nil {
		return true
	}
	if card.IsWild() {
		return true
	}
	return card.Suit == currentSuit || card.Rank == top.Rank
}

// ClassifyEffect maps a card to its special effect. A card carries at most one
// effect; Aces other than the Ace of Spades carry none.
func ClassifyEffect(card Card) Effect {
	switch {
	case card.Rank == RankTwo:
		return EffectDrawTwo
	case card.Rank == RankAce && card.Suit == SuitSpades:
		return EffectDrawFive
	case card.IsWild():
		return EffectChangeSuit
	case card.Rank == RankFive:
		return EffectReverse
	case card.Rank == RankSeven:
		return EffectSkipNext
	}
	return EffectNone
}

// ValidatePlaySet checks the structure of a play. A single card always has
// valid structure. Multiple cards must either be identical (the same rank and
// suit, duplicated across the two decks) or form a seven-combo: led by a 7,
// every card in the lead suit, ranks stepping down one at a time (7,6,5,...).
func ValidatePlaySet(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	if len(cards) == 1 {
		return true
	}
	if allIdentical(cards) {
		return true
	}
	return isSevenCombo(cards)
}

func allIdentical(cards []Card) bool {
	first := cards[0]
	for _, c := range cards[1:] {
		if c.Rank != first.Rank || c.Suit != first.Suit {
			return false
		}
	}
	return true
}

func isSevenCombo(cards []Card) bool {
	if cards[0].Rank != RankSeven {
		return false
	}
	suit := cards[0].Suit
	for i, c := range cards {
		if c.Suit != suit {
			return false
		}
		if c.Rank != RankSeven-Rank(i) {
			return false
		}
	}
	return true
}
