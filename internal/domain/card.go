package domain

import (
	"math/rand"
	"strconv"
)

// Suit identifies one of the four French suits.
type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

// Suits lists every suit in deck order.
var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// Valid reports whether s is one of the four known suits.
func (s Suit) Valid() bool {
	switch s {
	case SuitHearts, SuitDiamonds, SuitClubs, SuitSpades:
		return true
	}
	return false
}

// Rank is a card rank: A=1 through K=13.
type Rank int

const (
	RankAce   Rank = 1
	RankTwo   Rank = 2
	RankThree Rank = 3
	RankFour  Rank = 4
	RankFive  Rank = 5
	RankSix   Rank = 6
	RankSeven Rank = 7
	RankEight Rank = 8
	RankNine  Rank = 9
	RankTen   Rank = 10
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
)

func (r Rank) String() string {
	switch r {
	case RankAce:
		return "A"
	case RankJack:
		return "J"
	case RankQueen:
		return "Q"
	case RankKing:
		return "K"
	}
	return strconv.Itoa(int(r))
}

const (
	// DeckCount is the number of 52-card decks in play.
	DeckCount = 2
	// TotalCards is the card count every settled session must conserve.
	TotalCards = DeckCount * 52
)

// Card is an immutable playing card. ID is unique across both decks, so the
// twin copies of a card are distinguishable.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
	ID   int  `json:"id"`
}

// IsWild reports whether the card lets its player pick the active suit.
func (c Card) IsWild() bool {
	return c.Rank == RankEight || c.Rank == RankJack
}

func (c Card) String() string {
	if !c.Suit.Valid() {
		return c.Rank.String() + "?"
	}
	return c.Rank.String() + string(c.Suit[0:1])
}

// NewDoubleDeck returns the full ordered 104-card deck.
func NewDoubleDeck() []Card {
	deck := make([]Card, 0, TotalCards)
	id := 0
	for d := 0; d < DeckCount; d++ {
		for _, s := range Suits {
			for r := RankAce; r <= RankKing; r++ {
				deck = append(deck, Card{Rank: r, Suit: s, ID: id})
				id++
			}
		}
	}
	return deck
}

// ShuffleDeck shuffles deck in place using rng.
func ShuffleDeck(rng *rand.Rand, deck []Card) {
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
}
