package blackjack

import (
	"errors"
	"math/rand"
)

// ErrEmptyDeck is returned when a deal is requested from an exhausted
// deck. A single round between one player and the dealer cannot run a
// 52-card deck dry, so hitting this means the round is corrupt; callers
// surface it rather than reshuffling.
var ErrEmptyDeck = errors.New("blackjack: deck exhausted")

// Deck is an ordered stack of cards. Cards are dealt from the tail.
type Deck []Card

// NewDeck returns a full 52-card deck, uniformly shuffled.
func NewDeck() Deck {
	deck := make(Deck, 0, 52)
	for _, s := range suits {
		for v := 2; v <= 14; v++ {
			deck = append(deck, Card{Suit: s, Value: v, Face: rankFaces[v]})
		}
	}
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// Deal removes and returns the top card.
func (d *Deck) Deal() (Card, error) {
	if len(*d) == 0 {
		return Card{}, ErrEmptyDeck
	}
	card := (*d)[len(*d)-1]
	*d = (*d)[:len(*d)-1]
	return card, nil
}
