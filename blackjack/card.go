package blackjack

// Suit of a playing card.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

var suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Card is an immutable playing card. Value runs 2–10 for pip cards,
// 11/12/13 for J/Q/K and 14 for the ace. Aces are resolved to 1 or 11
// during scoring, never here.
type Card struct {
	Suit  Suit   `json:"suit"`
	Value int    `json:"value"`
	Face  string `json:"face"`
}

var rankFaces = map[int]string{
	2: "2", 3: "3", 4: "4", 5: "5", 6: "6", 7: "7", 8: "8",
	9: "9", 10: "10", 11: "J", 12: "Q", 13: "K", 14: "A",
}

// points is the card's blackjack value with the ace counted low.
// Court cards count 10; the ace's upgrade to 11 lives in Score.
func (c Card) points() int {
	if c.isAce() {
		return 1
	}
	if c.Value > 10 {
		return 10
	}
	return c.Value
}

func (c Card) isAce() bool { return c.Value == 14 }
