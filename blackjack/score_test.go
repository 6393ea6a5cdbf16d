package blackjack

import "testing"

// card builds a hearts card of the given rank value for test hands.
func card(value int) Card {
	return Card{Suit: Hearts, Value: value, Face: rankFaces[value]}
}

func hand(values ...int) []Card {
	cards := make([]Card, len(values))
	for i, v := range values {
		cards[i] = card(v)
	}
	return cards
}

func TestScore(t *testing.T) {
	cases := []struct {
		name   string
		values []int
		want   int
	}{
		{"empty hand", nil, 0},
		{"natural blackjack", []int{14, 13}, 21},
		{"two aces", []int{14, 14}, 12},
		{"four aces", []int{14, 14, 14, 14}, 14},
		{"bust keeps real total", []int{10, 10, 10}, 30},
		{"soft sixteen", []int{14, 5}, 16},
		{"ace hardens after draw", []int{14, 5, 9}, 15},
		{"face cards count ten", []int{11, 12}, 20},
		{"ace stays eleven at 21", []int{14, 4, 6}, 21},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(hand(tc.values...)); got != tc.want {
				t.Errorf("Score(%v) = %d, want %d", tc.values, got, tc.want)
			}
		})
	}
}
