package blackjack

// Score computes the blackjack value of a hand. Non-ace cards count
// min(rank, 10). Each ace then counts 11 if that keeps the total at or
// below 21, otherwise 1. The greedy order matches standard soft/hard
// resolution: at most one ace can ever usefully count as 11.
//
// Score never caps at 21 — busts report their real total and the
// win/loss decision handles the threshold.
func Score(hand []Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		if c.isAce() {
			aces++
			continue
		}
		total += c.points()
	}
	for i := 0; i < aces; i++ {
		if total+11 <= 21 {
			total += 11
		} else {
			total++
		}
	}
	return total
}

// Hand is an ordered sequence of cards with its derived score. The
// score is recomputed on every mutation, never stored authoritatively.
type Hand struct {
	Cards []Card `json:"cards"`
	Score int    `json:"score"`
}

func (h *Hand) add(c Card) {
	h.Cards = append(h.Cards, c)
	h.Score = Score(h.Cards)
}

func (h *Hand) clear() {
	h.Cards = nil
	h.Score = 0
}
