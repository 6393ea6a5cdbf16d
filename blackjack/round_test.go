package blackjack

import (
	"context"
	"errors"
	"testing"
)

// stacked returns a deck builder dealing the given cards in order:
// player, player, dealer, dealer, then hits.
func stacked(values ...int) func() Deck {
	return func() Deck {
		deck := make(Deck, len(values))
		for i, v := range values {
			deck[len(values)-1-i] = card(v)
		}
		return deck
	}
}

type stubAccount struct {
	snap Snapshot
	err  error
	got  *RoundResult
}

func (s *stubAccount) SubmitRoundResult(_ context.Context, result RoundResult) (Snapshot, error) {
	s.got = &result
	if s.err != nil {
		return Snapshot{}, s.err
	}
	return s.snap, nil
}

func newTestRound(balance int64, deck func() Deck) *Round {
	r := NewRound(&stubAccount{}, balance)
	if deck != nil {
		r.newDeck = deck
	}
	return r
}

func TestPlaceBetDealsOpeningHands(t *testing.T) {
	r := newTestRound(100, stacked(10, 9, 5, 6))
	if err := r.PlaceBet(10); err != nil {
		t.Fatalf("place bet: %v", err)
	}
	if r.Status != Playing {
		t.Errorf("expected playing, got %s", r.Status)
	}
	if r.Bet != 10 {
		t.Errorf("expected bet 10, got %d", r.Bet)
	}
	if len(r.Player.Cards) != 2 || len(r.Dealer.Cards) != 2 {
		t.Fatalf("expected 2+2 cards, got %d+%d", len(r.Player.Cards), len(r.Dealer.Cards))
	}
	if r.Player.Score != 19 {
		t.Errorf("expected player score 19, got %d", r.Player.Score)
	}
	if r.Dealer.Score != 11 {
		t.Errorf("expected dealer score 11, got %d", r.Dealer.Score)
	}
	if r.Message != msgYourTurn {
		t.Errorf("unexpected message %q", r.Message)
	}
}

func TestPlaceBetRejections(t *testing.T) {
	cases := []struct {
		name   string
		prep   func(*Round)
		amount int64
	}{
		{"zero bet", nil, 0},
		{"negative bet", nil, -5},
		{"bet exceeds balance", nil, 150},
		{"bet outside betting phase", func(r *Round) {
			if err := r.PlaceBet(10); err != nil {
				t.Fatalf("setup bet: %v", err)
			}
		}, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRound(100, stacked(10, 9, 5, 6, 2, 2, 2))
			if tc.prep != nil {
				tc.prep(r)
			}
			statusBefore := r.Status
			betBefore := r.Bet
			playerBefore := len(r.Player.Cards)

			err := r.PlaceBet(tc.amount)
			var betErr *InvalidBetError
			if !errors.As(err, &betErr) {
				t.Fatalf("expected InvalidBetError, got %v", err)
			}
			if r.Status != statusBefore || r.Bet != betBefore || len(r.Player.Cards) != playerBefore {
				t.Errorf("rejected bet mutated state: status=%s bet=%d cards=%d",
					r.Status, r.Bet, len(r.Player.Cards))
			}
		})
	}
}

func TestHitKeepsPlayingUnder21(t *testing.T) {
	r := newTestRound(100, stacked(5, 6, 10, 9, 7))
	if err := r.PlaceBet(10); err != nil {
		t.Fatalf("place bet: %v", err)
	}
	if err := r.Hit(); err != nil {
		t.Fatalf("hit: %v", err)
	}
	if r.Status != Playing {
		t.Errorf("expected playing after non-bust hit, got %s", r.Status)
	}
	if r.Player.Score != 18 {
		t.Errorf("expected player score 18, got %d", r.Player.Score)
	}
}

func TestHitBustShortCircuitsToDealerTurn(t *testing.T) {
	r := newTestRound(100, stacked(10, 9, 5, 6, 5))
	if err := r.PlaceBet(10); err != nil {
		t.Fatalf("place bet: %v", err)
	}
	if err := r.Hit(); err != nil {
		t.Fatalf("hit: %v", err)
	}
	if r.Player.Score != 24 {
		t.Fatalf("expected bust score 24, got %d", r.Player.Score)
	}
	if r.Status != DealerTurn {
		t.Errorf("expected dealer-turn after bust, got %s", r.Status)
	}
	if r.Message != msgCalculating {
		t.Errorf("unexpected message %q", r.Message)
	}
	// Further player actions are no-ops
	cards := len(r.Player.Cards)
	if err := r.Hit(); err != nil || len(r.Player.Cards) != cards {
		t.Errorf("hit after bust drew a card (err=%v)", err)
	}
}

func TestStandDealerDrawsToSeventeen(t *testing.T) {
	cases := []struct {
		name      string
		deck      []int
		wantScore int
		wantCards int
	}{
		// dealer 10+6=16, draws 5 → 21, stops
		{"sixteen plus five", []int{10, 9, 10, 6, 5}, 21, 3},
		// dealer 10+6=16, draws 2 → 18, stops
		{"sixteen plus two", []int{10, 9, 10, 6, 2}, 18, 3},
		// dealer 10+7=17, never draws
		{"stands on seventeen", []int{10, 9, 10, 7}, 17, 2},
		// dealer 2+2=4, draws 2,5,3 → 14, draws 10 → 24, stops busted
		{"draws past sixteen", []int{10, 9, 2, 2, 2, 5, 3, 10}, 24, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRound(100, stacked(tc.deck...))
			if err := r.PlaceBet(10); err != nil {
				t.Fatalf("place bet: %v", err)
			}
			if err := r.Stand(); err != nil {
				t.Fatalf("stand: %v", err)
			}
			if r.Status != DealerTurn {
				t.Errorf("expected dealer-turn, got %s", r.Status)
			}
			if r.Dealer.Score != tc.wantScore {
				t.Errorf("dealer score = %d, want %d", r.Dealer.Score, tc.wantScore)
			}
			if len(r.Dealer.Cards) != tc.wantCards {
				t.Errorf("dealer cards = %d, want %d", len(r.Dealer.Cards), tc.wantCards)
			}
			if r.Dealer.Score < 17 {
				t.Errorf("dealer stopped below 17 at %d", r.Dealer.Score)
			}
		})
	}
}

func TestResetPreservesBalance(t *testing.T) {
	r := newTestRound(100, stacked(10, 9, 10, 8))
	if err := r.PlaceBet(10); err != nil {
		t.Fatalf("place bet: %v", err)
	}
	if err := r.Stand(); err != nil {
		t.Fatalf("stand: %v", err)
	}
	if _, err := r.Settle(context.Background()); err != nil {
		t.Fatalf("settle: %v", err)
	}
	r.Balance = 80

	r.Reset()
	if r.Status != Betting {
		t.Errorf("expected betting after reset, got %s", r.Status)
	}
	if len(r.Player.Cards) != 0 || len(r.Dealer.Cards) != 0 {
		t.Errorf("reset left cards: %d+%d", len(r.Player.Cards), len(r.Dealer.Cards))
	}
	if r.Bet != 0 {
		t.Errorf("reset left bet %d", r.Bet)
	}
	if r.Balance != 80 {
		t.Errorf("reset changed balance to %d", r.Balance)
	}
	if r.Message != msgPlaceBet {
		t.Errorf("unexpected message %q", r.Message)
	}
}

func TestSyncBalanceOnlyWhileBetting(t *testing.T) {
	r := newTestRound(100, stacked(10, 9, 5, 6))
	r.SyncBalance(250)
	if r.Balance != 250 {
		t.Errorf("expected balance 250 while betting, got %d", r.Balance)
	}

	if err := r.PlaceBet(10); err != nil {
		t.Fatalf("place bet: %v", err)
	}
	r.SyncBalance(999)
	if r.Balance != 250 {
		t.Errorf("balance sync applied mid-round: %d", r.Balance)
	}
}

func TestPlaceBetExhaustedDeck(t *testing.T) {
	r := newTestRound(100, stacked(10, 9, 5))
	err := r.PlaceBet(10)
	if !errors.Is(err, ErrEmptyDeck) {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
	if r.Status != Betting || r.Bet != 0 || len(r.Player.Cards) != 0 {
		t.Errorf("failed deal mutated state: status=%s bet=%d", r.Status, r.Bet)
	}
}

func TestStandExhaustedDeck(t *testing.T) {
	// Four cards cover the opening deal; the dealer's draw to 17 then
	// hits an empty deck and must leave the round untouched.
	r := newTestRound(100, stacked(10, 9, 5, 6))
	if err := r.PlaceBet(10); err != nil {
		t.Fatalf("place bet: %v", err)
	}
	err := r.Stand()
	if !errors.Is(err, ErrEmptyDeck) {
		t.Fatalf("expected ErrEmptyDeck, got %v", err)
	}
	if r.Status != Playing {
		t.Errorf("failed draw changed status to %s", r.Status)
	}
	if len(r.Dealer.Cards) != 2 || r.Dealer.Score != 11 {
		t.Errorf("failed draw mutated dealer hand: %d cards, score %d",
			len(r.Dealer.Cards), r.Dealer.Score)
	}
}
