package blackjack

import "fmt"

// Status is the phase of a round. Transitions:
//
//	Betting → Playing → DealerTurn → Finished → Betting (via Reset)
type Status int

const (
	Betting Status = iota
	Playing
	DealerTurn
	Finished
)

func (s Status) String() string {
	switch s {
	case Betting:
		return "betting"
	case Playing:
		return "playing"
	case DealerTurn:
		return "dealer-turn"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Round messages shown to the player.
const (
	msgPlaceBet    = "Place your bet to start the game"
	msgYourTurn    = "Your turn"
	msgCalculating = "Calculating result..."
	msgWin         = "You win!"
	msgLose        = "You lose!"
	msgPush        = "Push!"
)

// InvalidBetError rejects a bet that is non-positive, exceeds the
// balance, or was placed outside the betting phase. The round is left
// untouched.
type InvalidBetError struct {
	Amount  int64
	Balance int64
	Status  Status
}

func (e *InvalidBetError) Error() string {
	if e.Status != Betting {
		return fmt.Sprintf("blackjack: cannot bet while %s", e.Status)
	}
	return fmt.Sprintf("blackjack: invalid bet %d (balance %d)", e.Amount, e.Balance)
}

// Round is the in-memory state of one betting/play cycle. It is owned
// by a single goroutine; callers needing concurrent access must
// serialize around it.
type Round struct {
	deck    Deck
	Player  Hand
	Dealer  Hand
	Status  Status
	Bet     int64
	Balance int64
	Message string

	svc AccountService

	// OnSnapshot, when set, is invoked with the authoritative account
	// snapshot adopted after a successful settlement.
	OnSnapshot func(Snapshot)

	// newDeck builds the shuffled deck for a fresh deal. Overridable
	// for deterministic play in tests.
	newDeck func() Deck
}

// NewRound creates a round in the betting phase with the given starting
// balance. The account service settles outcomes; see Settle.
func NewRound(svc AccountService, balance int64) *Round {
	return &Round{
		Status:  Betting,
		Balance: balance,
		Message: msgPlaceBet,
		svc:     svc,
		newDeck: NewDeck,
	}
}

// PlaceBet moves the round from betting to playing and deals the
// opening hands: two cards to the player, two to the dealer, from a
// freshly shuffled deck. Rejected bets leave the round unchanged.
func (r *Round) PlaceBet(amount int64) error {
	if r.Status != Betting || amount <= 0 || amount > r.Balance {
		return &InvalidBetError{Amount: amount, Balance: r.Balance, Status: r.Status}
	}
	deck := r.newDeck()
	var player, dealer Hand
	for i := 0; i < 2; i++ {
		card, err := deck.Deal()
		if err != nil {
			return err
		}
		player.add(card)
	}
	for i := 0; i < 2; i++ {
		card, err := deck.Deal()
		if err != nil {
			return err
		}
		dealer.add(card)
	}
	r.deck = deck
	r.Player = player
	r.Dealer = dealer
	r.Bet = amount
	r.Status = Playing
	r.Message = msgYourTurn
	return nil
}

// Hit draws one card to the player's hand. Busting short-circuits the
// player's turn straight into the dealer phase. Outside the playing
// phase Hit is a no-op.
func (r *Round) Hit() error {
	if r.Status != Playing {
		return nil
	}
	card, err := r.deck.Deal()
	if err != nil {
		return err
	}
	r.Player.add(card)
	if r.Player.Score > 21 {
		r.Status = DealerTurn
		r.Message = msgCalculating
	}
	return nil
}

// Stand ends the player's turn. The dealer draws until reaching 17 or
// more, then the round moves to the dealer phase for settlement.
// Outside the playing phase Stand is a no-op. Draws are staged so a
// deck error leaves the round unchanged, as in PlaceBet.
func (r *Round) Stand() error {
	if r.Status != Playing {
		return nil
	}
	deck := r.deck
	dealer := r.Dealer
	for dealer.Score < 17 {
		card, err := deck.Deal()
		if err != nil {
			return err
		}
		dealer.add(card)
	}
	r.deck = deck
	r.Dealer = dealer
	r.Status = DealerTurn
	r.Message = msgCalculating
	return nil
}

// Reset returns a finished round to the betting phase. The balance
// carries forward; everything else is cleared.
func (r *Round) Reset() {
	r.deck = nil
	r.Player.clear()
	r.Dealer.clear()
	r.Bet = 0
	r.Status = Betting
	r.Message = msgPlaceBet
}

// SyncBalance merges an externally observed balance into the round.
// Only applied while betting, so a stale account read never clobbers
// the balance view of a round in progress.
func (r *Round) SyncBalance(balance int64) {
	if r.Status != Betting {
		return
	}
	r.Balance = balance
}
