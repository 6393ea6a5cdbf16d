package blackjack

import (
	"context"
	"errors"
	"fmt"
)

// Outcome of a round from the player's perspective.
type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Push Outcome = "push"
)

// DecideOutcome applies the standard comparison: a player bust loses
// outright, a dealer bust wins, otherwise the higher total wins and
// equal totals push. A two-card 21 is resolved as an ordinary win at
// even money; there is no natural-blackjack bonus.
func DecideOutcome(playerScore, dealerScore int) Outcome {
	switch {
	case playerScore > 21:
		return Loss
	case dealerScore > 21:
		return Win
	case playerScore > dealerScore:
		return Win
	case playerScore < dealerScore:
		return Loss
	default:
		return Push
	}
}

// RoundResult is the settlement payload submitted to the account
// service once the dealer's hand is final.
type RoundResult struct {
	Outcome     Outcome `json:"result"`
	Bet         int64   `json:"bet"`
	PlayerScore int     `json:"playerScore"`
	DealerScore int     `json:"dealerScore"`
}

// Snapshot is the slice of account state the round engine cares about.
type Snapshot struct {
	Balance     int64 `json:"balance"`
	GamesWon    int   `json:"gamesWon"`
	GamesPlayed int   `json:"gamesPlayed"`
}

// AccountService is the authoritative ledger for balances and play
// stats. The engine only ever talks to it through this interface.
type AccountService interface {
	SubmitRoundResult(ctx context.Context, result RoundResult) (Snapshot, error)
}

// SettlementKind says which path produced the final balance.
type SettlementKind int

const (
	// Settled means the account service accepted the result and its
	// balance and stats were adopted.
	Settled SettlementKind = iota
	// FallbackApplied means the service was unreachable and the
	// balance was adjusted locally; stats stay stale until the next
	// successful sync.
	FallbackApplied
)

// Settlement is the result of reconciling a round against the account
// service.
type Settlement struct {
	Kind        SettlementKind
	Outcome     Outcome
	Balance     int64
	GamesWon    int
	GamesPlayed int
	// Err carries the service failure that forced the fallback.
	Err error
}

var errNotDealerTurn = errors.New("blackjack: no result pending")

// PendingResult returns the settlement payload for a round waiting in
// the dealer phase.
func (r *Round) PendingResult() (RoundResult, error) {
	if r.Status != DealerTurn {
		return RoundResult{}, errNotDealerTurn
	}
	return RoundResult{
		Outcome:     DecideOutcome(r.Player.Score, r.Dealer.Score),
		Bet:         r.Bet,
		PlayerScore: r.Player.Score,
		DealerScore: r.Dealer.Score,
	}, nil
}

// FallbackBalance is the local estimate used when the account service
// cannot settle: balance − bet on a loss, + bet on a win, unchanged on
// a push, never below zero.
func FallbackBalance(balance, bet int64, outcome Outcome) int64 {
	switch outcome {
	case Win:
		balance += bet
	case Loss:
		balance -= bet
	}
	if balance < 0 {
		balance = 0
	}
	return balance
}

// ApplySettlement finishes the round with the reconciled balance and
// the outcome message.
func (r *Round) ApplySettlement(s Settlement) {
	r.Status = Finished
	r.Balance = s.Balance
	switch s.Outcome {
	case Win:
		r.Message = msgWin
	case Loss:
		r.Message = msgLose
	default:
		r.Message = msgPush
	}
	if s.Kind == Settled && r.OnSnapshot != nil {
		r.OnSnapshot(Snapshot{
			Balance:     s.Balance,
			GamesWon:    s.GamesWon,
			GamesPlayed: s.GamesPlayed,
		})
	}
}

// Settle reconciles a round sitting in the dealer phase. The outcome is
// computed locally, submitted to the account service, and the
// authoritative balance and stats adopted on success. If the service
// fails the fallback balance keeps the game playable and the error is
// carried in the settlement. Either way the round reaches finished.
//
// Callers needing to avoid holding locks across the network call can
// run the same three steps themselves via PendingResult and
// ApplySettlement.
func (r *Round) Settle(ctx context.Context) (Settlement, error) {
	result, err := r.PendingResult()
	if err != nil {
		return Settlement{}, err
	}

	var s Settlement
	snap, err := r.svc.SubmitRoundResult(ctx, result)
	if err != nil {
		s = Settlement{
			Kind:    FallbackApplied,
			Outcome: result.Outcome,
			Balance: FallbackBalance(r.Balance, result.Bet, result.Outcome),
			Err:     fmt.Errorf("settle round: %w", err),
		}
	} else {
		s = Settlement{
			Kind:        Settled,
			Outcome:     result.Outcome,
			Balance:     snap.Balance,
			GamesWon:    snap.GamesWon,
			GamesPlayed: snap.GamesPlayed,
		}
	}
	r.ApplySettlement(s)
	return s, nil
}
