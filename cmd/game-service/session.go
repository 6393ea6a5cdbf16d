package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/FazleRabbbiferdaus172/blackjack-go/blackjack"
)

// settleTimeout bounds the reconciliation call so a hung account
// service cannot leave a round stuck in the dealer phase.
const settleTimeout = 5 * time.Second

// fallbackBalance seeds a session when the account service cannot be
// read at session start.
const fallbackBalance = 100

// accountAPI is the slice of the account adapter a session needs.
type accountAPI interface {
	blackjack.AccountService
	GetAccountSnapshot(ctx context.Context) (blackjack.Snapshot, error)
}

// RoundView is the round state as serialized to clients. The dealer's
// hole card is masked while the player is still acting.
type RoundView struct {
	Player  blackjack.Hand `json:"player"`
	Dealer  blackjack.Hand `json:"dealer"`
	Status  string         `json:"gameStatus"`
	Bet     int64          `json:"bet"`
	Balance int64          `json:"balance"`
	Message string         `json:"message"`
}

// Session owns one player's round and the SSE subscribers watching it.
type Session struct {
	playerID string
	svc      accountAPI

	mu      sync.Mutex
	round   *blackjack.Round
	clients map[chan RoundView]struct{}
}

// NewSession seeds a session with the player's account balance. An
// unreachable account service degrades to the default balance; the
// next successful sync corrects it.
func NewSession(playerID string, svc accountAPI) *Session {
	balance := int64(fallbackBalance)
	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	if snap, err := svc.GetAccountSnapshot(ctx); err != nil {
		log.Printf("[game] account snapshot for %s failed — starting with fallback balance: %v", playerID, err)
	} else {
		balance = snap.Balance
	}

	round := blackjack.NewRound(svc, balance)
	round.OnSnapshot = func(snap blackjack.Snapshot) {
		log.Printf("[game] settled: player=%s balance=%d won=%d played=%d",
			playerID, snap.Balance, snap.GamesWon, snap.GamesPlayed)
	}
	return &Session{
		playerID: playerID,
		svc:      svc,
		round:    round,
		clients:  make(map[chan RoundView]struct{}),
	}
}

func (s *Session) Subscribe() chan RoundView {
	ch := make(chan RoundView, 16)
	s.mu.Lock()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Session) Unsubscribe(ch chan RoundView) {
	s.mu.Lock()
	delete(s.clients, ch)
	s.mu.Unlock()
	close(ch)
}

func (s *Session) broadcast(view RoundView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.clients {
		select {
		case ch <- view:
		default:
			// slow client — drop rather than block
		}
	}
}

// View returns the current round view.
func (s *Session) View() RoundView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// view builds the client-facing state. Callers hold s.mu.
func (s *Session) view() RoundView {
	v := RoundView{
		Player:  s.round.Player,
		Dealer:  s.round.Dealer,
		Status:  s.round.Status.String(),
		Bet:     s.round.Bet,
		Balance: s.round.Balance,
		Message: s.round.Message,
	}
	if s.round.Status == blackjack.Playing && len(v.Dealer.Cards) >= 2 {
		// Hole card stays face down until the player stands or busts.
		// Presentation only — the round keeps the real hand and score.
		shown := v.Dealer.Cards[0]
		v.Dealer = blackjack.Hand{
			Cards: []blackjack.Card{shown, {Suit: "hidden", Face: "hidden"}},
			Score: blackjack.Score([]blackjack.Card{shown}),
		}
	}
	return v
}

var errUnknownAction = errors.New("unknown action")

// Action applies a player action and returns the resulting view.
// Reaching the dealer phase kicks off settlement in the background.
func (s *Session) Action(action string, amount int64) (RoundView, error) {
	s.mu.Lock()
	var err error
	switch action {
	case "bet":
		err = s.round.PlaceBet(amount)
	case "hit":
		err = s.round.Hit()
	case "stand":
		err = s.round.Stand()
	case "reset":
		s.round.Reset()
	default:
		err = fmt.Errorf("%w %q", errUnknownAction, action)
	}
	settling := err == nil && s.round.Status == blackjack.DealerTurn
	view := s.view()
	s.mu.Unlock()

	if err != nil {
		return view, err
	}
	s.broadcast(view)
	if settling {
		go s.settle()
	}
	return view, nil
}

// settle reconciles the round against the account service. The lock is
// released around the network call; actions arriving meanwhile are
// no-ops because the round sits in the dealer phase.
func (s *Session) settle() {
	s.mu.Lock()
	result, err := s.round.PendingResult()
	balance := s.round.Balance
	s.mu.Unlock()
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	snap, svcErr := s.svc.SubmitRoundResult(ctx, result)

	s.mu.Lock()
	if s.round.Status != blackjack.DealerTurn {
		// Round was torn down while the request was in flight.
		s.mu.Unlock()
		return
	}
	var settlement blackjack.Settlement
	if svcErr != nil {
		log.Printf("[game] settlement for %s failed — applying local fallback: %v", s.playerID, svcErr)
		settlement = blackjack.Settlement{
			Kind:    blackjack.FallbackApplied,
			Outcome: result.Outcome,
			Balance: blackjack.FallbackBalance(balance, result.Bet, result.Outcome),
			Err:     svcErr,
		}
	} else {
		settlement = blackjack.Settlement{
			Kind:        blackjack.Settled,
			Outcome:     result.Outcome,
			Balance:     snap.Balance,
			GamesWon:    snap.GamesWon,
			GamesPlayed: snap.GamesPlayed,
		}
	}
	s.round.ApplySettlement(settlement)
	view := s.view()
	s.mu.Unlock()

	s.broadcast(view)
}

// SyncBalance merges an account balance update published over Redis.
// The round ignores it unless it is in the betting phase.
func (s *Session) SyncBalance(balance int64) {
	s.mu.Lock()
	before := s.round.Balance
	s.round.SyncBalance(balance)
	changed := s.round.Balance != before
	view := s.view()
	s.mu.Unlock()
	if changed {
		s.broadcast(view)
	}
}

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry tracks live sessions by player ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	dial     func(playerID, token string) accountAPI
}

func NewRegistry(dial func(playerID, token string) accountAPI) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		dial:     dial,
	}
}

func (r *Registry) Get(playerID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[playerID]
	return s, ok
}

func (r *Registry) GetOrCreate(playerID, token string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[playerID]; ok {
		return s
	}
	s := NewSession(playerID, r.dial(playerID, token))
	r.sessions[playerID] = s
	return s
}
