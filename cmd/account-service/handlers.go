package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/FazleRabbbiferdaus172/blackjack-go/money"
)

// balanceChannel is the Redis channel balance updates are published on.
const balanceChannel = "blackjack:balance"

// ── Helpers ───────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func parseBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// userPayload is the account snapshot shape the clients consume.
// Balances cross the wire as whole credits; every mutation is a whole
// amount so truncation never loses anything.
func userPayload(a *Account) map[string]any {
	cents, err := money.ParseCents(a.Balance)
	if err != nil {
		log.Printf("[account] bad balance %q for %s: %v", a.Balance, a.ID, err)
	}
	return map[string]any{
		"id":          a.ID,
		"username":    a.Username,
		"balance":     money.CentsToUnits(cents),
		"gamesWon":    a.GamesWon,
		"gamesPlayed": a.GamesPlayed,
	}
}

// balanceEvent is published to Redis whenever a balance changes so the
// game sessions and dashboards see updates without polling.
type balanceEvent struct {
	PlayerID    string `json:"playerId"`
	Balance     int64  `json:"balance"`
	GamesWon    int    `json:"gamesWon"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// publishBalance is fire-and-forget: errors are logged, not returned.
func publishBalance(rdb *redis.Client, evt balanceEvent) {
	if rdb == nil {
		return
	}
	payload, _ := json.Marshal(evt)
	if err := rdb.Publish(context.Background(), balanceChannel, payload).Err(); err != nil {
		log.Printf("[account] Redis publish failed (non-fatal): %v", err)
	}
}

// ── Health ────────────────────────────────────────────────────────────────────

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, 405, "method_not_allowed", "GET only")
			return
		}
		writeJSON(w, 200, map[string]string{
			"status":  "healthy",
			"service": "account-service",
		})
	}
}

// ── Auth ──────────────────────────────────────────────────────────────────────

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func registerHandler(db *DB, secret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, 405, "method_not_allowed", "POST only")
			return
		}
		var req credentials
		if err := parseBody(r, &req); err != nil {
			writeError(w, 400, "bad_request", "invalid JSON")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if len(req.Username) < 3 {
			writeError(w, 400, "invalid_username", "username must be at least 3 characters")
			return
		}
		if len(req.Password) < 6 {
			writeError(w, 400, "invalid_password", "password must be at least 6 characters")
			return
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			log.Printf("[account] register hash: %v", err)
			writeError(w, 500, "internal_error", "registration failed")
			return
		}
		acct, err := db.CreateAccount(req.Username, hash)
		if err == ErrUsernameTaken {
			writeError(w, 409, "username_taken", "username already taken")
			return
		}
		if err != nil {
			log.Printf("[account] register: %v", err)
			writeError(w, 500, "db_error", "registration failed")
			return
		}

		token, err := issueToken(secret, acct.ID)
		if err != nil {
			log.Printf("[account] register token: %v", err)
			writeError(w, 500, "internal_error", "registration failed")
			return
		}
		log.Printf("[account] registered: player=%s username=%s", acct.ID, acct.Username)
		writeJSON(w, 201, map[string]any{"token": token, "user": userPayload(acct)})
	}
}

func loginHandler(db *DB, secret []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, 405, "method_not_allowed", "POST only")
			return
		}
		var req credentials
		if err := parseBody(r, &req); err != nil {
			writeError(w, 400, "bad_request", "invalid JSON")
			return
		}

		acct, err := db.GetByUsername(strings.TrimSpace(req.Username))
		if err != nil {
			log.Printf("[account] login lookup: %v", err)
			writeError(w, 500, "db_error", "login failed")
			return
		}
		// Same answer for unknown user and wrong password
		if acct == nil || !checkPassword(acct.PasswordHash, req.Password) {
			writeError(w, 401, "invalid_credentials", "invalid username or password")
			return
		}

		token, err := issueToken(secret, acct.ID)
		if err != nil {
			log.Printf("[account] login token: %v", err)
			writeError(w, 500, "internal_error", "login failed")
			return
		}
		writeJSON(w, 200, map[string]any{"token": token, "user": userPayload(acct)})
	}
}

// ── Account snapshot ──────────────────────────────────────────────────────────

func meHandler(db *DB) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, playerID string) {
		if r.Method != http.MethodGet {
			writeError(w, 405, "method_not_allowed", "GET only")
			return
		}
		acct, err := db.GetByID(playerID)
		if err != nil {
			log.Printf("[account] me lookup: %v", err)
			writeError(w, 500, "db_error", "database error")
			return
		}
		if acct == nil {
			writeError(w, 404, "not_found", "account not found")
			return
		}
		writeJSON(w, 200, userPayload(acct))
	}
}

// ── Round settlement ──────────────────────────────────────────────────────────

func gameResultHandler(db *DB, rdb *redis.Client) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, playerID string) {
		if r.Method != http.MethodPost {
			writeError(w, 405, "method_not_allowed", "POST only")
			return
		}
		var req struct {
			Result      string `json:"result"`
			Bet         int64  `json:"bet"`
			PlayerScore int    `json:"playerScore"`
			DealerScore int    `json:"dealerScore"`
		}
		if err := parseBody(r, &req); err != nil {
			writeError(w, 400, "bad_request", "invalid JSON")
			return
		}
		if req.Bet <= 0 {
			writeError(w, 400, "invalid_bet", "bet must be positive")
			return
		}

		betCents := money.UnitsToCents(req.Bet)
		delta, txType, err := money.SettleDelta(betCents, req.Result)
		if err != nil {
			writeError(w, 400, "invalid_result", "result must be win, loss or push")
			return
		}

		acct, err := db.GetByID(playerID)
		if err != nil {
			log.Printf("[account] result lookup: %v", err)
			writeError(w, 500, "db_error", "database error")
			return
		}
		if acct == nil {
			writeError(w, 404, "not_found", "account not found")
			return
		}

		balanceCents, err := money.ParseCents(acct.Balance)
		if err != nil {
			log.Printf("[account] result parse balance %q: %v", acct.Balance, err)
			writeError(w, 500, "internal_error", "balance format error")
			return
		}
		newBalCents := money.ApplyDelta(balanceCents, delta)
		newBalStr := money.FormatCents(newBalCents)

		won := req.Result == "win"
		if err := db.SettleRound(playerID, acct.Balance, newBalStr, money.FormatCents(betCents), txType, won); err != nil {
			log.Printf("[account] settle round: %v", err)
			writeError(w, 500, "db_error", "settlement failed")
			return
		}

		wins := acct.GamesWon
		if won {
			wins++
		}
		played := acct.GamesPlayed + 1
		newBalance := money.CentsToUnits(newBalCents)

		log.Printf("[account] round settled: player=%s result=%s bet=%d score=%d/%d newBalance=%d",
			playerID, req.Result, req.Bet, req.PlayerScore, req.DealerScore, newBalance)

		publishBalance(rdb, balanceEvent{
			PlayerID:    playerID,
			Balance:     newBalance,
			GamesWon:    wins,
			GamesPlayed: played,
		})

		writeJSON(w, 200, map[string]any{
			"newBalance":  newBalance,
			"wins":        wins,
			"gamesPlayed": played,
		})
	}
}

// ── Balance purchase ──────────────────────────────────────────────────────────

func purchaseHandler(db *DB, rdb *redis.Client) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, playerID string) {
		if r.Method != http.MethodPost {
			writeError(w, 405, "method_not_allowed", "POST only")
			return
		}
		var req struct {
			Amount int64 `json:"amount"`
		}
		if err := parseBody(r, &req); err != nil {
			writeError(w, 400, "bad_request", "invalid JSON")
			return
		}
		if req.Amount <= 0 {
			writeError(w, 400, "invalid_amount", "amount must be positive")
			return
		}

		acct, err := db.GetByID(playerID)
		if err != nil || acct == nil {
			writeError(w, 404, "not_found", "account not found")
			return
		}

		balanceCents, err := money.ParseCents(acct.Balance)
		if err != nil {
			writeError(w, 500, "internal_error", "balance format error")
			return
		}
		amountCents := money.UnitsToCents(req.Amount)
		newBalCents := money.Credit(balanceCents, amountCents)
		newBalStr := money.FormatCents(newBalCents)

		if err := db.ApplyBalanceChange(playerID, acct.Balance, newBalStr, money.FormatCents(amountCents), "purchase", ""); err != nil {
			log.Printf("[account] purchase: %v", err)
			writeError(w, 500, "db_error", "purchase failed")
			return
		}

		newBalance := money.CentsToUnits(newBalCents)
		log.Printf("[account] purchase: player=%s amount=%d newBalance=%d", playerID, req.Amount, newBalance)
		publishBalance(rdb, balanceEvent{
			PlayerID:    playerID,
			Balance:     newBalance,
			GamesWon:    acct.GamesWon,
			GamesPlayed: acct.GamesPlayed,
		})
		writeJSON(w, 200, map[string]any{"newBalance": newBalance})
	}
}

// ── Profile ───────────────────────────────────────────────────────────────────

func profileHandler(db *DB) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, playerID string) {
		if r.Method != http.MethodPut {
			writeError(w, 405, "method_not_allowed", "PUT only")
			return
		}
		var req struct {
			Username string `json:"username"`
		}
		if err := parseBody(r, &req); err != nil {
			writeError(w, 400, "bad_request", "invalid JSON")
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if len(req.Username) < 3 {
			writeError(w, 400, "invalid_username", "username must be at least 3 characters")
			return
		}

		if err := db.UpdateUsername(playerID, req.Username); err == ErrUsernameTaken {
			writeError(w, 409, "username_taken", "username already taken")
			return
		} else if err != nil {
			log.Printf("[account] profile update: %v", err)
			writeError(w, 500, "db_error", "profile update failed")
			return
		}

		acct, err := db.GetByID(playerID)
		if err != nil || acct == nil {
			writeError(w, 500, "db_error", "database error")
			return
		}
		writeJSON(w, 200, userPayload(acct))
	}
}

func passwordHandler(db *DB) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, playerID string) {
		if r.Method != http.MethodPut {
			writeError(w, 405, "method_not_allowed", "PUT only")
			return
		}
		var req struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if err := parseBody(r, &req); err != nil {
			writeError(w, 400, "bad_request", "invalid JSON")
			return
		}
		if len(req.NewPassword) < 6 {
			writeError(w, 400, "invalid_password", "password must be at least 6 characters")
			return
		}

		acct, err := db.GetByID(playerID)
		if err != nil || acct == nil {
			writeError(w, 404, "not_found", "account not found")
			return
		}
		if !checkPassword(acct.PasswordHash, req.CurrentPassword) {
			writeError(w, 401, "invalid_credentials", "current password is incorrect")
			return
		}

		hash, err := hashPassword(req.NewPassword)
		if err != nil {
			writeError(w, 500, "internal_error", "password update failed")
			return
		}
		if err := db.UpdatePassword(playerID, hash); err != nil {
			log.Printf("[account] password update: %v", err)
			writeError(w, 500, "db_error", "password update failed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ── Leaderboard ───────────────────────────────────────────────────────────────

func leaderboardHandler(db *DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, 405, "method_not_allowed", "GET only")
			return
		}
		entries, err := db.Leaderboard(10)
		if err != nil {
			log.Printf("[account] leaderboard: %v", err)
			writeError(w, 500, "db_error", "database error")
			return
		}
		payload := make([]map[string]any, 0, len(entries))
		for _, e := range entries {
			cents, _ := money.ParseCents(e.Balance)
			payload = append(payload, map[string]any{
				"username":    e.Username,
				"gamesWon":    e.GamesWon,
				"gamesPlayed": e.GamesPlayed,
				"balance":     money.CentsToUnits(cents),
			})
		}
		writeJSON(w, 200, payload)
	}
}

// ── Dev reset ─────────────────────────────────────────────────────────────────

func devResetHandler(db *DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, 405, "method_not_allowed", "POST only")
			return
		}
		if err := db.DevReset(); err != nil {
			log.Printf("[account] dev reset: %v", err)
			writeError(w, 500, "db_error", "reset failed")
			return
		}
		log.Printf("[account] DEV RESET: all accounts wiped")
		writeJSON(w, 200, map[string]bool{"reset": true})
	}
}
