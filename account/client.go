// Package account is the HTTP adapter for the account service: the
// authoritative ledger for balances, play stats and profiles. The game
// engine consumes it through the blackjack.AccountService interface.
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FazleRabbbiferdaus172/blackjack-go/blackjack"
)

// ServiceError is a non-2xx reply from the account service, carrying
// the service's error envelope when one was sent.
type ServiceError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("account service: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("account service: status %d", e.StatusCode)
}

// Client talks JSON over HTTP to the account service with bearer-token
// auth. One client per authenticated player.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the given player token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// User is the account snapshot as served by the account service.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Balance     int64  `json:"balance"`
	GamesWon    int    `json:"gamesWon"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// GetAccountSnapshot reads the player's current balance and stats.
func (c *Client) GetAccountSnapshot(ctx context.Context) (blackjack.Snapshot, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/me", nil, &u); err != nil {
		return blackjack.Snapshot{}, err
	}
	return blackjack.Snapshot{
		Balance:     u.Balance,
		GamesWon:    u.GamesWon,
		GamesPlayed: u.GamesPlayed,
	}, nil
}

// SubmitRoundResult settles a finished round against the ledger and
// returns the authoritative balance and stats.
func (c *Client) SubmitRoundResult(ctx context.Context, result blackjack.RoundResult) (blackjack.Snapshot, error) {
	var resp struct {
		NewBalance  int64 `json:"newBalance"`
		Wins        int   `json:"wins"`
		GamesPlayed int   `json:"gamesPlayed"`
	}
	if err := c.do(ctx, http.MethodPost, "/games/result", result, &resp); err != nil {
		return blackjack.Snapshot{}, err
	}
	return blackjack.Snapshot{
		Balance:     resp.NewBalance,
		GamesWon:    resp.Wins,
		GamesPlayed: resp.GamesPlayed,
	}, nil
}

// PurchaseBalance tops up the player's balance out of band and returns
// the new balance.
func (c *Client) PurchaseBalance(ctx context.Context, amount int64) (int64, error) {
	req := map[string]int64{"amount": amount}
	var resp struct {
		NewBalance int64 `json:"newBalance"`
	}
	if err := c.do(ctx, http.MethodPost, "/user/purchase-balance", req, &resp); err != nil {
		return 0, err
	}
	return resp.NewBalance, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("account request encode: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("account request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("account response decode: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	svcErr := &ServiceError{StatusCode: resp.StatusCode}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && json.Unmarshal(body, &envelope) == nil {
		svcErr.Code = envelope.Error.Code
		svcErr.Message = envelope.Error.Message
	}
	return svcErr
}
