package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// DB wraps the PostgreSQL connection pool.
type DB struct {
	pool *sql.DB
}

const StartingBalance = "100.00"

// ErrUsernameTaken reports a register attempt with an existing username.
var ErrUsernameTaken = errors.New("username already taken")

// NewDB opens a PostgreSQL connection pool and waits for the DB to be ready.
func NewDB(host, port, name, user, password string) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=disable",
		host, port, name, user, password,
	)
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	pool.SetMaxOpenConns(10)
	pool.SetMaxIdleConns(5)
	pool.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{pool: pool}
	if err := db.waitReady(); err != nil {
		return nil, err
	}
	return db, nil
}

func (d *DB) waitReady() error {
	for i := 0; i < 30; i++ {
		if err := d.pool.Ping(); err == nil {
			log.Printf("[account-db] connected")
			return nil
		}
		log.Printf("[account-db] not ready (%d/30), retrying...", i+1)
		time.Sleep(2 * time.Second)
	}
	return fmt.Errorf("account-db unavailable after 60s")
}

// Migrate creates tables if they don't exist. Idempotent.
func (d *DB) Migrate() error {
	_, err := d.pool.Exec(`
		CREATE TABLE IF NOT EXISTS accounts (
			id            UUID          PRIMARY KEY,
			username      VARCHAR(50)   NOT NULL UNIQUE,
			password_hash VARCHAR(100)  NOT NULL,
			balance       NUMERIC(15,2) NOT NULL DEFAULT 100.00,
			games_won     INTEGER       NOT NULL DEFAULT 0,
			games_played  INTEGER       NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}
	_, err = d.pool.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id             UUID          PRIMARY KEY,
			account_id     UUID          NOT NULL REFERENCES accounts(id),
			type           VARCHAR(30)   NOT NULL,
			amount         NUMERIC(15,2) NOT NULL,
			balance_before NUMERIC(15,2) NOT NULL,
			balance_after  NUMERIC(15,2) NOT NULL,
			note           VARCHAR(255),
			created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate transactions: %w", err)
	}
	_, err = d.pool.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_account
			ON transactions(account_id, created_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("migrate index: %w", err)
	}
	log.Printf("[account-db] schema ready")
	return nil
}

// Account is a player row. Balance stays a NUMERIC(15,2) string until
// the handler converts it to cents.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Balance      string
	GamesWon     int
	GamesPlayed  int
}

// CreateAccount inserts a new player with the starting balance.
func (d *DB) CreateAccount(username, passwordHash string) (*Account, error) {
	id := uuid.NewString()
	_, err := d.pool.Exec(
		`INSERT INTO accounts(id, username, password_hash, balance) VALUES($1, $2, $3, $4)`,
		id, username, passwordHash, StartingBalance,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &Account{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Balance:      StartingBalance,
	}, nil
}

const accountColumns = `id, username, password_hash, balance::text, games_won, games_played`

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Balance, &a.GamesWon, &a.GamesPlayed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByUsername returns the account for a username, or nil if absent.
func (d *DB) GetByUsername(username string) (*Account, error) {
	return scanAccount(d.pool.QueryRow(
		`SELECT `+accountColumns+` FROM accounts WHERE username=$1`, username,
	))
}

// GetByID returns the account for a player ID, or nil if absent.
func (d *DB) GetByID(id string) (*Account, error) {
	return scanAccount(d.pool.QueryRow(
		`SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id,
	))
}

// SettleRound applies a round result in one transaction: new balance,
// stat increments and a ledger row.
func (d *DB) SettleRound(accountID, balanceBefore, balanceAfter, amount, txType string, won bool) error {
	tx, err := d.pool.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	wonInc := 0
	if won {
		wonInc = 1
	}
	_, err = tx.Exec(
		`UPDATE accounts
		 SET balance=$1, games_won=games_won+$2, games_played=games_played+1
		 WHERE id=$3`,
		balanceAfter, wonInc, accountID,
	)
	if err != nil {
		return fmt.Errorf("settle round update: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO transactions(id, account_id, type, amount, balance_before, balance_after)
		 VALUES($1, $2, $3, $4, $5, $6)`,
		uuid.NewString(), accountID, txType, amount, balanceBefore, balanceAfter,
	)
	if err != nil {
		return fmt.Errorf("settle round record: %w", err)
	}

	return tx.Commit()
}

// ApplyBalanceChange updates the balance and records a ledger row.
// Used for purchases and any direct balance adjustments.
func (d *DB) ApplyBalanceChange(accountID, balanceBefore, balanceAfter, amount, txType, note string) error {
	tx, err := d.pool.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE accounts SET balance=$1 WHERE id=$2`,
		balanceAfter, accountID,
	)
	if err != nil {
		return fmt.Errorf("apply balance change: %w", err)
	}

	var noteVal any
	if note != "" {
		noteVal = note
	}
	_, err = tx.Exec(
		`INSERT INTO transactions(id, account_id, type, amount, balance_before, balance_after, note)
		 VALUES($1, $2, $3, $4, $5, $6, $7)`,
		uuid.NewString(), accountID, txType, amount, balanceBefore, balanceAfter, noteVal,
	)
	if err != nil {
		return fmt.Errorf("apply balance change record: %w", err)
	}

	return tx.Commit()
}

// UpdateUsername changes a player's username.
func (d *DB) UpdateUsername(accountID, username string) error {
	_, err := d.pool.Exec(
		`UPDATE accounts SET username=$1 WHERE id=$2`, username, accountID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrUsernameTaken
		}
		return fmt.Errorf("update username: %w", err)
	}
	return nil
}

// UpdatePassword replaces a player's password hash.
func (d *DB) UpdatePassword(accountID, passwordHash string) error {
	_, err := d.pool.Exec(
		`UPDATE accounts SET password_hash=$1 WHERE id=$2`, passwordHash, accountID,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// LeaderboardEntry is one leaderboard row.
type LeaderboardEntry struct {
	Username    string `json:"username"`
	GamesWon    int    `json:"gamesWon"`
	GamesPlayed int    `json:"gamesPlayed"`
	Balance     string `json:"-"`
}

// Leaderboard returns the top players by wins, then balance.
func (d *DB) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := d.pool.Query(
		`SELECT username, games_won, games_played, balance::text
		 FROM accounts
		 ORDER BY games_won DESC, balance DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.GamesWon, &e.GamesPlayed, &e.Balance); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if entries == nil {
		entries = []LeaderboardEntry{} // never return null — always return an array
	}
	return entries, rows.Err()
}

// DevReset wipes all account data.
func (d *DB) DevReset() error {
	tx, err := d.pool.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM transactions`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM accounts`); err != nil {
		return err
	}
	return tx.Commit()
}
