// Package money does fixed-point currency arithmetic in integer cents.
// Balances live in the database as NUMERIC(15,2) strings; converting to
// cents at the boundary keeps floating point out of the ledger.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCents converts a decimal string ("1000.00") to integer cents
// (100000). Parses without floating point to avoid precision loss.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount string")
	}
	parts := strings.SplitN(s, ".", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	neg := whole < 0 || strings.HasPrefix(parts[0], "-")
	cents := whole * 100
	if len(parts) == 2 && len(parts[1]) > 0 {
		frac := parts[1]
		for _, r := range frac {
			if r < '0' || r > '9' {
				return 0, fmt.Errorf("invalid fractional amount %q", s)
			}
		}
		if len(frac) == 1 {
			frac += "0" // "1000.5" → 50 cents
		} else {
			frac = frac[:2] // truncate beyond 2 decimal places
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fractional amount %q: %w", s, err)
		}
		if neg {
			cents -= f
		} else {
			cents += f
		}
	}
	return cents, nil
}

// FormatCents converts integer cents (100000) to a decimal string
// ("1000.00").
func FormatCents(cents int64) string {
	abs := cents
	neg := ""
	if cents < 0 {
		abs = -cents
		neg = "-"
	}
	return fmt.Sprintf("%s%d.%02d", neg, abs/100, abs%100)
}

// UnitsToCents converts whole currency units to cents.
func UnitsToCents(units int64) int64 { return units * 100 }

// CentsToUnits converts cents to whole units, truncating any fraction.
func CentsToUnits(cents int64) int64 { return cents / 100 }

// Debit validates and applies a debit. Returns the new balance and
// whether the funds sufficed; an insufficient debit leaves the balance
// untouched.
func Debit(balanceCents, amountCents int64) (int64, bool) {
	if amountCents > balanceCents {
		return balanceCents, false
	}
	return balanceCents - amountCents, true
}

// Credit adds a credit to a balance.
func Credit(balanceCents, amountCents int64) int64 {
	return balanceCents + amountCents
}

// SettleDelta is the signed balance change for a round result: +bet on
// a win, −bet on a loss, zero on a push. The transaction type string
// labels the ledger row.
func SettleDelta(betCents int64, result string) (delta int64, txType string, err error) {
	switch result {
	case "win":
		return betCents, "round_win", nil
	case "loss":
		return -betCents, "round_loss", nil
	case "push":
		return 0, "round_push", nil
	default:
		return 0, "", fmt.Errorf("unknown round result %q", result)
	}
}

// ApplyDelta applies a signed change to a balance, clamping at zero.
// A ledger balance never goes negative.
func ApplyDelta(balanceCents, deltaCents int64) int64 {
	next := balanceCents + deltaCents
	if next < 0 {
		return 0
	}
	return next
}
