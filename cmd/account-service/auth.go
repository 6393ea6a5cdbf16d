package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/form3tech-oss/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL bounds a session before the player must log in again.
const tokenTTL = 24 * time.Hour

var errInvalidToken = errors.New("invalid or expired token")

// issueToken mints a session-scoped JWT for a player.
func issueToken(secret []byte, playerID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   playerID,
		"scope": "session",
		"iat":   now.Unix(),
		"exp":   now.Add(tokenTTL).Unix(),
	})
	return token.SignedString(secret)
}

// parsePlayerID verifies a bearer token and returns its subject.
func parsePlayerID(secret []byte, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errInvalidToken
	}
	return sub, nil
}

// requireAuth wraps a handler with bearer-token verification and hands
// it the authenticated player ID.
func requireAuth(secret []byte, next func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, 401, "auth_required", "authentication required")
			return
		}
		playerID, err := parsePlayerID(secret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			writeError(w, 401, "invalid_token", "invalid or expired token")
			return
		}
		next(w, r, playerID)
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
