package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := issueToken(secret, "player-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	playerID, err := parsePlayerID(secret, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if playerID != "player-1" {
		t.Errorf("playerID = %q", playerID)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := issueToken([]byte("secret-a"), "player-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := parsePlayerID([]byte("secret-b"), token); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestTokenGarbage(t *testing.T) {
	if _, err := parsePlayerID([]byte("secret"), "not.a.token"); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestRequireAuth(t *testing.T) {
	secret := []byte("test-secret")
	var gotPlayerID string
	handler := requireAuth(secret, func(w http.ResponseWriter, r *http.Request, playerID string) {
		gotPlayerID = playerID
		w.WriteHeader(http.StatusOK)
	})

	// No token
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d", rec.Code)
	}

	// Valid token
	token, err := issueToken(secret, "player-9")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status %d", rec.Code)
	}
	if gotPlayerID != "player-9" {
		t.Errorf("playerID = %q", gotPlayerID)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := hashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !checkPassword(hash, "hunter22") {
		t.Error("correct password rejected")
	}
	if checkPassword(hash, "hunter23") {
		t.Error("wrong password accepted")
	}
}
