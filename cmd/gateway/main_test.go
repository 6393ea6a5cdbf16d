package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/form3tech-oss/jwt-go"
)

func signedToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func requestWithToken(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/game/p1", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestSessionPlayerID(t *testing.T) {
	valid := signedToken(t, jwtSecret, jwt.MapClaims{
		"sub":   "player-1",
		"scope": "session",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	cases := []struct {
		name  string
		token string
		want  string
		ok    bool
	}{
		{"valid session token", valid, "player-1", true},
		{"no token", "", "", false},
		{"garbage token", "not.a.token", "", false},
		{"wrong scope", signedToken(t, jwtSecret, jwt.MapClaims{
			"sub":   "player-1",
			"scope": "enroll",
			"exp":   time.Now().Add(time.Hour).Unix(),
		}), "", false},
		{"wrong secret", signedToken(t, []byte("other-secret"), jwt.MapClaims{
			"sub":   "player-1",
			"scope": "session",
			"exp":   time.Now().Add(time.Hour).Unix(),
		}), "", false},
		{"expired", signedToken(t, jwtSecret, jwt.MapClaims{
			"sub":   "player-1",
			"scope": "session",
			"exp":   time.Now().Add(-time.Hour).Unix(),
		}), "", false},
		{"missing subject", signedToken(t, jwtSecret, jwt.MapClaims{
			"scope": "session",
			"exp":   time.Now().Add(time.Hour).Unix(),
		}), "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := sessionPlayerID(requestWithToken(tc.token))
			if ok != tc.ok || got != tc.want {
				t.Errorf("sessionPlayerID = %q, %v; want %q, %v", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestRequireSessionInjectsPlayerID(t *testing.T) {
	var gotHeader string
	handler := requireSession(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Player-ID")
	})

	token := signedToken(t, jwtSecret, jwt.MapClaims{
		"sub":   "player-7",
		"scope": "session",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	rec := httptest.NewRecorder()
	handler(rec, requestWithToken(token))
	if rec.Code != http.StatusOK {
		t.Errorf("status %d", rec.Code)
	}
	if gotHeader != "player-7" {
		t.Errorf("X-Player-ID = %q", gotHeader)
	}

	rec = httptest.NewRecorder()
	handler(rec, requestWithToken(""))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status %d", rec.Code)
	}
}
