package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/FazleRabbbiferdaus172/blackjack-go/account"
	"github.com/FazleRabbbiferdaus172/blackjack-go/blackjack"
)

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)
	log.Printf("[game] starting — blackjack game service")

	port := getEnv("PORT", "3001")
	accountURL := getEnv("ACCOUNT_SERVICE_URL", "http://account-service:3005")
	redisAddr := getEnv("REDIS_ADDR", "redis:6379")

	registry := NewRegistry(func(playerID, token string) accountAPI {
		return account.NewClient(accountURL, token)
	})

	go subscribeBalances(registry, redisAddr)

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]string{
			"status":  "healthy",
			"service": "game-service",
		})
	})

	// GET  /sessions/{playerID}         - round snapshot
	// POST /sessions/{playerID}/action  - player action
	// GET  /sessions/{playerID}/stream  - SSE
	mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
		playerID, rest := splitSessionPath(r.URL.Path)
		if playerID == "" || playerID != r.Header.Get("X-Player-ID") {
			writeError(w, 401, "auth_required", "authenticated player ID required")
			return
		}
		token := bearerToken(r)

		switch rest {
		case "":
			session := registry.GetOrCreate(playerID, token)
			writeJSON(w, 200, session.View())
		case "action":
			actionHandler(w, r, registry.GetOrCreate(playerID, token))
		case "stream":
			streamHandler(w, r, registry.GetOrCreate(playerID, token))
		default:
			http.NotFound(w, r)
		}
	})

	log.Printf("[game] listening on :%s", port)
	if err := http.ListenAndServe(":"+port, corsMiddleware(mux)); err != nil {
		log.Fatalf("[game] server: %v", err)
	}
}

// splitSessionPath parses /sessions/{playerID}[/rest].
func splitSessionPath(path string) (playerID, rest string) {
	trimmed := strings.TrimPrefix(path, "/sessions/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i], trimmed[i+1:]
	}
	return trimmed, ""
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

type actionRequest struct {
	Action string `json:"action"`
	Amount int64  `json:"amount,omitempty"`
}

func actionHandler(w http.ResponseWriter, r *http.Request, session *Session) {
	if r.Method != http.MethodPost {
		writeError(w, 405, "method_not_allowed", "POST only")
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "bad_request", "invalid JSON")
		return
	}

	view, err := session.Action(req.Action, req.Amount)
	var betErr *blackjack.InvalidBetError
	switch {
	case errors.As(err, &betErr):
		writeError(w, 409, "invalid_bet", betErr.Error())
		return
	case errors.Is(err, blackjack.ErrEmptyDeck):
		log.Printf("[game] deck exhausted for player=%s — round state is corrupt", session.playerID)
		writeError(w, 500, "empty_deck", "deck exhausted")
		return
	case errors.Is(err, errUnknownAction):
		writeError(w, 400, "unknown_action", err.Error())
		return
	case err != nil:
		writeError(w, 500, "internal_error", "action failed")
		return
	}

	log.Printf("[game] action: player=%s action=%s status=%s", session.playerID, req.Action, view.Status)
	writeJSON(w, 200, view)
}

func streamHandler(w http.ResponseWriter, r *http.Request, session *Session) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	ch := session.Subscribe()
	defer session.Unsubscribe(ch)

	// Send current state immediately on connect
	sendSSEEvent(w, flusher, session.View())

	for {
		select {
		case view, ok := <-ch:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, view)
		case <-r.Context().Done():
			return
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, view RoundView) {
	data, _ := json.Marshal(view)
	fmt.Fprintf(w, "event: round_state\ndata: %s\n\n", data)
	flusher.Flush()
}

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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Player-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
