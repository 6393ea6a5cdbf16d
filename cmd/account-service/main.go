package main

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)
	log.Printf("[account] starting — account service")

	// ── Config ────────────────────────────────────────────────────────────────
	port := getEnv("PORT", "3005")
	secret := []byte(getEnv("JWT_SECRET", "dev-secret-change-me"))

	dbHost := getEnv("ACCOUNT_DB_HOST", "account-db")
	dbPort := getEnv("ACCOUNT_DB_PORT", "5432")
	dbName := getEnv("ACCOUNT_DB_NAME", "accountdb")
	dbUser := getEnv("ACCOUNT_DB_USER", "accountuser")
	dbPass := getEnv("ACCOUNT_DB_PASSWORD", "accountpass")

	redisAddr := getEnv("REDIS_ADDR", "redis:6379")

	// ── Database ──────────────────────────────────────────────────────────────
	db, err := NewDB(dbHost, dbPort, dbName, dbUser, dbPass)
	if err != nil {
		log.Fatalf("[account] database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		log.Fatalf("[account] migrate: %v", err)
	}

	// ── Redis (optional — balance pub/sub) ────────────────────────────────────
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	log.Printf("[account] Redis configured at %s", redisAddr)

	// ── Routes ────────────────────────────────────────────────────────────────
	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler())
	mux.HandleFunc("/auth/register", registerHandler(db, secret))
	mux.HandleFunc("/auth/login", loginHandler(db, secret))
	mux.HandleFunc("/me", requireAuth(secret, meHandler(db)))
	mux.HandleFunc("/games/result", requireAuth(secret, gameResultHandler(db, rdb)))
	mux.HandleFunc("/user/purchase-balance", requireAuth(secret, purchaseHandler(db, rdb)))
	mux.HandleFunc("/user/profile", requireAuth(secret, profileHandler(db)))
	mux.HandleFunc("/user/password", requireAuth(secret, passwordHandler(db)))
	mux.HandleFunc("/leaderboard", leaderboardHandler(db))
	mux.HandleFunc("/dev/reset", devResetHandler(db))

	log.Printf("[account] listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatalf("[account] server: %v", err)
	}
}
