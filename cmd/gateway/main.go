package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	jwt "github.com/form3tech-oss/jwt-go"
)

var (
	serviceURLs = map[string]string{
		"account": getEnv("ACCOUNT_SERVICE_URL", "http://account-service:3005"),
		"game":    getEnv("GAME_SERVICE_URL", "http://game-service:3001"),
	}

	jwtSecret = []byte(getEnv("JWT_SECRET", "dev-secret-change-me"))
)

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	bus := NewBalanceBus()

	mux := http.NewServeMux()

	// Health — fans out to upstreams
	mux.HandleFunc("/health", healthHandler)

	// Balance update SSE feed, fed from Redis
	mux.HandleFunc("/events", bus.SSEHandler)

	// Auth routes → account service, public (/api/auth/* → /auth/*)
	mux.HandleFunc("/api/auth/", proxyWithRewrite("account", serviceURLs["account"], "/api/auth/", "/auth/"))

	// Leaderboard is public
	mux.HandleFunc("/api/leaderboard", proxyWithRewrite("account", serviceURLs["account"], "/api/leaderboard", "/leaderboard"))

	// Profile, purchase, snapshot and settlement routes need a session
	mux.HandleFunc("/api/user/", requireSession(proxyWithRewrite("account", serviceURLs["account"], "/api/user/", "/user/")))
	mux.HandleFunc("/api/me", requireSession(proxyWithRewrite("account", serviceURLs["account"], "/api/me", "/me")))
	mux.HandleFunc("/api/games/", requireSession(proxyWithRewrite("account", serviceURLs["account"], "/api/games/", "/games/")))

	// Game routes → game service (/api/game/* → /sessions/*), session
	// required; the verified player ID rides in on X-Player-ID
	mux.HandleFunc("/api/game/", requireSession(proxyWithRewrite("game", serviceURLs["game"], "/api/game/", "/sessions/")))

	// DEV ONLY — wipe account state
	mux.HandleFunc("/dev/reset", devResetHandler)

	port := getEnv("PORT", "8021")
	log.Printf("[gateway] starting on :%s", port)

	go bus.SubscribeRedis(getEnv("REDIS_ADDR", "redis:6379"))

	if err := http.ListenAndServe(":"+port, corsMiddleware(mux)); err != nil {
		log.Fatal(err)
	}
}

// proxyWithRewrite proxies with prefix rewriting e.g. /api/game/ → /sessions/
func proxyWithRewrite(callee, targetURL, stripPrefix, addPrefix string) http.HandlerFunc {
	target, err := url.Parse(targetURL)
	if err != nil {
		log.Fatalf("invalid upstream URL for %s: %v", callee, err)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Director = func(req *http.Request) {
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.Host = target.Host
		path := strings.TrimPrefix(req.URL.Path, stripPrefix)
		req.URL.Path = addPrefix + path
		if req.URL.RawPath != "" {
			rawPath := strings.TrimPrefix(req.URL.RawPath, stripPrefix)
			req.URL.RawPath = addPrefix + rawPath
		}
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("proxy error [%s]: %v", callee, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{
			"code":    "upstream_error",
			"message": fmt.Sprintf("%s service unavailable", callee),
		})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: 200}
		proxy.ServeHTTP(rw, r)
		log.Printf("[gateway→%s] %s %s %d (%dms)",
			callee, r.Method, r.URL.Path, rw.status, time.Since(start).Milliseconds())
	}
}

// sessionPlayerID verifies the bearer token and returns the player ID
// it was issued for.
func sessionPlayerID(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	if scope, _ := claims["scope"].(string); scope != "session" {
		return "", false
	}
	sub, _ := claims["sub"].(string)
	return sub, sub != ""
}

// requireSession enforces a verified session token on protected routes
// and injects the player ID for downstream services.
func requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, ok := sessionPlayerID(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"code":    "auth_required",
				"message": "valid session token required",
			})
			return
		}
		r.Header.Set("X-Player-ID", playerID)
		next(w, r)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// devResetHandler forwards POST /dev/reset to the account service.
// DEV ONLY — gate this off before production.
func devResetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(serviceURLs["account"]+"/dev/reset", "application/json", nil)
	status := "ok"
	if err != nil {
		status = "error: " + err.Error()
	} else {
		resp.Body.Close()
		if resp.StatusCode != 200 {
			status = fmt.Sprintf("error: status %d", resp.StatusCode)
		}
	}
	log.Printf("[gateway] DEV RESET executed: %s", status)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"account-service": status})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	upstreams := make(map[string]string)
	for name, svcURL := range serviceURLs {
		upstreams[name] = checkUpstream(svcURL + "/health")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "healthy",
		"service":  "gateway",
		"upstream": upstreams,
	})
}

func checkUpstream(healthURL string) string {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(healthURL)
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()
	io.ReadAll(resp.Body)
	if resp.StatusCode == 200 {
		return "healthy"
	}
	return fmt.Sprintf("degraded (%d)", resp.StatusCode)
}

// statusRecorder wraps ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE streams working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
