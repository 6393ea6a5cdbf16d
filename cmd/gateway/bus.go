package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// balanceChannel is the Redis channel the account service publishes
// balance updates on.
const balanceChannel = "blackjack:balance"

// BalanceEvent is a balance/stat change fanned out to SSE clients.
type BalanceEvent struct {
	PlayerID    string `json:"playerId"`
	Balance     int64  `json:"balance"`
	GamesWon    int    `json:"gamesWon"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// BalanceBus fans out balance events to all connected clients.
type BalanceBus struct {
	mu      sync.RWMutex
	clients map[chan BalanceEvent]struct{}
}

func NewBalanceBus() *BalanceBus {
	return &BalanceBus{clients: make(map[chan BalanceEvent]struct{})}
}

func (b *BalanceBus) Subscribe() chan BalanceEvent {
	ch := make(chan BalanceEvent, 32)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *BalanceBus) Unsubscribe(ch chan BalanceEvent) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

func (b *BalanceBus) Publish(evt BalanceEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- evt:
		default:
			// slow client — drop rather than block
		}
	}
}

// SSEHandler streams balance events to a client until it disconnects.
func (b *BalanceBus) SSEHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	fmt.Fprintf(w, "event: connected\ndata: {\"service\":\"gateway\"}\n\n")
	flusher.Flush()

	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			data, _ := json.Marshal(evt)
			fmt.Fprintf(w, "event: balance\ndata: %s\n\n", data)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// SubscribeRedis feeds balance updates from Redis into the local bus so
// SSE clients see them.
func (b *BalanceBus) SubscribeRedis(redisAddr string) {
	var rdb *redis.Client
	for i := 0; i < 10; i++ {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			log.Printf("[gateway] Redis connected at %s", redisAddr)
			break
		}
		log.Printf("[gateway] Redis not ready (%d/10), retrying...", i+1)
		rdb.Close()
		rdb = nil
		time.Sleep(2 * time.Second)
	}
	if rdb == nil {
		log.Printf("[gateway] Redis unavailable — balance events will not stream")
		return
	}
	defer rdb.Close()

	sub := rdb.Subscribe(context.Background(), balanceChannel)
	defer sub.Close()
	log.Printf("[gateway] subscribed to Redis channel %s", balanceChannel)

	for msg := range sub.Channel() {
		var evt BalanceEvent
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			log.Printf("[gateway] balance event parse error: %v", err)
			continue
		}
		b.Publish(evt)
	}
}
