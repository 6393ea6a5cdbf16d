package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// balanceChannel carries balance updates published by the account
// service on settlements, purchases and profile changes.
const balanceChannel = "blackjack:balance"

type balanceEvent struct {
	PlayerID string `json:"playerId"`
	Balance  int64  `json:"balance"`
}

// subscribeBalances feeds account balance updates into live sessions.
// A round only accepts the update while betting, so an in-progress
// round's balance view is never clobbered by a stale external value.
func subscribeBalances(registry *Registry, redisAddr string) {
	var rdb *redis.Client
	for i := 0; i < 10; i++ {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			log.Printf("[game] Redis connected at %s", redisAddr)
			break
		}
		log.Printf("[game] Redis not ready (%d/10), retrying...", i+1)
		rdb.Close()
		rdb = nil
		time.Sleep(2 * time.Second)
	}
	if rdb == nil {
		log.Printf("[game] Redis unavailable — balance updates arrive only on session refresh")
		return
	}
	defer rdb.Close()

	sub := rdb.Subscribe(context.Background(), balanceChannel)
	defer sub.Close()
	log.Printf("[game] subscribed to Redis channel %s", balanceChannel)

	for msg := range sub.Channel() {
		var evt balanceEvent
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			log.Printf("[game] balance event parse error: %v", err)
			continue
		}
		if session, ok := registry.Get(evt.PlayerID); ok {
			session.SyncBalance(evt.Balance)
		}
	}
}
