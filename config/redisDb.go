package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	rdb *redis.Client
)

func GetRedisDB() *redis.Client {
	return rdb
}

// ConnectRedis dials Redis when REDIS_ADDRESS is set. Redis is optional here:
// it only backs the HTTP rate limiter, so a missing address is not an error.
func ConnectRedis() {
	address := strings.TrimSpace(os.Getenv("REDIS_ADDRESS"))
	if address == "" {
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr: address,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("redis unavailable at %s: %v; rate limiting disabled", address, err)
		return
	}

	rdb = client
}
