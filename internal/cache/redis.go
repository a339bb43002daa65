package cache

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Client backs the market and fear-greed caches shared by the HTTP server
// and the SSH frontend.
var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects using REDIS_URL, which accepts either a bare
// host:port or a redis:// / rediss:// URL. Market reads hit the cache
// before the store, so an unreachable cache is fatal at startup rather
// than a degraded mode discovered on the first request.
func InitRedis(ctx context.Context) {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}

	opts, err := clientOptions(addr)
	if err != nil {
		log.Fatalf("failed to parse REDIS_URL: %v", err)
	}

	Client = newRedisClient(opts)
	if err := pingRedis(ctx, Client); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
}

func clientOptions(addr string) (*redis.Options, error) {
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		return parseRedisURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}
