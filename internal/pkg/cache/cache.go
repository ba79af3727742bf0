package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/DealerHub/internal/pkg/env"
)

const pingTimeout = 3 * time.Second

// NewClient creates the Redis client used for activation outcomes. It returns
// nil when no cache host is configured. An unreachable cache is logged and
// tolerated; writes to it fail independently of webhook processing.
func NewClient(cfg *env.Config) *goredis.Client {
	if !cfg.CacheEnabled() {
		log.Info("[Cache] No CACHE_HOST configured, cache disabled")
		return nil
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.CacheAddr(),
		Password: cfg.CachePassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Warnf("[Cache] Could not connect to cache at %s: %v", cfg.CacheAddr(), err)
	} else {
		log.Infof("[Cache] Successfully connected to cache: %s", pong)
	}
	return client
}

// NewLimiterStorage returns a Redis backed fiber storage for the webhook rate
// limiter, using database 1 (outcomes use DB 0). It returns nil, meaning
// fiber's in-memory storage, when no cache is configured or it is unreachable.
func NewLimiterStorage(cfg *env.Config) (storage fiber.Storage) {
	if !cfg.CacheEnabled() {
		return nil
	}
	port, err := strconv.Atoi(cfg.CachePort)
	if err != nil {
		log.Warnf("[Cache] Invalid CACHE_PORT %q, using in-memory limiter storage", cfg.CachePort)
		return nil
	}

	// redis.New panics when the first ping fails
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("[Cache] Limiter storage unavailable, using in-memory storage: %v", r)
			storage = nil
		}
	}()
	return redis.New(redis.Config{
		Host:     cfg.CacheHost,
		Port:     port,
		Password: cfg.CachePassword,
		Database: 1,
		Reset:    false,
	})
}
