// Package cache provides the Redis-backed response cache for data fetched
// from the remote API. The cache is strictly an accelerator: when Redis is
// unconfigured or unreachable the application runs without it and every
// lookup is a miss.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"inkwell/internal/middleware"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			middleware.RedisErrors.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// InitRedis initializes the Redis client with the given address. An empty
// address disables the cache outright.
func InitRedis(addr string) {
	if addr == "" {
		client = nil
		return
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			log.Printf("Redis connection warning: invalid REDIS_URL %q: %v (continuing without cache)", addr, err)
			client = nil
			return
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client = redis.NewClient(opts)
	client.AddHook(metricsHook{})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without cache)", err)
		client = nil
	} else {
		log.Println("Redis connected successfully")
	}
}

// GetClient returns the current Redis client instance, or nil when the
// cache is disabled.
func GetClient() *redis.Client {
	return client
}

// SetClient replaces the client; tests point it at miniredis.
func SetClient(c *redis.Client) {
	client = c
}

// GetJSON loads key into out. Returns false on a miss, a disabled cache, or
// an undecodable entry (which is deleted so the next write repairs it).
func GetJSON(ctx context.Context, key string, out any) bool {
	if client == nil {
		return false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		client.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores value under key with the given TTL. Failures are silent;
// the cache never blocks the data path.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// Invalidate removes a key.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}
