package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript runs the fixed-window rule atomically.
// KEYS[1] = window key, ARGV[1] = max, ARGV[2] = window in milliseconds.
var takeScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current and tonumber(current) >= tonumber(ARGV[1]) then
	return 0
end
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 1
`)

// RedisStore shares windows between proxy processes through Redis.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	timeout   time.Duration
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string        // Redis connection URL (e.g., "redis://localhost:6379")
	KeyPrefix string        // Prefix for all keys (default: "tlproxy:rl:")
	Timeout   time.Duration // Budget per Take (default: 500ms)
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisStoreFromClient(client, cfg.KeyPrefix, cfg.Timeout), nil
}

// NewRedisStoreFromClient creates a RedisStore from an existing Redis client.
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string, timeout time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "tlproxy:rl:"
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		timeout:   timeout,
	}
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, key string, max int, window time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := takeScript.Run(ctx, s.client, []string{s.key(key)}, max, window.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// key hashes the client identity so addresses never appear in Redis.
func (s *RedisStore) key(client string) string {
	sum := sha256.Sum256([]byte(client))
	return s.keyPrefix + hex.EncodeToString(sum[:])
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
