package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldValue = "value"
	fieldStale = "stale"
	fieldGen   = "gen"

	// DefaultTTL bounds how long an entry may live without being rewritten
	DefaultTTL = 30 * time.Minute
)

// setScript writes the value, clears the stale flag and bumps the generation.
// ARGV[3] is the expected generation; empty means write unconditionally.
var setScript = redis.NewScript(`
if ARGV[3] ~= "" then
	local gen = redis.call("HGET", KEYS[1], "gen") or "0"
	if gen ~= ARGV[3] then
		return 0
	end
end
redis.call("HSET", KEYS[1], "value", ARGV[1], "stale", "0")
redis.call("HINCRBY", KEYS[1], "gen", 1)
redis.call("PEXPIRE", KEYS[1], ARGV[2])
return 1
`)

// invalidateScript bumps the generation and flags an existing value as stale.
// A missing key is left holding only its generation so late writers still lose.
var invalidateScript = redis.NewScript(`
redis.call("HINCRBY", KEYS[1], "gen", 1)
if redis.call("HEXISTS", KEYS[1], "value") == 1 then
	redis.call("HSET", KEYS[1], "stale", "1")
end
if redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return 1
`)

// RedisStore is a Store shared across API instances. Each key is a hash holding
// the encoded value, its stale flag and its generation.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. Keys are namespaced with prefix.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) redisKey(key Key) string {
	return s.prefix + key.String()
}

func (s *RedisStore) ttlMillis() string {
	return strconv.FormatInt(s.ttl.Milliseconds(), 10)
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	values, err := s.client.HMGet(ctx, s.redisKey(key), fieldValue, fieldStale, fieldGen).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}

	var gen uint64
	if raw, ok := values[2].(string); ok {
		gen, _ = strconv.ParseUint(raw, 10, 64)
	}
	raw, ok := values[0].(string)
	if !ok {
		return Entry{Generation: gen}, false, nil
	}
	stale, _ := values[1].(string)
	return Entry{Value: []byte(raw), Stale: stale == "1", Generation: gen}, true, nil
}

// Set implements Store
func (s *RedisStore) Set(ctx context.Context, key Key, value []byte) error {
	return setScript.Run(ctx, s.client, []string{s.redisKey(key)}, value, s.ttlMillis(), "").Err()
}

// SetIfGeneration implements Store
func (s *RedisStore) SetIfGeneration(ctx context.Context, key Key, value []byte, gen uint64) (bool, error) {
	written, err := setScript.Run(ctx, s.client, []string{s.redisKey(key)},
		value, s.ttlMillis(), strconv.FormatUint(gen, 10)).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

// Invalidate implements Store
func (s *RedisStore) Invalidate(ctx context.Context, key Key) error {
	return invalidateScript.Run(ctx, s.client, []string{s.redisKey(key)}, s.ttlMillis()).Err()
}
