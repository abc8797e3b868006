package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key written by RedisStore.
const DefaultRedisPrefix = "it"

const scanBatch = 1000

// KEYS[1] token key, KEYS[2] user index. ARGV[1] blob, ARGV[2] token value, ARGV[3] ttl ms.
const issueTokenScript = `
local ok = redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[3])
if not ok then
  return 0
end
redis.call("SADD", KEYS[2], ARGV[2])
local ttl = tonumber(ARGV[3])
if redis.call("PTTL", KEYS[2]) < ttl then
  redis.call("PEXPIRE", KEYS[2], ttl)
end
return 1
`

// KEYS[1] token key, KEYS[2] user index. ARGV[1] token value.
const deleteTokenScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return existed
`

// KEYS[1] user index, KEYS[2..n] token keys. ARGV[1..n-1] token values.
const revokeUserScript = `
local removed = 0
for i = 2, #KEYS do
  removed = removed + redis.call("DEL", KEYS[i])
  redis.call("SREM", KEYS[1], ARGV[i - 1])
end
return removed
`

var (
	issueTokenLua  = redis.NewScript(issueTokenScript)
	deleteTokenLua = redis.NewScript(deleteTokenScript)
	revokeUserLua  = redis.NewScript(revokeUserScript)
)

// RedisStore is a Store backed by Redis. Each token is a key holding an
// encoded record with a Redis TTL equal to the token TTL; a per-user set
// indexes token values for RevokeUser.
//
// Keys:
//
//	<prefix>:t:<value>     encoded token record
//	<prefix>:u:<username>  set of token values
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	opts   Options
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a store using client. An empty prefix selects DefaultRedisPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string, opts Options) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("session: redis client is nil")
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.TTL < time.Millisecond {
		return nil, fmt.Errorf("session: redis ttl must be >= 1ms, got %s", opts.TTL)
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{redis: client, prefix: prefix, opts: opts}, nil
}

func (s *RedisStore) tokenKey(value string) string {
	return s.prefix + ":t:" + value
}

func (s *RedisStore) userKey(username string) string {
	return s.prefix + ":u:" + username
}

func (s *RedisStore) Issue(ctx context.Context, username string) (Token, error) {
	tok, err := s.opts.newToken(username)
	if err != nil {
		return Token{}, err
	}
	data, err := Encode(tok)
	if err != nil {
		return Token{}, err
	}

	created, err := issueTokenLua.Run(ctx, s.redis,
		[]string{s.tokenKey(tok.Value), s.userKey(username)},
		data, tok.Value, s.opts.TTL.Milliseconds(),
	).Int()
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if created == 0 {
		return Token{}, ErrTokenCollision
	}
	return tok, nil
}

func (s *RedisStore) Validate(ctx context.Context, value string) (Token, error) {
	tok, err := s.load(ctx, value)
	if err != nil {
		return Token{}, err
	}
	if !Live(tok, s.opts.Now()) {
		if _, err := s.delete(ctx, tok); err != nil {
			return Token{}, err
		}
		return Token{}, ErrTokenExpired
	}
	return tok, nil
}

func (s *RedisStore) Revoke(ctx context.Context, value string) (bool, error) {
	tok, err := s.load(ctx, value)
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return false, nil
	case errors.Is(err, ErrTokenCorrupt):
		n, delErr := s.redis.Del(ctx, s.tokenKey(value)).Result()
		if delErr != nil {
			return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, delErr)
		}
		return n == 1, nil
	case err != nil:
		return false, err
	}
	return s.delete(ctx, tok)
}

// RevokeUser deletes the tokens indexed for username. A token issued while
// the call is in flight may survive it.
func (s *RedisStore) RevokeUser(ctx context.Context, username string) (int, error) {
	userKey := s.userKey(username)
	values, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(values) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(values)+1)
	args := make([]interface{}, 0, len(values))
	keys = append(keys, userKey)
	for _, v := range values {
		keys = append(keys, s.tokenKey(v))
		args = append(args, v)
	}

	removed, err := revokeUserLua.Run(ctx, s.redis, keys, args...).Int()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return removed, nil
}

// Sweep scans every token key and deletes the expired ones. It is O(n) in
// stored tokens and meant for background use, not request paths. Corrupt
// records are deleted and counted as well.
func (s *RedisStore) Sweep(ctx context.Context) (int, error) {
	now := s.opts.Now()
	removed := 0
	err := s.scan(ctx, func(keys []string) error {
		pipe := s.redis.Pipeline()
		cmds := make([]*redis.StringCmd, len(keys))
		for i, k := range keys {
			cmds[i] = pipe.Get(ctx, k)
		}
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		for i, cmd := range cmds {
			data, err := cmd.Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
			value := strings.TrimPrefix(keys[i], s.tokenKey(""))
			tok, err := Decode(data)
			if err != nil {
				n, delErr := s.redis.Del(ctx, keys[i]).Result()
				if delErr != nil {
					return fmt.Errorf("%w: %v", ErrRedisUnavailable, delErr)
				}
				removed += int(n)
				continue
			}
			tok.Value = value
			if Live(tok, now) {
				continue
			}
			ok, err := s.delete(ctx, tok)
			if err != nil {
				return err
			}
			if ok {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// Len counts token keys with SCAN. It is O(n) in stored tokens.
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	total := 0
	err := s.scan(ctx, func(keys []string) error {
		total += len(keys)
		return nil
	})
	return total, err
}

// Ping checks Redis availability and returns the round-trip latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func (s *RedisStore) load(ctx context.Context, value string) (Token, error) {
	data, err := s.redis.Get(ctx, s.tokenKey(value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Token{}, ErrTokenNotFound
		}
		return Token{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	tok, err := Decode(data)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrTokenCorrupt, err)
	}
	tok.Value = value
	return tok, nil
}

func (s *RedisStore) delete(ctx context.Context, tok Token) (bool, error) {
	existed, err := deleteTokenLua.Run(ctx, s.redis,
		[]string{s.tokenKey(tok.Value), s.userKey(tok.Username)},
		tok.Value,
	).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return existed == 1, nil
}

func (s *RedisStore) scan(ctx context.Context, fn func(keys []string) error) error {
	pattern := s.tokenKey("*")
	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
