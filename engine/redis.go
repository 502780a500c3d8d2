package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis key layout, under a configurable prefix (default "sr"):
//
//	<prefix>:k:<key>    primary value
//	<prefix>:p:<key>    group pointer (which group the key is indexed under)
//	<prefix>:g:<group>  SET of keys indexed under the group
//
// Group set keys are derived inside the Lua scripts from the pointer value,
// so all keys touched by one script must hash to one slot; use hash tags in
// the prefix when running against Redis Cluster.

const putIndexedScript = `
local prev = redis.call("GET", KEYS[2])
if prev and prev ~= ARGV[3] then
  redis.call("SREM", ARGV[4] .. prev, ARGV[1])
end
redis.call("SET", KEYS[1], ARGV[2])
redis.call("SET", KEYS[2], ARGV[3])
redis.call("SADD", ARGV[4] .. ARGV[3], ARGV[1])
return 1
`

var putIndexedLua = redis.NewScript(putIndexedScript)

const deleteIndexedScript = `
local grp = redis.call("GET", KEYS[2])
if grp then
  redis.call("SREM", ARGV[2] .. grp, ARGV[1])
end
redis.call("DEL", KEYS[2])
return redis.call("DEL", KEYS[1])
`

var deleteIndexedLua = redis.NewScript(deleteIndexedScript)

const compareAndSwapScript = `
local cur = redis.call("GET", KEYS[1])
if not cur or cur ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2])
return 1
`

var compareAndSwapLua = redis.NewScript(compareAndSwapScript)

// RedisConfig configures the Redis engine (the engineOptions surface).
type RedisConfig struct {
	// Prefix namespaces every key this engine writes. Default "sr".
	Prefix string
}

// Redis is a go-redis backed engine. PutIndexed, DeleteIndexed, and
// CompareAndSwap run as Lua scripts so the primary entry and its index
// membership stay atomic with respect to readers.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis engine over the given client. The client is
// caller-owned; Close does not close it.
func NewRedis(client redis.UniversalClient, cfg RedisConfig) *Redis {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "sr"
	}
	return &Redis{redis: client, prefix: prefix}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":k:" + key
}

func (r *Redis) pointerKey(key string) string {
	return r.prefix + ":p:" + key
}

func (r *Redis) groupPrefix() string {
	return r.prefix + ":g:"
}

func (r *Redis) groupKey(group string) string {
	return r.groupPrefix() + group
}

// Put upserts the primary value without touching the index.
func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	if err := r.redis.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get fetches the primary value.
//
//	Performance: 1 Redis GET.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.redis.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

// Delete removes the primary entry only. Idempotent.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// PutIndexed upserts the value and (re)indexes the key under group in one
// atomic script, migrating membership when the group changed.
//
//	Performance: 1 Lua EVALSHA.
func (r *Redis) PutIndexed(ctx context.Context, key string, value []byte, group string) error {
	err := putIndexedLua.Run(
		ctx,
		r.redis,
		[]string{r.key(key), r.pointerKey(key)},
		key,
		value,
		group,
		r.groupPrefix(),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetGroup reads the group's membership set and pipelines the value fetches.
// Members whose primary entry disappeared (plain Delete, manual expiry) are
// skipped and lazily removed from the set.
func (r *Redis) GetGroup(ctx context.Context, group string) (map[string][]byte, error) {
	members, err := r.redis.SMembers(ctx, r.groupKey(group)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string][]byte{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(members) == 0 {
		return map[string][]byte{}, nil
	}

	pipe := r.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(members))
	for i, member := range members {
		cmds[i] = pipe.Get(ctx, r.key(member))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out := make(map[string][]byte, len(members))
	var stale []interface{}
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				stale = append(stale, members[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, cmdErr)
		}
		out[members[i]] = data
	}

	if len(stale) > 0 {
		// Best effort; a failed heal only leaves members for the next pass.
		_ = r.redis.SRem(ctx, r.groupKey(group), stale...).Err()
	}

	return out, nil
}

// DeleteIndexed removes the primary entry, its group pointer, and its index
// membership in one atomic script. Idempotent.
//
//	Performance: 1 Lua EVALSHA.
func (r *Redis) DeleteIndexed(ctx context.Context, key string) error {
	err := deleteIndexedLua.Run(
		ctx,
		r.redis,
		[]string{r.key(key), r.pointerKey(key)},
		key,
		r.groupPrefix(),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// CompareAndSwap replaces the value only when it still equals expected.
//
//	Performance: 1 Lua EVALSHA (atomic compare-and-swap).
func (r *Redis) CompareAndSwap(ctx context.Context, key string, expected, next []byte) (bool, error) {
	swapped, err := compareAndSwapLua.Run(
		ctx,
		r.redis,
		[]string{r.key(key)},
		expected,
		next,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return swapped == 1, nil
}

// Close is a no-op: the Redis client is owned by whoever constructed it.
func (r *Redis) Close() error {
	return nil
}

// Ping returns a point-in-time backend availability check.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

var (
	_ Engine  = (*Redis)(nil)
	_ Swapper = (*Redis)(nil)
)
