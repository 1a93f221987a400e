package ledgerview

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// GenerationSource hands out the cache generation. Bumping it invalidates
// every View reading from the same source.
type GenerationSource interface {
	Current(ctx context.Context) (uint64, error)
	Bump(ctx context.Context) (uint64, error)
}

// LocalGeneration is an in-process generation counter.
type LocalGeneration struct {
	n atomic.Uint64
}

// Current implements GenerationSource.
func (g *LocalGeneration) Current(context.Context) (uint64, error) {
	return g.n.Load(), nil
}

// Bump implements GenerationSource.
func (g *LocalGeneration) Bump(context.Context) (uint64, error) {
	return g.n.Add(1), nil
}

// RedisCounter is the subset of a go-redis client used for generations.
type RedisCounter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Compile-time check that *redis.Client satisfies RedisCounter.
var _ RedisCounter = (*redis.Client)(nil)

// DefaultRedisKey is the key holding the shared ledger generation.
const DefaultRedisKey = "squashledger:ledger:generation"

// RedisGeneration shares the generation between server processes through a
// Redis counter, so a mutation in one process invalidates the others.
type RedisGeneration struct {
	client RedisCounter
	key    string
}

// NewRedisGeneration creates a Redis-backed generation source.
// PRE: client is non-nil
// POST: Returns a source keyed by key (DefaultRedisKey when empty)
func NewRedisGeneration(client RedisCounter, key string) *RedisGeneration {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisGeneration{client: client, key: key}
}

// Current implements GenerationSource. A missing key is generation 0.
func (g *RedisGeneration) Current(ctx context.Context) (uint64, error) {
	n, err := g.client.Get(ctx, g.key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Bump implements GenerationSource.
func (g *RedisGeneration) Bump(ctx context.Context) (uint64, error) {
	n, err := g.client.Incr(ctx, g.key).Result()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}
