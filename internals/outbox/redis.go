package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisQueue stores entries in a list: LPUSH on the left, RPOP on the right.
type RedisQueue struct {
	rdb  *redis.Client
	key  string
	dead string
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key, dead: key + ":dead"}
}

func (q *RedisQueue) Push(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.key, raw).Err()
}

func (q *RedisQueue) Pop(ctx context.Context) (*Entry, error) {
	raw, err := q.rdb.RPop(ctx, q.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// unreadable entries go straight to the dead list
		_ = q.rdb.LPush(ctx, q.dead, raw).Err()
		return nil, fmt.Errorf("decode outbox entry: %w", err)
	}
	return &e, nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

func (q *RedisQueue) DeadLetter(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.dead, raw).Err()
}

func (q *RedisQueue) DeadLen(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.dead).Result()
}

// Close leaves the shared client open; main owns it.
func (q *RedisQueue) Close() error { return nil }
