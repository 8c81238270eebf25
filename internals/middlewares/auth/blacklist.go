package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist keeps revoked tokens in Redis until they would have expired anyway.
type Blacklist struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewBlacklist(rdb redis.UniversalClient, prefix string) *Blacklist {
	if prefix == "" {
		prefix = "auth:revoked:"
	}
	return &Blacklist{rdb: rdb, prefix: prefix}
}

func (b *Blacklist) Revoke(ctx context.Context, raw string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, b.prefix+Fingerprint(raw), 1, ttl).Err()
}

func (b *Blacklist) IsRevoked(ctx context.Context, raw string) (bool, error) {
	err := b.rdb.Get(ctx, b.prefix+Fingerprint(raw)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return err == nil, err
}

// Checker adapts IsRevoked to AuthJWTOpts.BlacklistChecker.
func (b *Blacklist) Checker() func(string) (bool, error) {
	return func(raw string) (bool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		return b.IsRevoked(ctx, raw)
	}
}
