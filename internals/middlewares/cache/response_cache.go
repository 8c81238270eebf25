// Package cache keeps GET responses in Redis for a short TTL.
package cache

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"techfest_backend/internals/logging"
)

const (
	HeaderCache = "X-Cache"
	keyRoot     = "cache:"

	redisTimeout = 200 * time.Millisecond
)

type cachedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// Key is cache:<namespace>:<sha1(method|path|query)>.
func Key(namespace string, c *fiber.Ctx) string {
	sum := sha1.Sum([]byte(c.Method() + "|" + c.Path() + "|" + string(c.Request().URI().QueryString())))
	return keyRoot + namespace + ":" + hex.EncodeToString(sum[:])
}

// ResponseCache serves GET requests from Redis and stores 2xx responses.
// Redis errors fall through to the handler.
func ResponseCache(rdb redis.UniversalClient, namespace string, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil || ttl <= 0 || c.Method() != fiber.MethodGet {
			return c.Next()
		}
		key := Key(namespace, c)
		readCtx, cancelRead := context.WithTimeout(c.UserContext(), redisTimeout)
		defer cancelRead()

		if b, err := rdb.Get(readCtx, key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedResponse
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				c.Set(HeaderCache, "HIT")
				if hit.ContentType != "" {
					c.Set(fiber.HeaderContentType, hit.ContentType)
				}
				return c.Status(hit.Status).Send(hit.Body)
			}
		} else if err != nil && err != redis.Nil {
			logging.From(c).Warn().Err(err).Str("key", key).Msg("response cache read failed")
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			return nil
		}
		item := cachedResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(item); err == nil {
			writeCtx, cancelWrite := context.WithTimeout(context.Background(), redisTimeout)
			defer cancelWrite()
			if err := rdb.Set(writeCtx, key, buf.Bytes(), ttl).Err(); err != nil {
				logging.From(c).Warn().Err(err).Str("key", key).Msg("response cache write failed")
			}
		}
		c.Set(HeaderCache, "MISS")
		return nil
	}
}

// Purge deletes every cached response under namespace.
func Purge(ctx context.Context, rdb redis.UniversalClient, namespace string) (int, error) {
	if rdb == nil {
		return 0, nil
	}
	n := 0
	iter := rdb.Scan(ctx, 0, keyRoot+namespace+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return n, err
		}
		n++
	}
	return n, iter.Err()
}
