package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	customError "github.com/mfiops/collection-ledger/pkg/errors"
)

// pqUniqueViolation is the Postgres error code for unique constraint hits.
const pqUniqueViolation = "23505"

// LedgerCache is the slice of redis the services need. Snapshots are stored
// as JSON strings under ledger:{cycleNo}.
type LedgerCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// ErrCacheMiss is returned by LedgerCache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

type redisCache struct {
	client *redis.Client
}

// NewRedisCache wraps a redis client as a LedgerCache.
func NewRedisCache(client *redis.Client) LedgerCache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return value, err
}

func (c *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func ledgerCacheKey(cycleNo string) string {
	return "ledger:" + cycleNo
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// retryable reports whether an operation may be attempted again. Integrity
// conditions and bad input are permanent; only transient persistence
// failures qualify.
func retryable(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if errors.Is(err, customError.ErrConflict) ||
		errors.Is(err, customError.ErrState) ||
		errors.Is(err, customError.ErrNotFound) ||
		errors.Is(err, customError.ErrValidation) {
		return false
	}
	if isUniqueViolation(err) {
		return false
	}
	return true
}

// withRetry runs fn under the configured deadline, retrying transient
// failures up to attempts times with a fixed backoff. A deadline expiry
// surfaces as a typed timeout error.
func withRetry(ctx context.Context, op string, timeout time.Duration, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		err = fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return customError.WrapTimeout(op, err)
		}
		if !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return customError.WrapTimeout(op, ctx.Err())
		}
	}
	return err
}
