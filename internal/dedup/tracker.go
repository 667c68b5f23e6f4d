// Package dedup tracks content hashes already ingested so repeat scans
// do not re-insert the same material.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
)

// scanBatchSize is the batch size for Redis SCAN operations.
const scanBatchSize = 100

type Tracker struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger logger.Logger
}

func NewTracker(client redis.UniversalClient, ttl time.Duration, log logger.Logger) *Tracker {
	return &Tracker{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (t *Tracker) key(p domain.Platform, contentHash string) string {
	return fmt.Sprintf("dedup:content:%s:%s", p, contentHash)
}

// Seen reports whether a content hash was already ingested from the
// platform. Redis errors degrade to "not seen"; the database unique
// constraint on content_hash is the backstop.
func (t *Tracker) Seen(ctx context.Context, p domain.Platform, contentHash string) bool {
	key := t.key(p, contentHash)

	exists, err := t.client.Exists(ctx, key).Result()
	if err != nil {
		t.logger.Error("Redis error checking content hash",
			logger.String("platform", string(p)),
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return false
	}
	return exists == 1
}

// MarkSeen records a content hash with the configured TTL.
func (t *Tracker) MarkSeen(ctx context.Context, p domain.Platform, contentHash string) error {
	key := t.key(p, contentHash)

	if err := t.client.Set(ctx, key, "1", t.ttl).Err(); err != nil {
		t.logger.Error("Redis error marking content hash",
			logger.String("platform", string(p)),
			logger.String("redis_key", key),
			logger.Duration("ttl", t.ttl),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// Clear removes a single content hash from the cache.
func (t *Tracker) Clear(ctx context.Context, p domain.Platform, contentHash string) error {
	key := t.key(p, contentHash)

	if err := t.client.Del(ctx, key).Err(); err != nil {
		t.logger.Error("Redis error clearing content hash",
			logger.String("platform", string(p)),
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return err
	}
	return nil
}

// FlushAll removes every dedup key. Uses SCAN rather than FLUSHDB so
// coordination and metrics keys in the same database survive.
func (t *Tracker) FlushAll(ctx context.Context) error {
	pattern := "dedup:content:*"
	var cursor uint64
	var deletedCount int

	for {
		keys, next, err := t.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			t.logger.Error("Redis error scanning for keys",
				logger.String("pattern", pattern),
				logger.Error(err),
			)
			return fmt.Errorf("scan keys: %w", err)
		}
		cursor = next

		if len(keys) > 0 {
			deleted, delErr := t.client.Del(ctx, keys...).Result()
			if delErr != nil {
				return fmt.Errorf("delete keys: %w", delErr)
			}
			deletedCount += int(deleted)
		}

		if cursor == 0 {
			break
		}
	}

	t.logger.Info("Flushed dedup cache",
		logger.Int("keys_deleted", deletedCount),
		logger.String("pattern", pattern),
	)
	return nil
}
