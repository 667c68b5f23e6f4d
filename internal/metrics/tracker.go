// Package metrics keeps Redis-backed operational counters per platform
// and exposes them to Prometheus.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
)

// Tracker implements Recorder on Redis.
type Tracker struct {
	client    redis.UniversalClient
	keys      *RedisKeys
	logger    logger.Logger
	platforms []domain.Platform
	prom      *PromMetrics
}

// NewTracker creates a metrics tracker. prom may be nil when Prometheus
// export is not wired (tests).
func NewTracker(client redis.UniversalClient, log logger.Logger, prom *PromMetrics) *Tracker {
	return &Tracker{
		client:    client,
		keys:      NewRedisKeys(KeyPrefixMetrics),
		logger:    log,
		platforms: domain.AllPlatforms,
		prom:      prom,
	}
}

func (t *Tracker) incrBy(ctx context.Context, key string, n int) error {
	ttl := MetricsTTLDays * HoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.IncrBy(ctx, key, int64(n))
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("Failed to increment counter",
			logger.String("redis_key", key),
			logger.Error(err),
		)
		return fmt.Errorf("increment counter %s: %w", key, err)
	}
	return nil
}

func (t *Tracker) IncrementScanned(ctx context.Context, platform string, n int) error {
	if t.prom != nil {
		t.prom.ItemsScanned.WithLabelValues(platform).Add(float64(n))
	}
	return t.incrBy(ctx, t.keys.Scanned(platform), n)
}

func (t *Tracker) IncrementApproved(ctx context.Context, platform string, n int) error {
	if t.prom != nil {
		t.prom.ItemsApproved.WithLabelValues(platform).Add(float64(n))
	}
	return t.incrBy(ctx, t.keys.Approved(platform), n)
}

func (t *Tracker) IncrementPosted(ctx context.Context, platform string) error {
	if t.prom != nil {
		t.prom.ItemsPosted.WithLabelValues(platform).Inc()
	}
	return t.incrBy(ctx, t.keys.Posted(platform), 1)
}

func (t *Tracker) IncrementErrors(ctx context.Context, platform string) error {
	if t.prom != nil {
		t.prom.Errors.WithLabelValues(platform).Inc()
	}
	return t.incrBy(ctx, t.keys.Errors(platform), 1)
}

// AddRecentPost adds a post to the recent posts list, trimmed to
// MaxRecentPosts.
func (t *Tracker) AddRecentPost(ctx context.Context, post RecentPost) error {
	data, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("marshal recent post: %w", err)
	}

	ttl := RecentPostsTTLDays * HoursPerDay * time.Hour

	pipe := t.client.Pipeline()
	pipe.LPush(ctx, KeyRecentPosts, data)
	pipe.LTrim(ctx, KeyRecentPosts, 0, MaxRecentPosts-1)
	pipe.Expire(ctx, KeyRecentPosts, ttl)

	if _, err = pipe.Exec(ctx); err != nil {
		t.logger.Warn("Failed to add recent post",
			logger.String("content_id", post.ContentID),
			logger.String("platform", post.Platform),
			logger.Error(err),
		)
		return fmt.Errorf("add recent post: %w", err)
	}
	return nil
}

// GetStats reads all counters in one pipeline.
func (t *Tracker) GetStats(ctx context.Context) (*Stats, error) {
	pipe := t.client.Pipeline()

	scannedCmds := make(map[domain.Platform]*redis.StringCmd)
	approvedCmds := make(map[domain.Platform]*redis.StringCmd)
	postedCmds := make(map[domain.Platform]*redis.StringCmd)
	errorCmds := make(map[domain.Platform]*redis.StringCmd)

	for _, p := range t.platforms {
		name := string(p)
		scannedCmds[p] = pipe.Get(ctx, t.keys.Scanned(name))
		approvedCmds[p] = pipe.Get(ctx, t.keys.Approved(name))
		postedCmds[p] = pipe.Get(ctx, t.keys.Posted(name))
		errorCmds[p] = pipe.Get(ctx, t.keys.Errors(name))
	}
	lastScanCmd := pipe.Get(ctx, KeyLastScan)

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("execute pipeline: %w", err)
	}

	stats := &Stats{
		Platforms: make([]PlatformStats, 0, len(t.platforms)),
	}

	for _, p := range t.platforms {
		ps := PlatformStats{Name: string(p)}

		// Missing keys read as zero.
		if v, err := scannedCmds[p].Int64(); err == nil {
			ps.Scanned = v
			stats.TotalScanned += v
		}
		if v, err := approvedCmds[p].Int64(); err == nil {
			ps.Approved = v
			stats.TotalApproved += v
		}
		if v, err := postedCmds[p].Int64(); err == nil {
			ps.Posted = v
			stats.TotalPosted += v
		}
		if v, err := errorCmds[p].Int64(); err == nil {
			ps.Errors = v
			stats.TotalErrors += v
		}
		stats.Platforms = append(stats.Platforms, ps)
	}

	if lastScanStr, err := lastScanCmd.Result(); err == nil && lastScanStr != "" {
		if lastScan, parseErr := time.Parse(time.RFC3339, lastScanStr); parseErr == nil {
			stats.LastScan = lastScan
		}
	}
	return stats, nil
}

// GetRecentPosts returns the most recently published items.
func (t *Tracker) GetRecentPosts(ctx context.Context, limit int) ([]RecentPost, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxRecentPosts {
		limit = MaxRecentPosts
	}

	results, err := t.client.LRange(ctx, KeyRecentPosts, 0, int64(limit-1)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []RecentPost{}, nil
		}
		return nil, fmt.Errorf("get recent posts: %w", err)
	}

	posts := make([]RecentPost, 0, len(results))
	for _, result := range results {
		var post RecentPost
		if unmarshalErr := json.Unmarshal([]byte(result), &post); unmarshalErr != nil {
			t.logger.Warn("Failed to unmarshal recent post",
				logger.Error(unmarshalErr),
			)
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// UpdateLastScan records the coordinated scan completion time. No
// expiration; the value is a watermark, not a counter.
func (t *Tracker) UpdateLastScan(ctx context.Context) error {
	now := time.Now().Format(time.RFC3339)
	if err := t.client.Set(ctx, KeyLastScan, now, 0).Err(); err != nil {
		t.logger.Warn("Failed to update last scan",
			logger.Error(err),
		)
		return fmt.Errorf("update last scan: %w", err)
	}
	return nil
}
