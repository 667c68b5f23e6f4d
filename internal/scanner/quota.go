package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
)

// quotaKeyFmt is scan:quota:<platform>:<date>; counters roll over with
// the calendar day and expire after two days.
const (
	quotaKeyFmt = "scan:quota:%s:%s"
	quotaTTL    = 48 * time.Hour
)

// QuotaTracker keeps the shared per-platform daily request budget in
// Redis. Every scanner instance reads the counter before scanning and
// records consumption after, so concurrent deployments share one budget.
type QuotaTracker struct {
	client     redis.UniversalClient
	dailyQuota int
	now        func() time.Time
}

func NewQuotaTracker(client redis.UniversalClient, dailyQuota int) *QuotaTracker {
	return &QuotaTracker{
		client:     client,
		dailyQuota: dailyQuota,
		now:        time.Now,
	}
}

func (q *QuotaTracker) key(p domain.Platform) string {
	return fmt.Sprintf(quotaKeyFmt, p, q.now().Format(domain.DateFormat))
}

// Remaining returns how much of today's budget is left for the platform.
func (q *QuotaTracker) Remaining(ctx context.Context, p domain.Platform) (int, error) {
	used, err := q.client.Get(ctx, q.key(p)).Int()
	if err == redis.Nil {
		return q.dailyQuota, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read scan quota: %w", err)
	}
	remaining := q.dailyQuota - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Consume records n items against today's budget.
func (q *QuotaTracker) Consume(ctx context.Context, p domain.Platform, n int) error {
	if n <= 0 {
		return nil
	}
	key := q.key(p)

	pipe := q.client.Pipeline()
	pipe.IncrBy(ctx, key, int64(n))
	pipe.Expire(ctx, key, quotaTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("consume scan quota: %w", err)
	}
	return nil
}
