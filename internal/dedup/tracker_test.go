package dedup_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/dedup"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
)

func newTestTracker(t *testing.T) (*dedup.Tracker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return dedup.NewTracker(client, time.Hour, logger.NewNopLogger()), mr
}

func TestTracker_SeenAndMarkSeen(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	if tracker.Seen(ctx, domain.PlatformReddit, "hash-1") {
		t.Error("Seen() = true before MarkSeen")
	}

	if err := tracker.MarkSeen(ctx, domain.PlatformReddit, "hash-1"); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}

	if !tracker.Seen(ctx, domain.PlatformReddit, "hash-1") {
		t.Error("Seen() = false after MarkSeen")
	}

	// The same hash from a different platform is a different key.
	if tracker.Seen(ctx, domain.PlatformGiphy, "hash-1") {
		t.Error("Seen() leaked across platforms")
	}
}

func TestTracker_TTLExpiry(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	if err := tracker.MarkSeen(ctx, domain.PlatformPixabay, "hash-2"); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}

	mr.FastForward(2 * time.Hour)

	if tracker.Seen(ctx, domain.PlatformPixabay, "hash-2") {
		t.Error("Seen() = true after TTL expiry")
	}
}

func TestTracker_FlushAll(t *testing.T) {
	tracker, mr := newTestTracker(t)
	ctx := context.Background()

	for _, hash := range []string{"a", "b", "c"} {
		if err := tracker.MarkSeen(ctx, domain.PlatformReddit, hash); err != nil {
			t.Fatalf("MarkSeen(%s) error = %v", hash, err)
		}
	}
	mr.Set("scan:quota:reddit", "5")

	if err := tracker.FlushAll(ctx); err != nil {
		t.Fatalf("FlushAll() error = %v", err)
	}

	if tracker.Seen(ctx, domain.PlatformReddit, "a") {
		t.Error("FlushAll() left a dedup key behind")
	}
	if !mr.Exists("scan:quota:reddit") {
		t.Error("FlushAll() deleted a non-dedup key")
	}
}
