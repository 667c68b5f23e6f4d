package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
)

// keyCoordinatedScan is the single-flight token for the whole
// coordinated run; keyPlatformScanFmt guards one platform.
const (
	keyCoordinatedScan = "scan:coordinated:inflight"
	keyPlatformScanFmt = "scan:platform:%s:inflight"
)

// guardTTL bounds how long an abandoned token can block new scans when a
// process dies without releasing it.
const guardTTL = 10 * time.Minute

// releaseScript deletes the token only if it still carries our value, so
// a run that outlived the TTL cannot release a newer holder's token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Guard implements the single-flight rule on Redis SET NX.
type Guard struct {
	client redis.UniversalClient
}

func NewGuard(client redis.UniversalClient) *Guard {
	return &Guard{client: client}
}

// Acquire takes the coordinated-scan token. It returns a release
// function on success and domain.ErrScanInProgress when another run
// holds the token.
func (g *Guard) Acquire(ctx context.Context) (func(), error) {
	return g.acquire(ctx, keyCoordinatedScan)
}

// AcquirePlatform takes the per-platform token used by single-platform
// scans so two scans of the same platform cannot overlap.
func (g *Guard) AcquirePlatform(ctx context.Context, p domain.Platform) (func(), error) {
	return g.acquire(ctx, fmt.Sprintf(keyPlatformScanFmt, p))
}

func (g *Guard) acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, key, token, guardTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire scan token: %w", err)
	}
	if !ok {
		return nil, domain.ErrScanInProgress
	}

	release := func() {
		// Release runs during cleanup; don't let a cancelled request
		// context leave the token behind.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		releaseScript.Run(releaseCtx, g.client, []string{key}, token)
	}
	return release, nil
}
