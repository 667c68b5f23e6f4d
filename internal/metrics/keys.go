package metrics

import "fmt"

const (
	// KeyPrefixMetrics is the prefix for all metrics keys.
	KeyPrefixMetrics = "metrics"
	// KeyPrefixScanned is the prefix for scanned-item counters.
	KeyPrefixScanned = "scanned"
	// KeyPrefixApproved is the prefix for approved-item counters.
	KeyPrefixApproved = "approved"
	// KeyPrefixPosted is the prefix for posted counters.
	KeyPrefixPosted = "posted"
	// KeyPrefixErrors is the prefix for error counters.
	KeyPrefixErrors = "errors"
	// KeyRecentPosts is the Redis key for the recent posts list.
	KeyRecentPosts = "metrics:recent:posts"
	// KeyLastScan is the Redis key for the last coordinated scan timestamp.
	KeyLastScan = "metrics:last_scan"
	// MaxRecentPosts is the maximum number of recent posts to keep.
	MaxRecentPosts = 100
	// MetricsTTLDays is the TTL in days for counters.
	MetricsTTLDays = 30
	// RecentPostsTTLDays is the TTL in days for the recent posts list.
	RecentPostsTTLDays = 7
	// HoursPerDay converts day counts to time.Duration hours.
	HoursPerDay = 24
)

// RedisKeys builds metrics keys consistently.
type RedisKeys struct {
	prefix string
}

func NewRedisKeys(prefix string) *RedisKeys {
	return &RedisKeys{prefix: prefix}
}

// Scanned returns the key for the scanned counter for a platform.
func (k *RedisKeys) Scanned(platform string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixScanned, platform)
}

// Approved returns the key for the approved counter for a platform.
func (k *RedisKeys) Approved(platform string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixApproved, platform)
}

// Posted returns the key for the posted counter for a platform.
func (k *RedisKeys) Posted(platform string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixPosted, platform)
}

// Errors returns the key for the error counter for a platform.
func (k *RedisKeys) Errors(platform string) string {
	return fmt.Sprintf("%s:%s:%s", k.prefix, KeyPrefixErrors, platform)
}
