package domain

import (
	"errors"
	"fmt"
	"time"
)

// MinScanInterval is the lowest allowed coordinated scan cadence.
const MinScanInterval = 15 * time.Minute

// weightTotal is the required sum of all platform weights.
const weightTotal = 100

// distributionTolerance allows target content distributions that do not
// sum exactly to 100.
const distributionTolerance = 5.0

// ErrInvalidSettings is returned when a coordination settings payload
// fails validation.
var ErrInvalidSettings = errors.New("invalid coordination settings")

// CoordinationConfig is the operator-tunable scan/schedule configuration.
// It is versioned and loaded once per run rather than read piecemeal from
// shared mutable state.
type CoordinationConfig struct {
	Version                      int                     `json:"version"                          db:"version"`
	PlatformPriority             []Platform              `json:"platform_priority"`
	PlatformWeight               map[Platform]int        `json:"platform_weight"`
	TargetContentDistribution    map[ContentType]float64 `json:"target_content_distribution"`
	RateLimitCoordinationEnabled bool                    `json:"rate_limit_coordination_enabled" db:"rate_limit_coordination_enabled"`
	ContentBalancingEnabled      bool                    `json:"content_balancing_enabled"       db:"content_balancing_enabled"`
	ErrorThreshold               int                     `json:"error_threshold"                 db:"error_threshold"`
	ScanInterval                 time.Duration           `json:"scan_interval"`
	MaxPostsPerScan              int                     `json:"max_posts_per_scan"              db:"max_posts_per_scan"`
	UpdatedAt                    time.Time               `json:"updated_at"                      db:"updated_at"`
}

// DefaultCoordinationConfig returns the reference configuration.
func DefaultCoordinationConfig() *CoordinationConfig {
	return &CoordinationConfig{
		Version: 1,
		PlatformPriority: []Platform{
			PlatformReddit, PlatformYouTube, PlatformGiphy,
			PlatformMastodon, PlatformPixabay,
		},
		PlatformWeight: map[Platform]int{
			PlatformReddit:   40,
			PlatformYouTube:  25,
			PlatformGiphy:    15,
			PlatformMastodon: 10,
			PlatformPixabay:  10,
		},
		TargetContentDistribution: map[ContentType]float64{
			ContentTypeImage: 40,
			ContentTypeVideo: 30,
			ContentTypeGif:   15,
			ContentTypeText:  10,
			ContentTypeLink:  5,
		},
		RateLimitCoordinationEnabled: true,
		ContentBalancingEnabled:      true,
		ErrorThreshold:               5,
		ScanInterval:                 30 * time.Minute,
		MaxPostsPerScan:              50,
	}
}

// Validate checks operator-supplied settings. Platform weights must sum
// to exactly 100; the scan interval must be at least 15 minutes.
func (c *CoordinationConfig) Validate() error {
	if len(c.PlatformPriority) == 0 {
		return fmt.Errorf("%w: platform_priority must not be empty", ErrInvalidSettings)
	}
	seen := make(map[Platform]bool, len(c.PlatformPriority))
	for _, p := range c.PlatformPriority {
		if !p.Valid() {
			return fmt.Errorf("%w: unknown platform %q", ErrInvalidSettings, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: platform %q listed twice in priority", ErrInvalidSettings, p)
		}
		seen[p] = true
	}

	sum := 0
	for p, w := range c.PlatformWeight {
		if !p.Valid() {
			return fmt.Errorf("%w: unknown platform %q in weights", ErrInvalidSettings, p)
		}
		if w < 0 {
			return fmt.Errorf("%w: weight for %q must not be negative", ErrInvalidSettings, p)
		}
		sum += w
	}
	if sum != weightTotal {
		return fmt.Errorf("%w: platform weights must sum to %d, got %d",
			ErrInvalidSettings, weightTotal, sum)
	}

	var distSum float64
	for ct, share := range c.TargetContentDistribution {
		switch ct {
		case ContentTypeText, ContentTypeImage, ContentTypeVideo, ContentTypeLink, ContentTypeGif:
		default:
			return fmt.Errorf("%w: unknown content type %q in distribution", ErrInvalidSettings, ct)
		}
		if share < 0 {
			return fmt.Errorf("%w: distribution share for %q must not be negative", ErrInvalidSettings, ct)
		}
		distSum += share
	}
	if len(c.TargetContentDistribution) > 0 &&
		(distSum < weightTotal-distributionTolerance || distSum > weightTotal+distributionTolerance) {
		return fmt.Errorf("%w: content distribution must sum to roughly %d, got %.1f",
			ErrInvalidSettings, weightTotal, distSum)
	}

	if c.ScanInterval < MinScanInterval {
		return fmt.Errorf("%w: scan interval must be at least %s, got %s",
			ErrInvalidSettings, MinScanInterval, c.ScanInterval)
	}
	if c.ErrorThreshold < 0 {
		return fmt.Errorf("%w: error threshold must not be negative", ErrInvalidSettings)
	}
	if c.MaxPostsPerScan <= 0 {
		return fmt.Errorf("%w: max posts per scan must be positive", ErrInvalidSettings)
	}
	return nil
}

// VolumeFor derives the requested scan volume for one platform from its
// weight, clamped by the optional operator cap (0 means no cap).
func (c *CoordinationConfig) VolumeFor(p Platform, cap int) int {
	volume := c.MaxPostsPerScan * c.PlatformWeight[p] / weightTotal
	if volume <= 0 {
		volume = 1
	}
	if cap > 0 && volume > cap {
		volume = cap
	}
	return volume
}
