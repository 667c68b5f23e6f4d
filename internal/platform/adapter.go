package platform

import (
	"context"
	"time"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
)

// ScanConfig carries the per-run parameters the orchestrator hands to an
// adapter. MaxPosts is the weight-derived volume for this platform and
// MinConfidence is the approval threshold applied to returned items.
type ScanConfig struct {
	MaxPosts      int
	MinConfidence float64
	Timeout       time.Duration
}

// Item is a single piece of content returned by an adapter scan. The
// orchestrator decides approval from ConfidenceScore; adapters only
// report what they found.
type Item struct {
	ExternalID      string
	ContentType     domain.ContentType
	Title           string
	URL             string
	ConfidenceScore float64
	Priority        int
	PublishedAt     time.Time
}

// Adapter is the uniform contract every platform client implements.
// TestConnection must be cheap; the orchestrator calls it before each
// scan and skips the platform when it fails.
type Adapter interface {
	Platform() domain.Platform
	TestConnection(ctx context.Context) error
	Scan(ctx context.Context, cfg ScanConfig) ([]Item, error)
}
