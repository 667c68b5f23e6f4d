package metrics

import "context"

// Recorder is the tracking surface the scanner and poster depend on.
type Recorder interface {
	// IncrementScanned adds to the scanned-item counter for a platform.
	IncrementScanned(ctx context.Context, platform string, n int) error
	// IncrementApproved adds to the approved-item counter for a platform.
	IncrementApproved(ctx context.Context, platform string, n int) error
	// IncrementPosted increments the posted counter for a platform.
	IncrementPosted(ctx context.Context, platform string) error
	// IncrementErrors increments the error counter for a platform.
	IncrementErrors(ctx context.Context, platform string) error
	// AddRecentPost adds a post to the recent posts list.
	AddRecentPost(ctx context.Context, post RecentPost) error
	// GetStats returns aggregated statistics.
	GetStats(ctx context.Context) (*Stats, error)
	// GetRecentPosts returns the most recently published items.
	GetRecentPosts(ctx context.Context, limit int) ([]RecentPost, error)
	// UpdateLastScan records when the last coordinated scan finished.
	UpdateLastScan(ctx context.Context) error
}
