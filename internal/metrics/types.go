package metrics

import "time"

// RecentPost is one recently published content item.
type RecentPost struct {
	ContentID string    `json:"content_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Platform  string    `json:"platform"`
	PostOrder int       `json:"post_order"`
	PostedAt  time.Time `json:"posted_at"`
}

// Stats is the aggregated operational picture across platforms.
type Stats struct {
	TotalScanned  int64           `json:"total_scanned"`
	TotalApproved int64           `json:"total_approved"`
	TotalPosted   int64           `json:"total_posted"`
	TotalErrors   int64           `json:"total_errors"`
	Platforms     []PlatformStats `json:"platforms"`
	LastScan      time.Time       `json:"last_scan"`
}

// PlatformStats holds the counters for a single platform.
type PlatformStats struct {
	Name     string `json:"name"`
	Scanned  int64  `json:"scanned"`
	Approved int64  `json:"approved"`
	Posted   int64  `json:"posted"`
	Errors   int64  `json:"errors"`
}
