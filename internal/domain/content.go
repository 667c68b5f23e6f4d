// Package domain contains the core domain models for the content service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies an external content source/destination.
type Platform string

const (
	PlatformReddit   Platform = "reddit"
	PlatformYouTube  Platform = "youtube"
	PlatformGiphy    Platform = "giphy"
	PlatformMastodon Platform = "mastodon"
	PlatformPixabay  Platform = "pixabay"
)

// AllPlatforms lists every known platform in default priority order.
var AllPlatforms = []Platform{
	PlatformReddit,
	PlatformYouTube,
	PlatformGiphy,
	PlatformMastodon,
	PlatformPixabay,
}

// Valid reports whether p is a known platform.
func (p Platform) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// ContentType classifies a content item's media kind.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
	ContentTypeLink  ContentType = "link"
	ContentTypeGif   ContentType = "gif"
)

// ContentStatus represents the lifecycle state of a content item.
// Transitions are one-directional except for explicit operator override:
// discovered -> {approved|rejected}; approved -> scheduled;
// scheduled -> posted or scheduled -> failed (re-schedulable).
type ContentStatus string

const (
	ContentStatusDiscovered ContentStatus = "discovered"
	ContentStatusApproved   ContentStatus = "approved"
	ContentStatusRejected   ContentStatus = "rejected"
	ContentStatusScheduled  ContentStatus = "scheduled"
	ContentStatusPosted     ContentStatus = "posted"
	ContentStatusFailed     ContentStatus = "failed"
)

// CanTransitionTo reports whether the status change from s to next is legal.
func (s ContentStatus) CanTransitionTo(next ContentStatus) bool {
	switch s {
	case ContentStatusDiscovered:
		return next == ContentStatusApproved || next == ContentStatusRejected
	case ContentStatusApproved:
		return next == ContentStatusScheduled
	case ContentStatusScheduled:
		return next == ContentStatusPosted || next == ContentStatusFailed ||
			next == ContentStatusApproved // released by a schedule rebuild
	case ContentStatusFailed:
		return next == ContentStatusScheduled
	default:
		return false
	}
}

// ContentItem is one unit of discovered material in the queue.
type ContentItem struct {
	ID              uuid.UUID     `db:"id"               json:"id"`
	SourcePlatform  Platform      `db:"source_platform"  json:"source_platform"`
	ExternalID      string        `db:"external_id"      json:"external_id"`
	ContentType     ContentType   `db:"content_type"     json:"content_type"`
	Title           string        `db:"title"            json:"title"`
	URL             string        `db:"url"              json:"url"`
	ContentHash     string        `db:"content_hash"     json:"content_hash"`
	ConfidenceScore float64       `db:"confidence_score" json:"confidence_score"`
	Priority        int           `db:"priority"         json:"priority"`
	Status          ContentStatus `db:"status"           json:"status"`
	IsApproved      bool          `db:"is_approved"      json:"is_approved"`
	IsPosted        bool          `db:"is_posted"        json:"is_posted"`
	DiscoveredAt    time.Time     `db:"discovered_at"    json:"discovered_at"`
	CreatedAt       time.Time     `db:"created_at"       json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at"       json:"updated_at"`
}

// Schedulable reports whether the item may be picked by the scheduler.
// Failed items go back into the pool; a posted item can never be
// re-selected.
func (c *ContentItem) Schedulable() bool {
	if c.Status != ContentStatusApproved && c.Status != ContentStatusFailed {
		return false
	}
	return c.IsApproved && !c.IsPosted
}

// PostedRecord is the immutable proof of publication for one content item.
type PostedRecord struct {
	ID             uuid.UUID   `db:"id"                json:"id"`
	ContentQueueID uuid.UUID   `db:"content_queue_id"  json:"content_queue_id"`
	ScheduleSlotID *uuid.UUID  `db:"schedule_slot_id"  json:"schedule_slot_id,omitempty"`
	Platform       Platform    `db:"platform"          json:"platform"`
	PostOrder      int         `db:"post_order"        json:"post_order"`
	PostedAt       time.Time   `db:"posted_at"         json:"posted_at"`
}
