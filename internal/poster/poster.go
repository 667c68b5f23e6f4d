// Package poster drives the exactly-once posting step and the queue
// health surface built on top of it.
package poster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/metrics"
)

// PostingStore is the transactional posting surface.
type PostingStore interface {
	PostContent(ctx context.Context, contentID uuid.UUID, slotID *uuid.UUID, force bool) (*domain.PostedRecord, error)
	CountPostedToday(ctx context.Context) (int64, error)
}

// ContentStore is the slice of the content repository the poster needs.
type ContentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ContentItem, error)
	CountSchedulable(ctx context.Context) (int64, error)
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// SlotStore is the slice of the slot repository the poster needs.
type SlotStore interface {
	ClaimDue(ctx context.Context, now time.Time) (*domain.ScheduleSlot, error)
	MarkPosted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// PostResult is the caller-facing outcome of one posting attempt.
// Failures of the postable predicate are data, not errors.
type PostResult struct {
	Success   bool       `json:"success"`
	ContentID *uuid.UUID `json:"content_id,omitempty"`
	SlotID    *uuid.UUID `json:"slot_id,omitempty"`
	PostOrder int        `json:"post_order,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// QueueHealth classifies the approved-content backlog.
type QueueHealth struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	ApprovedCount int64  `json:"approved_count"`
	PostedToday   int64  `json:"posted_today"`
	LowWaterMark  int    `json:"low_water_mark"`
}

const (
	HealthStatusHealthy  = "healthy"
	HealthStatusWarning  = "warning"
	HealthStatusCritical = "critical"
)

// Poster wraps the posting transaction with slot handling, metrics and
// sanitized reporting.
type Poster struct {
	posting      PostingStore
	content      ContentStore
	slots        SlotStore
	metrics      metrics.Recorder
	prom         *metrics.PromMetrics
	logger       logger.Logger
	lowWaterMark int
	now          func() time.Time
}

func NewPoster(posting PostingStore, content ContentStore, slots SlotStore, rec metrics.Recorder, prom *metrics.PromMetrics, lowWaterMark int, log logger.Logger) *Poster {
	return &Poster{
		posting:      posting,
		content:      content,
		slots:        slots,
		metrics:      rec,
		prom:         prom,
		logger:       log,
		lowWaterMark: lowWaterMark,
		now:          time.Now,
	}
}

// PostContent publishes one content item on demand, outside the slot
// cycle. force bypasses the approval requirement, never the posted one.
func (p *Poster) PostContent(ctx context.Context, contentID uuid.UUID, force bool) (*PostResult, error) {
	start := p.now()

	record, err := p.posting.PostContent(ctx, contentID, nil, force)
	if errors.Is(err, domain.ErrContentNotAvailable) {
		return &PostResult{
			Success: false,
			Error:   domain.ErrContentNotAvailable.Error(),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	p.recordPosted(ctx, record, p.now().Sub(start))
	return &PostResult{
		Success:   true,
		ContentID: &record.ContentQueueID,
		PostOrder: record.PostOrder,
	}, nil
}

// ProcessScheduledPost claims the earliest due slot and publishes its
// content. Returns domain.ErrNoDueSlot when nothing is due.
func (p *Poster) ProcessScheduledPost(ctx context.Context) (*PostResult, error) {
	slot, err := p.slots.ClaimDue(ctx, p.now())
	if err != nil {
		return nil, err
	}
	if slot.ContentID == nil {
		p.failSlot(ctx, slot, errors.New("claimed slot has no content binding"))
		return nil, fmt.Errorf("claimed slot %s has no content binding", slot.ID)
	}
	start := p.now()

	record, postErr := p.posting.PostContent(ctx, *slot.ContentID, &slot.ID, false)
	if postErr != nil {
		p.failSlot(ctx, slot, postErr)
		if errors.Is(postErr, domain.ErrContentNotAvailable) {
			return &PostResult{
				Success: false,
				SlotID:  &slot.ID,
				Error:   domain.ErrContentNotAvailable.Error(),
			}, nil
		}
		return nil, postErr
	}

	if markErr := p.slots.MarkPosted(ctx, slot.ID); markErr != nil {
		// The post is committed; a slot status glitch must not undo it.
		p.logger.Error("Failed to mark slot posted",
			logger.String("slot_id", slot.ID.String()),
			logger.Error(markErr),
		)
	}

	p.recordPosted(ctx, record, p.now().Sub(start))
	return &PostResult{
		Success:   true,
		ContentID: &record.ContentQueueID,
		SlotID:    &slot.ID,
		PostOrder: record.PostOrder,
	}, nil
}

func (p *Poster) failSlot(ctx context.Context, slot *domain.ScheduleSlot, cause error) {
	p.logger.Error("Scheduled post failed",
		logger.String("slot_id", slot.ID.String()),
		logger.String("date", slot.Date),
		logger.Int("slot_index", slot.SlotIndex),
		logger.Error(cause),
	)

	if err := p.slots.MarkFailed(ctx, slot.ID); err != nil {
		p.logger.Error("Failed to mark slot failed",
			logger.String("slot_id", slot.ID.String()),
			logger.Error(err),
		)
	}
	if slot.ContentID != nil {
		if err := p.content.MarkFailed(ctx, *slot.ContentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			p.logger.Error("Failed to mark content failed",
				logger.String("content_id", slot.ContentID.String()),
				logger.Error(err),
			)
		}
	}

	platform := ""
	if slot.Platform != nil {
		platform = string(*slot.Platform)
	}
	if trackErr := p.metrics.IncrementErrors(ctx, platform); trackErr != nil {
		p.logger.Warn("Failed to track posting error",
			logger.Error(trackErr),
		)
	}
}

func (p *Poster) recordPosted(ctx context.Context, record *domain.PostedRecord, took time.Duration) {
	if p.prom != nil {
		p.prom.PostDuration.Observe(took.Seconds())
	}
	if err := p.metrics.IncrementPosted(ctx, string(record.Platform)); err != nil {
		p.logger.Warn("Failed to track posted item",
			logger.Error(err),
		)
	}

	recent := metrics.RecentPost{
		ContentID: record.ContentQueueID.String(),
		Platform:  string(record.Platform),
		PostOrder: record.PostOrder,
		PostedAt:  record.PostedAt,
	}
	if item, err := p.content.GetByID(ctx, record.ContentQueueID); err == nil {
		recent.Title = item.Title
		recent.URL = item.URL
	}
	if err := p.metrics.AddRecentPost(ctx, recent); err != nil {
		p.logger.Warn("Failed to record recent post",
			logger.Error(err),
		)
	}

	p.logger.Info("Content posted",
		logger.String("content_id", record.ContentQueueID.String()),
		logger.String("platform", string(record.Platform)),
		logger.Int("post_order", record.PostOrder),
		logger.Duration("duration", took),
	)
}

// CheckQueueHealth classifies the approved backlog without mutating
// anything.
func (p *Poster) CheckQueueHealth(ctx context.Context) (*QueueHealth, error) {
	approved, err := p.content.CountSchedulable(ctx)
	if err != nil {
		return nil, err
	}
	postedToday, err := p.posting.CountPostedToday(ctx)
	if err != nil {
		return nil, err
	}

	if p.prom != nil {
		p.prom.QueueDepth.Set(float64(approved))
	}

	health := &QueueHealth{
		ApprovedCount: approved,
		PostedToday:   postedToday,
		LowWaterMark:  p.lowWaterMark,
	}
	switch {
	case approved == 0:
		health.Status = HealthStatusCritical
		health.Message = "No approved content available for posting"
	case approved < int64(p.lowWaterMark):
		health.Status = HealthStatusWarning
		health.Message = fmt.Sprintf("Critical: Only %d approved items remaining", approved)
	default:
		health.Status = HealthStatusHealthy
	}
	return health, nil
}
