package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
)

// PostingRepository performs the exactly-once publication step. The whole
// protocol runs inside one transaction: the re-select predicate in step 1
// plus the transaction boundary act as the at-most-once guard, and the
// uniqueness constraint on posted_records.content_queue_id is the second
// line of defense.
type PostingRepository struct {
	db *sqlx.DB
}

// NewPostingRepository creates a new repository.
func NewPostingRepository(db *sqlx.DB) *PostingRepository {
	return &PostingRepository{db: db}
}

// PostContent publishes one content item. force skips the approval
// requirement but never the posted check. slotID, when non-nil, links the
// posted record to the schedule slot that triggered it.
func (r *PostingRepository) PostContent(
	ctx context.Context,
	contentID uuid.UUID,
	slotID *uuid.UUID,
	force bool,
) (*domain.PostedRecord, error) {
	var record *domain.PostedRecord

	err := WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Step 1: re-select the row under lock with the postable predicate.
		predicate := `id = $1 AND is_posted = FALSE AND is_approved = TRUE`
		if force {
			predicate = `id = $1 AND is_posted = FALSE`
		}

		var platform domain.Platform
		query := `SELECT source_platform FROM content_queue WHERE ` + predicate + ` FOR UPDATE`
		err := tx.QueryRowContext(ctx, query, contentID).Scan(&platform)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrContentNotAvailable
		}
		if err != nil {
			return fmt.Errorf("select content for posting: %w", err)
		}

		// Step 2: today's post-order sequence.
		var postOrder int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) + 1 FROM posted_records WHERE posted_at::date = CURRENT_DATE`,
		).Scan(&postOrder)
		if err != nil {
			return fmt.Errorf("compute post order: %w", err)
		}

		// Step 3: flip the content row.
		_, err = tx.ExecContext(ctx,
			`UPDATE content_queue
			 SET is_posted = TRUE, status = 'posted', updated_at = NOW()
			 WHERE id = $1`,
			contentID,
		)
		if err != nil {
			return fmt.Errorf("mark content posted: %w", err)
		}

		// Step 4: write the immutable proof of publication.
		record = &domain.PostedRecord{
			ID:             uuid.New(),
			ContentQueueID: contentID,
			ScheduleSlotID: slotID,
			Platform:       platform,
			PostOrder:      postOrder,
			PostedAt:       time.Now(),
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO posted_records (id, content_queue_id, schedule_slot_id, platform, post_order, posted_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			record.ID, record.ContentQueueID, record.ScheduleSlotID,
			record.Platform, record.PostOrder, record.PostedAt,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
				return domain.ErrContentNotAvailable
			}
			return fmt.Errorf("insert posted record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CountPostedToday returns how many posts have been committed today.
func (r *PostingRepository) CountPostedToday(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM posted_records WHERE posted_at::date = CURRENT_DATE`
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count posted today: %w", err)
	}
	return count, nil
}
