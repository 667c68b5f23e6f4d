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

// pqUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pqUniqueViolation = "23505"

// contentSelectList is the column list for content_queue reads (single
// source for schema changes).
const contentSelectList = `id, source_platform, external_id, content_type, title, url,
			content_hash, confidence_score, priority, status,
			is_approved, is_posted, discovered_at, created_at, updated_at`

// ContentRepository manages the content queue in PostgreSQL.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository creates a new repository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// InsertDiscovered persists a newly discovered content item. Returns
// domain.ErrAlreadyExists when the item duplicates an existing row by
// (platform, external id) or content hash.
func (r *ContentRepository) InsertDiscovered(ctx context.Context, item *domain.ContentItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now()
	if item.DiscoveredAt.IsZero() {
		item.DiscoveredAt = now
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	query := `
		INSERT INTO content_queue (id, source_platform, external_id, content_type, title, url,
			content_hash, confidence_score, priority, status, is_approved, is_posted,
			discovered_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.SourcePlatform, item.ExternalID, item.ContentType, item.Title, item.URL,
		item.ContentHash, item.ConfidenceScore, item.Priority, item.Status, item.IsApproved,
		item.IsPosted, item.DiscoveredAt, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert content: %w", err)
	}
	return nil
}

// GetByID retrieves a content item by id.
func (r *ContentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContentItem, error) {
	item := &domain.ContentItem{}
	query := `SELECT ` + contentSelectList + ` FROM content_queue WHERE id = $1`

	err := r.db.GetContext(ctx, item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return item, nil
}

// ListSchedulable returns unposted items eligible for scheduling, in the
// scheduler's candidate order: priority ascending, then confidence
// descending, then discovery time ascending. This ordering is a public
// contract. Failed items stay in the pool so a failed posting attempt
// does not drop content out of rotation.
func (r *ContentRepository) ListSchedulable(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	items := []domain.ContentItem{}
	query := `
		SELECT ` + contentSelectList + `
		FROM content_queue
		WHERE status IN ('approved', 'failed') AND is_posted = FALSE
		ORDER BY priority ASC, confidence_score DESC, discovered_at ASC
		LIMIT $1`

	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, fmt.Errorf("list schedulable content: %w", err)
	}
	return items, nil
}

// CountSchedulable returns the number of unposted items eligible for
// scheduling.
func (r *ContentRepository) CountSchedulable(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM content_queue WHERE status IN ('approved', 'failed') AND is_posted = FALSE`
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count schedulable content: %w", err)
	}
	return count, nil
}

// MarkScheduled moves an approved or failed item into the scheduled state.
func (r *ContentRepository) MarkScheduled(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE content_queue
		SET status = 'scheduled', updated_at = NOW()
		WHERE id = $1 AND status IN ('approved', 'failed') AND is_posted = FALSE`
	return r.execExpectOneRow(ctx, query, id)
}

// ReleaseScheduled returns a scheduled item to the approved pool; used
// when a schedule rebuild replaces its binding.
func (r *ContentRepository) ReleaseScheduled(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE content_queue
		SET status = 'approved', updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'`
	return r.execExpectOneRow(ctx, query, id)
}

// MarkFailed moves a scheduled item into the failed state after a failed
// posting attempt; failed items remain eligible for re-scheduling.
func (r *ContentRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE content_queue
		SET status = 'failed', updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'`
	return r.execExpectOneRow(ctx, query, id)
}

// execExpectOneRow runs an exec and returns domain.ErrNotFound when no
// row was affected.
func (r *ContentRepository) execExpectOneRow(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return fmt.Errorf("get affected rows: %w", rowsErr)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
