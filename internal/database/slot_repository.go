package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
)

// slotSelectList is the column list for schedule_slots reads.
const slotSelectList = `id, to_char(date, 'YYYY-MM-DD') AS date, slot_index, content_id,
			platform, status, scheduled_time, created_at, updated_at`

// SlotRepository manages the daily schedule slots in PostgreSQL.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

// ListByDate returns all slots for a schedule date ordered by slot index.
func (r *SlotRepository) ListByDate(ctx context.Context, date string) ([]domain.ScheduleSlot, error) {
	slots := []domain.ScheduleSlot{}
	query := `SELECT ` + slotSelectList + `
		FROM schedule_slots
		WHERE date = $1
		ORDER BY slot_index ASC`

	if err := r.db.SelectContext(ctx, &slots, query, date); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// Save upserts a slot keyed by (date, slot_index).
func (r *SlotRepository) Save(ctx context.Context, slot *domain.ScheduleSlot) error {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	query := `
		INSERT INTO schedule_slots (id, date, slot_index, content_id, platform, status,
			scheduled_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (date, slot_index) DO UPDATE
		SET content_id = EXCLUDED.content_id,
		    platform = EXCLUDED.platform,
		    status = EXCLUDED.status,
		    scheduled_time = EXCLUDED.scheduled_time,
		    updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		slot.ID, slot.Date, slot.SlotIndex, slot.ContentID, slot.Platform,
		slot.Status, slot.ScheduledTime,
	)
	if err != nil {
		return fmt.Errorf("save slot: %w", err)
	}
	return nil
}

// ClaimDue claims the earliest pending slot whose scheduled time has
// passed, moving it to posting. Uses FOR UPDATE SKIP LOCKED so concurrent
// posting workers never claim the same slot. Returns domain.ErrNoDueSlot
// when nothing is due.
func (r *SlotRepository) ClaimDue(ctx context.Context, now time.Time) (*domain.ScheduleSlot, error) {
	query := `
		UPDATE schedule_slots
		SET status = 'posting', updated_at = NOW()
		WHERE id = (
			SELECT id FROM schedule_slots
			WHERE status = 'pending'
			  AND content_id IS NOT NULL
			  AND scheduled_time <= $1
			ORDER BY scheduled_time ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + slotSelectList

	slot := &domain.ScheduleSlot{}
	err := r.db.QueryRowxContext(ctx, query, now).StructScan(slot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoDueSlot
	}
	if err != nil {
		return nil, fmt.Errorf("claim due slot: %w", err)
	}
	return slot, nil
}

// MarkPosted marks a posting slot as posted.
func (r *SlotRepository) MarkPosted(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE schedule_slots
		SET status = 'posted', updated_at = NOW()
		WHERE id = $1 AND status = 'posting'`
	return r.execExpectOneRow(ctx, query, id)
}

// MarkFailed marks a posting slot as failed; failed slots are refillable.
func (r *SlotRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE schedule_slots
		SET status = 'failed', updated_at = NOW()
		WHERE id = $1 AND status = 'posting'`
	return r.execExpectOneRow(ctx, query, id)
}

// ResetStalePosting resets slots stuck in posting longer than olderThan
// back to pending. This recovers slots claimed by a worker that crashed.
func (r *SlotRepository) ResetStalePosting(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE schedule_slots
		SET status = 'pending', updated_at = NOW()
		WHERE status = 'posting'
		  AND updated_at < NOW() - $1::interval`

	result, err := r.db.ExecContext(ctx, query, olderThan.String())
	if err != nil {
		return 0, fmt.Errorf("reset stale posting slots: %w", err)
	}
	return result.RowsAffected()
}

// ContentScheduledElsewhere reports whether the content id is already
// bound to a non-terminal slot anywhere in the store (no double-booking).
func (r *SlotRepository) ContentScheduledElsewhere(ctx context.Context, contentID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM schedule_slots
			WHERE content_id = $1 AND status IN ('pending', 'posting')
		)`
	if err := r.db.QueryRowContext(ctx, query, contentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check content booking: %w", err)
	}
	return exists, nil
}

func (r *SlotRepository) execExpectOneRow(ctx context.Context, query string, args ...any) error {
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
