package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/database"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
)

var slotColumns = []string{
	"id", "date", "slot_index", "content_id", "platform",
	"status", "scheduled_time", "created_at", "updated_at",
}

func TestSlotRepository_ClaimDue(t *testing.T) {
	now := time.Date(2026, 3, 14, 13, 5, 0, 0, time.UTC)
	slotID := uuid.New()
	contentID := uuid.New()
	platform := string(domain.PlatformYouTube)

	testCases := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "claims the earliest due slot",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(slotColumns).
					AddRow(slotID, "2026-03-14", 2, contentID, platform,
						domain.SlotStatusPosting, now.Add(-5*time.Minute), now, now)
				mock.ExpectQuery("UPDATE schedule_slots").
					WithArgs(now).
					WillReturnRows(rows)
			},
			wantErr: nil,
		},
		{
			name: "nothing due returns ErrNoDueSlot",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("UPDATE schedule_slots").
					WithArgs(now).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNoDueSlot,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := database.NewSlotRepository(db)
			tc.setupMock(mock)

			slot, err := repo.ClaimDue(context.Background(), now)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("ClaimDue() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ClaimDue() error = %v", err)
			}
			if slot.ID != slotID {
				t.Errorf("ClaimDue() slot id = %s, want %s", slot.ID, slotID)
			}
			if slot.Status != domain.SlotStatusPosting {
				t.Errorf("ClaimDue() status = %s, want posting", slot.Status)
			}
			if slot.ContentID == nil || *slot.ContentID != contentID {
				t.Errorf("ClaimDue() content id = %v, want %s", slot.ContentID, contentID)
			}

			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestSlotRepository_Save_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewSlotRepository(db)

	mock.ExpectExec("INSERT INTO schedule_slots").
		WillReturnResult(sqlmock.NewResult(0, 1))

	contentID := uuid.New()
	platform := domain.PlatformReddit
	slot := &domain.ScheduleSlot{
		Date:          "2026-03-14",
		SlotIndex:     0,
		ContentID:     &contentID,
		Platform:      &platform,
		Status:        domain.SlotStatusPending,
		ScheduledTime: time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC),
	}

	if err := repo.Save(context.Background(), slot); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if slot.ID == uuid.Nil {
		t.Error("Save() did not assign an id")
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestSlotRepository_MarkPosted(t *testing.T) {
	slotID := uuid.New()

	testCases := []struct {
		name         string
		rowsAffected int64
		wantErr      error
	}{
		{name: "posting slot becomes posted", rowsAffected: 1, wantErr: nil},
		{name: "slot no longer posting returns ErrNotFound", rowsAffected: 0, wantErr: domain.ErrNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := database.NewSlotRepository(db)

			mock.ExpectExec("UPDATE schedule_slots").
				WithArgs(slotID).
				WillReturnResult(sqlmock.NewResult(0, tc.rowsAffected))

			err := repo.MarkPosted(context.Background(), slotID)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("MarkPosted() error = %v, want %v", err, tc.wantErr)
			}

			if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
				t.Errorf("unfulfilled expectations: %v", expectErr)
			}
		})
	}
}

func TestSlotRepository_ResetStalePosting(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewSlotRepository(db)

	mock.ExpectExec("UPDATE schedule_slots").
		WithArgs("5m0s").
		WillReturnResult(sqlmock.NewResult(0, 2))

	reset, err := repo.ResetStalePosting(context.Background(), 5*time.Minute)
	if err != nil {
		t.Fatalf("ResetStalePosting() error = %v", err)
	}
	if reset != 2 {
		t.Errorf("ResetStalePosting() = %d, want 2", reset)
	}
}

func TestSlotRepository_ContentScheduledElsewhere(t *testing.T) {
	db, mock := newMockDB(t)
	repo := database.NewSlotRepository(db)
	contentID := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(contentID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	booked, err := repo.ContentScheduledElsewhere(context.Background(), contentID)
	if err != nil {
		t.Fatalf("ContentScheduledElsewhere() error = %v", err)
	}
	if !booked {
		t.Error("ContentScheduledElsewhere() = false, want true")
	}
}
