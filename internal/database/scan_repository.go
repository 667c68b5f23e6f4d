package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
)

// ScanRepository persists coordinated scan results as immutable audit rows.
type ScanRepository struct {
	db *sqlx.DB
}

// NewScanRepository creates a new repository.
func NewScanRepository(db *sqlx.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// SaveResult writes one coordinated scan audit row.
func (r *ScanRepository) SaveResult(ctx context.Context, result *domain.CoordinatedScanResult) error {
	outcomes, err := json.Marshal(result.Platforms)
	if err != nil {
		return fmt.Errorf("marshal scan outcomes: %w", err)
	}

	query := `
		INSERT INTO scan_results (scan_id, start_time, end_time, total_found, total_approved,
			successful_platforms, failed_platforms, outcomes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(ctx, query,
		result.ScanID, result.StartTime, result.EndTime, result.TotalFound,
		result.TotalApproved, result.SuccessfulPlatforms, result.FailedPlatforms, outcomes,
	)
	if err != nil {
		return fmt.Errorf("save scan result: %w", err)
	}
	return nil
}

// GetLatest returns the most recent coordinated scan result.
func (r *ScanRepository) GetLatest(ctx context.Context) (*domain.CoordinatedScanResult, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT scan_id, start_time, end_time, total_found, total_approved,
			successful_platforms, failed_platforms, outcomes
		FROM scan_results
		ORDER BY start_time DESC
		LIMIT 1`)

	result := &domain.CoordinatedScanResult{}
	var outcomes []byte
	err := row.Scan(
		&result.ScanID, &result.StartTime, &result.EndTime, &result.TotalFound,
		&result.TotalApproved, &result.SuccessfulPlatforms, &result.FailedPlatforms, &outcomes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest scan result: %w", err)
	}

	if err := json.Unmarshal(outcomes, &result.Platforms); err != nil {
		return nil, fmt.Errorf("unmarshal scan outcomes: %w", err)
	}
	return result, nil
}
