package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
)

// settingsRowID pins the coordination_settings table to a single row.
const settingsRowID = 1

// SettingsRepository stores the single current coordination configuration.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository creates a new repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the current coordination configuration, or the defaults if
// none has been stored yet.
func (r *SettingsRepository) Get(ctx context.Context) (*domain.CoordinationConfig, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT version, platform_priority, platform_weight, target_content_distribution,
			rate_limit_coordination_enabled, content_balancing_enabled,
			error_threshold, scan_interval_seconds, max_posts_per_scan, updated_at
		FROM coordination_settings
		WHERE id = $1`, settingsRowID)

	cfg := &domain.CoordinationConfig{}
	var priority, weight, distribution []byte
	var scanIntervalSeconds int64

	err := row.Scan(
		&cfg.Version, &priority, &weight, &distribution,
		&cfg.RateLimitCoordinationEnabled, &cfg.ContentBalancingEnabled,
		&cfg.ErrorThreshold, &scanIntervalSeconds, &cfg.MaxPostsPerScan, &cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultCoordinationConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get coordination settings: %w", err)
	}

	cfg.ScanInterval = time.Duration(scanIntervalSeconds) * time.Second
	if err := json.Unmarshal(priority, &cfg.PlatformPriority); err != nil {
		return nil, fmt.Errorf("unmarshal platform priority: %w", err)
	}
	if err := json.Unmarshal(weight, &cfg.PlatformWeight); err != nil {
		return nil, fmt.Errorf("unmarshal platform weights: %w", err)
	}
	if err := json.Unmarshal(distribution, &cfg.TargetContentDistribution); err != nil {
		return nil, fmt.Errorf("unmarshal content distribution: %w", err)
	}
	return cfg, nil
}

// Update validates and stores a new configuration, bumping its version.
func (r *SettingsRepository) Update(ctx context.Context, cfg *domain.CoordinationConfig) (*domain.CoordinationConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	priority, err := json.Marshal(cfg.PlatformPriority)
	if err != nil {
		return nil, fmt.Errorf("marshal platform priority: %w", err)
	}
	weight, err := json.Marshal(cfg.PlatformWeight)
	if err != nil {
		return nil, fmt.Errorf("marshal platform weights: %w", err)
	}
	distribution, err := json.Marshal(cfg.TargetContentDistribution)
	if err != nil {
		return nil, fmt.Errorf("marshal content distribution: %w", err)
	}

	query := `
		INSERT INTO coordination_settings (id, version, platform_priority, platform_weight,
			target_content_distribution, rate_limit_coordination_enabled,
			content_balancing_enabled, error_threshold, scan_interval_seconds,
			max_posts_per_scan, updated_at)
		VALUES ($1, 1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE
		SET version = coordination_settings.version + 1,
		    platform_priority = EXCLUDED.platform_priority,
		    platform_weight = EXCLUDED.platform_weight,
		    target_content_distribution = EXCLUDED.target_content_distribution,
		    rate_limit_coordination_enabled = EXCLUDED.rate_limit_coordination_enabled,
		    content_balancing_enabled = EXCLUDED.content_balancing_enabled,
		    error_threshold = EXCLUDED.error_threshold,
		    scan_interval_seconds = EXCLUDED.scan_interval_seconds,
		    max_posts_per_scan = EXCLUDED.max_posts_per_scan,
		    updated_at = NOW()
		RETURNING version, updated_at`

	updated := *cfg
	err = r.db.QueryRowContext(ctx, query,
		settingsRowID, priority, weight, distribution,
		cfg.RateLimitCoordinationEnabled, cfg.ContentBalancingEnabled,
		cfg.ErrorThreshold, int64(cfg.ScanInterval/time.Second), cfg.MaxPostsPerScan,
	).Scan(&updated.Version, &updated.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update coordination settings: %w", err)
	}
	return &updated, nil
}
