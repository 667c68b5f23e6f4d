// Package scanner implements the coordinated scan across all enabled
// platforms: one run at a time, weight-derived volume per platform,
// shared rate-limit budget, and per-platform failure isolation.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	retry "github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/config"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/metrics"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/platform"
)

// minConfidence is the approval threshold applied to scanned items.
const minConfidence = 0.6

// retryBaseDelay seeds the exponential backoff between adapter attempts.
const retryBaseDelay = 500 * time.Millisecond

// ContentStore is the slice of the content repository the scanner needs.
type ContentStore interface {
	InsertDiscovered(ctx context.Context, item *domain.ContentItem) error
}

// AuditStore persists coordinated scan results.
type AuditStore interface {
	SaveResult(ctx context.Context, result *domain.CoordinatedScanResult) error
}

// SettingsStore loads the coordination configuration.
type SettingsStore interface {
	Get(ctx context.Context) (*domain.CoordinationConfig, error)
}

// DedupTracker is the hash cache consulted before inserting items.
type DedupTracker interface {
	Seen(ctx context.Context, p domain.Platform, contentHash string) bool
	MarkSeen(ctx context.Context, p domain.Platform, contentHash string) error
}

// Orchestrator runs coordinated and single-platform scans.
type Orchestrator struct {
	registry *platform.Registry
	content  ContentStore
	audit    AuditStore
	settings SettingsStore
	dedup    DedupTracker
	metrics  metrics.Recorder
	guard    *Guard
	quota    *QuotaTracker
	limiter  *rate.Limiter
	cfg      config.ScanningConfig
	logger   logger.Logger
	tracer   trace.Tracer
	prom     *metrics.PromMetrics
}

// OrchestratorDeps bundles the orchestrator's collaborators.
type OrchestratorDeps struct {
	Registry *platform.Registry
	Content  ContentStore
	Audit    AuditStore
	Settings SettingsStore
	Dedup    DedupTracker
	Metrics  metrics.Recorder
	Guard    *Guard
	Quota    *QuotaTracker
	Prom     *metrics.PromMetrics
	Logger   logger.Logger
}

func NewOrchestrator(cfg config.ScanningConfig, deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		registry: deps.Registry,
		content:  deps.Content,
		audit:    deps.Audit,
		settings: deps.Settings,
		dedup:    deps.Dedup,
		metrics:  deps.Metrics,
		guard:    deps.Guard,
		quota:    deps.Quota,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RatePerSecond),
		cfg:      cfg,
		logger:   deps.Logger,
		tracer:   otel.Tracer("scan-orchestrator"),
		prom:     deps.Prom,
	}
}

// PerformCoordinatedScan runs one scan across every enabled platform in
// the configured priority order. Exactly one coordinated run may be in
// flight; a concurrent request gets domain.ErrScanInProgress. One
// platform's failure never aborts the others.
func (o *Orchestrator) PerformCoordinatedScan(ctx context.Context) (*domain.CoordinatedScanResult, error) {
	ctx, span := o.tracer.Start(ctx, "scan.coordinated")
	defer span.End()

	release, err := o.guard.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// Settings are read once so every platform in this run sees the
	// same weights and priority, even if an operator updates them
	// mid-scan.
	settings, err := o.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coordination settings: %w", err)
	}

	result := &domain.CoordinatedScanResult{
		ScanID:    uuid.New(),
		StartTime: time.Now(),
	}
	span.SetAttributes(attribute.String("scan_id", result.ScanID.String()))

	o.logger.Info("Starting coordinated scan",
		logger.String("scan_id", result.ScanID.String()),
		logger.Int("settings_version", settings.Version),
		logger.Int("max_posts_per_scan", settings.MaxPostsPerScan),
	)

	for _, p := range settings.PlatformPriority {
		adapter, getErr := o.registry.Get(p)
		if errors.Is(getErr, domain.ErrNotFound) {
			o.logger.Debug("Platform disabled, skipping",
				logger.String("platform", string(p)),
			)
			continue
		}

		// The per-platform token is held for each platform in turn so a
		// manual scan of the same platform cannot interleave with this
		// run and overshoot its quota.
		releasePlatform, acqErr := o.guard.AcquirePlatform(ctx, p)
		if acqErr != nil {
			outcome := domain.ScanOutcome{Platform: p}
			o.failOutcome(ctx, &outcome, fmt.Errorf("acquire platform scan token: %w", acqErr))
			result.Platforms = append(result.Platforms, outcome)
			continue
		}
		outcome := o.scanPlatform(ctx, adapter, settings)
		releasePlatform()
		result.Platforms = append(result.Platforms, outcome)
	}

	result.Finalize(time.Now())

	if saveErr := o.audit.SaveResult(ctx, result); saveErr != nil {
		// The scan itself succeeded; a lost audit row is not worth
		// failing the run over.
		o.logger.Warn("Failed to persist scan result",
			logger.String("scan_id", result.ScanID.String()),
			logger.Error(saveErr),
		)
	}
	if syncErr := o.metrics.UpdateLastScan(ctx); syncErr != nil {
		o.logger.Warn("Failed to update last scan timestamp",
			logger.Error(syncErr),
		)
	}

	o.logger.Info("Coordinated scan completed",
		logger.String("scan_id", result.ScanID.String()),
		logger.Int("total_found", result.TotalFound),
		logger.Int("total_approved", result.TotalApproved),
		logger.Int("successful_platforms", result.SuccessfulPlatforms),
		logger.Int("failed_platforms", result.FailedPlatforms),
		logger.Duration("duration", result.EndTime.Sub(result.StartTime)),
	)
	return result, nil
}

// ScanPlatform runs a single-platform scan outside the coordinated
// cycle. It holds the per-platform token so two scans of the same
// platform cannot overlap.
func (o *Orchestrator) ScanPlatform(ctx context.Context, p domain.Platform) (*domain.ScanOutcome, error) {
	adapter, err := o.registry.Get(p)
	if err != nil {
		return nil, err
	}

	release, err := o.guard.AcquirePlatform(ctx, p)
	if err != nil {
		return nil, err
	}
	defer release()

	settings, err := o.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coordination settings: %w", err)
	}

	outcome := o.scanPlatform(ctx, adapter, settings)
	return &outcome, nil
}

func (o *Orchestrator) scanPlatform(ctx context.Context, adapter platform.Adapter, settings *domain.CoordinationConfig) domain.ScanOutcome {
	p := adapter.Platform()
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "scan.platform",
		trace.WithAttributes(attribute.String("platform", string(p))))
	defer span.End()

	outcome := domain.ScanOutcome{Platform: p}

	// Quota is checked before any adapter traffic, connectivity probe
	// included; an exhausted platform costs zero external calls.
	quotaCap := 0
	if settings.RateLimitCoordinationEnabled {
		remaining, quotaErr := o.quota.Remaining(ctx, p)
		if quotaErr != nil {
			o.failOutcome(ctx, &outcome, fmt.Errorf("read quota: %w", quotaErr))
			return outcome
		}
		if remaining == 0 {
			o.failOutcome(ctx, &outcome,
				fmt.Errorf("rate limit: daily scan quota exhausted for %s", p))
			return outcome
		}
		quotaCap = remaining
	}
	volume := settings.VolumeFor(p, quotaCap)

	connCtx, connCancel := context.WithTimeout(ctx, o.cfg.AdapterTimeout)
	connErr := adapter.TestConnection(connCtx)
	connCancel()
	if connErr != nil {
		o.failOutcome(ctx, &outcome, fmt.Errorf("connection test: %w", connErr))
		return outcome
	}

	items, scanErr := o.scanWithRetry(ctx, adapter, platform.ScanConfig{
		MaxPosts:      volume,
		MinConfidence: minConfidence,
		Timeout:       o.cfg.AdapterTimeout,
	})
	if scanErr != nil {
		o.failOutcome(ctx, &outcome, scanErr)
		return outcome
	}

	outcome.Found = len(items)
	if trackErr := o.metrics.IncrementScanned(ctx, string(p), outcome.Found); trackErr != nil {
		o.logger.Warn("Failed to track scanned items",
			logger.String("platform", string(p)),
			logger.Error(trackErr),
		)
	}

	for i := range items {
		o.processItem(ctx, p, &items[i], &outcome)
	}

	if consumeErr := o.quota.Consume(ctx, p, outcome.Found); consumeErr != nil {
		o.logger.Warn("Failed to record quota consumption",
			logger.String("platform", string(p)),
			logger.Error(consumeErr),
		)
	}
	if outcome.Approved > 0 {
		if trackErr := o.metrics.IncrementApproved(ctx, string(p), outcome.Approved); trackErr != nil {
			o.logger.Warn("Failed to track approved items",
				logger.String("platform", string(p)),
				logger.Error(trackErr),
			)
		}
	}
	if o.prom != nil {
		o.prom.ScanDuration.WithLabelValues(string(p)).Observe(time.Since(start).Seconds())
	}

	// Zero results is a successful scan; the platform simply had
	// nothing new.
	outcome.Success = true

	o.logger.Info("Platform scan completed",
		logger.String("platform", string(p)),
		logger.Int("found", outcome.Found),
		logger.Int("approved", outcome.Approved),
		logger.Int("rejected", outcome.Rejected),
		logger.Int("duplicates", outcome.Duplicates),
		logger.Duration("duration", time.Since(start)),
	)
	return outcome
}

func (o *Orchestrator) scanWithRetry(ctx context.Context, adapter platform.Adapter, scanCfg platform.ScanConfig) ([]platform.Item, error) {
	var items []platform.Item

	attempts := o.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(retryBaseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		scanCtx, cancel := context.WithTimeout(ctx, o.cfg.AdapterTimeout)
		defer cancel()

		result, scanErr := adapter.Scan(scanCtx, scanCfg)
		if scanErr != nil {
			return retry.RetryableError(scanErr)
		}
		items = result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan after %d attempts: %w", attempts, err)
	}
	return items, nil
}

func (o *Orchestrator) processItem(ctx context.Context, p domain.Platform, item *platform.Item, outcome *domain.ScanOutcome) {
	if err := o.limiter.Wait(ctx); err != nil {
		outcome.Errors = append(outcome.Errors, domain.SanitizeError(err))
		return
	}

	hash := contentHash(p, item.ExternalID, item.URL)
	if o.dedup.Seen(ctx, p, hash) {
		outcome.Duplicates++
		return
	}
	outcome.Processed++

	if item.ConfidenceScore < minConfidence {
		outcome.Rejected++
		o.markSeen(ctx, p, hash)
		return
	}

	content := &domain.ContentItem{
		SourcePlatform:  p,
		ExternalID:      item.ExternalID,
		ContentType:     item.ContentType,
		Title:           item.Title,
		URL:             item.URL,
		ContentHash:     hash,
		ConfidenceScore: item.ConfidenceScore,
		Priority:        item.Priority,
		Status:          domain.ContentStatusApproved,
		IsApproved:      true,
	}
	if !item.PublishedAt.IsZero() {
		content.DiscoveredAt = item.PublishedAt
	}

	insertErr := o.content.InsertDiscovered(ctx, content)
	switch {
	case errors.Is(insertErr, domain.ErrAlreadyExists):
		outcome.Duplicates++
	case insertErr != nil:
		outcome.Errors = append(outcome.Errors, domain.SanitizeError(insertErr))
		if trackErr := o.metrics.IncrementErrors(ctx, string(p)); trackErr != nil {
			o.logger.Warn("Failed to track item error",
				logger.String("platform", string(p)),
				logger.Error(trackErr),
			)
		}
		return
	default:
		outcome.Approved++
	}
	o.markSeen(ctx, p, hash)
}

func (o *Orchestrator) markSeen(ctx context.Context, p domain.Platform, hash string) {
	if err := o.dedup.MarkSeen(ctx, p, hash); err != nil {
		o.logger.Warn("Failed to mark content hash as seen",
			logger.String("platform", string(p)),
			logger.Error(err),
		)
	}
}

func (o *Orchestrator) failOutcome(ctx context.Context, outcome *domain.ScanOutcome, err error) {
	outcome.Success = false
	outcome.Errors = append(outcome.Errors, domain.SanitizeError(err))

	o.logger.Error("Platform scan failed",
		logger.String("platform", string(outcome.Platform)),
		logger.Error(err),
	)
	if trackErr := o.metrics.IncrementErrors(ctx, string(outcome.Platform)); trackErr != nil {
		o.logger.Warn("Failed to track platform error",
			logger.String("platform", string(outcome.Platform)),
			logger.Error(trackErr),
		)
	}
}

// contentHash fingerprints an item by platform, external id and URL.
func contentHash(p domain.Platform, externalID, url string) string {
	sum := sha256.Sum256([]byte(string(p) + "|" + externalID + "|" + url))
	return hex.EncodeToString(sum[:])
}
