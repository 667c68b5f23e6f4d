package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
)

// ScanRunner triggers a coordinated scan across all enabled platforms.
type ScanRunner interface {
	PerformCoordinatedScan(ctx context.Context) (*domain.CoordinatedScanResult, error)
}

// RefillRunner tops up missing schedule slots for today and tomorrow.
type RefillRunner interface {
	RefillTwoDays(ctx context.Context, date string) (*domain.TwoDayResult, error)
}

// SettingsStore supplies the coordination config that sets the scan cadence.
type SettingsStore interface {
	Get(ctx context.Context) (*domain.CoordinationConfig, error)
}

// CronRunner drives the periodic scan and schedule-refill jobs. The scan
// cadence follows the persisted coordination settings; the refill runs on
// a fixed hourly schedule so newly approved content lands in empty slots
// without operator action.
type CronRunner struct {
	scanner  ScanRunner
	refiller RefillRunner
	settings SettingsStore
	logger   logger.Logger

	cron *cron.Cron
	now  func() time.Time
}

func NewCronRunner(scanner ScanRunner, refiller RefillRunner, settings SettingsStore, log logger.Logger) *CronRunner {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	return &CronRunner{
		scanner:  scanner,
		refiller: refiller,
		settings: settings,
		logger:   log,
		cron:     c,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the cron loop. The scan interval is
// read from settings once at startup; restart the worker to apply a change.
func (r *CronRunner) Start(ctx context.Context) error {
	interval := domain.MinScanInterval
	cfg, err := r.settings.Get(ctx)
	if err != nil {
		r.logger.Warn("falling back to minimum scan interval",
			logger.Error(err),
			logger.Duration("interval", interval))
	} else {
		interval = cfg.ScanInterval
	}

	scanSpec := everySpec(interval)
	if _, err := r.cron.AddFunc(scanSpec, func() { r.runScan(ctx) }); err != nil {
		return err
	}

	// Top of every hour.
	if _, err := r.cron.AddFunc("0 * * * *", func() { r.runRefill(ctx) }); err != nil {
		return err
	}

	r.cron.Start()
	r.logger.Info("cron runner started",
		logger.String("scan_spec", scanSpec),
		logger.Duration("scan_interval", interval))
	return nil
}

// Stop stops the cron loop and waits for running jobs to finish.
func (r *CronRunner) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.logger.Info("cron runner stopped")
}

func (r *CronRunner) runScan(ctx context.Context) {
	result, err := r.scanner.PerformCoordinatedScan(ctx)
	if errors.Is(err, domain.ErrScanInProgress) {
		r.logger.Info("skipping scheduled scan, another scan in flight")
		return
	}
	if err != nil {
		r.logger.Error("scheduled scan failed", logger.Error(err))
		return
	}

	r.logger.Info("scheduled scan completed",
		logger.Int("total_found", result.TotalFound),
		logger.Int("total_approved", result.TotalApproved),
		logger.Int("successful_platforms", result.SuccessfulPlatforms),
		logger.Int("failed_platforms", result.FailedPlatforms))
}

func (r *CronRunner) runRefill(ctx context.Context) {
	today := r.now().Format(domain.DateFormat)
	result, err := r.refiller.RefillTwoDays(ctx, today)
	if err != nil {
		r.logger.Error("scheduled refill failed", logger.Error(err))
		return
	}

	r.logger.Info("scheduled refill completed",
		logger.String("date", today),
		logger.Int("total_scheduled", result.Summary.TotalScheduled),
		logger.Int("total_errors", len(result.Summary.Errors)))
}

// everySpec converts an interval to a 5-field cron spec. A step value
// gives a fixed cadence only when it divides the field's range, so the
// interval is rounded up to the next achievable cadence; the result
// never fires more often than the requested interval.
func everySpec(d time.Duration) string {
	minutes := int(d / time.Minute)
	if floor := int(domain.MinScanInterval / time.Minute); minutes < floor {
		minutes = floor
	}
	if minutes <= 30 {
		for 60%minutes != 0 {
			minutes++
		}
		return fmt.Sprintf("*/%d * * * *", minutes)
	}

	hours := (minutes + 59) / 60
	for hours <= 12 && 24%hours != 0 {
		hours++
	}
	switch {
	case hours > 12:
		return "0 0 * * *"
	case hours == 1:
		return "0 * * * *"
	default:
		return fmt.Sprintf("0 */%d * * *", hours)
	}
}
