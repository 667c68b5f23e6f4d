// Package worker provides the background loops: the posting poller that
// publishes due slots and the cron runner for periodic scan/refill.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/poster"
)

const (
	defaultProcessInterval = time.Minute
	defaultStaleAge        = 5 * time.Minute
	recoveryInterval       = time.Minute
)

// SlotRecoverer resets slots stuck in posting after a crash.
type SlotRecoverer interface {
	ResetStalePosting(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SlotPoster publishes the next due schedule slot.
type SlotPoster interface {
	ProcessScheduledPost(ctx context.Context) (*poster.PostResult, error)
}

// PostingWorker polls for due schedule slots and publishes them.
type PostingWorker struct {
	poster    SlotPoster
	recoverer SlotRecoverer
	logger    logger.Logger
	tracer    trace.Tracer

	processInterval time.Duration
	staleAge        time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// PostingWorkerConfig holds configuration options.
type PostingWorkerConfig struct {
	ProcessInterval time.Duration
	StalePostingAge time.Duration
}

func NewPostingWorker(p SlotPoster, recoverer SlotRecoverer, cfg PostingWorkerConfig, log logger.Logger) *PostingWorker {
	if cfg.ProcessInterval <= 0 {
		cfg.ProcessInterval = defaultProcessInterval
	}
	if cfg.StalePostingAge <= 0 {
		cfg.StalePostingAge = defaultStaleAge
	}

	return &PostingWorker{
		poster:          p,
		recoverer:       recoverer,
		logger:          log,
		tracer:          otel.Tracer("posting-worker"),
		processInterval: cfg.ProcessInterval,
		staleAge:        cfg.StalePostingAge,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the polling and recovery loops.
func (w *PostingWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.wg.Add(1)
	go w.runRecovery(ctx)

	w.logger.Info("posting worker started",
		logger.Duration("process_interval", w.processInterval),
		logger.Duration("stale_posting_age", w.staleAge))
}

// Stop gracefully stops the worker.
func (w *PostingWorker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("posting worker stopped")
}

// IsRunning returns whether the worker is currently running.
func (w *PostingWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

func (w *PostingWorker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.processInterval)
	defer ticker.Stop()

	// Process immediately on start.
	w.processOnce(ctx)

	for {
		select {
		case <-ticker.C:
			w.processOnce(ctx)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// processOnce drains every slot that is currently due. Each iteration
// claims exactly one slot, so concurrent workers interleave safely.
func (w *PostingWorker) processOnce(ctx context.Context) {
	for {
		spanCtx, span := w.tracer.Start(ctx, "worker.process_slot")

		result, err := w.poster.ProcessScheduledPost(spanCtx)
		if errors.Is(err, domain.ErrNoDueSlot) {
			span.End()
			return
		}
		if err != nil {
			w.logger.Error("failed to process scheduled post", logger.Error(err))
			span.End()
			return
		}

		if result.ContentID != nil {
			span.SetAttributes(attribute.String("content_id", result.ContentID.String()))
		}
		span.SetAttributes(attribute.Bool("success", result.Success))
		span.End()

		if !result.Success {
			w.logger.Warn("scheduled post skipped",
				logger.String("reason", result.Error))
		}
	}
}

// runRecovery resets slots stuck in "posting" back to "pending" so a
// crashed worker's claims are eventually retried.
func (w *PostingWorker) runRecovery(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(recoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			reset, err := w.recoverer.ResetStalePosting(ctx, w.staleAge)
			if err != nil {
				w.logger.Error("slot recovery failed", logger.Error(err))
			} else if reset > 0 {
				w.logger.Warn("recovered stale posting slots",
					logger.Int64("reset", reset))
			}
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}
