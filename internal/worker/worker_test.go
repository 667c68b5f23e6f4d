package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/poster"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/worker"
)

type fakeSlotPoster struct {
	mu      sync.Mutex
	results []*poster.PostResult
	errs    []error
	calls   int
}

func (f *fakeSlotPoster) ProcessScheduledPost(_ context.Context) (*poster.PostResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx < len(f.results) {
		return f.results[idx], nil
	}
	return nil, domain.ErrNoDueSlot
}

func (f *fakeSlotPoster) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecoverer struct {
	mu    sync.Mutex
	reset int64
	calls int
	err   error
}

func (f *fakeRecoverer) ResetStalePosting(_ context.Context, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reset, f.err
}

func TestPostingWorker_StartStop(t *testing.T) {
	p := &fakeSlotPoster{}
	w := worker.NewPostingWorker(p, &fakeRecoverer{}, worker.PostingWorkerConfig{
		ProcessInterval: 10 * time.Millisecond,
	}, logger.NewNopLogger())

	if w.IsRunning() {
		t.Error("worker should not be running before Start")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)
	if !w.IsRunning() {
		t.Error("worker should be running after Start")
	}

	// Starting twice must not spawn a second loop.
	w.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	w.Stop()

	if p.callCount() == 0 {
		t.Error("expected at least one ProcessScheduledPost call")
	}
}

func TestPostingWorker_DrainsDueSlots(t *testing.T) {
	contentID := uuid.New()
	p := &fakeSlotPoster{
		results: []*poster.PostResult{
			{Success: true, ContentID: &contentID, PostOrder: 1},
			{Success: true, ContentID: &contentID, PostOrder: 2},
		},
	}
	w := worker.NewPostingWorker(p, &fakeRecoverer{}, worker.PostingWorkerConfig{
		ProcessInterval: time.Hour,
	}, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	// Two successful posts plus the ErrNoDueSlot that ends the drain.
	if got := p.callCount(); got != 3 {
		t.Errorf("ProcessScheduledPost calls = %d, want 3", got)
	}
}

func TestPostingWorker_StopsDrainOnError(t *testing.T) {
	p := &fakeSlotPoster{
		errs: []error{errors.New("db down")},
	}
	w := worker.NewPostingWorker(p, &fakeRecoverer{}, worker.PostingWorkerConfig{
		ProcessInterval: time.Hour,
	}, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	if got := p.callCount(); got != 1 {
		t.Errorf("ProcessScheduledPost calls = %d, want 1", got)
	}
}

type fakeScanRunner struct{}

func (fakeScanRunner) PerformCoordinatedScan(context.Context) (*domain.CoordinatedScanResult, error) {
	return &domain.CoordinatedScanResult{}, nil
}

type fakeRefillRunner struct{}

func (fakeRefillRunner) RefillTwoDays(context.Context, string) (*domain.TwoDayResult, error) {
	return &domain.TwoDayResult{}, nil
}

type fakeSettingsStore struct {
	cfg *domain.CoordinationConfig
	err error
}

func (f *fakeSettingsStore) Get(context.Context) (*domain.CoordinationConfig, error) {
	return f.cfg, f.err
}

func TestCronRunner_StartStop(t *testing.T) {
	cfg := domain.DefaultCoordinationConfig()
	r := worker.NewCronRunner(fakeScanRunner{}, fakeRefillRunner{}, &fakeSettingsStore{cfg: cfg}, logger.NewNopLogger())

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	r.Stop()
}

func TestCronRunner_SettingsFailureFallsBack(t *testing.T) {
	r := worker.NewCronRunner(fakeScanRunner{}, fakeRefillRunner{}, &fakeSettingsStore{err: errors.New("db down")}, logger.NewNopLogger())

	// A settings outage must not block the periodic jobs.
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	r.Stop()
}

func TestPostingWorkerConfig_Defaults(t *testing.T) {
	w := worker.NewPostingWorker(&fakeSlotPoster{}, &fakeRecoverer{}, worker.PostingWorkerConfig{}, logger.NewNopLogger())
	if w == nil {
		t.Fatal("NewPostingWorker returned nil")
	}
	// Zero-value config must not panic Start with a zero ticker interval.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	w.Stop()
}
