// Package app provides the application lifecycle: dependency wiring,
// startup, graceful shutdown and the one-shot command entry points.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/api"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/config"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/database"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/dedup"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/metrics"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/platform"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/poster"
	redisclient "github.com/ashaw315/hotdog-diaries-sub008/internal/redis"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/scanner"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/scheduler"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/worker"
)

// DefaultShutdownTimeout bounds graceful HTTP shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// App holds the wired application with all its dependencies.
type App struct {
	config      *config.Config
	logger      logger.Logger
	db          *sqlx.DB
	redisClient goredis.UniversalClient
	registry    *platform.Registry

	orchestrator *scanner.Orchestrator
	scheduler    *scheduler.Scheduler
	poster       *poster.Poster
	dedupTracker *dedup.Tracker
	settingsRepo *database.SettingsRepository
	slotRepo     *database.SlotRepository
	scanRepo     *database.ScanRepository

	promRegistry *prometheus.Registry
	httpServer   *http.Server
	version      string
}

// Options configures App construction.
type Options struct {
	ConfigPath string
	Version    string
}

// New loads configuration and wires every component. The platform
// registry starts empty; callers register adapters before Run.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "content-coordinator"),
		logger.String("version", opts.Version),
	)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if migrateErr := database.Migrate(db); migrateErr != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("run migrations: %w", migrateErr)
	}

	redisClient, err := redisclient.NewClient(&cfg.Redis)
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	promMetrics := metrics.NewPromMetrics(promRegistry)
	recorder := metrics.NewTracker(redisClient, appLogger, promMetrics)

	dedupTracker := dedup.NewTracker(redisClient, cfg.Scanning.DedupTTL, appLogger)
	registry := platform.NewRegistry()

	contentRepo := database.NewContentRepository(db)
	slotRepo := database.NewSlotRepository(db)
	postingRepo := database.NewPostingRepository(db)
	scanRepo := database.NewScanRepository(db)
	settingsRepo := database.NewSettingsRepository(db)

	orchestrator := scanner.NewOrchestrator(cfg.Scanning, scanner.OrchestratorDeps{
		Registry: registry,
		Content:  contentRepo,
		Audit:    scanRepo,
		Settings: settingsRepo,
		Dedup:    dedupTracker,
		Metrics:  recorder,
		Guard:    scanner.NewGuard(redisClient),
		Quota:    scanner.NewQuotaTracker(redisClient, cfg.Scanning.DailyQuota),
		Prom:     promMetrics,
		Logger:   appLogger,
	})

	sched := scheduler.NewScheduler(contentRepo, slotRepo, settingsRepo, cfg.Posting.SlotTimes, appLogger)

	post := poster.NewPoster(postingRepo, contentRepo, slotRepo, recorder, promMetrics,
		cfg.Posting.LowWaterMark, appLogger)

	return &App{
		config:       cfg,
		logger:       appLogger,
		db:           db,
		redisClient:  redisClient,
		registry:     registry,
		orchestrator: orchestrator,
		scheduler:    sched,
		poster:       post,
		dedupTracker: dedupTracker,
		settingsRepo: settingsRepo,
		slotRepo:     slotRepo,
		scanRepo:     scanRepo,
		promRegistry: promRegistry,
		version:      opts.Version,
	}, nil
}

// Registry exposes the platform registry for adapter registration.
func (a *App) Registry() *platform.Registry {
	return a.registry
}

// Logger returns the application logger.
func (a *App) Logger() logger.Logger {
	return a.logger
}

// Run starts the HTTP server and the background workers, then blocks
// until a shutdown signal or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	router := api.NewRouter(a.config, api.RouterDeps{
		Scanner:   a.orchestrator,
		ScanAudit: a.scanRepo,
		Scheduler: a.scheduler,
		Poster:    a.poster,
		Settings:  a.settingsRepo,
		DB:        a,
		Redis:     a.redisClient,
		Registry:  a.promRegistry,
		Logger:    a.logger,
	})

	a.httpServer = &http.Server{
		Addr:         a.config.Server.Address,
		Handler:      router.Engine(),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()

	postingWorker := worker.NewPostingWorker(a.poster, a.slotRepo, worker.PostingWorkerConfig{
		ProcessInterval: a.config.Posting.ProcessInterval,
		StalePostingAge: a.config.Posting.StalePostingAge,
	}, a.logger)
	postingWorker.Start(workerCtx)

	cronRunner := worker.NewCronRunner(a.orchestrator, a.scheduler, a.settingsRepo, a.logger)
	if err := cronRunner.Start(workerCtx); err != nil {
		postingWorker.Stop()
		return fmt.Errorf("start cron runner: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening",
			logger.String("address", a.config.Server.Address))
		serverErr <- a.httpServer.ListenAndServe()
	}()

	err := a.waitForShutdown(ctx, serverErr)

	workerCancel()
	cronRunner.Stop()
	postingWorker.Stop()
	return err
}

func (a *App) waitForShutdown(ctx context.Context, serverErr chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		a.logger.Info("Shutting down gracefully",
			logger.String("signal", sig.String()))
		a.shutdownHTTPServer()
		return nil

	case <-ctx.Done():
		a.shutdownHTTPServer()
		return ctx.Err()

	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", logger.Error(err))
			return err
		}
		return nil
	}
}

func (a *App) shutdownHTTPServer() {
	if a.httpServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error", logger.Error(err))
	} else {
		a.logger.Info("HTTP server stopped")
	}
}

// Ping checks database connectivity. Satisfies the API health check.
func (a *App) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Scan runs one coordinated scan and returns its result.
func (a *App) Scan(ctx context.Context) (*domain.CoordinatedScanResult, error) {
	return a.orchestrator.PerformCoordinatedScan(ctx)
}

// Schedule runs a single-day schedule generation, or a today+tomorrow
// refill when twoDays is set.
func (a *App) Schedule(ctx context.Context, date string, mode domain.ScheduleMode, twoDays bool) (any, error) {
	if twoDays {
		return a.scheduler.RefillTwoDays(ctx, date)
	}
	return a.scheduler.GenerateSchedule(ctx, date, mode)
}

// FlushDedup clears the content deduplication cache.
func (a *App) FlushDedup(ctx context.Context) error {
	return a.dedupTracker.FlushAll(ctx)
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Failed to close database", logger.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", logger.Error(err))
		}
	}
	return a.logger.Sync()
}
